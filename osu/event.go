package osu

import (
	"strconv"
	"strings"
)

// Event is one record of the [Events] section. The concrete types are
// BackgroundMedia, Sprite and Animation.
type Event interface {
	event()
}

// BackgroundMedia is the catch-all event: backgrounds, videos and any
// record type this package does not model land here, keeping only the
// path column.
type BackgroundMedia struct {
	Filepath string
}

// Sprite is a storyboard image placement.
type Sprite struct {
	Layer    string
	Origin   string
	Filepath string
	X, Y     uint32
}

// Animation is a storyboard frame sequence.
type Animation struct {
	Layer      string
	Origin     string
	Filepath   string
	X, Y       uint32
	FrameCount uint32
	FrameDelay uint32 // ms per frame
	LoopType   string
}

func (BackgroundMedia) event() {}
func (Sprite) event()          {}
func (Animation) event()       {}

// decodeEvents is deliberately lenient, unlike the record mappers that
// follow it: records with the wrong field count or an unparseable number
// are dropped without error, so storyboard extensions this package does
// not know cannot fail the decode.
func (d *decoder) decodeEvents(events *[]Event) error {
	for {
		line, ok, err := d.scan.nextContent()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fields := strings.Split(line, ",")
		if strings.HasPrefix(fields[0], " ") || strings.HasPrefix(fields[0], "_") {
			continue // storyboard command continuation
		}
		switch fields[0] {
		case "Sprite":
			if len(fields) != 6 {
				continue
			}
			x, xErr := strconv.ParseUint(fields[4], 10, 32)
			y, yErr := strconv.ParseUint(fields[5], 10, 32)
			if xErr != nil || yErr != nil {
				continue
			}
			*events = append(*events, Sprite{
				Layer:    fields[1],
				Origin:   fields[2],
				Filepath: trimQuotes(fields[3]),
				X:        uint32(x),
				Y:        uint32(y),
			})
		case "Animation":
			if len(fields) != 9 {
				continue
			}
			x, xErr := strconv.ParseUint(fields[4], 10, 32)
			y, yErr := strconv.ParseUint(fields[5], 10, 32)
			frames, fErr := strconv.ParseUint(fields[6], 10, 32)
			delay, dErr := strconv.ParseUint(fields[7], 10, 32)
			if xErr != nil || yErr != nil || fErr != nil || dErr != nil {
				continue
			}
			*events = append(*events, Animation{
				Layer:      fields[1],
				Origin:     fields[2],
				Filepath:   trimQuotes(fields[3]),
				X:          uint32(x),
				Y:          uint32(y),
				FrameCount: uint32(frames),
				FrameDelay: uint32(delay),
				LoopType:   fields[8],
			})
		default:
			if len(fields) != 5 {
				continue
			}
			*events = append(*events, BackgroundMedia{
				Filepath: trimQuotes(fields[3]),
			})
		}
	}
}
