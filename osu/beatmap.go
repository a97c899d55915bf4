// Package osu decodes beatmaps in the .osu text format: a version header,
// followed by [Section] blocks holding either Key: Value lines or
// comma-separated records. Decoding produces a complete document or a single
// error; there is no partial result.
package osu

import (
	"errors"
	"fmt"
	"strconv"
)

// Beatmap is one fully decoded .osu file. Slices keep file order.
type Beatmap struct {
	General      General
	Metadata     Metadata
	Difficulty   Difficulty
	Events       []Event
	TimingPoints []TimingPoint
	HitObjects   []HitObject
}

// General holds the [General] playback settings. Zero values stand in for
// anything the file does not mention.
type General struct {
	AudioFilename        string
	AudioLeadIn          uint32 // ms
	PreviewTime          uint32 // ms
	Countdown            bool
	SampleSet            string
	StackLeniency        float64
	Mode                 Mode
	LetterboxInBreaks    bool
	WidescreenStoryboard bool
}

// Metadata holds the [Metadata] section.
type Metadata struct {
	Title         string
	TitleUnicode  string
	Artist        string
	ArtistUnicode string
	Creator       string
	Version       string // difficulty name, not a number
	Source        string
	Tags          []string
	BeatmapID     uint64
	BeatmapSetID  uint64
}

// Difficulty holds the [Difficulty] tuning parameters.
type Difficulty struct {
	HPDrainRate       float64
	CircleSize        float64
	OverallDifficulty float64
	ApproachRate      float64
	SliderMultiplier  float64
	SliderTickRate    float64
}

// Mode is the game mode code from the [General] section.
type Mode uint32

const (
	ModeStandard Mode = iota
	ModeTaiko
	ModeCatchTheBeat
	ModeMania
)

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeTaiko:
		return "taiko"
	case ModeCatchTheBeat:
		return "catch the beat"
	case ModeMania:
		return "mania"
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// ParseMode converts a numeric mode token. Codes outside 0-3 are rejected.
func ParseMode(s string) (Mode, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return ModeStandard, fmt.Errorf("%w: Mode %q", ErrInvalidNumber, s)
	}
	if v > uint64(ModeMania) {
		return ModeStandard, fmt.Errorf("%w: %d", ErrUnknownMode, v)
	}
	return Mode(v), nil
}

// Validate reports basic completeness problems. Decode never calls it;
// callers opt in when they need a usable chart rather than a faithful one.
func (b *Beatmap) Validate() error {
	if b.Metadata.Title == "" && b.Metadata.TitleUnicode == "" {
		return errors.New("missing title")
	}
	if b.Metadata.Artist == "" && b.Metadata.ArtistUnicode == "" {
		return errors.New("missing artist")
	}
	if b.General.AudioFilename == "" {
		return errors.New("missing AudioFilename in [General]")
	}
	return nil
}
