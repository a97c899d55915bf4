package osu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// headerPrefix opens every .osu file, followed by the format version.
const headerPrefix = "osu file format"

// DecodeFile decodes the .osu file at path.
func DecodeFile(path string) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a .osu document from r.
func Decode(r io.Reader) (*Beatmap, error) {
	sc := bufio.NewScanner(r)
	const maxLine = 1024 * 1024
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)
	return DecodeLines(&lineSource{sc: sc})
}

// DecodeLines decodes from a caller-owned line source. Decode and
// DecodeFile are conveniences over this entry point.
func DecodeLines(src LineReader) (*Beatmap, error) {
	d := &decoder{scan: &scanner{src: src}}
	return d.run()
}

type lineSource struct {
	sc *bufio.Scanner
}

func (l *lineSource) ReadLine() (string, error) {
	if l.sc.Scan() {
		return l.sc.Text(), nil
	}
	if err := l.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// decoder owns the document under construction and walks the scanner from
// section to section. One decoder serves exactly one parse.
type decoder struct {
	scan *scanner
}

func (d *decoder) run() (*Beatmap, error) {
	if err := d.header(); err != nil {
		return nil, err
	}
	b := &Beatmap{}
	for {
		name, ok, err := d.scan.nextSection()
		if err != nil {
			return nil, err
		}
		if !ok {
			return b, nil
		}
		if err := d.section(name, b); err != nil {
			return nil, err
		}
	}
}

// header consumes exactly one raw line before any scanning starts. The
// line is matched untrimmed, so nothing may precede the format marker.
func (d *decoder) header() error {
	line, err := d.scan.src.ReadLine()
	if err == io.EOF {
		return ErrEmptyInput
	}
	if err != nil {
		return fmt.Errorf("osu: read header: %w", err)
	}
	if !strings.HasPrefix(line, headerPrefix) {
		return fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	return nil
}

// section routes one named section to its mapper. Sections this package
// does not model are drained so scanning resumes at the next header.
func (d *decoder) section(name string, b *Beatmap) error {
	switch name {
	case "General":
		return d.decodeGeneral(&b.General)
	case "Metadata":
		return d.decodeMetadata(&b.Metadata)
	case "Difficulty":
		return d.decodeDifficulty(&b.Difficulty)
	case "Events":
		return d.decodeEvents(&b.Events)
	case "TimingPoints":
		return d.decodeTimingPoints(&b.TimingPoints)
	case "HitObjects":
		return d.decodeHitObjects(&b.HitObjects)
	}
	return d.drain()
}

func (d *decoder) drain() error {
	for {
		_, ok, err := d.scan.nextContent()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// ---------- key-value sections ----------

// Unrecognized keys are skipped in all three mappers; a bad value under a
// recognized key fails the decode.

func (d *decoder) decodeGeneral(g *General) error {
	for {
		k, v, ok, err := d.scan.nextKeyValue()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch k {
		case "AudioFilename":
			g.AudioFilename = v
		case "AudioLeadIn":
			g.AudioLeadIn, err = parseUint32(k, v)
		case "PreviewTime":
			g.PreviewTime, err = parseUint32(k, v)
		case "Countdown":
			g.Countdown, err = parseBool(k, v)
		case "SampleSet":
			g.SampleSet = v
		case "StackLeniency":
			g.StackLeniency, err = parseFloat(k, v)
		case "Mode":
			g.Mode, err = ParseMode(v)
		case "LetterboxInBreaks":
			g.LetterboxInBreaks, err = parseBool(k, v)
		case "WidescreenStoryboard":
			g.WidescreenStoryboard, err = parseBool(k, v)
		}
		if err != nil {
			return err
		}
	}
}

func (d *decoder) decodeMetadata(m *Metadata) error {
	for {
		k, v, ok, err := d.scan.nextKeyValue()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch k {
		case "Title":
			m.Title = v
		case "TitleUnicode":
			m.TitleUnicode = v
		case "Artist":
			m.Artist = v
		case "ArtistUnicode":
			m.ArtistUnicode = v
		case "Creator":
			m.Creator = v
		case "Version":
			m.Version = v
		case "Source":
			m.Source = v
		case "Tags":
			// Single-space separated; consecutive spaces produce empty
			// tags rather than being collapsed.
			m.Tags = strings.Split(v, " ")
		case "BeatmapID":
			m.BeatmapID, err = parseUint64(k, v)
		case "BeatmapSetID":
			m.BeatmapSetID, err = parseUint64(k, v)
		}
		if err != nil {
			return err
		}
	}
}

func (d *decoder) decodeDifficulty(diff *Difficulty) error {
	for {
		k, v, ok, err := d.scan.nextKeyValue()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch k {
		case "HPDrainRate":
			diff.HPDrainRate, err = parseFloat(k, v)
		case "CircleSize":
			diff.CircleSize, err = parseFloat(k, v)
		case "OverallDifficulty":
			diff.OverallDifficulty, err = parseFloat(k, v)
		case "ApproachRate":
			diff.ApproachRate, err = parseFloat(k, v)
		case "SliderMultiplier":
			diff.SliderMultiplier, err = parseFloat(k, v)
		case "SliderTickRate":
			diff.SliderTickRate, err = parseFloat(k, v)
		}
		if err != nil {
			return err
		}
	}
}
