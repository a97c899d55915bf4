package osu

import (
	"fmt"
	"strings"
)

// TimingPoint is one record of the [TimingPoints] section. When Inherited
// is set, MsPerBeat holds a delta on top of the previous point's resolved
// value instead of an absolute tempo; see Inherit.
type TimingPoint struct {
	Offset     uint32 // ms
	MsPerBeat  float64
	Meter      uint32 // beats per measure
	SampleType uint32
	SampleSet  uint32
	Volume     uint32 // 0 to 100
	KiaiMode   bool
	Inherited  bool
}

// Inherit resolves the point against prev, the previous point in resolved
// form. Non-inherited points come back unchanged. Records are stored in
// file order, so resolving a whole beatmap means folding left to right and
// feeding each result back in as the next prev; ResolveTimingPoints does
// exactly that.
func (p TimingPoint) Inherit(prev TimingPoint) TimingPoint {
	if !p.Inherited {
		return p
	}
	p.MsPerBeat = prev.MsPerBeat + p.MsPerBeat
	p.Inherited = prev.Inherited
	return p
}

// ResolveTimingPoints returns points with every inherited tempo resolved
// to an absolute one. The input slice is left untouched. A leading
// inherited point resolves against the zero point.
func ResolveTimingPoints(points []TimingPoint) []TimingPoint {
	out := make([]TimingPoint, len(points))
	var prev TimingPoint
	for i, p := range points {
		prev = p.Inherit(prev)
		out[i] = prev
	}
	return out
}

// decodeTimingPoints requires exactly eight fields per record; anything
// else fails the decode. There is no Events-style skipping here.
func (d *decoder) decodeTimingPoints(points *[]TimingPoint) error {
	for {
		line, ok, err := d.scan.nextContent()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fields := strings.Split(line, ",")
		if len(fields) != 8 {
			return fmt.Errorf("%w: %q", ErrMalformedTimingPoint, line)
		}
		var p TimingPoint
		if p.Offset, err = parseUint32("offset", fields[0]); err != nil {
			return err
		}
		if p.MsPerBeat, err = parseFloat("msPerBeat", fields[1]); err != nil {
			return err
		}
		if p.Meter, err = parseUint32("meter", fields[2]); err != nil {
			return err
		}
		if p.SampleType, err = parseUint32("sampleType", fields[3]); err != nil {
			return err
		}
		if p.SampleSet, err = parseUint32("sampleSet", fields[4]); err != nil {
			return err
		}
		if p.Volume, err = parseUint32("volume", fields[5]); err != nil {
			return err
		}
		uninherited, err := parseBool("uninherited", fields[6])
		if err != nil {
			return err
		}
		p.Inherited = !uninherited
		if p.KiaiMode, err = parseBool("kiai", fields[7]); err != nil {
			return err
		}
		*points = append(*points, p)
	}
}
