package osu

import (
	"fmt"
	"strings"
)

// Object type bits, as they appear in the fifth record column. A raw type
// value can carry several of them plus combo bits; kind dispatch takes the
// first match in the order listed here.
const (
	TypeCircle   uint32 = 0x01
	TypeSlider   uint32 = 0x02
	TypeSpinner  uint32 = 0x08
	TypeLongNote uint32 = 0x80
)

// HitObjectBase carries the five columns every object record starts with.
type HitObjectBase struct {
	X        uint32 // 0 to 512
	Y        uint32 // 0 to 384
	Time     uint32 // ms
	Type     uint32 // raw bit field
	HitSound uint32
}

// Base returns the shared fields; embedding promotes it onto every
// variant, so any HitObject yields its position and time the same way.
func (b HitObjectBase) Base() HitObjectBase { return b }

type ObjectKind uint8

const (
	KindCircle ObjectKind = iota
	KindSlider
	KindSpinner
	KindLongNote
	KindOther
)

func (k ObjectKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	case KindLongNote:
		return "long note"
	}
	return "other"
}

// HitObject is one playable element. Concrete types are Circle, Slider,
// Spinner, LongNote and Other.
type HitObject interface {
	Kind() ObjectKind
	Base() HitObjectBase
}

type Circle struct {
	HitObjectBase
}

func (Circle) Kind() ObjectKind { return KindCircle }

// Slider keeps the slider-specific columns as zeroed placeholders: curve
// geometry and pixel length are present in the record but not modeled.
type Slider struct {
	HitObjectBase
	SliderType   uint32
	Repeat       uint32
	EdgeHitsound uint32
	EdgeAddition uint32
}

func (Slider) Kind() ObjectKind { return KindSlider }

// Spinner's EndTime is not extracted from the record yet and stays 0.
type Spinner struct {
	HitObjectBase
	EndTime uint32
}

func (Spinner) Kind() ObjectKind { return KindSpinner }

// LongNote is the mania hold note; EndTime comes from the sixth column.
type LongNote struct {
	HitObjectBase
	EndTime uint32 // ms
}

func (LongNote) Kind() ObjectKind { return KindLongNote }

// Other holds records whose type bits match no known kind.
type Other struct {
	HitObjectBase
}

func (Other) Kind() ObjectKind { return KindOther }

// decodeHitObjects requires at least six fields per record. Kind dispatch
// tests the type bits in fixed priority order: circle, slider, spinner,
// long note, then the catch-all. The bits are not exclusive in the wild,
// so the order matters.
func (d *decoder) decodeHitObjects(objects *[]HitObject) error {
	for {
		line, ok, err := d.scan.nextContent()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fields := strings.Split(line, ",")
		if len(fields) < 6 {
			return fmt.Errorf("%w: %q", ErrMalformedHitObject, line)
		}
		var base HitObjectBase
		if base.X, err = parseUint32("x", fields[0]); err != nil {
			return err
		}
		if base.Y, err = parseUint32("y", fields[1]); err != nil {
			return err
		}
		if base.Time, err = parseUint32("time", fields[2]); err != nil {
			return err
		}
		if base.Type, err = parseUint32("type", fields[3]); err != nil {
			return err
		}
		if base.HitSound, err = parseUint32("hitSound", fields[4]); err != nil {
			return err
		}

		var obj HitObject
		switch {
		case base.Type&TypeCircle != 0:
			obj = Circle{HitObjectBase: base}
		case base.Type&TypeSlider != 0:
			obj = Slider{HitObjectBase: base}
		case base.Type&TypeSpinner != 0:
			obj = Spinner{HitObjectBase: base}
		case base.Type&TypeLongNote != 0:
			// endTime:sample extras; only the end time is kept.
			end := fields[5]
			if i := strings.Index(end, ":"); i >= 0 {
				end = end[:i]
			}
			var endTime uint32
			if endTime, err = parseUint32("endTime", end); err != nil {
				return err
			}
			obj = LongNote{HitObjectBase: base, EndTime: endTime}
		default:
			obj = Other{HitObjectBase: base}
		}
		*objects = append(*objects, obj)
	}
}
