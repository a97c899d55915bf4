package osu

import "errors"

// Decode failures wrap exactly one of these sentinels, so callers can sort
// them with errors.Is. Failures of the line source itself are not in this
// list; they come back wrapped around the source's own error instead.
var (
	ErrEmptyInput           = errors.New("osu: empty input")
	ErrMalformedHeader      = errors.New("osu: malformed header")
	ErrExpectedSection      = errors.New("osu: expected a section")
	ErrFieldOutsideSection  = errors.New("osu: expected a section, not a field")
	ErrMalformedField       = errors.New("osu: malformed key-value field")
	ErrMalformedTimingPoint = errors.New("osu: malformed timing point record")
	ErrMalformedHitObject   = errors.New("osu: malformed hit object record")
	ErrInvalidBool          = errors.New("osu: invalid boolean token")
	ErrInvalidNumber        = errors.New("osu: invalid numeric token")
	ErrUnknownMode          = errors.New("osu: unknown mode code")
)
