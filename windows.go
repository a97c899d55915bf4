package main

import "osukit/osu"

// MapValues are the display constants derived from a chart's [Difficulty]
// settings at a given playback rate.
type MapValues struct {
	Rate         float64
	CircleRadius float64
	ApproachRate float64
	Preempt      float64 // ms a note is visible before its hit time
	Window300    float64 // +- ms
	Window100    float64
	Window50     float64
}

// DeriveMapValues computes circle radius, approach preempt and the three
// hit windows. rate scales the time-based values the way a speed modifier
// would; 1.0 leaves the chart as written.
func DeriveMapValues(diff osu.Difficulty, rate float64) MapValues {
	circleRadius := 54.4 - 4.48*diff.CircleSize

	preempt := ApproachRateToPreempt(diff.ApproachRate) / rate
	ar := PreemptToAR(preempt)

	od := diff.OverallDifficulty
	window300 := (80 - 6*od) / rate
	window100 := (140 - 8*od) / rate
	window50 := (200 - 10*od) / rate

	return MapValues{
		Rate:         rate,
		CircleRadius: circleRadius,
		ApproachRate: ar,
		Preempt:      preempt,
		Window300:    window300,
		Window100:    window100,
		Window50:     window50,
	}
}

func ApproachRateToPreempt(ar float64) float64 {
	if ar < 5 {
		return 1200 + 120*(5-ar)
	} else if ar == 5 {
		return 1200
	} else {
		return 1200 - 150*(ar-5)
	}
}

func PreemptToAR(preempt float64) float64 {
	if preempt > 1200 {
		return 5 - (preempt-1200)/120
	} else if preempt == 1200 {
		return 5
	} else {
		return 5 + (1200-preempt)/150
	}
}
