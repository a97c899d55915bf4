package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"osukit/osu"
)

// runInspect decodes one chart and prints a summary with derived values
// and an object-density bar sized to the terminal.
func runInspect(path string, rate float64) error {
	bm, err := osu.DecodeFile(path)
	if err != nil {
		return err
	}

	counts := countKinds(bm.HitObjects)
	values := DeriveMapValues(bm.Difficulty, rate)

	fmt.Printf("    Title:  %v\n", displayTitle(bm.Metadata))
	fmt.Printf("   Artist:  %v\n", displayArtist(bm.Metadata))
	fmt.Printf("  Version:  %v\n", bm.Metadata.Version)
	fmt.Printf("  Creator:  %v\n", bm.Metadata.Creator)
	fmt.Printf("     Mode:  %v\n", bm.General.Mode)
	fmt.Printf("    Audio:  %v\n", bm.General.AudioFilename)
	if len(bm.Metadata.Tags) > 0 {
		fmt.Printf("     Tags:  %v\n", strings.Join(bm.Metadata.Tags, " "))
	}
	fmt.Println()
	fmt.Printf("  Objects:  %v (%v circles, %v sliders, %v spinners, %v long notes)\n",
		len(bm.HitObjects), counts.Circles, counts.Sliders, counts.Spinners, counts.LongNotes)
	fmt.Printf("   Events:  %v\n", len(bm.Events))
	if lo, hi, ok := tempoRange(bm.TimingPoints); ok {
		if lo == hi {
			fmt.Printf("    Tempo:  %.1f bpm\n", lo)
		} else {
			fmt.Printf("    Tempo:  %.1f-%.1f bpm\n", lo, hi)
		}
	}
	fmt.Println()
	fmt.Printf("       CS:  %.1f (radius %.1f)\n", bm.Difficulty.CircleSize, values.CircleRadius)
	fmt.Printf("       AR:  %.2f (preempt %.0f ms)\n", values.ApproachRate, values.Preempt)
	fmt.Printf("       OD:  %.1f (300: %.1f ms, 100: %.1f ms, 50: %.1f ms)\n",
		bm.Difficulty.OverallDifficulty, values.Window300, values.Window100, values.Window50)
	fmt.Printf("       HP:  %.1f\n", bm.Difficulty.HPDrainRate)

	if err := bm.Validate(); err != nil {
		fmt.Printf("\n  warning:  %v\n", err)
	}

	if len(bm.HitObjects) > 0 {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || width < 16 {
			width = 80
		}
		fmt.Printf("\n%s\n", densityBar(objectTimes(bm.HitObjects), width))
	}
	return nil
}

func displayTitle(m osu.Metadata) string {
	if m.Title != "" {
		return m.Title
	}
	return m.TitleUnicode
}

func displayArtist(m osu.Metadata) string {
	if m.Artist != "" {
		return m.Artist
	}
	return m.ArtistUnicode
}

// tempoRange returns the slowest and fastest tempo of the chart's
// uninherited timing points, in beats per minute.
func tempoRange(points []osu.TimingPoint) (lo, hi float64, ok bool) {
	for _, p := range points {
		if p.Inherited || p.MsPerBeat <= 0 {
			continue
		}
		bpm := 60000 / p.MsPerBeat
		if !ok || bpm < lo {
			lo = bpm
		}
		if !ok || bpm > hi {
			hi = bpm
		}
		ok = true
	}
	return lo, hi, ok
}

func objectTimes(objects []osu.HitObject) []uint32 {
	times := make([]uint32, len(objects))
	for i, obj := range objects {
		times[i] = obj.Base().Time
	}
	return times
}

var densityLevels = []rune(" ▁▂▃▄▅▆▇█")

// densityBar renders hit-object density across the chart's duration as a
// width-character sparkline.
func densityBar(times []uint32, width int) string {
	if len(times) == 0 || width <= 0 {
		return ""
	}
	var maxTime uint32
	for _, t := range times {
		if t > maxTime {
			maxTime = t
		}
	}

	buckets := make([]int, width)
	for _, t := range times {
		i := 0
		if maxTime > 0 {
			i = int(uint64(t) * uint64(width-1) / uint64(maxTime))
		}
		buckets[i]++
	}
	peak := 0
	for _, n := range buckets {
		if n > peak {
			peak = n
		}
	}

	bar := make([]rune, width)
	for i, n := range buckets {
		level := 0
		if n > 0 {
			level = 1 + n*(len(densityLevels)-2)/peak
		}
		bar[i] = densityLevels[level]
	}
	return string(bar)
}
