package osu

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// A trimmed-down but structurally complete beatmap, including sections and
// record flavors this package drains or skips.
const fullBeatmap = `osu file format v14

[General]
AudioFilename: audio.mp3
AudioLeadIn: 1500
PreviewTime: 43123
Countdown: 0
SampleSet: Soft
StackLeniency: 0.7
Mode: 3
LetterboxInBreaks: 0
WidescreenStoryboard: 1

[Editor]
DistanceSpacing: 0.8
BeatDivisor: 4

[Metadata]
Title:Night of Knights
TitleUnicode:ナイト・オブ・ナイツ
Artist:beet
ArtistUnicode:びーと
Creator:alice
Version:Lunatic
Source:Touhou
Tags:touhou knight remix
BeatmapID:1651744
BeatmapSetID:787351

[Difficulty]
HPDrainRate:8
CircleSize:4.2
OverallDifficulty:9
ApproachRate:9.6
SliderMultiplier:2.1
SliderTickRate:1

[Events]
//Background and Video events
0,0,"bg.jpg",0,0
Sprite,Background,TopCentre,"sb/spin.png",320,240
Animation,Foreground,Centre,"sb/frame.png",110,80,12,40,LoopForever
_M,0,5000,12000

[TimingPoints]
// tempo
1100,340.909090909091,4,2,1,70,1,0
18145,-100,4,2,1,60,0,1

[HitObjects]
256,192,1100,1,0,0:0:0:0:
96,64,1440,2,0,P|128:32|160:64,1,105
256,192,2000,12,4,3500,0:0:0:0:
448,192,2100,128,8,2800:0:0:0:0:
`

func decode(t *testing.T, input string) *Beatmap {
	t.Helper()
	b, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return b
}

func TestDecode_FullBeatmap(t *testing.T) {
	b := decode(t, fullBeatmap)

	wantGeneral := General{
		AudioFilename:        "audio.mp3",
		AudioLeadIn:          1500,
		PreviewTime:          43123,
		Countdown:            false,
		SampleSet:            "Soft",
		StackLeniency:        0.7,
		Mode:                 ModeMania,
		LetterboxInBreaks:    false,
		WidescreenStoryboard: true,
	}
	if b.General != wantGeneral {
		t.Errorf("General = %+v, want %+v", b.General, wantGeneral)
	}

	wantMetadata := Metadata{
		Title:         "Night of Knights",
		TitleUnicode:  "ナイト・オブ・ナイツ",
		Artist:        "beet",
		ArtistUnicode: "びーと",
		Creator:       "alice",
		Version:       "Lunatic",
		Source:        "Touhou",
		Tags:          []string{"touhou", "knight", "remix"},
		BeatmapID:     1651744,
		BeatmapSetID:  787351,
	}
	if !reflect.DeepEqual(b.Metadata, wantMetadata) {
		t.Errorf("Metadata = %+v, want %+v", b.Metadata, wantMetadata)
	}

	wantDifficulty := Difficulty{
		HPDrainRate:       8,
		CircleSize:        4.2,
		OverallDifficulty: 9,
		ApproachRate:      9.6,
		SliderMultiplier:  2.1,
		SliderTickRate:    1,
	}
	if b.Difficulty != wantDifficulty {
		t.Errorf("Difficulty = %+v, want %+v", b.Difficulty, wantDifficulty)
	}

	// The catch-all event keeps column four, which holds "0" on a
	// standard background line. The continuation line emits nothing.
	wantEvents := []Event{
		BackgroundMedia{Filepath: "0"},
		Sprite{Layer: "Background", Origin: "TopCentre", Filepath: "sb/spin.png", X: 320, Y: 240},
		Animation{Layer: "Foreground", Origin: "Centre", Filepath: "sb/frame.png",
			X: 110, Y: 80, FrameCount: 12, FrameDelay: 40, LoopType: "LoopForever"},
	}
	if !reflect.DeepEqual(b.Events, wantEvents) {
		t.Errorf("Events = %+v, want %+v", b.Events, wantEvents)
	}

	wantPoints := []TimingPoint{
		{Offset: 1100, MsPerBeat: 340.909090909091, Meter: 4, SampleType: 2, SampleSet: 1, Volume: 70, KiaiMode: false, Inherited: false},
		{Offset: 18145, MsPerBeat: -100, Meter: 4, SampleType: 2, SampleSet: 1, Volume: 60, KiaiMode: true, Inherited: true},
	}
	if !reflect.DeepEqual(b.TimingPoints, wantPoints) {
		t.Errorf("TimingPoints = %+v, want %+v", b.TimingPoints, wantPoints)
	}

	wantObjects := []HitObject{
		Circle{HitObjectBase{X: 256, Y: 192, Time: 1100, Type: 1, HitSound: 0}},
		Slider{HitObjectBase: HitObjectBase{X: 96, Y: 64, Time: 1440, Type: 2, HitSound: 0}},
		Spinner{HitObjectBase: HitObjectBase{X: 256, Y: 192, Time: 2000, Type: 12, HitSound: 4}},
		LongNote{HitObjectBase: HitObjectBase{X: 448, Y: 192, Time: 2100, Type: 128, HitSound: 8}, EndTime: 2800},
	}
	if !reflect.DeepEqual(b.HitObjects, wantObjects) {
		t.Errorf("HitObjects = %+v, want %+v", b.HitObjects, wantObjects)
	}
}

func TestDecode_StructureErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty input", "", ErrEmptyInput},
		{"blank line before header", "\nosu file format v14\n", ErrMalformedHeader},
		{"wrong marker", "osu format v14\n", ErrMalformedHeader},
		{"leading space", " osu file format v14\n", ErrMalformedHeader},
		{"header only", "osu file format v14\n", ErrExpectedSection},
		{"header then comments", "osu file format v14\n\n// nothing else\n", ErrExpectedSection},
		{"field before any section", "osu file format v14\nAudioFilename: a.mp3\n", ErrFieldOutsideSection},
		{"key without value", "osu file format v14\n[General]\nAudioLeadIn\n", ErrMalformedField},
		{"junk in metadata", "osu file format v14\n[Metadata]\njunk line\n", ErrMalformedField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_EmptySectionsKeepDefaults(t *testing.T) {
	const input = `osu file format v14
[General]
[Metadata]
[Difficulty]
[Events]
[TimingPoints]
[HitObjects]
`
	b := decode(t, input)
	want := &Beatmap{}
	if !reflect.DeepEqual(b, want) {
		t.Errorf("Beatmap = %+v, want all defaults", b)
	}
	if b.General.Mode != ModeStandard {
		t.Errorf("Mode = %v, want %v", b.General.Mode, ModeStandard)
	}
}

func TestDecode_UnknownSectionDrained(t *testing.T) {
	// [Colours] content would be fatal in any modeled section; draining
	// must discard it and resume at the next header.
	const input = `osu file format v14
[Colours]
Combo1 : 255,128,64
1,2
no colon here
[Metadata]
Title:kept
`
	b := decode(t, input)
	if b.Metadata.Title != "kept" {
		t.Errorf("Title = %q, want %q", b.Metadata.Title, "kept")
	}
	if len(b.Events) != 0 || len(b.TimingPoints) != 0 || len(b.HitObjects) != 0 {
		t.Errorf("unknown section leaked records: %+v", b)
	}
}

func TestDecode_BoolTokens(t *testing.T) {
	tests := []struct {
		token   string
		want    bool
		wantErr error
	}{
		{"0", false, nil},
		{"1", true, nil},
		{"true", false, ErrInvalidBool},
		{"2", false, ErrInvalidBool},
		{"", false, ErrInvalidBool},
	}

	for _, tt := range tests {
		t.Run("token "+tt.token, func(t *testing.T) {
			input := "osu file format v14\n[General]\nCountdown: " + tt.token + "\n"
			b, err := Decode(strings.NewReader(input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if b.General.Countdown != tt.want {
				t.Errorf("Countdown = %v, want %v", b.General.Countdown, tt.want)
			}
		})
	}
}

func TestDecode_ModeCodes(t *testing.T) {
	tests := []struct {
		token   string
		want    Mode
		wantErr error
	}{
		{"0", ModeStandard, nil},
		{"1", ModeTaiko, nil},
		{"2", ModeCatchTheBeat, nil},
		{"3", ModeMania, nil},
		{"4", 0, ErrUnknownMode},
		{"-1", 0, ErrInvalidNumber},
		{"x", 0, ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run("code "+tt.token, func(t *testing.T) {
			input := "osu file format v14\n[General]\nMode: " + tt.token + "\n"
			b, err := Decode(strings.NewReader(input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if b.General.Mode != tt.want {
				t.Errorf("Mode = %v, want %v", b.General.Mode, tt.want)
			}
		})
	}
}

func TestDecode_Tags(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"plain", "foo bar baz", []string{"foo", "bar", "baz"}},
		{"duplicates kept", "a b a", []string{"a", "b", "a"}},
		{"double space keeps empty tag", "a  b", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := decode(t, "osu file format v14\n[Metadata]\nTags: "+tt.value+"\n")
			if !reflect.DeepEqual(b.Metadata.Tags, tt.want) {
				t.Errorf("Tags = %q, want %q", b.Metadata.Tags, tt.want)
			}
		})
	}
}

func TestDecode_RecognizedKeyCoercionIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lead-in", "osu file format v14\n[General]\nAudioLeadIn: soon\n"},
		{"stack leniency", "osu file format v14\n[General]\nStackLeniency: high\n"},
		{"beatmap id", "osu file format v14\n[Metadata]\nBeatmapID: 12.5\n"},
		{"circle size", "osu file format v14\n[Difficulty]\nCircleSize: big\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if !errors.Is(err, ErrInvalidNumber) {
				t.Errorf("Decode error = %v, want %v", err, ErrInvalidNumber)
			}
		})
	}
}

func TestDecode_UnrecognizedKeysIgnored(t *testing.T) {
	const input = `osu file format v14
[General]
EpilepsyWarning: maybe
AudioFilename: a.mp3
[Metadata]
FavouriteFood: not even a number
Title:t
`
	b := decode(t, input)
	if b.General.AudioFilename != "a.mp3" || b.Metadata.Title != "t" {
		t.Errorf("recognized keys lost: %+v", b)
	}
}

// Mixed-strictness: bad Events records vanish while the same class of
// problem under TimingPoints kills the decode.
func TestDecode_LeniencyAsymmetry(t *testing.T) {
	const lenient = `osu file format v14
[Events]
Sprite,Background,Centre,"ok.png",0,0
Sprite,Background,Centre,"short.png",0
Animation,Foreground,Centre,"a.png",1,2,3
4,1,0,"scene.png",0
4,1,0,"too.png",0,0
[HitObjects]
0,0,100,1,0,0:0:0:0:
0,0,200,1,0,0:0:0:0:
0,0,300,5,2,0:0:0:0:
`
	b := decode(t, lenient)
	if len(b.Events) != 2 {
		t.Errorf("Events count = %d, want 2: %+v", len(b.Events), b.Events)
	}
	if len(b.HitObjects) != 3 {
		t.Errorf("HitObjects count = %d, want 3", len(b.HitObjects))
	}

	const strict = `osu file format v14
[TimingPoints]
1100,340.9,4,2,1,70,1
`
	_, err := Decode(strings.NewReader(strict))
	if !errors.Is(err, ErrMalformedTimingPoint) {
		t.Errorf("Decode error = %v, want %v", err, ErrMalformedTimingPoint)
	}
}

func TestDecodeLines_CustomSource(t *testing.T) {
	src := &sliceSource{lines: []string{
		"osu file format v7",
		"[Metadata]",
		"Title:from a custom source",
	}}
	b, err := DecodeLines(src)
	if err != nil {
		t.Fatalf("DecodeLines failed: %v", err)
	}
	if b.Metadata.Title != "from a custom source" {
		t.Errorf("Title = %q", b.Metadata.Title)
	}
}

func TestDecode_SourceFailurePropagates(t *testing.T) {
	boom := errors.New("stream broke")

	_, err := DecodeLines(&failingSource{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("header read error = %v, want wrapped %v", err, boom)
	}

	_, err = DecodeLines(&failingSource{
		lines: []string{"osu file format v14", "[TimingPoints]"},
		err:   boom,
	})
	if !errors.Is(err, boom) {
		t.Errorf("section read error = %v, want wrapped %v", err, boom)
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.osu")
	if err := os.WriteFile(path, []byte(fullBeatmap), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if b.Metadata.Title != "Night of Knights" {
		t.Errorf("Title = %q", b.Metadata.Title)
	}

	if _, err := DecodeFile(filepath.Join(dir, "missing.osu")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want %v", err, os.ErrNotExist)
	}
}

func TestValidate(t *testing.T) {
	b := decode(t, fullBeatmap)
	if err := b.Validate(); err != nil {
		t.Errorf("Validate on full beatmap: %v", err)
	}

	empty := decode(t, "osu file format v14\n[General]\n")
	if err := empty.Validate(); err == nil {
		t.Error("Validate on empty beatmap should fail")
	}

	unicodeOnly := decode(t, "osu file format v14\n[General]\nAudioFilename: a.mp3\n[Metadata]\nTitleUnicode:た\nArtistUnicode:ば\n")
	if err := unicodeOnly.Validate(); err != nil {
		t.Errorf("Validate with unicode-only names: %v", err)
	}
}
