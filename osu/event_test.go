package osu

import (
	"reflect"
	"testing"
)

func TestDecode_EventRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   Event // nil means the record is skipped
	}{
		{
			"sprite",
			`Sprite,Background,TopCentre,"sb/cloud.png",320,240`,
			Sprite{Layer: "Background", Origin: "TopCentre", Filepath: "sb/cloud.png", X: 320, Y: 240},
		},
		{
			"sprite without quotes",
			"Sprite,Foreground,Centre,sb/dot.png,0,480",
			Sprite{Layer: "Foreground", Origin: "Centre", Filepath: "sb/dot.png", X: 0, Y: 480},
		},
		{
			"animation",
			`Animation,Fail,Centre,"sb/boom.png",320,240,10,30,LoopOnce`,
			Animation{Layer: "Fail", Origin: "Centre", Filepath: "sb/boom.png",
				X: 320, Y: 240, FrameCount: 10, FrameDelay: 30, LoopType: "LoopOnce"},
		},
		{
			"catch-all keeps column four",
			`4,1,0,"scene.png",3`,
			BackgroundMedia{Filepath: "scene.png"},
		},
		{"sprite short one field", `Sprite,Background,Centre,"a.png",320`, nil},
		{"sprite extra field", `Sprite,Background,Centre,"a.png",320,240,0`, nil},
		{"sprite bad x", `Sprite,Background,Centre,"a.png",left,240`, nil},
		{"animation wrong arity", `Animation,Fail,Centre,"a.png",1,2,3`, nil},
		{"animation bad frame count", `Animation,Fail,Centre,"a.png",1,2,many,4,Loop`, nil},
		{"catch-all wrong arity", `0,0,"bg.jpg",0,0,0`, nil},
		{"underscore continuation", "_M,0,5000,12000,320", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := decode(t, "osu file format v14\n[Events]\n"+tt.record+"\n")
			if tt.want == nil {
				if len(b.Events) != 0 {
					t.Errorf("Events = %+v, want the record skipped", b.Events)
				}
				return
			}
			if len(b.Events) != 1 || !reflect.DeepEqual(b.Events[0], tt.want) {
				t.Errorf("Events = %+v, want [%+v]", b.Events, tt.want)
			}
		})
	}
}

func TestDecode_EventOrderPreserved(t *testing.T) {
	const input = `osu file format v14
[Events]
4,1,0,"first.png",0
Sprite,Background,Centre,"second.png",1,2
4,1,0,"third.png",0
`
	b := decode(t, input)
	if len(b.Events) != 3 {
		t.Fatalf("Events count = %d, want 3", len(b.Events))
	}
	if _, ok := b.Events[0].(BackgroundMedia); !ok {
		t.Errorf("event 0 = %T, want BackgroundMedia", b.Events[0])
	}
	if _, ok := b.Events[1].(Sprite); !ok {
		t.Errorf("event 1 = %T, want Sprite", b.Events[1])
	}
	if third, ok := b.Events[2].(BackgroundMedia); !ok || third.Filepath != "third.png" {
		t.Errorf("event 2 = %+v, want third.png media", b.Events[2])
	}
}
