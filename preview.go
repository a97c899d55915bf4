package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"

	"osukit/osu"
)

// runPreview decodes the first chart in dir and plays its audio from the
// chart's preview point. Any key stops playback.
func runPreview(dir string, rate float64) error {
	names, err := chartFileNames(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no .osu file in %s", dir)
	}
	bm, err := osu.DecodeFile(filepath.Join(dir, names[0]))
	if err != nil {
		return err
	}

	audioPath, err := findAudio(dir, bm.General.AudioFilename)
	if err != nil {
		return err
	}

	keyChannel, err := keyboard.GetKeys(8)
	if err != nil {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); err != nil {
			log.Println("unable to close keyboard:", err)
		}
	}()

	f, err := os.Open(audioPath)
	if err != nil {
		return err
	}
	var streamer beep.StreamSeekCloser
	var format beep.Format
	if strings.EqualFold(filepath.Ext(audioPath), ".ogg") {
		streamer, format, err = vorbis.Decode(f)
	} else {
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		return err
	}
	defer streamer.Close()

	if err := speaker.Init(beep.SampleRate(math.Round(float64(format.SampleRate)*rate)), format.SampleRate.N(time.Second/10)); err != nil {
		return err
	}

	if t := bm.General.PreviewTime; t > 0 {
		if err := streamer.Seek(format.SampleRate.N(time.Duration(t) * time.Millisecond)); err != nil {
			log.Printf("preview_seek_failed t=%dms err=%v", t, err)
		}
	}

	fmt.Printf("%v - %v [%v] (%v)\n",
		bm.Metadata.Artist, bm.Metadata.Title, bm.Metadata.Version, filepath.Base(audioPath))
	fmt.Println("press any key to stop")

	finished := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(finished)
	})))

	select {
	case <-keyChannel:
	case <-finished:
	}
	return nil
}

// findAudio resolves the audio file: the name the chart gives, else the
// first .mp3/.ogg found under dir. Charts that survive decoding can still
// name audio that is not on disk.
func findAudio(dir, audioFilename string) (string, error) {
	if name := strings.TrimSpace(audioFilename); name != "" {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	var mp3File, ogg string
	if err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".mp3":
			if mp3File == "" {
				mp3File = p
			}
		case ".ogg":
			if ogg == "" {
				ogg = p
			}
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("unable to walk song directory: %w", err)
	}

	if ogg != "" {
		return ogg, nil
	}
	if mp3File != "" {
		return mp3File, nil
	}
	return "", errors.New("unable to find an .mp3/.ogg file in the song directory")
}
