package main

import (
	"bytes"
	"crypto/md5"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"osukit/osu"
)

// ChartIndex is the SQLite catalogue behind the index and list commands.
// Decode failures land in their own table instead of aborting a run.
type ChartIndex struct {
	db *sql.DB
}

func OpenChartIndex(path string) (*ChartIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One writer; the download command records failures from goroutines.
	db.SetMaxOpenConns(1)

	initStatement := `
	create table if not exists charts
	  (
		  path text not null primary key,
		  set_dir text,
		  sum text,
		  title text,
		  artist text,
		  creator text,
		  version text,
		  mode text,
		  audio text,
		  objects integer,
		  circles integer,
		  sliders integer,
		  spinners integer,
		  long_notes integer,
		  timing_points integer,
		  events integer
	  );
	create table if not exists failures
	  (
		  path text not null primary key,
		  category text,
		  reason text
	  );
	`
	if _, err := db.Exec(initStatement); err != nil {
		db.Close()
		return nil, err
	}

	return &ChartIndex{db: db}, nil
}

func (ix *ChartIndex) Close() {
	if ix.db != nil {
		ix.db.Close()
	}
}

// ChartRow is one indexed .osu file.
type ChartRow struct {
	Path    string
	SetDir  string
	Sum     string
	Title   string
	Artist  string
	Creator string
	Version string
	Mode    string
	Audio   string

	Objects      int
	Circles      int
	Sliders      int
	Spinners     int
	LongNotes    int
	TimingPoints int
	Events       int
}

// KindCounts tallies hit objects by kind.
type KindCounts struct {
	Circles   int
	Sliders   int
	Spinners  int
	LongNotes int
	Other     int
}

func countKinds(objects []osu.HitObject) KindCounts {
	var c KindCounts
	for _, obj := range objects {
		switch obj.Kind() {
		case osu.KindCircle:
			c.Circles++
		case osu.KindSlider:
			c.Sliders++
		case osu.KindSpinner:
			c.Spinners++
		case osu.KindLongNote:
			c.LongNotes++
		default:
			c.Other++
		}
	}
	return c
}

func hashBytes(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func buildChartRow(path string, data []byte, bm *osu.Beatmap) ChartRow {
	counts := countKinds(bm.HitObjects)
	return ChartRow{
		Path:         path,
		SetDir:       filepath.Base(filepath.Dir(path)),
		Sum:          hashBytes(data),
		Title:        bm.Metadata.Title,
		Artist:       bm.Metadata.Artist,
		Creator:      bm.Metadata.Creator,
		Version:      bm.Metadata.Version,
		Mode:         bm.General.Mode.String(),
		Audio:        bm.General.AudioFilename,
		Objects:      len(bm.HitObjects),
		Circles:      counts.Circles,
		Sliders:      counts.Sliders,
		Spinners:     counts.Spinners,
		LongNotes:    counts.LongNotes,
		TimingPoints: len(bm.TimingPoints),
		Events:       len(bm.Events),
	}
}

func (ix *ChartIndex) SaveChart(row ChartRow) error {
	_, err := ix.db.Exec(
		`insert or replace into charts
		 (path, set_dir, sum, title, artist, creator, version, mode, audio,
		  objects, circles, sliders, spinners, long_notes, timing_points, events)
		 values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.Path, row.SetDir, row.Sum, row.Title, row.Artist, row.Creator,
		row.Version, row.Mode, row.Audio, row.Objects, row.Circles, row.Sliders,
		row.Spinners, row.LongNotes, row.TimingPoints, row.Events,
	)
	return err
}

func (ix *ChartIndex) SaveFailure(path, category, reason string) error {
	_, err := ix.db.Exec(
		"insert or replace into failures(path, category, reason) values(?, ?, ?)",
		path, category, reason,
	)
	return err
}

func (ix *ChartIndex) Charts() ([]ChartRow, error) {
	rows, err := ix.db.Query(
		`select path, set_dir, sum, title, artist, creator, version, mode, audio,
		        objects, circles, sliders, spinners, long_notes, timing_points, events
		 from charts order by artist, title, objects`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charts []ChartRow
	for rows.Next() {
		var r ChartRow
		if err := rows.Scan(&r.Path, &r.SetDir, &r.Sum, &r.Title, &r.Artist,
			&r.Creator, &r.Version, &r.Mode, &r.Audio, &r.Objects, &r.Circles,
			&r.Sliders, &r.Spinners, &r.LongNotes, &r.TimingPoints, &r.Events); err != nil {
			return nil, err
		}
		charts = append(charts, r)
	}
	return charts, rows.Err()
}

// collectChartPaths walks dir for .osu files, sorted for stable runs.
func collectChartPaths(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var paths []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".osu") {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

type indexResult struct {
	path     string
	row      ChartRow
	category string
	err      error
}

// IndexSongs decodes every .osu under root and upserts the results into
// the chart index at dbPath. Files that fail to read or decode are
// recorded in the failures table and do not stop the run.
func IndexSongs(root, dbPath string) error {
	paths, err := collectChartPaths(root)
	if err != nil {
		return err
	}

	ix, err := OpenChartIndex(dbPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	workerLimit := runtime.NumCPU()
	sem := make(chan struct{}, workerLimit)
	results := make(chan indexResult, len(paths))
	var wg sync.WaitGroup
	for _, path := range paths {
		wg.Add(1)
		Run(func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := os.ReadFile(path)
			if err != nil {
				results <- indexResult{path: path, category: "read", err: err}
				return
			}
			bm, err := osu.Decode(bytes.NewReader(data))
			if err != nil {
				results <- indexResult{path: path, category: "decode", err: err}
				return
			}
			results <- indexResult{path: path, row: buildChartRow(path, data, bm)}
		})
	}
	wg.Wait()
	close(results)

	indexed, failed := 0, 0
	for res := range results {
		if res.err != nil {
			failed++
			log.Printf("index_failure path=%s err=%v", res.path, res.err)
			if err := ix.SaveFailure(res.path, res.category, res.err.Error()); err != nil {
				return err
			}
			continue
		}
		if err := ix.SaveChart(res.row); err != nil {
			return err
		}
		indexed++
	}
	log.Printf("index_done charts=%d failures=%d db=%s", indexed, failed, dbPath)
	return nil
}

func runList(dbPath string) error {
	ix, err := OpenChartIndex(dbPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	charts, err := ix.Charts()
	if err != nil {
		return err
	}
	for i, c := range charts {
		fmt.Printf("%3v) %5v  %-8v  %v - %v [%v] (%v)\n",
			i, c.Objects, c.Mode, c.Artist, c.Title, c.Version, c.Creator)
	}
	return nil
}
