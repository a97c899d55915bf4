package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"osukit/osu"
)

const manifestName = "manifest.json"

// Manifest is the provider's set listing, written next to the songs root.
type Manifest struct {
	Sets []SetEntry `json:"sets"`
}

// SetEntry is one beatmap-set folder and its decodable charts.
type SetEntry struct {
	ID        string       `json:"id"`
	Folder    string       `json:"folder"`
	Title     string       `json:"title"`
	Artist    string       `json:"artist"`
	Creator   string       `json:"creator"`
	Charts    []ChartEntry `json:"charts"`
	Timestamp string       `json:"timestamp"`
}

// ChartEntry is one decoded .osu inside a set.
type ChartEntry struct {
	File    string `json:"file"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
	Objects int    `json:"objects"`
	Audio   string `json:"audio"`
	Hash    string `json:"hash"`
}

type setResult struct {
	set SetEntry
	err error
}

// buildManifest scans root's child folders as beatmap sets and writes
// manifest.json. A folder with no decodable chart is logged and left out.
func buildManifest(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", root, err)
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}

	workerLimit := runtime.NumCPU()
	sem := make(chan struct{}, workerLimit)
	results := make(chan setResult, len(folders))
	var wg sync.WaitGroup

	for _, folder := range folders {
		wg.Add(1)
		go func(folder string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			set, err := readSetEntry(root, folder)
			results <- setResult{set: set, err: err}
		}(folder)
	}
	wg.Wait()
	close(results)

	manifest := Manifest{Sets: []SetEntry{}}
	for res := range results {
		if res.err != nil {
			log.Printf("manifest_skip err=%v", res.err)
			continue
		}
		manifest.Sets = append(manifest.Sets, res.set)
	}
	sort.Slice(manifest.Sets, func(i, j int) bool {
		return manifest.Sets[i].Folder < manifest.Sets[j].Folder
	})

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	path := filepath.Join(root, manifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Printf("manifest_written sets=%d path=%s", len(manifest.Sets), path)
	return nil
}

func readSetEntry(root, folder string) (SetEntry, error) {
	dir := filepath.Join(root, folder)
	info, err := os.Stat(dir)
	if err != nil {
		return SetEntry{}, fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	names, err := chartFileNames(dir)
	if err != nil {
		return SetEntry{}, err
	}

	set := SetEntry{
		ID:        setIDForFolder(folder),
		Folder:    folder,
		Timestamp: info.ModTime().UTC().Format(time.RFC3339Nano),
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("manifest_chart_skip path=%s err=%v", path, err)
			continue
		}
		bm, err := osu.Decode(bytes.NewReader(data))
		if err != nil {
			log.Printf("manifest_chart_skip path=%s err=%v", path, err)
			continue
		}
		if set.Title == "" {
			set.Title = bm.Metadata.Title
			set.Artist = bm.Metadata.Artist
			set.Creator = bm.Metadata.Creator
		}
		set.Charts = append(set.Charts, ChartEntry{
			File:    name,
			Version: bm.Metadata.Version,
			Mode:    bm.General.Mode.String(),
			Objects: len(bm.HitObjects),
			Audio:   bm.General.AudioFilename,
			Hash:    hashBytes(data),
		})
	}
	if len(set.Charts) == 0 {
		return SetEntry{}, fmt.Errorf("no decodable charts in %s", dir)
	}
	return set, nil
}

// chartFileNames lists the .osu files directly inside dir, sorted.
func chartFileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".osu") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func setIDForFolder(folder string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(folder))
}

func folderForSetID(setID string) (string, error) {
	folderBytes, err := base64.RawURLEncoding.DecodeString(setID)
	if err != nil {
		return "", err
	}
	folder := string(folderBytes)
	if folder == "" {
		return "", fmt.Errorf("empty folder name")
	}
	if strings.Contains(folder, "/") || strings.Contains(folder, "\\") || strings.Contains(folder, "..") {
		return "", fmt.Errorf("invalid folder name")
	}
	return folder, nil
}
