package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/levigross/grequests"
)

var downloadURL = "https://osu.ppy.sh/beatmapsets/%d/download"

var rateLimitedFrom atomic.Pointer[time.Time]

func rateLimited() time.Duration {
	lastLimit := rateLimitedFrom.Load()
	now := time.Now()
	rateLimitedFrom.CompareAndSwap(nil, &now)
	if lastLimit != nil {
		return max(time.Minute, time.Since(*lastLimit))
	}
	return time.Minute
}

// runDownload fetches .osz archives for the given set ids and extracts
// their chart files under destRoot/<id>. Broken archives are recorded in
// the failures table and skipped.
func runDownload(ids []int, session, destRoot, dbPath string) error {
	ix, err := OpenChartIndex(dbPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return err
	}

	var wg sync.WaitGroup
	counter := atomic.Uint32{}
	total := atomic.Uint32{}
	for _, id := range ids {
		dest := filepath.Join(destRoot, strconv.Itoa(id))
		if hasChartFiles(dest) {
			fmt.Printf("%d already downloaded\n", id)
			continue
		}
		wg.Add(1)
		Run(func() {
			defer wg.Done()
			total.Add(1)
			files, err := DownloadSet(id, session)
			if err != nil {
				log.Printf("download_failure set=%d err=%v", id, err)
				if dbErr := ix.SaveFailure(dest, "download", err.Error()); dbErr != nil {
					log.Printf("failure_record_error err=%v", dbErr)
				}
				return
			}
			if err := os.MkdirAll(dest, 0o755); err != nil {
				PanicF("mkdir failed id = %d, err = %s", id, err.Error())
			}
			for name, data := range files {
				if err := os.WriteFile(filepath.Join(dest, name), data, 0o644); err != nil {
					PanicF("write failed id = %d, err = %s", id, err.Error())
				}
			}
			counter.Add(1)
			fmt.Printf("%d downloaded (%d/%d)\n", id, counter.Load(), total.Load())
		})
	}
	wg.Wait()
	return nil
}

func hasChartFiles(dir string) bool {
	names, err := chartFileNames(dir)
	return err == nil && len(names) > 0
}

// DownloadSet fetches one .osz archive, waiting out the server's rate
// limiting, and returns the chart files it contains.
func DownloadSet(setID int, session string) (map[string][]byte, error) {
	done := AcquireSlot()
	defer done()

	var data []byte
	for {
		var err error
		data, err = downloadSetBytes(setID, session)
		if err != nil && strings.Contains(err.Error(), "connection refused") {
			pause := rateLimited()
			fmt.Printf("connection refused, retrying in %s\n", pause)
			time.Sleep(pause)
			continue
		}
		if bytes.Contains(data, []byte("Slow down, play more.")) {
			pause := rateLimited()
			fmt.Printf("rate limited, retrying in %s\n", pause)
			time.Sleep(pause)
			continue
		}
		rateLimitedFrom.Store(nil)
		if err != nil {
			return nil, err
		}
		break
	}
	return extractChartFiles(setID, data)
}

func downloadSetBytes(setID int, session string) ([]byte, error) {
	Throttle()
	fmt.Printf("downloading set %d\n", setID)
	resp, err := grequests.Get(
		fmt.Sprintf(downloadURL, setID),
		grequests.FromRequestOptions(&grequests.RequestOptions{
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.9",
				"Referer":         fmt.Sprintf("https://osu.ppy.sh/beatmapsets/%d", setID),
			},
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
			Cookies: []*http.Cookie{
				{Name: "osu_session", Value: session},
			},
			RequestTimeout: 10 * time.Minute,
		}))
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	return resp.Bytes(), nil
}

// extractChartFiles pulls the root-level .osu entries out of an .osz (zip)
// archive. Entries tucked into subdirectories are not charts and are
// skipped.
func extractChartFiles(setID int, data []byte) (map[string][]byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error opening osz (zip) id:%d err: %w", setID, err)
	}

	charts := make(map[string][]byte)
	for _, file := range zipReader.File {
		if !strings.HasSuffix(file.Name, ".osu") {
			continue
		}
		if file.FileInfo().IsDir() {
			continue
		}
		if strings.Contains(file.Name, "/") || strings.Contains(file.Name, "\\") {
			continue
		}
		fileReader, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening %s: %w", file.Name, err)
		}
		contents, err := io.ReadAll(fileReader)
		fileReader.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", file.Name, err)
		}
		charts[file.Name] = contents
	}

	if len(charts) == 0 {
		return nil, fmt.Errorf("no .osu files in set %d", setID)
	}
	return charts, nil
}
