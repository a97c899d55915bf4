package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"osukit/osu"
)

// runServe rebuilds the manifest and serves root as a beatmap provider.
func runServe(root, addr string) error {
	if err := buildManifest(root); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/beatmaps/list", serveSetList(root))
	mux.HandleFunc("/api/beatmaps/", serveSetAsset(root))
	log.Printf("startup addr=%s root=%s", addr, root)
	return http.ListenAndServe(addr, mux)
}

func serveSetList(root string) http.HandlerFunc {
	manifestPath := filepath.Join(root, manifestName)
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			http.Error(w, "manifest not found", http.StatusNotFound)
			return
		}
		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			http.Error(w, "invalid manifest", http.StatusInternalServerError)
			return
		}
		out, err := json.MarshalIndent(manifest.Sets, "", "  ")
		if err != nil {
			http.Error(w, "failed to serialize", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if _, err := w.Write(out); err != nil {
			http.Error(w, "failed to write response", http.StatusInternalServerError)
			return
		}
	}
}

func serveSetAsset(root string) http.HandlerFunc {
	const prefix = "/api/beatmaps/"
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !strings.HasPrefix(path, prefix) {
			http.NotFound(w, r)
			return
		}
		rest := strings.TrimPrefix(path, prefix)
		parts := strings.Split(rest, "/")
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		folder, err := folderForSetID(parts[0])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		dir := filepath.Join(root, folder)
		switch parts[1] {
		case "chart":
			serveChart(w, r, dir)
		case "audio":
			serveAudio(w, r, dir)
		case "image":
			full := r.URL.Query().Get("full") == "true"
			serveSetImage(w, r, dir, full)
		default:
			http.NotFound(w, r)
		}
	}
}

// serveChart sends one .osu file; ?file= picks which, defaulting to the
// first chart in the set.
func serveChart(w http.ResponseWriter, r *http.Request, dir string) {
	name := r.URL.Query().Get("file")
	if name == "" {
		names, err := chartFileNames(dir)
		if err != nil || len(names) == 0 {
			http.NotFound(w, r)
			return
		}
		name = names[0]
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	if err := serveFileWithHash(w, filepath.Join(dir, name), "text/plain; charset=utf-8"); err != nil {
		http.NotFound(w, r)
	}
}

func serveAudio(w http.ResponseWriter, r *http.Request, dir string) {
	serveFirstExisting(w, r, dir, audioCandidates(dir))
}

// audioCandidates prefers the file the set's first chart names, then any
// loose .mp3/.ogg in the folder.
func audioCandidates(dir string) []string {
	var candidates []string
	if names, err := chartFileNames(dir); err == nil && len(names) > 0 {
		if bm, err := osu.DecodeFile(filepath.Join(dir, names[0])); err == nil {
			name := strings.TrimSpace(bm.General.AudioFilename)
			if name != "" && !strings.ContainsAny(name, `/\`) {
				candidates = append(candidates, name)
			}
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return candidates
	}
	var loose []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp3", ".ogg":
			loose = append(loose, e.Name())
		}
	}
	sort.Strings(loose)
	return append(candidates, loose...)
}

func serveFirstExisting(w http.ResponseWriter, r *http.Request, dir string, candidates []string) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if err := serveFileWithHash(w, path, contentType); err != nil {
			log.Printf("failed to serve file %s: %v", path, err)
		}
		return
	}
	http.NotFound(w, r)
}

func serveSetImage(w http.ResponseWriter, r *http.Request, dir string, full bool) {
	fullPath, err := backgroundImagePath(dir)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if full {
		contentType := mime.TypeByExtension(filepath.Ext(fullPath))
		if err := serveFileWithHash(w, fullPath, contentType); err != nil {
			log.Printf("failed to serve image %s: %v", fullPath, err)
		}
		return
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		http.Error(w, "failed to decode image", http.StatusInternalServerError)
		return
	}

	const maxDim = 512
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	newW, newH := fitDimensions(width, height, maxDim)
	if newW == width && newH == height {
		contentType := mime.TypeByExtension(filepath.Ext(fullPath))
		if err := serveDataWithHash(w, fullPath, data, contentType); err != nil {
			log.Printf("failed to serve image %s: %v", fullPath, err)
		}
		return
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var out bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&out, dst); err != nil {
			http.Error(w, "failed to encode png", http.StatusInternalServerError)
			return
		}
	default:
		if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 85}); err != nil {
			http.Error(w, "failed to encode jpeg", http.StatusInternalServerError)
			return
		}
		format = "jpeg"
	}

	contentType := "image/jpeg"
	if format == "png" {
		contentType = "image/png"
	}
	if err := serveDataWithHash(w, fullPath+" (thumbnail)", out.Bytes(), contentType); err != nil {
		log.Printf("failed to serve thumbnail %s: %v", fullPath, err)
	}
}

// backgroundImagePath finds the set's background: first an image named by
// a chart's events, then any loose image in the folder. Background lines
// in the wild often carry a junk column where the path should be, so event
// paths that do not look like image files are ignored.
func backgroundImagePath(dir string) (string, error) {
	names, _ := chartFileNames(dir)
	for _, name := range names {
		bm, err := osu.DecodeFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		for _, ev := range bm.Events {
			var p string
			switch e := ev.(type) {
			case osu.BackgroundMedia:
				p = e.Filepath
			case osu.Sprite:
				p = e.Filepath
			case osu.Animation:
				p = e.Filepath
			}
			if !isImageName(p) || strings.ContainsAny(p, `/\`) {
				continue
			}
			full := filepath.Join(dir, p)
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				return full, nil
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && isImageName(e.Name()) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no background image in %s", dir)
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func fitDimensions(width, height, maxDim int) (int, int) {
	if width <= maxDim && height <= maxDim {
		return width, height
	}
	if width >= height {
		newW := maxDim
		newH := int(float64(height) * float64(maxDim) / float64(width))
		if newH < 1 {
			newH = 1
		}
		return newW, newH
	}
	newH := maxDim
	newW := int(float64(width) * float64(maxDim) / float64(height))
	if newW < 1 {
		newW = 1
	}
	return newW, newH
}

func serveFileWithHash(w http.ResponseWriter, path, contentType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return serveDataWithHash(w, filepath.Base(path), data, contentType)
}

func serveDataWithHash(w http.ResponseWriter, filename string, data []byte, contentType string) error {
	sum := sha256.Sum256(data)
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	hashValue := base64.StdEncoding.EncodeToString(sum[:])
	w.Header().Set("hash", hashValue)
	n, err := w.Write(data)
	if err == nil {
		log.Printf("served %s bytes=%d hash=%s", filename, n, hashValue)
	}
	return err
}
