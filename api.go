package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/levigross/grequests"
)

var (
	tokenURL    = "https://osu.ppy.sh/oauth/token"
	beatmapsURL = "https://osu.ppy.sh/api/v2/beatmaps"
)

const maxIDsPerFetch = 50

// TokenResponse models the osu! OAuth token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// APIBeatmap is the slice of the osu! v2 API beatmap object the toolkit
// stores and reads back.
type APIBeatmap struct {
	ID               int           `json:"id"`
	BeatmapsetID     int           `json:"beatmapset_id"`
	Mode             string        `json:"mode"`
	Status           string        `json:"status"`
	Version          string        `json:"version"`
	DifficultyRating float64       `json:"difficulty_rating"`
	Bpm              float64       `json:"bpm"`
	Ar               float64       `json:"ar"`
	Cs               float64       `json:"cs"`
	Drain            float64       `json:"drain"`
	Accuracy         float64       `json:"accuracy"`
	MaxCombo         int           `json:"max_combo"`
	Checksum         string        `json:"checksum"`
	URL              string        `json:"url"`
	Beatmapset       APIBeatmapset `json:"beatmapset"`
}

type APIBeatmapset struct {
	ID           int          `json:"id"`
	Artist       string       `json:"artist"`
	Title        string       `json:"title"`
	Creator      string       `json:"creator"`
	Status       string       `json:"status"`
	Availability Availability `json:"availability"`
}

// Availability says whether a set may be downloaded at all.
type Availability struct {
	DownloadDisabled bool    `json:"download_disabled"`
	MoreInformation  *string `json:"more_information"`
}

// APIClient talks to the osu! v2 API with a client-credentials token.
type APIClient struct {
	token TokenResponse
}

func NewAPIClient(ctx context.Context, clientID int, clientSecret string) (*APIClient, error) {
	resp, err := grequests.Post(tokenURL, grequests.FromRequestOptions(&grequests.RequestOptions{
		Context: ctx,
		Data: map[string]string{
			"client_id":     strconv.Itoa(clientID),
			"client_secret": clientSecret,
			"grant_type":    "client_credentials",
			"scope":         "public",
		},
		Headers:        map[string]string{"Accept": "application/json"},
		RequestTimeout: 15 * time.Second,
	}))
	if err != nil {
		return nil, fmt.Errorf("send token request: %w", err)
	}
	defer resp.Close()

	if !resp.Ok {
		return nil, fmt.Errorf("oauth error: status %d, body: %s", resp.StatusCode, resp.String())
	}
	var tok TokenResponse
	if err := resp.JSON(&tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &APIClient{token: tok}, nil
}

// FetchBeatmaps retrieves up to 50 beatmaps per call, retrying transient
// API failures with a growing backoff until ctx is done.
func (c *APIClient) FetchBeatmaps(ctx context.Context, ids []int) ([]APIBeatmap, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no beatmap ids given")
	}
	if len(ids) > maxIDsPerFetch {
		return nil, fmt.Errorf("cannot request more than %d beatmaps at once", maxIDsPerFetch)
	}
	start := time.Now()
	for {
		beatmaps, err := c.tryFetchBeatmaps(ctx, ids)
		if err == nil {
			return beatmaps, nil
		}
		if !transientAPIError(err) {
			return nil, err
		}
		log.Printf("fetch_retry err=%v", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(max(time.Second, min(time.Minute, time.Since(start)))):
		}
	}
}

func transientAPIError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Too Many Attempts") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "Cloudflare encountered an error processing this request")
}

type beatmapIDsQuery struct {
	IDs []int `url:"ids[]"`
}

func (c *APIClient) tryFetchBeatmaps(ctx context.Context, ids []int) ([]APIBeatmap, error) {
	done := AcquireSlot()
	defer done()
	Throttle()

	resp, err := grequests.Get(beatmapsURL, grequests.FromRequestOptions(&grequests.RequestOptions{
		Context:     ctx,
		QueryStruct: beatmapIDsQuery{IDs: ids},
		Headers: map[string]string{
			"Accept":        "application/json",
			"Authorization": c.token.TokenType + " " + c.token.AccessToken,
		},
		RequestTimeout: 2 * time.Minute,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Close()

	if !resp.Ok {
		return nil, fmt.Errorf("received non-200 response: %s", resp.String())
	}
	var payload struct {
		Beatmaps []APIBeatmap `json:"beatmaps"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return payload.Beatmaps, nil
}

// runFetch pulls API metadata for the given beatmap ids and stores one
// JSON file per id under outDir.
func runFetch(ctx context.Context, clientID int, clientSecret string, ids []int, outDir string) error {
	client, err := NewAPIClient(ctx, clientID, clientSecret)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	for start := 0; start < len(ids); start += maxIDsPerFetch {
		end := min(start+maxIDsPerFetch, len(ids))
		beatmaps, err := client.FetchBeatmaps(ctx, ids[start:end])
		if err != nil {
			return err
		}
		for _, bm := range beatmaps {
			data, err := json.MarshalIndent(bm, "", "\t")
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, fmt.Sprintf("%d.json", bm.ID))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
		}
		fmt.Printf("fetched %d/%d\n", end, len(ids))
	}
	return nil
}
