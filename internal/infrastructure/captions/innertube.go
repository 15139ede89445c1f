// Package captions fetches platform captions via the Innertube API.
// The ANDROID /player endpoint lists caption tracks; each track's timed text
// is served as XML from the track's base URL.
package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/hszk-dev/ytranscript/internal/domain/repository"
	"github.com/hszk-dev/ytranscript/internal/retry"
)

const (
	defaultPlayerURL = "https://www.youtube.com/youtubei/v1/player?prettyPrint=false"

	androidClientVersion = "19.09.37"
	androidSdkVersion    = 30
	androidUserAgent     = "com.google.android.youtube/19.09.37 (Linux; U; Android 11) gzip"

	maxResponseBytes = 6 * 1024 * 1024
	maxTrackBytes    = 512 * 1024
)

// httpRetryConfig covers transient Innertube flakiness. Caption failures are
// non-fatal to the pipeline either way, so this stays short.
var httpRetryConfig = retry.Config{
	MaxAttempts: 3,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     5 * time.Second,
	Multiplier:  2.0,
}

// Config holds configuration for the Innertube caption client.
type Config struct {
	// PlayerURL overrides the Innertube /player endpoint (used in tests).
	PlayerURL string
	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
	// Timeout applies when no HTTPClient is provided.
	Timeout time.Duration
}

// Client implements CaptionSource against the Innertube API.
type Client struct {
	playerURL  string
	httpClient *http.Client
}

// Compile-time verification that Client implements CaptionSource.
var _ repository.CaptionSource = (*Client)(nil)

// NewClient creates an Innertube caption client.
func NewClient(cfg Config) *Client {
	playerURL := cfg.PlayerURL
	if playerURL == "" {
		playerURL = defaultPlayerURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{playerURL: playerURL, httpClient: httpClient}
}

// ListTracks queries the /player endpoint and returns the video's caption
// tracks. Videos without captions return ErrCaptionsUnavailable.
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]repository.CaptionTrack, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidClientVersion,
				AndroidSdkVersion: androidSdkVersion,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal player request: %w", err)
	}

	body, err := c.doRequest(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.playerURL, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", androidUserAgent)
		return req, nil
	}, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("player request: %w", err)
	}

	var resp playerResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if resp.Captions == nil {
		if resp.PlayabilityStatus != nil && resp.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("%w: %s", repository.ErrCaptionsUnavailable, resp.PlayabilityStatus.Reason)
		}
		return nil, repository.ErrCaptionsUnavailable
	}
	raw := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(raw) == 0 {
		return nil, repository.ErrCaptionsUnavailable
	}

	tracks := make([]repository.CaptionTrack, 0, len(raw))
	for _, t := range raw {
		tracks = append(tracks, repository.CaptionTrack{
			LanguageCode:  t.LanguageCode,
			Name:          t.Name.text(),
			AutoGenerated: t.Kind == "asr",
			Translatable:  t.IsTranslatable,
			BaseURL:       t.BaseURL,
		})
	}
	return tracks, nil
}

// FetchTrack downloads and parses a track's timed text. A non-empty
// translateTo appends the platform's machine-translation parameter.
func (c *Client) FetchTrack(ctx context.Context, track repository.CaptionTrack, translateTo string) ([]repository.CaptionSegment, error) {
	fetchURL := track.BaseURL
	if translateTo != "" {
		fetchURL += "&tlang=" + translateTo
	}

	body, err := c.doRequest(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", androidUserAgent)
		return req, nil
	}, maxTrackBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]repository.CaptionSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		segments = append(segments, repository.CaptionSegment{
			Start:    line.Start,
			Duration: line.Duration,
			Text:     html.UnescapeString(line.Text),
		})
	}
	return segments, nil
}

// doRequest executes the request with bounded retries and returns the body.
// Non-2xx statuses are errors so transient upstream failures get retried.
func (c *Client) doRequest(ctx context.Context, build func(ctx context.Context) (*http.Request, error), maxBytes int64) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, httpRetryConfig, func(ctx context.Context) error {
		req, err := build(ctx)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBytes))
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}
