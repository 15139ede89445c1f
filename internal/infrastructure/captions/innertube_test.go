package captions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hszk-dev/ytranscript/internal/domain/repository"
)

func playerResponse(tracks []map[string]any) []byte {
	body := map[string]any{
		"captions": map[string]any{
			"playerCaptionsTracklistRenderer": map[string]any{
				"captionTracks": tracks,
			},
		},
	}
	data, _ := json.Marshal(body)
	return data
}

func TestClient_ListTracks(t *testing.T) {
	var gotBody innertubeReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Write(playerResponse([]map[string]any{
			{
				"baseUrl":      "http://example.com/timedtext?v=abcDEF12345",
				"languageCode": "en",
				"name":         map[string]any{"simpleText": "English"},
			},
			{
				"baseUrl":        "http://example.com/timedtext?v=abcDEF12345&kind=asr",
				"languageCode":   "en",
				"kind":           "asr",
				"isTranslatable": true,
				"name":           map[string]any{"runs": []map[string]any{{"text": "English (auto-generated)"}}},
			},
		}))
	}))
	defer srv.Close()

	client := NewClient(Config{PlayerURL: srv.URL})
	tracks, err := client.ListTracks(context.Background(), "abcDEF12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody.VideoID != "abcDEF12345" {
		t.Errorf("expected video ID in request, got %q", gotBody.VideoID)
	}
	if gotBody.Context.Client.ClientName != "ANDROID" {
		t.Errorf("expected ANDROID client, got %q", gotBody.Context.Client.ClientName)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].AutoGenerated {
		t.Error("expected first track to be manual")
	}
	if tracks[0].Name != "English" {
		t.Errorf("expected track name English, got %q", tracks[0].Name)
	}
	if !tracks[1].AutoGenerated {
		t.Error("expected second track to be auto-generated")
	}
	if !tracks[1].Translatable {
		t.Error("expected second track to be translatable")
	}
	if tracks[1].Name != "English (auto-generated)" {
		t.Errorf("unexpected runs-based track name %q", tracks[1].Name)
	}
}

func TestClient_ListTracksNoCaptions(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "captions object absent",
			body: `{"playabilityStatus":{"status":"OK"}}`,
		},
		{
			name: "empty track list",
			body: `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[]}}}`,
		},
		{
			name: "captions disabled with reason",
			body: `{"playabilityStatus":{"status":"OK","reason":"Captions disabled"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{PlayerURL: srv.URL})
			_, err := client.ListTracks(context.Background(), "abcDEF12345")
			if !errors.Is(err, repository.ErrCaptionsUnavailable) {
				t.Fatalf("expected ErrCaptionsUnavailable, got %v", err)
			}
		})
	}
}

func TestClient_FetchTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tlang"); got != "" {
			t.Errorf("unexpected tlang parameter %q", got)
		}
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.5" dur="2.1">hello &amp; welcome</text>
  <text start="2.6" dur="1.4">second line</text>
</transcript>`))
	}))
	defer srv.Close()

	client := NewClient(Config{})
	segments, err := client.FetchTrack(context.Background(), repository.CaptionTrack{
		BaseURL: srv.URL + "/timedtext?v=abcDEF12345",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "hello & welcome" {
		t.Errorf("expected HTML-unescaped text, got %q", segments[0].Text)
	}
	if segments[0].Start != 0.5 || segments[0].Duration != 2.1 {
		t.Errorf("unexpected timing: %+v", segments[0])
	}
}

func TestClient_FetchTrackWithTranslation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tlang"); got != "en" {
			t.Errorf("expected tlang=en, got %q", got)
		}
		w.Write([]byte(`<transcript><text start="0" dur="1">bonjour</text></transcript>`))
	}))
	defer srv.Close()

	client := NewClient(Config{})
	segments, err := client.FetchTrack(context.Background(), repository.CaptionTrack{
		BaseURL: srv.URL + "/timedtext?v=abcDEF12345",
	}, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(playerResponse([]map[string]any{
			{"baseUrl": "http://example.com/t", "languageCode": "en"},
		}))
	}))
	defer srv.Close()

	client := NewClient(Config{PlayerURL: srv.URL})
	tracks, err := client.ListTracks(context.Background(), "abcDEF12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(tracks) != 1 {
		t.Errorf("expected 1 track, got %d", len(tracks))
	}
}
