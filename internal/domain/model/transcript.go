package model

import "errors"

// Source identifies which acquisition method produced a transcript.
type Source string

const (
	SourceCache          Source = "cache"
	SourceCaptions       Source = "youtube_captions"
	SourceSpeechModel    Source = "speech_model"
	SourceExternalScrape Source = "external_scrape"
)

func (s Source) IsValid() bool {
	switch s {
	case SourceCache, SourceCaptions, SourceSpeechModel, SourceExternalScrape:
		return true
	default:
		return false
	}
}

func (s Source) String() string {
	return string(s)
}

// CaptionsModelMarker is stored in Metadata.Model when the transcript came from
// platform captions rather than a speech engine.
const CaptionsModelMarker = "captions"

// Metadata describes the provenance of a stored transcript.
// It is persisted alongside the transcript text and returned verbatim on cache hits.
type Metadata struct {
	VideoID         string  `json:"video_id"`
	Source          Source  `json:"source"`
	Model           string  `json:"model"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Language        string  `json:"language,omitempty"`
}

var (
	ErrEmptyVideoID    = errors.New("video ID cannot be empty")
	ErrEmptyTranscript = errors.New("transcript text cannot be empty")
	ErrInvalidSource   = errors.New("invalid transcript source")
)

// Transcript is the domain entity tying a video key to its transcript text and
// provenance. A Transcript is never constructed with empty text: an entry only
// ever exists once a non-empty transcript has been acquired.
type Transcript struct {
	VideoID string
	Text    string
	Meta    Metadata
}

// NewTranscript validates and builds a Transcript.
func NewTranscript(videoID, text string, meta Metadata) (*Transcript, error) {
	if videoID == "" {
		return nil, ErrEmptyVideoID
	}
	if text == "" {
		return nil, ErrEmptyTranscript
	}
	if !meta.Source.IsValid() {
		return nil, ErrInvalidSource
	}
	meta.VideoID = videoID
	return &Transcript{
		VideoID: videoID,
		Text:    text,
		Meta:    meta,
	}, nil
}
