package youtube

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidURL is returned for URLs on neither YouTube domain.
	ErrInvalidURL = errors.New("invalid YouTube URL")

	// ErrNoTranscriptFound means no track matched the requested languages.
	ErrNoTranscriptFound = errors.New("no transcript found")

	// ErrTranscriptsDisabled means the video exposes no caption tracks.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")

	// ErrVideoUnavailable means the player refused to serve the video.
	ErrVideoUnavailable = errors.New("video unavailable")

	// ErrPoTokenRequired means the caption URL only works inside a browser.
	ErrPoTokenRequired = errors.New("caption track requires a PoToken")
)

// NoTranscriptFoundError lists what was asked for and what exists.
type NoTranscriptFoundError struct {
	VideoID   string
	Requested []string
	Available []string
}

func (e *NoTranscriptFoundError) Error() string {
	return fmt.Sprintf(
		"no transcript found for video %s in languages [%s] (available: [%s])",
		e.VideoID,
		strings.Join(e.Requested, ", "),
		strings.Join(e.Available, ", "),
	)
}

func (e *NoTranscriptFoundError) Unwrap() error {
	return ErrNoTranscriptFound
}
