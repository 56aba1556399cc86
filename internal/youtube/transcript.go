package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/tubeqa/internal/subtitle"
)

// Transcript is one caption track of a video.
type Transcript struct {
	VideoID        string
	Language       string
	LanguageCode   string
	IsGenerated    bool
	IsTranslatable bool

	baseURL string
	client  *Client
}

// Fetch downloads the track's cues.
func (t *Transcript) Fetch(ctx context.Context) ([]subtitle.Cue, error) {
	if t.client == nil {
		return nil, fmt.Errorf("transcript %s/%s is not bound to a client", t.VideoID, t.LanguageCode)
	}
	return t.client.fetchTimedText(ctx, t.baseURL)
}

func (t *Transcript) String() string {
	kind := "manual"
	if t.IsGenerated {
		kind = "generated"
	}
	s := fmt.Sprintf("%s (%q) [%s]", t.LanguageCode, t.Language, kind)
	if t.IsTranslatable {
		s += " translatable"
	}
	return s
}

// TranscriptList holds the tracks of one video, split by origin.
type TranscriptList struct {
	VideoID   string
	Manual    []*Transcript
	Generated []*Transcript
}

// All returns manual tracks followed by generated ones.
func (l *TranscriptList) All() []*Transcript {
	all := make([]*Transcript, 0, len(l.Manual)+len(l.Generated))
	all = append(all, l.Manual...)
	return append(all, l.Generated...)
}

// FindTranscript walks codes in priority order, preferring a manual track
// over a generated one for each code.
func (l *TranscriptList) FindTranscript(codes ...string) (*Transcript, error) {
	return l.find(codes, l.Manual, l.Generated)
}

// FindManuallyCreated only considers manual tracks.
func (l *TranscriptList) FindManuallyCreated(codes ...string) (*Transcript, error) {
	return l.find(codes, l.Manual)
}

// FindGenerated only considers auto-generated tracks.
func (l *TranscriptList) FindGenerated(codes ...string) (*Transcript, error) {
	return l.find(codes, l.Generated)
}

func (l *TranscriptList) find(codes []string, groups ...[]*Transcript) (*Transcript, error) {
	for _, code := range codes {
		for _, group := range groups {
			for _, t := range group {
				if strings.EqualFold(t.LanguageCode, code) {
					return t, nil
				}
			}
		}
	}
	return nil, l.notFound(codes)
}

func (l *TranscriptList) notFound(codes []string) error {
	available := make([]string, 0, len(l.Manual)+len(l.Generated))
	for _, t := range l.All() {
		available = append(available, t.String())
	}
	return &NoTranscriptFoundError{
		VideoID:   l.VideoID,
		Requested: codes,
		Available: available,
	}
}

// Preference describes which track a caller wants.
type Preference struct {
	Language       string // requested language code
	Default        string // fallback language code
	AllowGenerated bool   // fall back to auto-generated tracks
}

// Select picks a track: manual in Language, manual in Default, then (when
// allowed) generated in Language and generated in Default.
func (l *TranscriptList) Select(p Preference) (*Transcript, error) {
	codes := make([]string, 0, 2)
	for _, c := range []string{p.Language, p.Default} {
		if c != "" && !containsFold(codes, c) {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no language requested")
	}

	for _, code := range codes {
		if t, err := l.FindManuallyCreated(code); err == nil {
			return t, nil
		}
	}
	if p.AllowGenerated {
		for _, code := range codes {
			if t, err := l.FindGenerated(code); err == nil {
				return t, nil
			}
		}
	}
	return nil, l.notFound(codes)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
