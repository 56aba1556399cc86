package subtitle

import (
	"io"
	"time"
)

// Cue is one timed caption as delivered by the captions service. Offsets are
// in seconds.
type Cue struct {
	Start    float64
	Duration float64
	Text     string
}

// End returns the offset at which the cue stops being shown.
func (c Cue) End() float64 {
	return c.Start + c.Duration
}

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// interface for writing subtitles
type Writer interface {
	Encode(w io.Writer, sub *Subtitle) error
	Write(sub *Subtitle, path string) error
}

// FromCues builds a track with exactly one entry per cue, numbered from 1.
func FromCues(cues []Cue, language string) *Subtitle {
	entries := make([]Entry, len(cues))
	for i, c := range cues {
		entries[i] = Entry{
			Index:     i + 1,
			StartTime: secondsToDuration(c.Start),
			EndTime:   secondsToDuration(c.End()),
			Text:      c.Text,
		}
	}
	return &Subtitle{
		Entries:  entries,
		Language: language,
		Format:   string(FormatSRT),
	}
}

// Cues converts entries back into cues, e.g. for a subtitle file read from
// disk.
func (s *Subtitle) Cues() []Cue {
	cues := make([]Cue, 0, len(s.Entries))
	for _, e := range s.Entries {
		cues = append(cues, Cue{
			Start:    e.StartTime.Seconds(),
			Duration: (e.EndTime - e.StartTime).Seconds(),
			Text:     e.Text,
		})
	}
	return cues
}
