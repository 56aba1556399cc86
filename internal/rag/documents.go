package rag

import (
	"sort"
	"strings"

	"github.com/mgpai22/tubeqa/internal/subtitle"
)

// Chunk is one retrievable piece of a transcript.
type Chunk struct {
	Index int
	Text  string
	Start float64 // seconds into the video where the chunk begins
}

// Transcript is the newline-joined cue text plus the byte offset at which
// each cue starts.
type Transcript struct {
	Text    string
	offsets []int
	starts  []float64
}

// JoinCues concatenates cue texts with newlines.
func JoinCues(cues []subtitle.Cue) *Transcript {
	var sb strings.Builder
	t := &Transcript{
		offsets: make([]int, 0, len(cues)),
		starts:  make([]float64, 0, len(cues)),
	}
	for i, c := range cues {
		if i > 0 {
			sb.WriteByte('\n')
		}
		t.offsets = append(t.offsets, sb.Len())
		t.starts = append(t.starts, c.Start)
		sb.WriteString(c.Text)
	}
	t.Text = sb.String()
	return t
}

// StartAt returns the start time of the cue containing byte offset pos.
func (t *Transcript) StartAt(pos int) float64 {
	if len(t.offsets) == 0 {
		return 0
	}
	i := sort.Search(len(t.offsets), func(i int) bool { return t.offsets[i] > pos })
	if i == 0 {
		return t.starts[0]
	}
	return t.starts[i-1]
}

// Documents splits the joined cue text and tags each chunk with the time of
// the cue it starts in.
func Documents(cues []subtitle.Cue, splitter *RecursiveSplitter) ([]Chunk, error) {
	t := JoinCues(cues)
	texts, err := splitter.Split(t.Text)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(texts))
	cursor := 0
	for i, text := range texts {
		pos := cursor
		if idx := strings.Index(t.Text[cursor:], text); idx >= 0 {
			pos = cursor + idx
			cursor = pos + 1
		}
		chunks = append(chunks, Chunk{
			Index: i,
			Text:  text,
			Start: t.StartAt(pos),
		})
	}
	return chunks, nil
}
