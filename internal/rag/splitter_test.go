package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/tubeqa/internal/subtitle"
)

func mustSplitter(t *testing.T, size, overlap int) *RecursiveSplitter {
	t.Helper()
	s, err := NewRecursiveSplitter(size, overlap)
	require.NoError(t, err)
	return s
}

func split(t *testing.T, s *RecursiveSplitter, text string) []string {
	t.Helper()
	chunks, err := s.Split(text)
	require.NoError(t, err)
	return chunks
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	got := split(t, mustSplitter(t, 1000, 200), "hello world")
	assert.Equal(t, []string{"hello world"}, got)
}

func TestSplitOverlapsWords(t *testing.T) {
	got := split(t, mustSplitter(t, 10, 5), "aaaa bbbb cccc dddd")
	assert.Equal(t, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}, got)
}

func TestSplitPrefersParagraphs(t *testing.T) {
	got := split(t, mustSplitter(t, 20, 0), "First para.\n\nSecond para.")
	assert.Equal(t, []string{"First para.", "Second para."}, got)
}

func TestSplitFallsBackToRunes(t *testing.T) {
	got := split(t, mustSplitter(t, 4, 1), "abcdefghij")
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, got)

	got = split(t, mustSplitter(t, 2, 0), "ééééé")
	assert.Equal(t, []string{"éé", "éé", "é"}, got)
}

func TestSplitWhitespaceOnly(t *testing.T) {
	assert.Empty(t, split(t, mustSplitter(t, 10, 0), "   \n\n  "))
	assert.Empty(t, split(t, mustSplitter(t, 10, 0), ""))
}

func TestSplitChunksRespectSizeAndCoverText(t *testing.T) {
	var words []string
	for i := 0; i < 400; i++ {
		words = append(words, strings.Repeat(string(rune('a'+i%26)), 1+i%7))
	}
	text := strings.Join(words, " ")

	chunks := split(t, mustSplitter(t, 50, 10), text)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " ")
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
	for _, w := range words {
		assert.Contains(t, joined, w)
	}
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

func TestSplitKeepsSeparatorWithFollowingPiece(t *testing.T) {
	got := split(t, mustSplitter(t, 12, 6), "one two\nthree four")
	assert.Equal(t, []string{"one two", "three four"}, got)

	got = split(t, mustSplitter(t, 9, 4), "ab cd ef gh")
	assert.Equal(t, []string{"ab cd ef", "ef gh"}, got)
}

func TestNewRecursiveSplitterValidates(t *testing.T) {
	for _, tc := range [][2]int{{0, 0}, {10, 11}, {10, -1}} {
		_, err := NewRecursiveSplitter(tc[0], tc[1])
		assert.Error(t, err, "size=%d overlap=%d", tc[0], tc[1])
	}
}

func TestDocumentsCarryCueStartTimes(t *testing.T) {
	cues := []subtitle.Cue{
		{Start: 0, Duration: 2, Text: "hello world"},
		{Start: 2, Duration: 2, Text: "second cue"},
		{Start: 4, Duration: 2, Text: "third line here"},
	}

	chunks, err := Documents(cues, mustSplitter(t, 20, 0))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, "second cue", chunks[1].Text)
	assert.Equal(t, 2.0, chunks[1].Start)
	assert.Equal(t, "third line here", chunks[2].Text)
	assert.Equal(t, 4.0, chunks[2].Start)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestJoinCues(t *testing.T) {
	tr := JoinCues([]subtitle.Cue{{Start: 1, Text: "a"}, {Start: 3, Text: "bc"}})
	assert.Equal(t, "a\nbc", tr.Text)
	assert.Equal(t, 1.0, tr.StartAt(0))
	assert.Equal(t, 1.0, tr.StartAt(1))
	assert.Equal(t, 3.0, tr.StartAt(2))
	assert.Equal(t, 3.0, tr.StartAt(100))

	assert.Equal(t, 0.0, JoinCues(nil).StartAt(5))
}
