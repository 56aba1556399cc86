package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// keywordEmbedder maps texts onto fixed axes by keyword.
type keywordEmbedder struct {
	mu      sync.Mutex
	calls   [][]string
	queries []string
	fail    error
}

func (e *keywordEmbedder) vector(text string) []float32 {
	switch {
	case strings.Contains(text, "Rust"):
		return []float32{0, 1}
	case strings.Contains(text, "Go"):
		return []float32{1, 0}
	default:
		return []float32{0.5, 0.5}
	}
}

func (e *keywordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return nil, e.fail
	}
	e.calls = append(e.calls, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, text)
	return e.vector(text), nil
}

func (e *keywordEmbedder) Model() string {
	return "keyword-test"
}

type fakeChat struct {
	prompts []string
	reply   string
	err     error
}

func (c *fakeChat) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func (c *fakeChat) Model() string {
	return "fake-chat"
}

type recordingProgress struct {
	total    int
	added    int
	finished bool
}

func (p *recordingProgress) Start(total int) { p.total = total }
func (p *recordingProgress) Add(n int)       { p.added += n }
func (p *recordingProgress) Finish()         { p.finished = true }

var errBoom = errors.New("boom")
