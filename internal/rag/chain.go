package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/tubeqa/internal/llm"
	"github.com/mgpai22/tubeqa/internal/logging"
	"github.com/mgpai22/tubeqa/internal/subtitle"
)

// ErrNoContent is returned when the cues contain no text to index.
var ErrNoContent = errors.New("no transcript text to index")

type ChainOptions struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	BatchSize    int              // chunks per progress step
	Progress     ProgressReporter // optional
	Logger       *logging.Logger  // optional
}

// Chain answers questions about one transcript: retrieve the closest
// chunks, render them into the prompt and ask the chat model.
type Chain struct {
	embedder Embedder
	chat     llm.ChatModel
	index    *Index
	topK     int
	logger   *logging.Logger
}

// Answer is the model's reply and the chunks it was given.
type Answer struct {
	Question string
	Text     string
	Sources  []ScoredChunk
}

// Build splits the cue text, embeds every chunk and indexes the result.
func Build(
	ctx context.Context,
	cues []subtitle.Cue,
	embedder Embedder,
	chat llm.ChatModel,
	opts ChainOptions,
) (*Chain, error) {
	if embedder == nil || chat == nil {
		return nil, fmt.Errorf("embedder and chat model are required")
	}

	size, overlap := opts.ChunkSize, opts.ChunkOverlap
	if size <= 0 {
		size, overlap = DefaultChunkSize, DefaultChunkOverlap
	}
	splitter, err := NewRecursiveSplitter(size, overlap)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	chunks, err := Documents(cues, splitter)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}
	logger.Infow("Split transcript",
		"cues", len(cues),
		"chunks", len(chunks),
		"chunk_size", size,
		"chunk_overlap", overlap,
	)

	vectors, err := embedChunks(ctx, embedder, chunks, opts.BatchSize, opts.Progress)
	if err != nil {
		return nil, err
	}

	index := NewIndex()
	if err := index.Add(chunks, vectors); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}
	logger.Debugw("Indexed chunks",
		"model", embedder.Model(),
		"dimension", index.Dimension(),
	)

	return &Chain{
		embedder: embedder,
		chat:     chat,
		index:    index,
		topK:     topK,
		logger:   logger,
	}, nil
}

func embedChunks(
	ctx context.Context,
	embedder Embedder,
	chunks []Chunk,
	step int,
	progress ProgressReporter,
) ([][]float32, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	if step <= 0 {
		step = DefaultBatchSize
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	progress.Start(len(texts))
	defer progress.Finish()

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += step {
		end := i + step
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := embedder.EmbedDocuments(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		vectors = append(vectors, batch...)
		progress.Add(end - i)
	}
	return vectors, nil
}

// Len is the number of indexed chunks.
func (c *Chain) Len() int {
	return c.index.Len()
}

// Retrieve returns the chunks closest to question.
func (c *Chain) Retrieve(ctx context.Context, question string) ([]ScoredChunk, error) {
	qv, err := c.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	return c.index.Search(qv, c.topK)
}

// Ask answers a single question.
func (c *Chain) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	hits, err := c.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	prompt := llm.RenderPrompt(JoinContext(hits), question)
	c.logger.Debugw("Asking chat model",
		"model", c.chat.Model(),
		"sources", len(hits),
		"prompt_chars", len(prompt),
	)

	text, err := c.chat.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &Answer{
		Question: question,
		Text:     text,
		Sources:  hits,
	}, nil
}

// JoinContext renders retrieved chunks as the prompt context.
func JoinContext(hits []ScoredChunk) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return strings.Join(texts, "\n\n")
}
