package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mgpai22/tubeqa/internal/config"
	"github.com/mgpai22/tubeqa/internal/llm"
	"github.com/mgpai22/tubeqa/internal/rag"
	"github.com/mgpai22/tubeqa/internal/subtitle"
	"github.com/mgpai22/tubeqa/internal/youtube"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions about a video's subtitles",
	Long: `Fetch a video's subtitles, index them and answer questions about
the video in an interactive session. Type 'quit' to exit.

Chunks of the transcript are embedded (Gemini by default) and the closest
ones are sent with each question to a chat model (Groq by default).

Examples:
  tubeqa ask
  tubeqa ask --url https://youtu.be/dQw4w9WgXcQ --show-sources
  tubeqa ask --subtitles subtitles_en.srt --chat-provider anthropic
  tubeqa ask --embedding-provider openai --cache ~/.cache/tubeqa/embeddings.db`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().
		String("url", "", "YouTube video URL (skips the prompt)")
	askCmd.Flags().
		String("subtitles", "", "Use a local .srt or .vtt file instead of YouTube")
	askCmd.Flags().
		String("chat-provider", "", "Chat provider (groq, openai, gemini, anthropic)")
	askCmd.Flags().
		String("chat-model", "", "Chat model (provider-specific, uses sensible defaults)")
	askCmd.Flags().
		String("embedding-provider", "", "Embedding provider (gemini, openai)")
	askCmd.Flags().
		String("embedding-model", "", "Embedding model (provider-specific)")
	askCmd.Flags().
		Int("top-k", 0, "Number of chunks retrieved per question")
	askCmd.Flags().
		Int("chunk-size", 0, "Maximum chunk length in characters")
	askCmd.Flags().
		Int("chunk-overlap", 0, "Characters shared between neighbouring chunks")
	askCmd.Flags().
		String("cache", "", "SQLite file used to cache chunk embeddings")
	askCmd.Flags().
		Bool("show-sources", false, "Print the retrieved chunks after each answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	if err := applyAskFlags(cmd, cfg); err != nil {
		return err
	}
	showSources, _ := cmd.Flags().GetBool("show-sources")

	cues, err := loadCues(ctx, cmd, in, out)
	if errors.Is(err, errNoSubtitles) {
		fmt.Fprintln(out, noSubtitlesMsg)
		return nil
	}
	if err != nil {
		return err
	}

	embedder, closeCache, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	chat, err := newChatModel(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Infow("Indexing subtitles",
		"cues", len(cues),
		"embedding_model", embedder.Model(),
		"chat_model", chat.Model(),
	)

	chain, err := rag.Build(ctx, cues, embedder, chat, rag.ChainOptions{
		ChunkSize:    cfg.Retrieval.ChunkSize,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
		TopK:         cfg.Retrieval.TopK,
		BatchSize:    cfg.Embedding.BatchSize,
		Progress:     rag.NewProgress(rag.DefaultProgressEnabled(), "embedding"),
		Logger:       logger.Named("rag"),
	})
	if errors.Is(err, rag.ErrNoContent) {
		fmt.Fprintln(out, noSubtitlesMsg)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to build QA chain: %w", err)
	}

	return runSession(ctx, in, out, chain, showSources)
}

// applyAskFlags copies explicitly set flags over the loaded config.
func applyAskFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"chat-provider":      &c.Chat.Provider,
		"chat-model":         &c.Chat.Model,
		"embedding-provider": &c.Embedding.Provider,
		"embedding-model":    &c.Embedding.Model,
		"cache":              &c.Embedding.CachePath,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	intFlags := map[string]*int{
		"top-k":         &c.Retrieval.TopK,
		"chunk-size":    &c.Retrieval.ChunkSize,
		"chunk-overlap": &c.Retrieval.ChunkOverlap,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	return c.Validate()
}

var errNoSubtitles = errors.New("no subtitles")

func loadCues(ctx context.Context, cmd *cobra.Command, in *bufio.Reader, out io.Writer) ([]subtitle.Cue, error) {
	subtitlePath, _ := cmd.Flags().GetString("subtitles")
	if subtitlePath != "" {
		if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("subtitle file not found: %s", subtitlePath)
		}
		sub, err := subtitle.Open(subtitlePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse subtitle file: %w", err)
		}
		cues := sub.Cues()
		if len(cues) == 0 {
			return nil, errNoSubtitles
		}
		logger.Infow("Loaded subtitle file",
			"path", subtitlePath,
			"entries", len(cues),
		)
		return cues, nil
	}

	videoURL, _ := cmd.Flags().GetString("url")
	if videoURL == "" {
		line, err := promptLine(in, out, urlPrompt)
		if errors.Is(err, io.EOF) || (err == nil && line == "") {
			return nil, fmt.Errorf("no video URL given")
		}
		if err != nil {
			return nil, err
		}
		videoURL = line
	}

	videoID, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	langFlag, _ := cmd.Flags().GetString("language")
	lang := requestedLanguage("", langFlag, cfg.Captions.DefaultLanguage)

	cues, tr, err := newCaptionsClient(cfg, logger).FetchTranscript(ctx, videoID, youtube.Preference{
		Language:       lang,
		Default:        cfg.Captions.DefaultLanguage,
		AllowGenerated: true,
	})
	switch {
	case errors.Is(err, youtube.ErrNoTranscriptFound),
		errors.Is(err, youtube.ErrTranscriptsDisabled):
		logger.Debugw("No usable transcript", "video_id", videoID, "error", err)
		return nil, errNoSubtitles
	case err != nil:
		return nil, fmt.Errorf("failed to fetch subtitles: %w", err)
	case len(cues) == 0:
		return nil, errNoSubtitles
	}

	logger.Infow("Fetched transcript",
		"video_id", videoID,
		"transcript", tr.String(),
		"cues", len(cues),
	)
	return cues, nil
}

func newEmbedder(ctx context.Context, c *config.Config) (rag.Embedder, func(), error) {
	noop := func() {}

	provider, err := rag.ParseEmbeddingProvider(c.Embedding.Provider)
	if err != nil {
		return nil, noop, err
	}

	apiKey := c.APIKeyFor(string(provider), c.Embedding.APIKey)
	if apiKey == "" {
		return nil, noop, fmt.Errorf(
			"embedding API key is required: set %s environment variable",
			config.KeyEnvVar(string(provider)),
		)
	}

	embedder, err := rag.NewEmbedder(ctx, provider, apiKey, rag.EmbedderOptions{
		Model:     c.Embedding.Model,
		BaseURL:   c.Embedding.BaseURL,
		BatchSize: c.Embedding.BatchSize,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create embedder: %w", err)
	}

	if c.Embedding.CachePath == "" {
		return embedder, noop, nil
	}

	cache, err := rag.OpenCache(c.Embedding.CachePath)
	if err != nil {
		return nil, noop, err
	}
	logger.Debugw("Using embedding cache", "path", c.Embedding.CachePath)

	return rag.NewCachedEmbedder(embedder, cache, logger.Named("cache")), func() {
		if err := cache.Close(); err != nil {
			logger.Warnw("Failed to close embedding cache", "error", err)
		}
	}, nil
}

func newChatModel(ctx context.Context, c *config.Config) (llm.ChatModel, error) {
	provider, err := llm.ParseProvider(c.Chat.Provider)
	if err != nil {
		return nil, err
	}

	apiKey := c.APIKeyFor(string(provider), c.Chat.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf(
			"chat API key is required: set %s environment variable",
			config.KeyEnvVar(string(provider)),
		)
	}

	chat, err := llm.Factory(ctx, provider, apiKey, llm.Options{
		Model:     c.Chat.Model,
		BaseURL:   c.Chat.BaseURL,
		MaxTokens: c.Chat.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return chat, nil
}
