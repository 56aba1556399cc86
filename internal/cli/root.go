package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/mgpai22/tubeqa/internal/config"
	"github.com/mgpai22/tubeqa/internal/logging"
	"github.com/mgpai22/tubeqa/internal/youtube"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tubeqa",
	Short: "Fetch YouTube subtitles and ask questions about them",
	Long: `Tubeqa downloads the captions of a YouTube video and saves them
as an SRT file, or indexes them so you can ask questions about the
video in an interactive session.

API keys are read from GROQ_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY
and GEMINI_API_KEY (or GOOGLE_API_KEY). Other settings can be given in
a YAML file (--config) or as TUBEQA_* environment variables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command; interrupts cancel in-flight requests.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (e.g., en, es, fr)")
}

func newCaptionsClient(c *config.Config, l *logging.Logger) *youtube.Client {
	rc := youtube.DefaultRetryConfig
	if c.Captions.MaxRetries >= 0 {
		rc.MaxRetries = c.Captions.MaxRetries
	}
	if c.Captions.RetryWait > 0 {
		rc.InitialWait = c.Captions.RetryWait
	}
	if c.Captions.RetryMaxWait > 0 {
		rc.MaxWait = c.Captions.RetryMaxWait
	}

	return youtube.NewClient(
		youtube.WithBaseURL(c.Captions.BaseURL),
		youtube.WithHTTPClient(&http.Client{Timeout: c.Captions.Timeout}),
		youtube.WithRetry(rc),
		youtube.WithRateLimit(c.Captions.RateLimit, 1),
		youtube.WithLogger(l.Named("youtube")),
	)
}

// requestedLanguage picks the caption language: a positional code wins over
// --language, which wins over the configured default.
func requestedLanguage(positional, flag, fallback string) string {
	for _, v := range []string{positional, flag, fallback} {
		if v != "" {
			return v
		}
	}
	return "en"
}
