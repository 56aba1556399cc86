package cli

import (
	"fmt"
	"strings"

	"github.com/mgpai22/tubeqa/internal/subtitle"
	"github.com/mgpai22/tubeqa/internal/youtube"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <youtube_url> [language_code]",
	Short: "Download a video's subtitles as SRT",
	Long: `Download the captions of a YouTube video and write them to
subtitles_<language_code>.srt in the current directory.

Manually created captions are preferred. When the requested language has
none, the default language is used, then auto-generated captions (unless
--no-generated is set).

Examples:
  tubeqa fetch https://www.youtube.com/watch?v=dQw4w9WgXcQ
  tubeqa fetch https://youtu.be/dQw4w9WgXcQ es
  tubeqa fetch https://youtu.be/dQw4w9WgXcQ --list
  tubeqa fetch https://youtu.be/dQw4w9WgXcQ de -f vtt -o talk.vtt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().
		StringP("format", "f", "srt", "Subtitle format (srt, vtt)")
	fetchCmd.Flags().
		Bool("list", false, "List available transcripts and exit")
	fetchCmd.Flags().
		Bool("no-generated", false, "Do not fall back to auto-generated captions")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	formatStr, _ := cmd.Flags().GetString("format")
	listOnly, _ := cmd.Flags().GetBool("list")
	noGenerated, _ := cmd.Flags().GetBool("no-generated")
	outputPath, _ := cmd.Flags().GetString("output")
	langFlag, _ := cmd.Flags().GetString("language")

	var positional string
	if len(args) > 1 {
		positional = strings.TrimSpace(args[1])
	}
	lang := requestedLanguage(positional, langFlag, cfg.Captions.DefaultLanguage)

	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	videoID, err := youtube.ExtractVideoID(args[0])
	if err != nil {
		return err
	}

	client := newCaptionsClient(cfg, logger)

	if listOnly {
		list, err := client.ListTranscripts(ctx, videoID)
		if err != nil {
			return err
		}
		for _, t := range list.All() {
			fmt.Fprintln(out, t.String())
		}
		return nil
	}

	logger.Infow("Fetching transcript",
		"video_id", videoID,
		"language", lang,
		"default_language", cfg.Captions.DefaultLanguage,
	)

	cues, tr, err := client.FetchTranscript(ctx, videoID, youtube.Preference{
		Language:       lang,
		Default:        cfg.Captions.DefaultLanguage,
		AllowGenerated: !noGenerated,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch subtitles: %w", err)
	}
	if len(cues) == 0 {
		return fmt.Errorf("transcript %s for video %s has no cues", tr.LanguageCode, videoID)
	}

	if outputPath == "" {
		outputPath = defaultSubtitlePath(lang, format)
	}

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return err
	}
	sub := subtitle.FromCues(cues, tr.LanguageCode)
	if err := writer.Write(sub, outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	logger.Infow("Subtitles written",
		"path", outputPath,
		"entries", len(sub.Entries),
		"transcript", tr.String(),
	)
	fmt.Fprintf(out, "Subtitles saved to %s\n", outputPath)
	return nil
}

// subtitles_<lang>.srt, named after the requested language even when a
// fallback track was used.
func defaultSubtitlePath(lang string, format subtitle.Format) string {
	return "subtitles_" + lang + subtitle.GetExtensionForFormat(format)
}
