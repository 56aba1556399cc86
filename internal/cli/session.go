package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mgpai22/tubeqa/internal/rag"
)

const (
	urlPrompt      = "Enter the YouTube video URL: "
	questionPrompt = "Enter your question (or 'quit' to exit): "
	noSubtitlesMsg = "No subtitles available for this video."
)

// Asker answers one question about the loaded video.
type Asker interface {
	Ask(ctx context.Context, question string) (*rag.Answer, error)
}

// promptLine prints prompt and returns the next trimmed line. io.EOF is
// returned only when nothing was read.
func promptLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return line, nil
}

// runSession answers questions until "quit" (any case) or end of input.
// A failed question is reported and the loop goes on.
func runSession(
	ctx context.Context,
	in *bufio.Reader,
	out io.Writer,
	qa Asker,
	showSources bool,
) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		question, err := promptLine(in, out, questionPrompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}

		if question == "" {
			continue
		}
		if strings.EqualFold(question, "quit") {
			return nil
		}

		answer, err := qa.Ask(ctx, question)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "Answer: %s\n", answer.Text)
		if showSources {
			printSources(out, answer.Sources)
		}
	}
}

func printSources(out io.Writer, sources []rag.ScoredChunk) {
	for _, s := range sources {
		fmt.Fprintf(out, "  [%s] (%.3f) %s\n", formatOffset(s.Start), s.Score, snippet(s.Text, 80))
	}
}

func formatOffset(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
