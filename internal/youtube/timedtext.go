package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/mgpai22/tubeqa/internal/subtitle"
)

var inlineTagRE = regexp.MustCompile(`<[^>]*>`)

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",innerxml"`
}

// needsPoToken reports whether a caption URL can only be fetched in a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

func (c *Client) fetchTimedText(ctx context.Context, baseURL string) ([]subtitle.Cue, error) {
	if needsPoToken(baseURL) {
		return nil, ErrPoTokenRequired
	}
	// srv3 is a different schema; the default format is <transcript><text>
	baseURL = strings.Replace(baseURL, "&fmt=srv3", "", 1)

	resp, err := RetryHTTP(ctx, c.retry, c.logger, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return c.do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch timedtext: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBytes))
	if err != nil {
		return nil, fmt.Errorf("read timedtext: %w", err)
	}
	return parseTimedText(body)
}

// parseTimedText turns timedtext XML into cues. Elements without text are
// skipped; entities are decoded and inline markup removed.
func parseTimedText(data []byte) ([]subtitle.Cue, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	cues := make([]subtitle.Cue, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := cleanCueText(line.Text)
		if text == "" {
			continue
		}

		start, err := parseSeconds(line.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid start %q: %w", line.Start, err)
		}
		dur, err := parseSeconds(line.Dur)
		if err != nil {
			return nil, fmt.Errorf("invalid dur %q: %w", line.Dur, err)
		}

		cues = append(cues, subtitle.Cue{
			Start:    start,
			Duration: dur,
			Text:     text,
		})
	}
	return cues, nil
}

// innerxml is still escaped once by XML and often once more by YouTube,
// so entities are decoded until stable.
func cleanCueText(raw string) string {
	text := raw
	for i := 0; i < 3; i++ {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}
	text = inlineTagRE.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func parseSeconds(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
