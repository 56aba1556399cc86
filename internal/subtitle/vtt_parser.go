package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

var (
	vttTimestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
)

// ParseVTT reads WebVTT cues, skipping NOTE and STYLE blocks. Cue
// identifiers are optional.
func ParseVTT(r io.Reader) (*Subtitle, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)

	var currentEntry *Entry
	var textLines []string
	lineNum := 0
	headerParsed := false

	flush := func() {
		if currentEntry != nil && len(textLines) > 0 {
			currentEntry.Text = strings.Join(textLines, "\n")
			entries = append(entries, *currentEntry)
		}
		currentEntry = nil
		textLines = nil
	}

	skipBlock := func() {
		for scanner.Scan() {
			lineNum++
			if strings.TrimSpace(scanner.Text()) == "" {
				break
			}
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if !headerParsed && strings.HasPrefix(trimmed, "WEBVTT") {
			headerParsed = true
			continue
		}

		if strings.HasPrefix(trimmed, "NOTE") || strings.HasPrefix(trimmed, "STYLE") {
			skipBlock()
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		start, end, ok, err := matchVTTTiming(line)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp at line %d: %w", lineNum, err)
		}
		if ok {
			flush()
			currentEntry = &Entry{
				Index:     len(entries) + 1,
				StartTime: start,
				EndTime:   end,
			}
			continue
		}

		if currentEntry != nil {
			textLines = append(textLines, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT: %w", err)
	}

	return &Subtitle{Entries: entries, Format: string(FormatVTT)}, nil
}

func matchVTTTiming(line string) (time.Duration, time.Duration, bool, error) {
	if m := vttTimestampRegex.FindStringSubmatch(line); len(m) == 9 {
		start, err := parseTimestamp(m[1:5])
		if err != nil {
			return 0, 0, false, err
		}
		end, err := parseTimestamp(m[5:9])
		if err != nil {
			return 0, 0, false, err
		}
		return start, end, true, nil
	}

	// MM:SS.mmm form without hours
	if m := vttShortTimestampRegex.FindStringSubmatch(line); len(m) == 7 {
		start, err := parseTimestamp([]string{"00", m[1], m[2], m[3]})
		if err != nil {
			return 0, 0, false, err
		}
		end, err := parseTimestamp([]string{"00", m[4], m[5], m[6]})
		if err != nil {
			return 0, 0, false, err
		}
		return start, end, true, nil
	}

	return 0, 0, false, nil
}
