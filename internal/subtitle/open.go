package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Open parses a subtitle file, picking the parser from the extension.
func Open(path string) (*Subtitle, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var parse func(f *os.File) (*Subtitle, error)
	switch ext {
	case ".srt":
		parse = func(f *os.File) (*Subtitle, error) { return ParseSRT(f) }
	case ".vtt":
		parse = func(f *os.File) (*Subtitle, error) { return ParseVTT(f) }
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer f.Close()

	return parse(f)
}
