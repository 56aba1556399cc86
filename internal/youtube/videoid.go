package youtube

import (
	"fmt"
	"strings"
)

const (
	shortDomain    = "youtu.be"
	standardDomain = "youtube.com"
)

// ExtractVideoID pulls the video identifier out of a YouTube URL.
//
// Short links (youtu.be) yield their final "/"-delimited segment verbatim,
// query string included. Standard links yield the value after the last "v="
// up to the next "&". The identifier's
// shape is not validated; a malformed URL on a recognised domain produces an
// identifier the captions service will reject.
func ExtractVideoID(rawURL string) (string, error) {
	switch {
	case strings.Contains(rawURL, shortDomain):
		return rawURL[strings.LastIndex(rawURL, "/")+1:], nil
	case strings.Contains(rawURL, standardDomain):
		rest := rawURL
		if i := strings.LastIndex(rawURL, "v="); i >= 0 {
			rest = rawURL[i+len("v="):]
		}
		id, _, _ := strings.Cut(rest, "&")
		return id, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
}
