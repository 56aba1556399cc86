package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mgpai22/tubeqa/internal/logging"
	"github.com/mgpai22/tubeqa/internal/subtitle"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	maxWatchPageBytes = 6 * 1024 * 1024
	maxTimedTextBytes = 4 * 1024 * 1024
)

// Client talks to the YouTube captions endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      RetryConfig
	limiter    *rate.Limiter // nil means unlimited
	logger     *logging.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

func WithRetry(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// WithRateLimit caps outgoing requests at rps per second. Zero or less
// disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		retry:      DefaultRetryConfig,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do waits for the limiter, then sends req.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return c.httpClient.Do(req)
}

// ListTranscripts returns every caption track of a video. The watch page is
// tried first; the ANDROID Innertube player endpoint is the fallback.
func (c *Client) ListTranscripts(ctx context.Context, videoID string) (*TranscriptList, error) {
	player, err := c.playerFromWatchPage(ctx, videoID)
	if err != nil || player.Captions == nil {
		if err != nil {
			c.logger.Debugw("Watch page scrape failed, trying player endpoint",
				"video_id", videoID,
				"error", err,
			)
		}
		fallback, ferr := c.playerFromInnertube(ctx, videoID)
		switch {
		case ferr == nil:
			player = fallback
		case err != nil:
			return nil, fmt.Errorf("list transcripts for %s: %w", videoID, errors.Join(err, ferr))
		}
	}

	return c.buildList(videoID, player)
}

// FetchTranscript lists the tracks, selects one by preference and downloads
// its cues.
func (c *Client) FetchTranscript(
	ctx context.Context,
	videoID string,
	pref Preference,
) ([]subtitle.Cue, *Transcript, error) {
	list, err := c.ListTranscripts(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}

	t, err := list.Select(pref)
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(t.LanguageCode, pref.Language) || t.IsGenerated {
		c.logger.Infow("Using fallback transcript",
			"requested", pref.Language,
			"language", t.LanguageCode,
			"generated", t.IsGenerated,
		)
	}

	cues, err := t.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cues, t, nil
}

func (c *Client) buildList(videoID string, player *playerResponse) (*TranscriptList, error) {
	if player.Captions == nil {
		if ps := player.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
			if ps.Reason != "" {
				return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, ps.Reason)
			}
			return nil, fmt.Errorf("%w: status %s", ErrVideoUnavailable, ps.Status)
		}
		return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, videoID)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, videoID)
	}

	list := &TranscriptList{VideoID: videoID}
	for _, tr := range tracks {
		t := &Transcript{
			VideoID:        videoID,
			Language:       tr.Name.String(),
			LanguageCode:   tr.LanguageCode,
			IsGenerated:    tr.Kind == "asr",
			IsTranslatable: tr.IsTranslatable,
			baseURL:        tr.BaseURL,
			client:         c,
		}
		if t.IsGenerated {
			list.Generated = append(list.Generated, t)
		} else {
			list.Manual = append(list.Manual, t)
		}
	}

	c.logger.Debugw("Listed transcripts",
		"video_id", videoID,
		"manual", len(list.Manual),
		"generated", len(list.Generated),
	)
	return list, nil
}

func (c *Client) playerFromWatchPage(ctx context.Context, videoID string) (*playerResponse, error) {
	watchURL := c.baseURL + watchPath + "?v=" + url.QueryEscape(videoID)

	resp, err := RetryHTTP(ctx, c.retry, c.logger, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		// skips the EU consent interstitial
		req.Header.Set("Cookie", "CONSENT=YES+cb")
		return c.do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWatchPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(playerResponseMark))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	raw := extractJSON(body[idx+len(playerResponseMark):])
	if raw == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &player, nil
}

func (c *Client) playerFromInnertube(ctx context.Context, videoID string) (*playerResponse, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + playerPath + "?prettyPrint=false"
	resp, err := RetryHTTP(ctx, c.retry, c.logger, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", androidUserAgent)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", androidVersion)
		return c.do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("innertube player: HTTP %d: %s", resp.StatusCode, snippet)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return &player, nil
}
