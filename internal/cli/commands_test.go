package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/tubeqa/internal/config"
	"github.com/mgpai22/tubeqa/internal/logging"
	"github.com/mgpai22/tubeqa/internal/subtitle"
	"github.com/spf13/cobra"
)

func TestMain(m *testing.M) {
	logger = logging.Nop()
	os.Exit(m.Run())
}

func executeRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out strings.Builder
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func captionsServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("v"); got != "vid123" {
			t.Errorf("video id = %q", got)
		}
		fmt.Fprintf(w, `<script>var ytInitialPlayerResponse = {
			"playabilityStatus": {"status": "OK"},
			"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
				{"baseUrl": "%[1]s/api/timedtext?v=vid123&lang=en", "name": {"simpleText": "English"}, "languageCode": "en"},
				{"baseUrl": "%[1]s/api/timedtext?v=vid123&lang=fr", "name": {"simpleText": "French"}, "languageCode": "fr", "kind": "asr"}
			]}}
		};</script>`, srv.URL)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<transcript>
			<text start="5.5" dur="2.25">Hello from %s</text>
			<text start="8" dur="1">World</text>
		</transcript>`, r.URL.Query().Get("lang"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchWritesSRT(t *testing.T) {
	srv := captionsServer(t)
	t.Setenv("TUBEQA_CAPTIONS_BASE_URL", srv.URL)
	t.Setenv("TUBEQA_CAPTIONS_MAX_RETRIES", "0")
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := executeRoot(t, "", "fetch", "https://www.youtube.com/watch?v=vid123&t=5", "de")
	if err != nil {
		t.Fatalf("fetch failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "subtitles_de.srt"))
	if err != nil {
		t.Fatalf("subtitles_de.srt not written: %v", err)
	}
	want := "1\n00:00:05,500 --> 00:00:07,750\nHello from en\n\n" +
		"2\n00:00:08,000 --> 00:00:09,000\nWorld\n\n"
	if string(data) != want {
		t.Errorf("subtitles_de.srt =\n%q\nwant\n%q", data, want)
	}
	if !strings.Contains(out, "Subtitles saved to subtitles_de.srt") {
		t.Errorf("output = %q", out)
	}
}

func TestFetchRequiresURL(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := executeRoot(t, "", "fetch")
	if err == nil {
		t.Fatal("expected error without URL")
	}
	if !strings.Contains(out, "Usage:") || !strings.Contains(out, "fetch <youtube_url> [language_code]") {
		t.Errorf("usage not printed, output = %q", out)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("files written without URL: %v", entries)
	}
}

func TestFetchRejectsForeignURL(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := executeRoot(t, "", "fetch", "https://vimeo.com/123"); err == nil {
		t.Fatal("expected error for non-YouTube URL")
	}
}

func providerServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var body struct {
				Input []string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode embeddings request: %v", err)
			}
			var data []string
			for i, text := range body.Input {
				x := 0
				if strings.Contains(text, "Go") {
					x = 1
				}
				data = append(data, fmt.Sprintf(`{"object":"embedding","index":%d,"embedding":[%d,1]}`, i, x))
			}
			fmt.Fprintf(w, `{"object":"list","model":"m","data":[%s],"usage":{"prompt_tokens":1,"total_tokens":1}}`,
				strings.Join(data, ","))
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			fmt.Fprint(w, `{"id":"c","object":"chat.completion","created":1,"model":"m",
				"choices":[{"index":0,"message":{"role":"assistant","content":"Go is a language."},"finish_reason":"stop"}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAskOverLocalSubtitles(t *testing.T) {
	srv := providerServer(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("TUBEQA_EMBEDDING_BASE_URL", srv.URL+"/")
	t.Setenv("TUBEQA_CHAT_BASE_URL", srv.URL+"/")

	srtPath := filepath.Join(t.TempDir(), "talk.srt")
	sub := subtitle.FromCues([]subtitle.Cue{
		{Start: 1, Duration: 2, Text: "Go is a language by Google."},
		{Start: 3, Duration: 2, Text: "It has goroutines."},
	}, "en")
	if err := (&subtitle.SRTWriter{}).Write(sub, srtPath); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	out, err := executeRoot(t, "What is Go?\nquit\n",
		"ask",
		"--subtitles", srtPath,
		"--chat-provider", "openai",
		"--embedding-provider", "openai",
		"--show-sources",
	)
	if err != nil {
		t.Fatalf("ask failed: %v\n%s", err, out)
	}

	if !strings.Contains(out, questionPrompt) {
		t.Errorf("question prompt missing:\n%s", out)
	}
	if !strings.Contains(out, "Answer: Go is a language.\n") {
		t.Errorf("answer missing:\n%s", out)
	}
	if !strings.Contains(out, "[00:00:01]") {
		t.Errorf("sources missing:\n%s", out)
	}
}

func TestApplyAskFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("chat-provider", "", "")
	cmd.Flags().Int("top-k", 0, "")
	cmd.Flags().Int("chunk-overlap", 0, "")
	_ = cmd.Flags().Set("chat-provider", "anthropic")
	_ = cmd.Flags().Set("top-k", "8")

	c := &config.Config{
		Captions:  config.CaptionsConfig{DefaultLanguage: "en"},
		Chat:      config.ChatConfig{Provider: "groq"},
		Retrieval: config.RetrievalConfig{ChunkSize: 1000, ChunkOverlap: 200, TopK: 4},
	}
	if err := applyAskFlags(cmd, c); err != nil {
		t.Fatalf("applyAskFlags error: %v", err)
	}
	if c.Chat.Provider != "anthropic" || c.Retrieval.TopK != 8 {
		t.Errorf("flags not applied: %+v", c)
	}
	if c.Retrieval.ChunkOverlap != 200 {
		t.Errorf("unset flag overwrote config: overlap = %d", c.Retrieval.ChunkOverlap)
	}

	_ = cmd.Flags().Set("chunk-overlap", "5000")
	if err := applyAskFlags(cmd, c); err == nil {
		t.Error("expected validation error for overlap >= chunk size")
	}
}

func TestRequestedLanguage(t *testing.T) {
	tests := []struct {
		positional, flag, fallback, want string
	}{
		{"es", "de", "en", "es"},
		{"", "de", "en", "de"},
		{"", "", "fr", "fr"},
		{"", "", "", "en"},
	}
	for _, tt := range tests {
		if got := requestedLanguage(tt.positional, tt.flag, tt.fallback); got != tt.want {
			t.Errorf("requestedLanguage(%q, %q, %q) = %q, want %q",
				tt.positional, tt.flag, tt.fallback, got, tt.want)
		}
	}
}

func TestDefaultSubtitlePath(t *testing.T) {
	if got := defaultSubtitlePath("en", subtitle.FormatSRT); got != "subtitles_en.srt" {
		t.Errorf("got %q", got)
	}
	if got := defaultSubtitlePath("pt-BR", subtitle.FormatVTT); got != "subtitles_pt-BR.vtt" {
		t.Errorf("got %q", got)
	}
}
