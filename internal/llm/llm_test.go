package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestFactoryReturnsProviderModels(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		provider  Provider
		wantModel string
		check     func(ChatModel) bool
	}{
		{ProviderGroq, "llama-3.3-70b-versatile", func(m ChatModel) bool { _, ok := m.(*OpenAIChat); return ok }},
		{ProviderOpenAI, "gpt-5-mini", func(m ChatModel) bool { _, ok := m.(*OpenAIChat); return ok }},
		{ProviderGemini, "gemini-2.5-flash", func(m ChatModel) bool { _, ok := m.(*GeminiChat); return ok }},
		{ProviderAnthropic, "claude-haiku-4-5", func(m ChatModel) bool { _, ok := m.(*AnthropicChat); return ok }},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			model, err := Factory(ctx, tt.provider, "fake-key", Options{})
			if err != nil {
				t.Fatalf("Factory(%s) returned error: %v", tt.provider, err)
			}
			if !tt.check(model) {
				t.Errorf("unexpected implementation %T", model)
			}
			if model.Model() != tt.wantModel {
				t.Errorf("Model() = %q, want %q", model.Model(), tt.wantModel)
			}
		})
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	for _, p := range []Provider{ProviderGroq, ProviderOpenAI, ProviderGemini, ProviderAnthropic} {
		if _, err := Factory(context.Background(), p, "", Options{}); err == nil {
			t.Errorf("expected error for %s without API key", p)
		}
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := Factory(context.Background(), Provider("unknown"), "fake-key", Options{})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"", ProviderGroq, false},
		{"Groq", ProviderGroq, false},
		{" anthropic ", ProviderAnthropic, false},
		{"gemini", ProviderGemini, false},
		{"llama", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProvider(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderPrompt(t *testing.T) {
	got := RenderPrompt("chunk one\n\nchunk two", "What is Go?")
	want := "You should give the answer based on the context. It should be a very accurate answer.\n" +
		"Context: chunk one\n\nchunk two\n" +
		"Question: What is Go?"
	if got != want {
		t.Errorf("RenderPrompt() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderPromptLeavesPlaceholdersInContext(t *testing.T) {
	got := RenderPrompt("literal {question} text", "q")
	if !strings.Contains(got, "Context: literal {question} text\n") {
		t.Errorf("placeholder inside context was substituted: %q", got)
	}
}

func TestOpenAIChatComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "llama-3.3-70b-versatile" {
			t.Errorf("model = %q", body.Model)
		}
		if len(body.Messages) != 1 || body.Messages[0].Content != "the prompt" {
			t.Errorf("messages = %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "llama-3.3-70b-versatile",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "  Go is a language.  "},
				"finish_reason": "stop"
			}]
		}`)
	}))
	defer srv.Close()

	model, err := Factory(context.Background(), ProviderGroq, "test-key", Options{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("Factory error: %v", err)
	}

	answer, err := model.Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if answer != "Go is a language." {
		t.Errorf("answer = %q", answer)
	}
}

func TestAnthropicChatComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "An answer."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 2}
		}`)
	}))
	defer srv.Close()

	model, err := NewAnthropicChat(context.Background(), "test-key", Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropicChat error: %v", err)
	}

	answer, err := model.Complete(context.Background(), "q")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if answer != "An answer." {
		t.Errorf("answer = %q", answer)
	}
}

func TestOpenAIChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	model, err := NewOpenAIChat(context.Background(), "k", Options{BaseURL: srv.URL + "/", Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAIChat error: %v", err)
	}
	if _, err := model.Complete(context.Background(), "q"); err == nil {
		t.Error("expected error for empty choices")
	}
}

// Integration test: only runs if GROQ_API_KEY is set
func TestGroqChatIntegration(t *testing.T) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		t.Skip("GROQ_API_KEY not set; skipping integration test")
	}

	model, err := Factory(context.Background(), ProviderGroq, apiKey, Options{MaxTokens: 64})
	if err != nil {
		t.Fatalf("Factory error: %v", err)
	}

	prompt := RenderPrompt("The sky in this video is green.", "What color is the sky?")
	answer, err := model.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if answer == "" {
		t.Error("expected a non-empty answer")
	}
}
