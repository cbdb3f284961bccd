package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func chatServer(t *testing.T, content string, inspect func(chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func newTestTranslator(url string) *Translator {
	return NewTranslator(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "gpt-4o-mini",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestTranslator_Translate(t *testing.T) {
	server := chatServer(t, `{"source_language":"fr","translation":"Hello world"}`, func(req chatRequest) {
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if req.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %q, want json_object", req.ResponseFormat.Type)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "Bonjour le monde" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "English") {
			t.Errorf("system prompt does not name the target language: %q", req.Messages[0].Content)
		}
	})
	defer server.Close()

	got, err := newTestTranslator(server.URL).Translate(context.Background(), "Bonjour le monde", "", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got.Text != "Hello world" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.SourceLanguage != "fr" {
		t.Errorf("SourceLanguage = %q", got.SourceLanguage)
	}
}

func TestTranslator_DeclaredSourceWins(t *testing.T) {
	server := chatServer(t, `{"source_language":"it","translation":"Hello world"}`, func(req chatRequest) {
		if !strings.Contains(req.Messages[0].Content, "Spanish") {
			t.Errorf("system prompt missing source hint: %q", req.Messages[0].Content)
		}
	})
	defer server.Close()

	got, err := newTestTranslator(server.URL).Translate(context.Background(), "Hola mundo", "es", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got.SourceLanguage != "es" {
		t.Errorf("SourceLanguage = %q, want es", got.SourceLanguage)
	}
}

func TestTranslator_MalformedReply(t *testing.T) {
	server := chatServer(t, `Hello world`, nil)
	defer server.Close()

	_, err := newTestTranslator(server.URL).Translate(context.Background(), "Bonjour", "", "en")
	if !errors.Is(err, domain.ErrTranslationFailure) {
		t.Fatalf("expected ErrTranslationFailure, got %v", err)
	}
}

func TestTranslator_EmptyTranslation(t *testing.T) {
	server := chatServer(t, `{"source_language":"fr","translation":"  "}`, nil)
	defer server.Close()

	_, err := newTestTranslator(server.URL).Translate(context.Background(), "Bonjour", "", "en")
	if !errors.Is(err, domain.ErrTranslationFailure) {
		t.Fatalf("expected ErrTranslationFailure, got %v", err)
	}
}

func TestTranslator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth_error"},
		})
	}))
	defer server.Close()

	_, err := newTestTranslator(server.URL).Translate(context.Background(), "Bonjour", "", "en")
	if !errors.Is(err, domain.ErrTranslationFailure) {
		t.Fatalf("expected ErrTranslationFailure, got %v", err)
	}
	if errors.Is(err, domain.ErrEmbeddingFailure) {
		t.Fatal("translation errors must stay distinct from embedding errors")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected provider message, got %q", err.Error())
	}
}

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"en":    "English",
		"fr":    "French",
		"zz-!!": "zz-!!",
	}
	for tag, want := range tests {
		if got := languageName(tag); got != want {
			t.Errorf("languageName(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q, want unchanged", got)
	}
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate = %q, want %q", got, "abc...")
	}

	// "привет" is two bytes per rune; 5 falls inside the third rune.
	got := truncate("привет", 5)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if got != "пр..." {
		t.Errorf("truncate = %q, want %q", got, "пр...")
	}
}
