package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/metrics"
)

const translatePrompt = `You are a translation engine. Translate the user's message into %s (%s).
Detect the language the message is written in.%s
Reply with a single JSON object and nothing else:
{"source_language": "<BCP 47 code of the message language>", "translation": "<the message in %s>"}
If the message is already in %s, copy it unchanged into "translation".`

// Translator translates text with an OpenAI-compatible chat completion model.
type Translator struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewTranslator creates a chat-completion translation provider.
func NewTranslator(cfg *Config) *Translator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{
		client:   newClient(cfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   logger,
	}
}

type translationReply struct {
	SourceLanguage string `json:"source_language"`
	Translation    string `json:"translation"`
}

// Translate implements domain.Translator.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (domain.Translation, error) {
	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildPrompt(sourceLang, targetLang)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := t.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.TranslationRequestsTotal.WithLabelValues(t.provider, t.model, "error").Inc()
		return domain.Translation{}, parseAPIError("translation", err, domain.ErrTranslationFailure)
	}
	if len(resp.Choices) == 0 {
		metrics.TranslationRequestsTotal.WithLabelValues(t.provider, t.model, "error").Inc()
		return domain.Translation{}, fmt.Errorf("empty translation response: %w", domain.ErrTranslationFailure)
	}

	var reply translationReply
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		metrics.TranslationRequestsTotal.WithLabelValues(t.provider, t.model, "error").Inc()
		return domain.Translation{}, fmt.Errorf("malformed translation reply %q: %v: %w",
			truncate(content, 200), err, domain.ErrTranslationFailure)
	}
	if strings.TrimSpace(reply.Translation) == "" {
		metrics.TranslationRequestsTotal.WithLabelValues(t.provider, t.model, "error").Inc()
		return domain.Translation{}, fmt.Errorf("translation reply has no text: %w", domain.ErrTranslationFailure)
	}

	metrics.TranslationRequestsTotal.WithLabelValues(t.provider, t.model, "success").Inc()
	metrics.TranslationRequestDuration.WithLabelValues(t.provider, t.model).Observe(duration.Seconds())

	src := reply.SourceLanguage
	if sourceLang != "" {
		src = sourceLang
	}

	t.logger.Debug("query translated",
		zap.String("source_language", src),
		zap.String("target_language", targetLang),
		zap.Duration("duration", duration),
	)

	return domain.Translation{Text: reply.Translation, SourceLanguage: src}, nil
}

// HealthCheck verifies API availability via ListModels.
func (t *Translator) HealthCheck(ctx context.Context) error {
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func buildPrompt(sourceLang, targetLang string) string {
	target := languageName(targetLang)
	hint := ""
	if sourceLang != "" {
		hint = fmt.Sprintf(" The sender says it is written in %s (%s).", languageName(sourceLang), sourceLang)
	}
	return fmt.Sprintf(translatePrompt, target, targetLang, hint, target, target)
}

// languageName returns the English display name of a BCP 47 tag, or the tag itself when unknown.
func languageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
