package domain

import "context"

// Translator converts text into a target language.
// sourceLang is a BCP 47 hint and may be empty, in which case the provider detects it.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (Translation, error)
}

// Translation is the translated text plus the language it was translated from.
type Translation struct {
	Text           string
	SourceLanguage string
}
