package profile

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/coinspace/store"
)

const languageKey = "coinspace_language"

type Language string

const DefaultLanguage Language = "en"

type LanguageInfo struct {
	Code Language
	Name string
}

// Languages lists the supported interface languages with their native names.
var Languages = []LanguageInfo{
	{"en", "English"},
	{"id", "Bahasa Indonesia"},
	{"zh", "中文"},
	{"ja", "日本語"},
	{"ko", "한국어"},
	{"es", "Español"},
	{"fr", "Français"},
	{"de", "Deutsch"},
}

func (l Language) Valid() bool {
	for _, info := range Languages {
		if info.Code == l {
			return true
		}
	}
	return false
}

// Preferences are the per-user settings kept in the local store.
type Preferences struct {
	store store.Store
}

func New(s store.Store) *Preferences {
	return &Preferences{store: s}
}

// Language returns the saved language, or the default when none is saved or
// the saved value is not supported.
func (p *Preferences) Language(ctx context.Context) Language {
	l := store.GetJSON(ctx, p.store, languageKey, DefaultLanguage)
	if !l.Valid() {
		return DefaultLanguage
	}
	return l
}

func (p *Preferences) SetLanguage(ctx context.Context, l Language) error {
	if !l.Valid() {
		return fmt.Errorf("unsupported language %q", l)
	}
	if err := store.SetJSON(ctx, p.store, languageKey, l); err != nil {
		return fmt.Errorf("saving language: %w", err)
	}
	return nil
}
