// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
	matcher      language.Matcher
	tags         []string
}

var instance *I18n
var once sync.Once

// Initialize loads the embedded locales. defaultLang is used when a key or
// language is missing.
func Initialize(defaultLang string) error {
	var err error
	once.Do(func() {
		if defaultLang == "" {
			defaultLang = "en"
		}
		instance = &I18n{
			translations: make(map[string]map[string]string),
			defaultLang:  defaultLang,
		}
		err = instance.LoadTranslations()
	})
	return err
}

func (i *I18n) LoadTranslations() error {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("failed to list locales: %w", err)
	}

	// The default language goes first so the matcher falls back to it.
	langs := []string{i.defaultLang}
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".json")
		data, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", entry.Name(), err)
		}

		i.mu.Lock()
		i.translations[lang] = translations
		i.mu.Unlock()

		if lang != i.defaultLang {
			langs = append(langs, lang)
		}
	}

	supported := make([]language.Tag, 0, len(langs))
	for _, lang := range langs {
		supported = append(supported, language.Make(strings.ReplaceAll(lang, "_", "-")))
	}
	i.matcher = language.NewMatcher(supported)
	i.tags = langs
	return nil
}

// Match picks the best supported locale for an Accept-Language header.
func (i *I18n) Match(acceptLanguage string) string {
	if acceptLanguage == "" || i.matcher == nil {
		return i.defaultLang
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return i.defaultLang
	}
	_, index, confidence := i.matcher.Match(prefs...)
	if confidence == language.No {
		return i.defaultLang
	}
	return i.tags[index]
}

func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if text, ok := i.lookup(lang, key); ok {
		return format(text, args)
	}
	if lang != i.defaultLang {
		if text, ok := i.lookup(i.defaultLang, key); ok {
			return format(text, args)
		}
	}
	return key
}

func (i *I18n) lookup(lang, key string) (string, bool) {
	translations, ok := i.translations[lang]
	if !ok {
		return "", false
	}
	text, ok := translations[key]
	return text, ok
}

func format(text string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// T translates with the package instance. Before Initialize it returns key.
func T(lang, key string, args ...interface{}) string {
	if instance == nil {
		return key
	}
	return instance.T(lang, key, args...)
}

// Match resolves an Accept-Language header with the package instance.
func Match(acceptLanguage string) string {
	if instance == nil {
		return "en"
	}
	return instance.Match(acceptLanguage)
}

// DefaultLocale is the configured fallback locale, "en" before Initialize.
func DefaultLocale() string {
	if instance == nil {
		return "en"
	}
	return instance.defaultLang
}
