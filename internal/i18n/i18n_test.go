// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, Initialize("en"))

	assert.Equal(t, "Authentication required", T("en", KeyAuthRequired))
	assert.Equal(t, "需要登入", T("zh_TW", KeyAuthRequired))
	assert.Equal(t, "product not found", T("en", KeyNotFound, "product"))
	assert.Equal(t, "Authentication required", T("fr", KeyAuthRequired), "unknown language falls back")
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
}

func TestMatchAcceptLanguage(t *testing.T) {
	require.NoError(t, Initialize("en"))

	assert.Equal(t, "en", Match(""))
	assert.Equal(t, "en", Match("en-GB,en;q=0.9"))
	assert.Equal(t, "zh_TW", Match("zh-TW,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", Match("de-DE"))
	assert.Equal(t, "en", Match(";;;garbage"))
}

func TestEveryKeyIsTranslated(t *testing.T) {
	require.NoError(t, Initialize("en"))

	for lang, translations := range instance.translations {
		for key := range instance.translations["en"] {
			_, ok := translations[key]
			assert.True(t, ok, "%s is missing %s", lang, key)
		}
	}
}
