package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTranslations(t *testing.T) {
	require.NoError(t, Initialize("/does/not/exist", "en"))

	assert.Equal(t, "Design not found", T("en", KeyDesignNotFound))
	assert.Equal(t, "找不到設計", T("zh_TW", KeyDesignNotFound))
	assert.Equal(t, "Design not found", T("fr", KeyDesignNotFound))
	assert.Equal(t, "Invalid input", T("en", KeyValidationInvalid, "input"))
	assert.Equal(t, "missing.key", T("en", "missing.key"))
	assert.ElementsMatch(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
}
