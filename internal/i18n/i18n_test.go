package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iamwavecut/shrek-bot/resources/consts"
)

func TestGet(t *testing.T) {
	assert.Equal(t, "I learned this:", Get("I learned this:", "en"))
	assert.Equal(t, "I learned this:", Get("I learned this:", ""))
	assert.Equal(t, "Вот что я выучил:", Get("I learned this:", "ru"))
	assert.Equal(t, "no such key", Get("no such key", "ru"))
	assert.Equal(t, "I learned this:", Get("I learned this:", "fr"))
}

func TestGetLanguagesList(t *testing.T) {
	assert.Equal(t, []string{"en", "ru", "uk"}, GetLanguagesList())
}

func TestUserFacingStringsAreTranslated(t *testing.T) {
	for _, key := range []string{
		consts.StrHello, consts.StrIntro, consts.StrTimeout, consts.StrLearned, consts.StrWouldLearn,
		consts.StrFetchError, consts.StrNothingFound, consts.StrReset, consts.StrRequestError,
	} {
		for _, lang := range []string{"ru", "uk"} {
			assert.NotEqual(t, key, Get(key, lang), "%s: %q", lang, key)
		}
	}
}
