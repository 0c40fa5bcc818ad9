package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	t.Run("英语译文", func(t *testing.T) {
		assert.Equal(t, "Click to open", T(LanguageEnglish, "clickToOpen"))
		assert.Equal(t, "Letter not found", T(LanguageEnglish, "letterNotFound"))
	})

	t.Run("斯瓦希里语译文", func(t *testing.T) {
		assert.Equal(t, "Bofya kufungua", T(LanguageSwahili, "clickToOpen"))
		assert.Equal(t, "Barua haijapatikana", T(LanguageSwahili, "letterNotFound"))
	})

	t.Run("未收录的键原样返回", func(t *testing.T) {
		assert.Equal(t, "noSuchKey", T(LanguageEnglish, "noSuchKey"))
		assert.Equal(t, "noSuchKey", T(LanguageSwahili, "noSuchKey"))
	})

	t.Run("未知语言回退英语", func(t *testing.T) {
		assert.Equal(t, "Click to read", T(Language("fr"), "clickToRead"))
	})
}

func TestTranslationsComplete(t *testing.T) {
	// 每个键都必须有双语译文
	for _, key := range Keys() {
		assert.NotEmpty(t, T(LanguageEnglish, key), "missing en translation for %s", key)
		assert.NotEmpty(t, T(LanguageSwahili, key), "missing sw translation for %s", key)
	}
}

func TestLanguageValid(t *testing.T) {
	assert.True(t, LanguageEnglish.Valid())
	assert.True(t, LanguageSwahili.Valid())
	assert.False(t, Language("fr").Valid())
	assert.False(t, Language("").Valid())
	assert.Len(t, Languages(), 2)
}

func TestParseTheme(t *testing.T) {
	tests := []struct {
		raw  string
		want Theme
	}{
		{"classic", ThemeClassic},
		{"rose", ThemeRose},
		{"sunset", ThemeSunset},
		{"vintage", ThemeVintage},
		{"modern", ThemeModern},
		{"", ThemeClassic},
		{"neon", ThemeClassic},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTheme(tt.raw), "raw=%q", tt.raw)
	}
}

func TestThemeNames(t *testing.T) {
	assert.Equal(t, "Rose Petals", ThemeRose.Name(LanguageEnglish))
	assert.Equal(t, "Waridi", ThemeRose.Name(LanguageSwahili))
	assert.Equal(t, "Kisasa", ThemeModern.Name(LanguageSwahili))

	for _, theme := range Themes() {
		assert.True(t, theme.Valid())
		assert.NotEmpty(t, theme.Name(LanguageEnglish))
		assert.NotEmpty(t, theme.Name(LanguageSwahili))
	}
}

func TestLetterURL(t *testing.T) {
	assert.Equal(t, "https://nakupenda.co.tz/luv-a3b2", LetterURL("https://nakupenda.co.tz", "luv-a3b2"))
	assert.Equal(t,
		"https://nakupenda.co.tz/xo-k9m1?theme=rose",
		LetterURLWithTheme("https://nakupenda.co.tz", "xo-k9m1", ThemeRose),
	)
	// 缺省主题不携带查询参数
	assert.Equal(t,
		"https://nakupenda.co.tz/hey-x2y3",
		LetterURLWithTheme("https://nakupenda.co.tz", "hey-x2y3", ThemeClassic),
	)
}
