package i18n

import "net/url"

// Theme 信纸主题标识
type Theme string

const (
	ThemeClassic Theme = "classic"
	ThemeRose    Theme = "rose"
	ThemeSunset  Theme = "sunset"
	ThemeVintage Theme = "vintage"
	ThemeModern  Theme = "modern"
)

// DefaultTheme 未指定主题时的缺省值
const DefaultTheme = ThemeClassic

// themeNames 主题展示名
var themeNames = map[Theme]entry{
	ThemeClassic: {en: "Classic", sw: "Kawaida"},
	ThemeRose:    {en: "Rose Petals", sw: "Waridi"},
	ThemeSunset:  {en: "Sunset", sw: "Machweo"},
	ThemeVintage: {en: "Vintage", sw: "Kale"},
	ThemeModern:  {en: "Modern", sw: "Kisasa"},
}

// Themes 返回全部主题，按固定展示顺序。
func Themes() []Theme {
	return []Theme{ThemeClassic, ThemeRose, ThemeSunset, ThemeVintage, ThemeModern}
}

// Valid 判断主题标识是否受支持
func (t Theme) Valid() bool {
	_, ok := themeNames[t]
	return ok
}

// Name 返回主题在指定语言下的展示名
func (t Theme) Name(lang Language) string {
	e, ok := themeNames[t]
	if !ok {
		return string(t)
	}
	if lang == LanguageSwahili {
		return e.sw
	}
	return e.en
}

// ParseTheme 解析主题查询参数，无法识别时回退到缺省主题。
func ParseTheme(raw string) Theme {
	t := Theme(raw)
	if t.Valid() {
		return t
	}
	return DefaultTheme
}

// LetterURL 拼接信件的分享链接：<base>/<slug>
func LetterURL(baseURL, slug string) string {
	return baseURL + "/" + url.PathEscape(slug)
}

// LetterURLWithTheme 拼接带主题参数的分享链接：<base>/<slug>?theme=<id>
func LetterURLWithTheme(baseURL, slug string, theme Theme) string {
	if theme == "" || theme == DefaultTheme {
		return LetterURL(baseURL, slug)
	}
	return LetterURL(baseURL, slug) + "?theme=" + url.QueryEscape(string(theme))
}
