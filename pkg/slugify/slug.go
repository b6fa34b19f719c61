// Package slugify derives stable machine codes from localized display names.
//
// Cyrillic input is transliterated first, so "Браслеты" → "braslety" and
// "Аметист" → "ametist". Anything that still is not [a-z0-9] collapses into
// single hyphens. The result is never empty; unmappable input yields "x".
package slugify

import (
	"regexp"
	"strings"
)

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

var (
	nonSlugRE     = regexp.MustCompile(`[^a-z0-9]+`)
	multiHyphenRE = regexp.MustCompile(`-{2,}`)
)

// Slug converts text to a lowercase hyphenated code.
func Slug(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	for _, ch := range t {
		if repl, ok := translit[ch]; ok {
			b.WriteString(repl)
		} else {
			b.WriteRune(ch)
		}
	}

	s := nonSlugRE.ReplaceAllString(b.String(), "-")
	s = multiHyphenRE.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "x"
	}
	return s
}
