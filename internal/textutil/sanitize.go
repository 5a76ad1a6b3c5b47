package textutil

import (
	"strings"
	"unicode/utf8"
)

// MaxTitleLength caps sanitized titles, measured in runes.
const MaxTitleLength = 100

// titleReplacer drops characters that are illegal in filenames on common filesystems.
var titleReplacer = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeTitle turns a free-form title into a filename stem. Illegal
// characters are removed, whitespace runs collapse to one space, and the
// result is trimmed and capped at MaxTitleLength runes. It returns "" when
// nothing usable remains.
func SanitizeTitle(title string) string {
	cleaned := titleReplacer.Replace(title)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if utf8.RuneCountInString(cleaned) > MaxTitleLength {
		runes := []rune(cleaned)
		cleaned = strings.TrimSpace(string(runes[:MaxTitleLength]))
	}
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".") {
		cleaned = strings.TrimLeft(cleaned, ".")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
