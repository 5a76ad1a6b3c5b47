package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// speechLanguages are the languages accepted by name as well as by code.
// Any well-formed BCP 47 tag or ISO 639 code is accepted regardless.
var speechLanguages = []xlanguage.Tag{
	xlanguage.English,
	xlanguage.Spanish,
	xlanguage.French,
	xlanguage.German,
	xlanguage.Italian,
	xlanguage.Portuguese,
	xlanguage.Japanese,
	xlanguage.Korean,
	xlanguage.Chinese,
	xlanguage.Russian,
	xlanguage.Arabic,
	xlanguage.Hindi,
	xlanguage.Dutch,
	xlanguage.Polish,
	xlanguage.Swedish,
	xlanguage.Danish,
	xlanguage.Norwegian,
	xlanguage.Finnish,
	xlanguage.Turkish,
	xlanguage.Ukrainian,
}

// byName maps lowercase English names ("english") to their tags.
var byName = func() map[string]xlanguage.Tag {
	names := display.English.Languages()
	m := make(map[string]xlanguage.Tag, len(speechLanguages))
	for _, tag := range speechLanguages {
		m[strings.ToLower(names.Name(tag))] = tag
	}
	return m
}()

// Code returns the shortest ISO 639 code for a language code, tag, or English
// name: "eng", "en-US", and "English" all yield "en". It returns "" for empty
// or unrecognized input.
func Code(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if tag, ok := byName[value]; ok {
		return baseCode(tag)
	}
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return ""
	}
	return baseCode(tag)
}

// DisplayName returns the English name for a recognized language, the
// uppercased input otherwise, and "Auto-detect" for empty input.
func DisplayName(value string) string {
	code := Code(value)
	if code == "" {
		if strings.TrimSpace(value) == "" {
			return "Auto-detect"
		}
		return strings.ToUpper(strings.TrimSpace(value))
	}
	return display.English.Languages().Name(xlanguage.MustParse(code))
}

func baseCode(tag xlanguage.Tag) string {
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return ""
	}
	code := base.String()
	if code == "und" {
		return ""
	}
	return code
}
