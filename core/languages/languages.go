// Package languages describes the languages a translation session can be
// configured with.
package languages

import (
	"slices"
	"strings"
)

// Language is a display-ready language descriptor.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

func (l Language) IsZero() bool { return l.Code == "" }

func (l Language) String() string {
	if l.Name == "" {
		return l.Code
	}
	return l.Name
}

var catalog = []Language{
	{Code: "en", Name: "English", Flag: "🇺🇸"},
	{Code: "ja", Name: "Japanese", Flag: "🇯🇵"},
	{Code: "ko", Name: "Korean", Flag: "🇰🇷"},
	{Code: "zh", Name: "Chinese", Flag: "🇨🇳"},
	{Code: "es", Name: "Spanish", Flag: "🇪🇸"},
	{Code: "fr", Name: "French", Flag: "🇫🇷"},
	{Code: "de", Name: "German", Flag: "🇩🇪"},
	{Code: "it", Name: "Italian", Flag: "🇮🇹"},
	{Code: "pt", Name: "Portuguese", Flag: "🇵🇹"},
	{Code: "th", Name: "Thai", Flag: "🇹🇭"},
	{Code: "vi", Name: "Vietnamese", Flag: "🇻🇳"},
	{Code: "id", Name: "Indonesian", Flag: "🇮🇩"},
	{Code: "ar", Name: "Arabic", Flag: "🇸🇦"},
	{Code: "hi", Name: "Hindi", Flag: "🇮🇳"},
	{Code: "ru", Name: "Russian", Flag: "🇷🇺"},
}

// Available returns the known languages in display order.
func Available() []Language {
	return slices.Clone(catalog)
}

// Lookup finds a language by code. Region suffixes ("en-US") fall back to the
// base code.
func Lookup(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Language{}, false
	}

	if i := slices.IndexFunc(catalog, func(l Language) bool { return l.Code == code }); i >= 0 {
		return catalog[i], true
	}

	if base, _, found := strings.Cut(code, "-"); found {
		return Lookup(base)
	}

	return Language{}, false
}

// Resolve builds a descriptor from whatever the backend sent, filling the
// missing name and flag from the catalog. Explicit values always win.
func Resolve(code, name, flag string) Language {
	language := Language{Code: strings.TrimSpace(code), Name: name, Flag: flag}
	if known, ok := Lookup(code); ok {
		if language.Name == "" {
			language.Name = known.Name
		}
		if language.Flag == "" {
			language.Flag = known.Flag
		}
	}

	return language
}
