package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes characters and strips the combining marks, so
// "São Paulo" and "Sao Paulo" fold to the same bytes. Cities and states in
// Brazilian addresses are routinely typed both ways.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and removes diacritics.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the input.
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// CitySlug normalizes a city or state name for accent-insensitive matching.
// Interior whitespace is collapsed so "sao  paulo" and "sao paulo" match.
func CitySlug(s string) string {
	return strings.Join(strings.Fields(Fold(s)), " ")
}
