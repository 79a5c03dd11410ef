// Package geocoding normalizes free-text address components so that
// equivalent spellings ("123 Main St." / "123 MAIN STREET") compare equal.
package geocoding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownFieldKind is returned by NormalizeField for an unsupported kind.
var ErrUnknownFieldKind = errors.New("unknown field kind")

// Field kinds accepted by NormalizeField.
const (
	KindDefault      = "default"
	KindStreet       = "street"
	KindCity         = "city"
	KindCounty       = "county"
	KindState        = "state"
	KindNeighborhood = "neighborhood"
	KindBorough      = "borough"
	KindPostalCode   = "postal_code"
)

var (
	punctuationPattern = regexp.MustCompile(`[,;:\-\\'".]`)
	whitespacePattern  = regexp.MustCompile(`[\s\v\p{Z}\x{85}]+`)
)

// rule rewrites every match of pattern with a literal replacement. A word
// rule only rewrites matches that are not flanked by a letter, digit or
// underscore on either side, so "ST" never matches inside "STRÖM".
type rule struct {
	pattern     *regexp.Regexp
	replacement string
	word        bool
}

func r(pattern, replacement string) rule {
	return rule{pattern: regexp.MustCompile(pattern), replacement: replacement}
}

func w(pattern, replacement string) rule {
	return rule{pattern: regexp.MustCompile(pattern), replacement: replacement, word: true}
}

func (ru rule) replace(text string) string {
	if !ru.word {
		return ru.pattern.ReplaceAllLiteralString(text, ru.replacement)
	}

	var b strings.Builder
	last := 0
	for _, m := range ru.pattern.FindAllStringIndex(text, -1) {
		if !atWordBoundary(text, m[0], m[1]) {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(ru.replacement)
		last = m[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// atWordBoundary reports whether text[start:end] is a whole word.
func atWordBoundary(text string, start, end int) bool {
	if start > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(prev) {
			return false
		}
	}
	if end < len(text) {
		if next, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsNumber(c)
}

// rules is applied in declaration order; later rules see the output of earlier ones.
type rules []rule

func (rs rules) apply(text string) string {
	for _, ru := range rs {
		text = ru.replace(text)
	}
	return strings.TrimSpace(text)
}

// Normalize removes punctuation, upper-cases and trims the text.
// Upper-casing uses full Unicode case mapping ("straße" becomes "STRASSE").
func Normalize(text string) string {
	stripped := punctuationPattern.ReplaceAllLiteralString(text, "")
	// Casers keep state and must not be shared between goroutines.
	return strings.TrimSpace(cases.Upper(language.Und).String(stripped))
}

// NormalizeStreetName normalizes a street name and expands common suffix
// and direction abbreviations.
func NormalizeStreetName(name string) string {
	return streetRules.apply(Normalize(name))
}

// NormalizeNeighborhoodName collapses common downtown and business
// district spellings.
func NormalizeNeighborhoodName(name string) string {
	return neighborhoodRules.apply(Normalize(name))
}

// NormalizeBoroughName strips "BOROUGH OF" phrasing and expands BORO/BRO.
func NormalizeBoroughName(name string) string {
	return boroughRules.apply(Normalize(name))
}

// NormalizeCityName strips municipality designators and expands
// SAINT/MOUNT/FORT abbreviations.
func NormalizeCityName(name string) string {
	return cityRules.apply(Normalize(name))
}

// NormalizeCountyName strips county designators.
func NormalizeCountyName(name string) string {
	return countyRules.apply(Normalize(name))
}

// NormalizeStateName strips state and commonwealth designators.
func NormalizeStateName(name string) string {
	return stateRules.apply(Normalize(name))
}

// NormalizePostalCode collapses whitespace runs before normalizing.
func NormalizePostalCode(code string) string {
	return Normalize(whitespacePattern.ReplaceAllLiteralString(code, " "))
}

// NormalizeField dispatches to the normalizer for the given field kind.
func NormalizeField(kind, text string) (string, error) {
	switch kind {
	case KindDefault, "":
		return Normalize(text), nil
	case KindStreet:
		return NormalizeStreetName(text), nil
	case KindCity:
		return NormalizeCityName(text), nil
	case KindCounty:
		return NormalizeCountyName(text), nil
	case KindState:
		return NormalizeStateName(text), nil
	case KindNeighborhood:
		return NormalizeNeighborhoodName(text), nil
	case KindBorough:
		return NormalizeBoroughName(text), nil
	case KindPostalCode:
		return NormalizePostalCode(text), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldKind, kind)
	}
}

// FieldKinds lists every kind accepted by NormalizeField.
func FieldKinds() []string {
	return []string{
		KindDefault, KindStreet, KindCity, KindCounty, KindState,
		KindNeighborhood, KindBorough, KindPostalCode,
	}
}
