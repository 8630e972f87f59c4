// Package inflect derives naming forms from entity type and verb names:
// plural collection names, singular forms, slugs, and verb conjugations.
// Every function is deterministic and total; unrecognized suffixes fall
// through to the default rule instead of failing.
package inflect

import (
	"strings"
	"unicode"
)

// vowels used by the consonant+y pluralization rule.
const vowels = "aeiou"

func isVowel(r byte) bool {
	return strings.IndexByte(vowels, r) >= 0
}

// LowerFirst lower-cases the first character of s.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Pluralize returns the plural form of a singular noun:
// consonant+y becomes ies, s/x/ch/sh gains es, everything else gains s.
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "y") && len(s) > 1 && !isVowel(lower[len(lower)-2]):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}

// Singularize is the best-effort inverse of Pluralize. Irregular plurals
// are not recognized; callers treating this as a convenience heuristic
// must tolerate misses.
func Singularize(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(lower, "ses"), strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"):
		return s[:len(s)-2]
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss"):
		return s[:len(s)-1]
	default:
		return s
	}
}

// Collection returns the remote collection name for an entity type:
// first character lower-cased, then pluralized.
func Collection(typeName string) string {
	return Pluralize(LowerFirst(typeName))
}

// Slug returns the identifier prefix for an entity type: camel-case word
// boundaries become hyphens and the result is lower-cased.
func Slug(typeName string) string {
	var b strings.Builder
	for i, r := range typeName {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Activity returns the present participle of a verb action
// (launch -> launching, pause -> pausing).
func Activity(action string) string {
	if action == "" {
		return action
	}
	lower := strings.ToLower(action)
	if strings.HasSuffix(lower, "e") && !strings.HasSuffix(lower, "ee") {
		return action[:len(action)-1] + "ing"
	}
	return action + "ing"
}

// Past returns the past participle of a verb action
// (launch -> launched, pause -> paused, deny -> denied).
func Past(action string) string {
	if action == "" {
		return action
	}
	lower := strings.ToLower(action)
	switch {
	case strings.HasSuffix(lower, "e"):
		return action + "d"
	case strings.HasSuffix(lower, "y") && len(action) > 1 && !isVowel(lower[len(lower)-2]):
		return action[:len(action)-1] + "ied"
	default:
		return action + "ed"
	}
}
