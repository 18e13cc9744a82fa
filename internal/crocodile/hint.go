package crocodile

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type HintLevel string

const (
	HintNone       HintLevel = ""
	HintVeryHot    HintLevel = "very_hot"
	HintWarm       HintLevel = "warm"
	HintCold       HintLevel = "cold"
	HintNearLength HintLevel = "near_length"
	HintShorter    HintLevel = "shorter"
	HintLonger     HintLevel = "longer"
)

// Normalize trims surrounding whitespace and lower-cases s using Unicode
// case mapping, so Cyrillic and Latin words compare the same way.
func Normalize(s string) string {
	// cases.Caser keeps state; a fresh one per call keeps Normalize goroutine-safe.
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Classify compares a guess with the secret word. Lengths are counted in runes.
// Equal-length guesses are graded by positional matches; otherwise only the
// length difference is reported. It is total: any pair of strings yields a level.
func Classify(guess, target string) HintLevel {
	g := []rune(Normalize(guess))
	t := []rune(Normalize(target))

	if len(g) == len(t) {
		matches := 0
		for i := range t {
			if g[i] == t[i] {
				matches++
			}
		}
		// ratio > 0.7 and ratio > 0.4, kept in integers.
		switch {
		case matches*10 > len(t)*7:
			return HintVeryHot
		case matches*10 > len(t)*4:
			return HintWarm
		default:
			return HintCold
		}
	}

	diff := len(g) - len(t)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return HintNearLength
	case len(g) < len(t):
		return HintShorter
	default:
		return HintLonger
	}
}

// WordLength is the number of letters shown to players for a secret word.
func WordLength(word string) int {
	return utf8.RuneCountInString(word)
}
