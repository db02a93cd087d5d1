package game

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaskRune stands in for every hidden character of the word.
const MaskRune = '_'

const maxWordRunes = 64

// alwaysShown are never hidden, whatever has been guessed.
const alwaysShown = "AEIOU "

// MaskWord renders word with every rune outside alwaysShown and used replaced by MaskRune.
// word is expected to be upper case already.
func MaskWord(word string, used []string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		if strings.ContainsRune(alwaysShown, r) || slices.Contains(used, string(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(MaskRune)
	}
	return b.String()
}

// normalizeWord upper-cases a submitted word and folds every whitespace run into
// one ' '. Every remaining rune must be a valid guess, and at least one must be
// hidden before the first guess.
func normalizeWord(word string) (string, error) {
	w := strings.ToUpper(strings.Join(strings.Fields(word), " "))
	n := utf8.RuneCountInString(w)
	if n == 0 || n > maxWordRunes || strings.ContainsRune(w, MaskRune) {
		return "", ErrInvalidWord
	}
	for _, r := range w {
		if r != ' ' && !guessable(r) {
			return "", ErrInvalidWord
		}
	}
	if !strings.ContainsRune(MaskWord(w, nil), MaskRune) {
		return "", ErrInvalidWord
	}
	return w, nil
}

// normalizeLetter accepts exactly one non-space rune. Digits and punctuation are
// valid guesses so titles like "3 IDIOTS" can be solved.
func normalizeLetter(letter string) (string, bool) {
	l := strings.TrimSpace(letter)
	if utf8.RuneCountInString(l) != 1 {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(l)
	if !guessable(r) {
		return "", false
	}
	return strings.ToUpper(l), true
}

func guessable(r rune) bool {
	return !unicode.IsSpace(r) && unicode.IsPrint(r)
}
