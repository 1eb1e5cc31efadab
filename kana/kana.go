// Package kana normalises typed answers and dictionary readings into a
// single comparable form.
//
// Normalize folds width variants (NFKC), lowercases, converts katakana to
// hiragana and romaji to hiragana. Key additionally folds sounds that are
// spelled differently but pronounced the same (ぢ/じ, づ/ず, を/お), so two
// readings are equivalent exactly when their keys are equal. Romaji with
// more than one plausible reading (ō, "nny") is compared under each.
package kana

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	katakanaFirst = 'ァ'
	katakanaLast  = 'ヶ'
	kanaOffset    = 'ァ' - 'ぁ'
)

// ToHiragana converts katakana runes to hiragana, leaving everything else.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= katakanaFirst && r <= katakanaLast {
			return r - kanaOffset
		}
		return r
	}, s)
}

// fold applies everything Normalize does short of romaji conversion.
func fold(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return ToHiragana(s)
}

// Normalize returns the hiragana form of s.
func Normalize(s string) string {
	return FromRomaji(fold(s))
}

// NormalizeAll returns every hiragana form of s when its romaji is
// ambiguous, the Normalize result first.
func NormalizeAll(s string) []string {
	return FromRomajiAll(fold(s))
}

var homophones = strings.NewReplacer(
	"ぢ", "じ",
	"づ", "ず",
	"を", "お",
	"ゎ", "わ",
)

// Key returns the phonetic comparison key of s.
func Key(s string) string {
	return homophones.Replace(Normalize(s))
}

// Equivalent reports whether a and b read the same under some reading of
// their romaji.
func Equivalent(a, b string) bool {
	kb := keys(b)
	for _, ka := range keys(a) {
		if ka != "" && slices.Contains(kb, ka) {
			return true
		}
	}
	return false
}

func keys(s string) []string {
	all := NormalizeAll(s)
	for i, h := range all {
		all[i] = homophones.Replace(h)
	}
	return all
}

// IsKana reports whether s consists only of hiragana, katakana and the
// long-vowel mark.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.In(r, unicode.Hiragana, unicode.Katakana) && r != 'ー' {
			return false
		}
	}
	return true
}

// HasKanji reports whether s contains at least one Han character.
func HasKanji(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
