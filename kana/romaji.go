package kana

import (
	"slices"
	"unicode/utf8"
)

// romajiTable maps romaji syllables to hiragana. Hepburn, Kunrei-shiki and
// Nihon-shiki spellings of the same sound map to the same kana.
var romajiTable = map[string]string{
	"a": "あ", "i": "い", "u": "う", "e": "え", "o": "お",

	"ka": "か", "ki": "き", "ku": "く", "ke": "け", "ko": "こ",
	"kya": "きゃ", "kyu": "きゅ", "kyo": "きょ",
	"ga": "が", "gi": "ぎ", "gu": "ぐ", "ge": "げ", "go": "ご",
	"gya": "ぎゃ", "gyu": "ぎゅ", "gyo": "ぎょ",

	"sa": "さ", "shi": "し", "si": "し", "su": "す", "se": "せ", "so": "そ",
	"sha": "しゃ", "sya": "しゃ", "shu": "しゅ", "syu": "しゅ", "sho": "しょ", "syo": "しょ",
	"she": "しぇ", "sye": "しぇ",
	"za": "ざ", "ji": "じ", "zi": "じ", "zu": "ず", "ze": "ぜ", "zo": "ぞ",
	"ja": "じゃ", "zya": "じゃ", "jya": "じゃ",
	"ju": "じゅ", "zyu": "じゅ", "jyu": "じゅ",
	"jo": "じょ", "zyo": "じょ", "jyo": "じょ",
	"je": "じぇ", "zye": "じぇ",

	"ta": "た", "chi": "ち", "ti": "ち", "tsu": "つ", "tu": "つ", "te": "て", "to": "と",
	"cha": "ちゃ", "tya": "ちゃ", "cya": "ちゃ",
	"chu": "ちゅ", "tyu": "ちゅ", "cyu": "ちゅ",
	"cho": "ちょ", "tyo": "ちょ", "cyo": "ちょ",
	"che": "ちぇ", "tye": "ちぇ",
	"da": "だ", "di": "ぢ", "du": "づ", "dzu": "づ", "de": "で", "do": "ど",
	"dya": "ぢゃ", "dyu": "ぢゅ", "dyo": "ぢょ",

	"na": "な", "ni": "に", "nu": "ぬ", "ne": "ね", "no": "の",
	"nya": "にゃ", "nyu": "にゅ", "nyo": "にょ",

	"ha": "は", "hi": "ひ", "fu": "ふ", "hu": "ふ", "he": "へ", "ho": "ほ",
	"hya": "ひゃ", "hyu": "ひゅ", "hyo": "ひょ",
	"fa": "ふぁ", "fi": "ふぃ", "fe": "ふぇ", "fo": "ふぉ",
	"ba": "ば", "bi": "び", "bu": "ぶ", "be": "べ", "bo": "ぼ",
	"bya": "びゃ", "byu": "びゅ", "byo": "びょ",
	"pa": "ぱ", "pi": "ぴ", "pu": "ぷ", "pe": "ぺ", "po": "ぽ",
	"pya": "ぴゃ", "pyu": "ぴゅ", "pyo": "ぴょ",

	"ma": "ま", "mi": "み", "mu": "む", "me": "め", "mo": "も",
	"mya": "みゃ", "myu": "みゅ", "myo": "みょ",
	"ya": "や", "yu": "ゆ", "yo": "よ",
	"ra": "ら", "ri": "り", "ru": "る", "re": "れ", "ro": "ろ",
	"rya": "りゃ", "ryu": "りゅ", "ryo": "りょ",
	"wa": "わ", "wo": "を", "vu": "ゔ",

	// Loanword syllables as IMEs spell them.
	"thi": "てぃ", "thu": "てゅ", "dhi": "でぃ", "dhu": "でゅ",
	"twu": "とぅ", "dwu": "どぅ",
	"tsa": "つぁ", "tsi": "つぃ", "tse": "つぇ", "tso": "つぉ",
	"wi": "うぃ", "we": "うぇ", "ye": "いぇ",
	"va": "ゔぁ", "vi": "ゔぃ", "ve": "ゔぇ", "vo": "ゔぉ",

	"xa": "ぁ", "la": "ぁ", "xi": "ぃ", "li": "ぃ", "xu": "ぅ", "lu": "ぅ",
	"xe": "ぇ", "le": "ぇ", "xo": "ぉ", "lo": "ぉ",
	"xya": "ゃ", "lya": "ゃ", "xyu": "ゅ", "lyu": "ゅ", "xyo": "ょ", "lyo": "ょ",
	"xtu": "っ", "ltu": "っ", "xtsu": "っ", "ltsu": "っ",
	"xwa": "ゎ", "lwa": "ゎ",

	"-": "ー",
}

// macrons expands long-vowel marks used in Hepburn romanisation. A long o
// is ambiguous (とう or とお) and is expanded by romajiRules.longO instead.
var macrons = map[rune]string{
	'ā': "aa", 'ī': "ii", 'ū': "uu", 'ē': "ee",
	'â': "aa", 'î': "ii", 'û': "uu", 'ê': "ee",
}

// romajiRules picks one reading where romaji spelling is ambiguous.
type romajiRules struct {
	longO string // expansion of ō and ô
	nnY   bool   // "nn" before y is a complete ん (kinnyoubi: きんようび)
}

var defaultRules = romajiRules{longO: "ou"}

// ruleSets lists every combination tried by FromRomajiAll, default first.
var ruleSets = []romajiRules{
	defaultRules,
	{longO: "ou", nnY: true},
	{longO: "oo"},
	{longO: "oo", nnY: true},
}

const maxSyllable = 4

func isVowel(b byte) bool {
	switch b {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

func isConsonant(b byte) bool {
	return b >= 'a' && b <= 'z' && !isVowel(b)
}

// FromRomaji converts lowercase romaji to hiragana using longest-match
// lookup. Runes it cannot convert are passed through unchanged, so input
// mixing kana and romaji converts only the romaji parts.
//
// Ambiguous spellings take the default reading: ō is おう and "nny" is
// ん followed by にゃ/にゅ/にょ. FromRomajiAll returns the others too.
func FromRomaji(s string) string {
	return fromRomaji(s, defaultRules)
}

// FromRomajiAll returns every distinct hiragana reading of s, the
// FromRomaji result first.
func FromRomajiAll(s string) []string {
	out := make([]string, 0, len(ruleSets))
	for _, rs := range ruleSets {
		h := fromRomaji(s, rs)
		if !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}

func fromRomaji(s string, rs romajiRules) string {
	var expanded []byte
	for _, r := range s {
		if r == 'ō' || r == 'ô' {
			expanded = append(expanded, rs.longO...)
			continue
		}
		if m, ok := macrons[r]; ok {
			expanded = append(expanded, m...)
			continue
		}
		expanded = append(expanded, string(r)...)
	}
	in := string(expanded)

	out := make([]byte, 0, len(in)*3)
	for i := 0; i < len(in); {
		c := in[i]

		// Syllabic n.
		if c == 'n' {
			var next, after byte
			if i+1 < len(in) {
				next = in[i+1]
			}
			if i+2 < len(in) {
				after = in[i+2]
			}
			switch {
			case next == '\'':
				out = append(out, "ん"...)
				i += 2
				continue
			case next == 'n' && !isVowel(after) && (after != 'y' || rs.nnY):
				out = append(out, "ん"...)
				i += 2
				continue
			case next == 'n':
				out = append(out, "ん"...)
				i++
				continue
			case next != 0 && !isVowel(next) && next != 'y':
				out = append(out, "ん"...)
				i++
				continue
			case next == 0:
				out = append(out, "ん"...)
				i++
				continue
			}
		}

		// Doubled consonant: small tsu.
		if isConsonant(c) && i+1 < len(in) {
			if in[i+1] == c || (c == 't' && in[i+1] == 'c') {
				out = append(out, "っ"...)
				i++
				continue
			}
		}

		matched := false
		for n := maxSyllable; n >= 1; n-- {
			if i+n > len(in) {
				continue
			}
			if k, ok := romajiTable[in[i:i+n]]; ok {
				out = append(out, k...)
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		// Pass through one whole rune.
		_, size := utf8.DecodeRuneInString(in[i:])
		out = append(out, in[i:i+size]...)
		i += size
	}
	return string(out)
}
