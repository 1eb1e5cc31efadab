package kana

import (
	"slices"
	"testing"
)

func TestFromRomaji(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mizu", "みず"},
		{"taberu", "たべる"},
		{"gakkou", "がっこう"},
		{"matcha", "まっちゃ"},
		{"konnichiha", "こんにちは"},
		{"konnnichiha", "こんにちは"},
		{"minna", "みんな"},
		{"hon", "ほん"},
		{"kin'en", "きんえん"},
		{"senpai", "せんぱい"},
		{"konnyaku", "こんにゃく"},
		{"tokyo", "ときょ"},
		{"toukyou", "とうきょう"},
		{"shashin", "しゃしん"},
		{"syasin", "しゃしん"},
		{"tsukue", "つくえ"},
		{"tukue", "つくえ"},
		{"fuji", "ふじ"},
		{"huzi", "ふじ"},
		{"chichi", "ちち"},
		{"titi", "ちち"},
		{"jisho", "じしょ"},
		{"zisyo", "じしょ"},
		{"kōhī", "こうひい"},
		{"ko-hi-", "こーひー"},
		{"", ""},
		{"みず", "みず"},
		{"みzu", "みず"},
		{"kinnyoubi", "きんにょうび"},
		{"thi", "てぃ"},
		{"dhisuku", "でぃすく"},
		{"twu", "とぅ"},
		{"dwu", "どぅ"},
		{"paathii", "ぱあてぃい"},
		{"wisuki-", "うぃすきー"},
		{"vaiorin", "ゔぁいおりん"},
		{"tsaa", "つぁあ"},
		{"tōri", "とうり"},
	}
	for _, tt := range tests {
		if got := FromRomaji(tt.in); got != tt.want {
			t.Errorf("FromRomaji(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  MIZU  ", "みず"},
		{"Mizu", "みず"},
		{"ミズ", "みず"},
		{"ﾐｽﾞ", "みず"},
		{"ｍｉｚｕ", "みず"},
		{"みず", "みず"},
		{"ta beru", "たべる"},
		{"ガッコウ", "がっこう"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"みず", "mizu", true},
		{"みず", "MIZU", true},
		{"みず", "ミズ", true},
		{"はなぢ", "hanaji", true},
		{"はなぢ", "hanadi", true},
		{"みかづき", "mikazuki", true},
		{"を", "o", true},
		{"し", "si", true},
		{"し", "shi", true},
		{"みず", "mizuu", false},
		{"みず", "mis", false},
		{"みず", "", false},
		{"", "", false},
		{"こう", "koo", false},
		{"とおり", "tōri", true},
		{"とうり", "tōri", true},
		{"おおきい", "ōkii", true},
		{"きんようび", "kinnyoubi", true},
		{"こんにゃく", "konnyaku", true},
		{"こんにゃく", "kon'yaku", false},
		{"てぃ", "thi", true},
		{"てぃ", "texi", true},
	}
	for _, tt := range tests {
		if got := Equivalent(tt.a, tt.b); got != tt.want {
			t.Errorf("Equivalent(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFromRomajiAll(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"mizu", []string{"みず"}},
		{"tōri", []string{"とうり", "とおり"}},
		{"kinnyoubi", []string{"きんにょうび", "きんようび"}},
		{"kōnnyo", []string{"こうんにょ", "こうんよ", "こおんにょ", "こおんよ"}},
		{"", []string{""}},
	}
	for _, tt := range tests {
		if got := FromRomajiAll(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("FromRomajiAll(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToHiragana(t *testing.T) {
	if got := ToHiragana("カタカナとひらがな"); got != "かたかなとひらがな" {
		t.Errorf("ToHiragana = %q", got)
	}
	if got := ToHiragana("コーヒー"); got != "こーひー" {
		t.Errorf("ToHiragana kept long vowel mark wrong: %q", got)
	}
}

func TestIsKanaHasKanji(t *testing.T) {
	if !IsKana("みず") || !IsKana("コーヒー") {
		t.Error("expected kana strings to be kana")
	}
	if IsKana("水") || IsKana("") || IsKana("mizu") {
		t.Error("expected non-kana strings to be rejected")
	}
	if !HasKanji("水") || !HasKanji("食べる") {
		t.Error("expected kanji to be detected")
	}
	if HasKanji("たべる") {
		t.Error("did not expect kanji in hiragana")
	}
}
