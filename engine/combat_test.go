package engine

import (
	"testing"

	"github.com/nathoo/kanjicrawl/engine/rng"
)

func TestDamageCalc_Fixed(t *testing.T) {
	r := rng.New(42)
	for _, variance := range []int{0, 1} {
		if got := DamageCalc(5, variance, r); got != 5 {
			t.Errorf("variance %d: damage %d, want 5", variance, got)
		}
	}
	if r.Position() != 0 {
		t.Error("fixed damage must not draw from the generator")
	}
}

func TestDamageCalc_MinimumOne(t *testing.T) {
	r := rng.New(1)
	for _, attack := range []int{0, -3} {
		if got := DamageCalc(attack, 1, r); got != 1 {
			t.Errorf("attack %d: damage %d, want 1", attack, got)
		}
	}
}

func TestDamageCalc_Range(t *testing.T) {
	r := rng.New(42)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		d := DamageCalc(4, 3, r)
		if d < 4 || d > 6 {
			t.Fatalf("damage %d outside [4,6]", d)
		}
		seen[d] = true
	}
	if len(seen) != 3 {
		t.Errorf("saw damages %v, want all of 4..6", seen)
	}
}

func TestDamageCalc_Deterministic(t *testing.T) {
	a, b := rng.New(7), rng.New(7)
	for i := 0; i < 50; i++ {
		if x, y := DamageCalc(3, 4, a), DamageCalc(3, 4, b); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestCheckAnswer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		readings []string
		want     bool
		norm     string
	}{
		{"hiragana", "みず", []string{"みず"}, true, "みず"},
		{"romaji", "mizu", []string{"みず"}, true, "みず"},
		{"case folded romaji", "MiZu", []string{"みず"}, true, "みず"},
		{"katakana", "ミズ", []string{"みず"}, true, "みず"},
		{"padded", "  みず ", []string{"みず"}, true, "みず"},
		{"full width romaji", "ｍｉｚｕ", []string{"みず"}, true, "みず"},
		{"second reading", "konnichi", []string{"きょう", "こんにち"}, true, "こんにち"},
		{"folded dzi", "hanaji", []string{"はなぢ"}, true, "はなじ"},
		{"long o as oo", "tōri", []string{"とおり"}, true, "とおり"},
		{"long o as ou", "kōkō", []string{"こうこう"}, true, "こうこう"},
		{"nn before y ends n", "kinnyoubi", []string{"きんようび"}, true, "きんようび"},
		{"nny as nya", "konnyaku", []string{"こんにゃく"}, true, "こんにゃく"},
		{"loanword ti", "thi-", []string{"てぃー"}, true, "てぃー"},
		{"wrong", "mizo", []string{"みず"}, false, "みぞ"},
		{"wrong long o", "tōri", []string{"とり"}, false, "とうり"},
		{"prefix only", "mi", []string{"みず"}, false, "み"},
		{"empty", "", []string{"みず"}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, norm := CheckAnswer(tt.input, tt.readings)
			if got != tt.want || norm != tt.norm {
				t.Errorf("CheckAnswer(%q) = %v, %q; want %v, %q", tt.input, got, norm, tt.want, tt.norm)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	readings := []string{"こんにちは"}
	if s := similarity("こんにちわ", readings); s < nearMissThreshold {
		t.Errorf("one-kana slip scored %.2f, want >= %.2f", s, nearMissThreshold)
	}
	if s := similarity("さようなら", readings); s >= nearMissThreshold {
		t.Errorf("unrelated word scored %.2f", s)
	}
	if s := similarity("x", nil); s != 0 {
		t.Errorf("no readings scored %.2f", s)
	}
}
