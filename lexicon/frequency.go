package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nathoo/kanjicrawl/types"
)

// Frequency cut-offs for tiering: higher counts are more common.
const (
	commonFrequency   = 1000
	uncommonFrequency = 100
)

// TierForFrequency assigns a tier from a corpus frequency count. Without a
// count (known is false) the tier falls back to surface length: one or two
// characters are tier 1, three are tier 2, longer words tier 3.
func TierForFrequency(surface string, freq float64, known bool) int {
	if !known {
		switch n := utf8.RuneCountInString(surface); {
		case n <= 2:
			return 1
		case n == 3:
			return 2
		default:
			return 3
		}
	}
	switch {
	case freq >= commonFrequency:
		return 1
	case freq >= uncommonFrequency:
		return 2
	default:
		return 3
	}
}

// Cut-offs for a dictionary frequency_score, the sum of the frequency ranks
// of a word's kanji: lower is more common.
const (
	commonScore   = 800
	uncommonScore = 2500
)

// TierForScore assigns a tier from a dictionary frequency_score.
func TierForScore(score float64) int {
	switch {
	case score <= commonScore:
		return 1
	case score <= uncommonScore:
		return 2
	default:
		return 3
	}
}

// TierForDictFrequency tiers a dictionary entry by its priority frequency
// (higher is more common) together with its length. Single characters are
// always tier 1.
func TierForDictFrequency(surface string, freq float64) int {
	switch n := utf8.RuneCountInString(surface); {
	case n <= 1:
		return 1
	case n == 2:
		if freq >= 2.5 {
			return 1
		}
		return 2
	default:
		switch {
		case freq >= 4.5:
			return 1
		case freq >= 3:
			return 2
		}
		return 3
	}
}

// ReadFrequencyList parses "word,frequency" or tab separated lines.
// Blank lines, '#' comments and lines with an unparsable count are skipped.
func ReadFrequencyList(r io.Reader) (map[string]float64, error) {
	freqs := map[string]float64{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sep := "\t"
		if strings.Contains(line, ",") {
			sep = ","
		}
		parts := strings.Split(line, sep)
		if len(parts) < 2 {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		freqs[strings.TrimSpace(parts[0])] = f
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: read frequency list: %w", err)
	}
	return freqs, nil
}

// ApplyFrequencies re-tiers entries in place using freqs. Entries missing
// from the list keep their tier, or get the length fallback if they have none.
func ApplyFrequencies(entries []types.VocabEntry, freqs map[string]float64) {
	for i := range entries {
		f, ok := freqs[entries[i].Surface]
		if ok || entries[i].Tier <= 0 {
			entries[i].Tier = TierForFrequency(entries[i].Surface, f, ok)
		}
	}
}
