// Package importer turns dictionary dumps into vocabulary entries for the
// PostgreSQL lexicon.
//
// A dump is a single table of dictionary rows, read either from a SQLite
// database (see [ReadFile]) or from a tab or comma separated export with a
// header row (see [ReadDelimited]). Columns are found by name, so exports
// with differing layouts load without configuration. [Entries] filters and
// tiers the rows; [KindleEntries] does the same for the words looked up on
// a Kindle; [Write] stores the result in batches.
package importer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nathoo/kanjicrawl/kana"
	"github.com/nathoo/kanjicrawl/lexicon"
	"github.com/nathoo/kanjicrawl/types"
)

// DefaultMaxLength keeps the short everyday words that make good questions.
const DefaultMaxLength = 3

// DefaultBatchSize is the number of entries written per upsert.
const DefaultBatchSize = 500

// ErrNoReadingColumn is returned for dumps without a reading column.
var ErrNoReadingColumn = errors.New("importer: no reading column (want reading or kana)")

// ScoreKind tells how the score column of a dump ranks words.
type ScoreKind uint8

const (
	// ScoreNone: the dump has no score column.
	ScoreNone ScoreKind = iota
	// ScoreFrequency is a priority frequency: higher is more common.
	ScoreFrequency
	// ScoreRank is a frequency_score, the sum of kanji ranks: lower is
	// more common.
	ScoreRank
)

// Columns names the columns picked from a dump. Empty means absent.
type Columns struct {
	Surface string
	Reading string
	Meaning string
	Score   string
	Kind    ScoreKind
}

// DetectColumns picks the surface, reading, meaning and score columns from
// a header by name, case-insensitively. The surface falls back to the first
// column; a frequency_score column wins over a plain frequency one.
func DetectColumns(cols []string) (Columns, error) {
	if len(cols) == 0 {
		return Columns{}, errors.New("importer: dump has no columns")
	}
	find := func(names ...string) string {
		for _, c := range cols {
			if slices.Contains(names, strings.ToLower(strings.TrimSpace(c))) {
				return c
			}
		}
		return ""
	}

	c := Columns{
		Surface: find("surface", "word", "term"),
		Reading: find("reading", "kana"),
		Meaning: find("meaning", "meanings", "definition", "definitions", "gloss"),
	}
	if c.Surface == "" {
		c.Surface = cols[0]
	}
	if s := find("frequency_score"); s != "" {
		c.Score, c.Kind = s, ScoreRank
	} else if s := find("frequency", "freq"); s != "" {
		c.Score, c.Kind = s, ScoreFrequency
	}
	if c.Reading == "" {
		return c, ErrNoReadingColumn
	}
	return c, nil
}

// Record is one dictionary row.
type Record struct {
	Surface  string
	Reading  string
	Meaning  string
	Score    float64
	HasScore bool
}

// Dump is a dictionary table read into memory.
type Dump struct {
	Columns Columns
	Records []Record
}

// Options control filtering and tiering.
type Options struct {
	// MaxLength drops surfaces longer than this many characters. Zero
	// means DefaultMaxLength.
	MaxLength int

	// Frequencies is an external word frequency list. When set it decides
	// every tier, with the length fallback for words it does not list.
	Frequencies map[string]float64
}

func (o Options) maxLength() int {
	if o.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return o.MaxLength
}

// Stats counts what an import kept.
type Stats struct {
	Read    int // rows considered
	Kept    int // entries produced, after merging rows of one surface
	Skipped int // rows dropped by a filter
}

func (s Stats) String() string {
	return fmt.Sprintf("%d rows, %d entries, %d skipped", s.Read, s.Kept, s.Skipped)
}

// Entries converts the rows of d into vocabulary entries. Rows are kept
// when the surface is Japanese (kanji or hiragana), at most MaxLength
// characters long and has a kana reading. Rows sharing a surface merge into
// one entry that accepts all of their readings and takes the easiest tier.
func Entries(d *Dump, opts Options) ([]types.VocabEntry, Stats) {
	tier := func(r Record) int {
		if opts.Frequencies != nil {
			f, ok := opts.Frequencies[r.Surface]
			return lexicon.TierForFrequency(r.Surface, f, ok)
		}
		switch d.Columns.Kind {
		case ScoreRank:
			if r.HasScore {
				return lexicon.TierForScore(r.Score)
			}
			return lexicon.TierForFrequency(r.Surface, 0, false)
		case ScoreFrequency:
			if r.HasScore {
				return lexicon.TierForDictFrequency(r.Surface, r.Score)
			}
		}
		return lexicon.TierForDictFrequency(r.Surface, defaultDictFrequency)
	}
	return build(d.Records, opts.maxLength(), isJapanese, tier)
}

// defaultDictFrequency stands in for rows without a priority frequency.
const defaultDictFrequency = 3.0

// KindleEntries builds entries for the words looked up on a Kindle. Only
// words with kanji are kept; readings and meanings come from dict, so words
// it does not know are skipped. Tiers follow the frequency list, or the
// surface length without one.
func KindleEntries(words []string, dict *Dump, opts Options) ([]types.VocabEntry, Stats) {
	bySurface := make(map[string][]Record, len(dict.Records))
	for _, r := range dict.Records {
		s := strings.TrimSpace(r.Surface)
		bySurface[s] = append(bySurface[s], r)
	}

	var recs []Record
	var st Stats
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		matches, ok := bySurface[w]
		if !ok {
			st.Read++
			st.Skipped++
			continue
		}
		recs = append(recs, matches...)
	}

	tier := func(r Record) int {
		f, ok := opts.Frequencies[r.Surface]
		return lexicon.TierForFrequency(r.Surface, f, ok)
	}
	entries, bst := build(recs, opts.maxLength(), kana.HasKanji, tier)
	st.Read += bst.Read
	st.Kept = bst.Kept
	st.Skipped += bst.Skipped
	return entries, st
}

// build filters recs and merges them by surface, keeping first-seen order.
func build(recs []Record, maxLen int, keep func(string) bool, tier func(Record) int) ([]types.VocabEntry, Stats) {
	var st Stats
	var out []types.VocabEntry
	index := map[string]int{}
	for _, r := range recs {
		st.Read++
		r.Surface = strings.TrimSpace(r.Surface)
		if r.Surface == "" || !keep(r.Surface) || utf8.RuneCountInString(r.Surface) > maxLen {
			st.Skipped++
			continue
		}
		readings := splitReadings(r.Reading)
		if len(readings) == 0 {
			st.Skipped++
			continue
		}
		t := tier(r)

		if i, ok := index[r.Surface]; ok {
			e := &out[i]
			for _, rd := range readings {
				if !slices.Contains(e.Readings, rd) {
					e.Readings = append(e.Readings, rd)
				}
			}
			if e.Gloss == "" {
				e.Gloss = strings.TrimSpace(r.Meaning)
			}
			e.Tier = min(e.Tier, t)
			continue
		}
		index[r.Surface] = len(out)
		out = append(out, types.VocabEntry{
			Surface:  r.Surface,
			Readings: readings,
			Gloss:    strings.TrimSpace(r.Meaning),
			Tier:     t,
		})
	}
	for i := range out {
		out[i].ID = lexicon.EntryID(out[i].Surface, out[i].Readings)
	}
	st.Kept = len(out)
	return out, st
}

// splitReadings returns the hiragana readings in a reading cell. Several
// readings may share a cell, separated by ';', '|' or '、'. Cells that are
// not kana are dropped.
func splitReadings(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ';' || r == '|' || r == '、'
	})
	var out []string
	for _, p := range parts {
		h := kana.ToHiragana(strings.TrimSpace(p))
		if !kana.IsKana(h) || slices.Contains(out, h) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func isJapanese(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) {
			return true
		}
	}
	return false
}

// Upserter stores entries. *postgres.Store implements it.
type Upserter interface {
	Upsert(ctx context.Context, entries []types.VocabEntry, freqs map[string]float64) (int, error)
}

// Write upserts entries in batches of size (DefaultBatchSize when size is
// not positive) and returns how many were written. freqs is stored
// alongside each entry and may be nil.
func Write(ctx context.Context, dst Upserter, entries []types.VocabEntry, freqs map[string]float64, size int) (int, error) {
	if size <= 0 {
		size = DefaultBatchSize
	}
	total := 0
	for start := 0; start < len(entries); start += size {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := min(start+size, len(entries))
		n, err := dst.Upsert(ctx, entries[start:end], freqs)
		total += n
		if err != nil {
			return total, fmt.Errorf("importer: batch %d-%d: %w", start, end, err)
		}
	}
	return total, nil
}
