// Package lexicon is the read-only gateway to the dictionary dataset.
//
// A [Gateway] returns the candidate vocabulary of one difficulty tier.
// Stores may additionally implement [SurfaceLookup]; an [Analyzer] may be
// layered on top with [Refine] to add readings produced by morphological
// analysis. Entries handed out by a gateway are shared and must be treated
// as read-only.
package lexicon

import (
	"context"
	"sort"
	"strings"

	"github.com/nathoo/kanjicrawl/kana"
	"github.com/nathoo/kanjicrawl/types"
)

// Gateway returns the vocabulary of a tier. An empty result is not an error.
type Gateway interface {
	Lookup(ctx context.Context, tier int) ([]types.VocabEntry, error)
}

// SurfaceLookup is implemented by stores that can filter by surface form.
type SurfaceLookup interface {
	LookupSurface(ctx context.Context, surface string) ([]types.VocabEntry, error)
}

// Analyzer proposes readings for a surface form.
type Analyzer interface {
	Readings(ctx context.Context, surface string) ([]string, error)
}

// AnalyzerFunc adapts a function to [Analyzer].
type AnalyzerFunc func(ctx context.Context, surface string) ([]string, error)

// Readings calls f.
func (f AnalyzerFunc) Readings(ctx context.Context, surface string) ([]string, error) {
	return f(ctx, surface)
}

// EntryID returns the identity used by the review history: the surface
// form, qualified by the first reading so homographs stay distinct.
func EntryID(surface string, readings []string) string {
	if len(readings) == 0 {
		return surface
	}
	return surface + "/" + readings[0]
}

// Prepare normalises an entry for play: readings become hiragana with
// duplicates and blanks dropped, the ID is filled in, and a missing tier is
// derived from the surface length. ok is false when no reading survives.
func Prepare(e types.VocabEntry) (types.VocabEntry, bool) {
	e.Surface = strings.TrimSpace(e.Surface)
	readings := make([]string, 0, len(e.Readings))
	seen := make(map[string]bool, len(e.Readings))
	for _, r := range e.Readings {
		n := kana.Normalize(r)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		readings = append(readings, n)
	}
	if e.Surface == "" || len(readings) == 0 {
		return e, false
	}
	e.Readings = readings
	if e.Tier <= 0 {
		e.Tier = TierForFrequency(e.Surface, 0, false)
	}
	if e.Gloss == "" {
		e.Gloss = "Meaning not found"
	}
	e.ID = EntryID(e.Surface, e.Readings)
	return e, true
}

// sortEntries orders entries by ID so pools are stable across stores.
func sortEntries(entries []types.VocabEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}
