package lexicon

import (
	"context"
	"log/slog"

	"github.com/nathoo/kanjicrawl/kana"
	"github.com/nathoo/kanjicrawl/types"
)

// Refined merges analyzer readings into the entries of a base gateway.
type Refined struct {
	base     Gateway
	analyzer Analyzer
	log      *slog.Logger
}

// Refine wraps gw so that every looked-up entry also accepts the readings
// the analyzer proposes. A nil analyzer returns gw unchanged. Analyzer failures
// are logged and the stored readings are used as they are.
func Refine(gw Gateway, an Analyzer, logger *slog.Logger) Gateway {
	if an == nil {
		return gw
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refined{base: gw, analyzer: an, log: logger}
}

// Lookup implements [Gateway].
func (r *Refined) Lookup(ctx context.Context, tier int) ([]types.VocabEntry, error) {
	entries, err := r.base.Lookup(ctx, tier)
	if err != nil {
		return nil, err
	}
	out := make([]types.VocabEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, r.refine(ctx, e))
	}
	return out, nil
}

func (r *Refined) refine(ctx context.Context, e types.VocabEntry) types.VocabEntry {
	extra, err := r.analyzer.Readings(ctx, e.Surface)
	if err != nil {
		r.log.Debug("reading analysis failed; using stored readings", "surface", e.Surface, "err", err)
		return e
	}
	readings := append([]string(nil), e.Readings...)
	for _, x := range extra {
		n := kana.Normalize(x)
		if n == "" || !kana.IsKana(n) {
			continue
		}
		dup := false
		for _, have := range readings {
			if kana.Key(have) == kana.Key(n) {
				dup = true
				break
			}
		}
		if !dup {
			readings = append(readings, n)
		}
	}
	e.Readings = readings
	return e
}
