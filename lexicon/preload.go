package lexicon

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nathoo/kanjicrawl/types"
)

// Preload fetches every listed tier from gw concurrently and returns them as
// an in-memory store, so play never waits on the backing store. If any
// fetch fails the whole preload fails.
func Preload(ctx context.Context, gw Gateway, tiers []int) (*Memory, error) {
	pools := make([][]types.VocabEntry, len(tiers))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, tier := range tiers {
		eg.Go(func() error {
			entries, err := gw.Lookup(egCtx, tier)
			if err != nil {
				return fmt.Errorf("lexicon: preload tier %d: %w", tier, err)
			}
			pools[i] = entries
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []types.VocabEntry
	for _, p := range pools {
		all = append(all, p...)
	}
	return NewMemory(all), nil
}
