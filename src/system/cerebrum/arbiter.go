package cerebrum

import (
	"math/rand"

	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
	"github.com/voodooEntity/cyberfocus/src/system/matching"
)

// Arbiter picks exactly one focus per cycle from the content using the
// active strategy. It keeps no state of its own; aging lives in the
// strategy entries.
type Arbiter struct {
	log *archivist.Archivist
}

func NewArbiter(logger *archivist.Archivist) *Arbiter {
	return &Arbiter{log: logger}
}

// Select walks the strategy entries by descending current priority and
// stops at the first tier with candidates. One candidate is drawn uniformly
// with rng, the winning entry is reset and every other entry is aged by its
// step. Without any matching tier a random element of the whole content is
// chosen and no priority changes. Empty content yields a nil focus.
//
// A predicate error aborts the selection before any priority is touched.
func (a *Arbiter) Select(strategy *Strategy, content interlingua.Content, rng *rand.Rand) (Decision, error) {
	if strategy != nil {
		if a.log.DebugEnabled(archivist.DEBUG_LEVEL_DETAIL) {
			a.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "arbiter ARB priorities strategy=", strategy.Name, " ", strategy.Priorities())
		}
		for _, entry := range strategy.Ordered() {
			idx, hits, err := entry.Tier.Candidates(content)
			if err != nil {
				return Decision{}, err
			}
			if len(hits) == 0 {
				continue
			}
			focus := matching.Pick(rng, hits)
			strategy.reward(entry)
			a.log.Debug(archivist.DEBUG_LEVEL_TRACE, "arbiter ARB winner tier=", entry.Tier.Name, " descriptor=", idx, " candidates=", len(hits), " focus=", focus.Name)
			return Decision{
				Focus:      focus,
				Entry:      entry,
				Descriptor: idx,
				Candidates: len(hits),
			}, nil
		}
	}

	focus := matching.Pick(rng, content)
	if focus == nil {
		a.log.Debug(archivist.DEBUG_LEVEL_TRACE, "arbiter ARB empty content, no focus")
		return Decision{Descriptor: -1}, nil
	}
	a.log.Debug(archivist.DEBUG_LEVEL_TRACE, "arbiter ARB fallback candidates=", len(content), " focus=", focus.Name)
	return Decision{
		Focus:      focus,
		Descriptor: -1,
		Candidates: len(content),
		Fallback:   true,
	}, nil
}
