package cerebrum

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
	"github.com/voodooEntity/cyberfocus/src/system/matching"
)

// Tier is an ordered list of descriptors sharing one priority. The first
// descriptor with at least one match decides the candidate set, later ones
// are not consulted.
type Tier struct {
	Name        string
	Descriptors []interlingua.Descriptor
}

// Candidates returns the index of the first descriptor matching anything in
// content together with its matches. Without any match it returns -1 and an
// empty set.
func (t Tier) Candidates(content interlingua.Content) (int, interlingua.Content, error) {
	for idx, d := range t.Descriptors {
		hits, err := matching.Filter(d, content)
		if err != nil {
			return -1, nil, fmt.Errorf("tier %q descriptor %d: %w", t.Name, idx, err)
		}
		if len(hits) > 0 {
			return idx, hits, nil
		}
	}
	return -1, interlingua.Content{}, nil
}

// PriorityEntry binds a tier to its scheduling priority. CurrentPriority
// starts at BasePriority, is reset to it whenever the tier wins and grows by
// Step on every cycle some other tier wins.
type PriorityEntry struct {
	Tier            Tier
	BasePriority    float64
	CurrentPriority float64
	Step            float64
}

// NewEntry returns an entry sitting at its base priority.
func NewEntry(tier Tier, basePriority float64, step float64) *PriorityEntry {
	return &PriorityEntry{
		Tier:            tier,
		BasePriority:    basePriority,
		CurrentPriority: basePriority,
		Step:            step,
	}
}

// Strategy is the set of entries the arbiter evaluates. Entry order is the
// declaration order and breaks priority ties.
type Strategy struct {
	Name    string
	Entries []*PriorityEntry
}

// NewStrategy validates the entries and resets them to their base
// priorities.
func NewStrategy(name string, entries ...*PriorityEntry) (*Strategy, error) {
	seen := map[string]bool{}
	for _, entry := range entries {
		if entry == nil {
			return nil, fmt.Errorf("strategy %q: nil entry", name)
		}
		if entry.Step < 0 {
			return nil, fmt.Errorf("strategy %q tier %q: %w", name, entry.Tier.Name, ErrNegativeStep)
		}
		if entry.Tier.Name != "" {
			if seen[entry.Tier.Name] {
				return nil, fmt.Errorf("strategy %q tier %q: %w", name, entry.Tier.Name, ErrDuplicateTierName)
			}
			seen[entry.Tier.Name] = true
		}
	}
	s := &Strategy{Name: name, Entries: entries}
	s.Reset()
	return s, nil
}

// Reset puts every entry back to its base priority.
func (s *Strategy) Reset() {
	for _, entry := range s.Entries {
		entry.CurrentPriority = entry.BasePriority
	}
}

// Entry looks up an entry by tier name.
func (s *Strategy) Entry(tierName string) *PriorityEntry {
	for _, entry := range s.Entries {
		if entry.Tier.Name == tierName {
			return entry
		}
	}
	return nil
}

// Ordered returns the entries by descending current priority, ties kept in
// declaration order.
func (s *Strategy) Ordered() []*PriorityEntry {
	ordered := make([]*PriorityEntry, len(s.Entries))
	copy(ordered, s.Entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CurrentPriority > ordered[j].CurrentPriority
	})
	return ordered
}

// reward resets the winner and ages everyone else.
func (s *Strategy) reward(winner *PriorityEntry) {
	for _, entry := range s.Entries {
		if entry == winner {
			entry.CurrentPriority = entry.BasePriority
			continue
		}
		entry.CurrentPriority += entry.Step
	}
}

// Priorities renders "tier=current" pairs in declaration order for logs.
func (s *Strategy) Priorities() string {
	parts := make([]string, 0, len(s.Entries))
	for _, entry := range s.Entries {
		parts = append(parts, fmt.Sprintf("%s=%g", entry.Tier.Name, entry.CurrentPriority))
	}
	return strings.Join(parts, " ")
}
