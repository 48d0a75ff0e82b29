package cerebrum_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
	"github.com/voodooEntity/cyberfocus/src/system/matching"
)

// byName builds a tier whose descriptors match the given element names in
// order.
func byName(tierName string, names ...string) cerebrum.Tier {
	tier := cerebrum.Tier{Name: tierName}
	for _, name := range names {
		tier.Descriptors = append(tier.Descriptors, interlingua.Describe(map[string]any{"name": name}))
	}
	return tier
}

func mustStrategy(t *testing.T, entries ...*cerebrum.PriorityEntry) *cerebrum.Strategy {
	t.Helper()
	s, err := cerebrum.NewStrategy("test", entries...)
	require.NoError(t, err)
	return s
}

func el(name string) interlingua.Element {
	return interlingua.New(name, nil)
}

// A fixed priority tier that never matches keeps its priority while
// the matching tier wins and resets every cycle.
func TestArbiter_OnlyMatchingTierWins_FixedRivalUntouched(t *testing.T) {
	t1 := cerebrum.NewEntry(byName("T1", "never"), 10, 0)
	t2 := cerebrum.NewEntry(byName("T2", "object"), 5, 2)
	strategy := mustStrategy(t, t1, t2)
	arbiter := cerebrum.NewArbiter(archivist.Discard())
	rng := rand.New(rand.NewSource(1))

	for cycle := 0; cycle < 50; cycle++ {
		d, err := arbiter.Select(strategy, interlingua.Content{el("object")}, rng)
		require.NoError(t, err)
		require.Same(t, t2, d.Entry, "cycle %d", cycle)
		assert.Equal(t, 5.0, t2.CurrentPriority)
		assert.Equal(t, 10.0, t1.CurrentPriority)
	}
}

// Aging bounds how long a low tier waits behind a permanent winner.
func TestArbiter_AntiStarvationBound(t *testing.T) {
	low := cerebrum.NewEntry(byName("low", "object"), 1, 1)
	high := cerebrum.NewEntry(byName("high", "object"), 10, 0)
	strategy := mustStrategy(t, low, high)
	arbiter := cerebrum.NewArbiter(archivist.Discard())
	rng := rand.New(rand.NewSource(3))

	bound := int(math.Ceil((high.BasePriority - low.BasePriority) / low.Step))
	require.Equal(t, 9, bound)

	losses := 0
	for {
		d, err := arbiter.Select(strategy, interlingua.Content{el("object")}, rng)
		require.NoError(t, err)
		if d.Entry == low {
			break
		}
		losses++
		require.LessOrEqual(t, losses, bound, "low tier starved")
		assert.GreaterOrEqual(t, low.CurrentPriority, low.BasePriority)
	}
	assert.Equal(t, bound, losses)
	assert.Equal(t, 1.0, low.CurrentPriority, "winner resets to base")

	// after the reset the high tier dominates again
	d, err := arbiter.Select(strategy, interlingua.Content{el("object")}, rng)
	require.NoError(t, err)
	assert.Same(t, high, d.Entry)
}

// An aging tier declared after its rival loses the tie and needs
// one more cycle.
func TestArbiter_AntiStarvationTieGoesToDeclarationOrder(t *testing.T) {
	high := cerebrum.NewEntry(byName("high", "object"), 10, 0)
	low := cerebrum.NewEntry(byName("low", "object"), 1, 1)
	strategy := mustStrategy(t, high, low)
	arbiter := cerebrum.NewArbiter(archivist.Discard())
	rng := rand.New(rand.NewSource(3))

	losses := 0
	for {
		d, err := arbiter.Select(strategy, interlingua.Content{el("object")}, rng)
		require.NoError(t, err)
		if d.Entry == low {
			break
		}
		losses++
		require.LessOrEqual(t, losses, 10)
	}
	assert.Equal(t, 10, losses)
}

// A higher tier wins deterministically regardless of the seed.
func TestArbiter_ActionPreferredForAnySeed(t *testing.T) {
	for seed := int64(0); seed < 64; seed++ {
		strategy := mustStrategy(t,
			cerebrum.NewEntry(byName("action", "action"), 5, 0),
			cerebrum.NewEntry(cerebrum.Tier{Name: "default", Descriptors: []interlingua.Descriptor{{}}}, 1, 0),
		)
		arbiter := cerebrum.NewArbiter(archivist.Discard())
		rng := rand.New(rand.NewSource(seed))
		content := interlingua.Content{el("object"), el("action")}

		for cycle := 0; cycle < 5; cycle++ {
			d, err := arbiter.Select(strategy, content, rng)
			require.NoError(t, err)
			require.NotNil(t, d.Focus)
			require.Equal(t, "action", d.Focus.Name, "seed %d", seed)
			require.False(t, d.Fallback)
		}
	}
}

func TestArbiter_EmptyContentYieldsNoFocus(t *testing.T) {
	entry := cerebrum.NewEntry(byName("objects", "object"), 1, 1)
	other := cerebrum.NewEntry(byName("others", "other"), 1, 1)
	strategy := mustStrategy(t, entry, other)
	arbiter := cerebrum.NewArbiter(archivist.Discard())

	d, err := arbiter.Select(strategy, interlingua.Content{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Nil(t, d.Focus)
	assert.Nil(t, d.Entry)
	assert.False(t, d.Fallback)
	assert.Equal(t, 1.0, entry.CurrentPriority, "no aging without a winner")

	d, err = arbiter.Select(nil, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Nil(t, d.Focus)
}

func TestArbiter_FallbackPicksFromWholeContent(t *testing.T) {
	entry := cerebrum.NewEntry(byName("actions", "action"), 5, 1)
	strategy := mustStrategy(t, entry)
	arbiter := cerebrum.NewArbiter(archivist.Discard())
	rng := rand.New(rand.NewSource(9))
	content := interlingua.Content{el("a"), el("b"), el("c")}

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		d, err := arbiter.Select(strategy, content, rng)
		require.NoError(t, err)
		require.True(t, d.Fallback)
		require.Nil(t, d.Entry)
		assert.Equal(t, 3, d.Candidates)
		seen[d.Focus.Name] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 5.0, entry.CurrentPriority, "fallback does not age")

	// no strategy at all behaves like the fallback
	d, err := arbiter.Select(nil, content, rng)
	require.NoError(t, err)
	assert.True(t, d.Fallback)
}

// The first descriptor with matches decides, broader later
// descriptors in the same tier are not consulted.
func TestArbiter_FirstMatchingDescriptorShortCircuits(t *testing.T) {
	consulted := false
	tier := cerebrum.Tier{Name: "objects", Descriptors: []interlingua.Descriptor{
		{"name": interlingua.Literal("object"), "color": interlingua.Literal("red")},
		{"name": interlingua.Test("spy", func(any) bool { consulted = true; return true })},
	}}
	strategy := mustStrategy(t, cerebrum.NewEntry(tier, 1, 0))
	arbiter := cerebrum.NewArbiter(archivist.Discard())
	content := interlingua.Content{
		interlingua.New("object", interlingua.Args{"color": "blue"}),
		interlingua.New("object", interlingua.Args{"color": "red"}),
		el("fixation"),
	}

	for seed := int64(0); seed < 20; seed++ {
		d, err := arbiter.Select(strategy, content, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.Equal(t, 0, d.Descriptor)
		assert.Equal(t, 1, d.Candidates)
		assert.Equal(t, "red", d.Focus.Arguments["color"])
	}
	assert.False(t, consulted)

	// without a red object the second descriptor takes over
	d, err := arbiter.Select(strategy, content[:1], rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 1, d.Descriptor)
	assert.True(t, consulted)
}

func TestArbiter_PriorityTiesKeepDeclarationOrder(t *testing.T) {
	first := cerebrum.NewEntry(byName("first", "object"), 3, 0)
	second := cerebrum.NewEntry(byName("second", "object"), 3, 0)
	strategy := mustStrategy(t, first, second)
	arbiter := cerebrum.NewArbiter(archivist.Discard())

	for seed := int64(0); seed < 10; seed++ {
		d, err := arbiter.Select(strategy, interlingua.Content{el("object")}, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.Same(t, first, d.Entry)
	}
}

func TestArbiter_LosersAgeByTheirStep(t *testing.T) {
	winner := cerebrum.NewEntry(byName("winner", "object"), 10, 0)
	aging := cerebrum.NewEntry(byName("aging", "never"), 1, 0.5)
	fixed := cerebrum.NewEntry(byName("fixed", "never"), 2, 0)
	strategy := mustStrategy(t, winner, aging, fixed)
	arbiter := cerebrum.NewArbiter(archivist.Discard())
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 4; i++ {
		_, err := arbiter.Select(strategy, interlingua.Content{el("object")}, rng)
		require.NoError(t, err)
	}
	assert.Equal(t, 3.0, aging.CurrentPriority)
	assert.Equal(t, 2.0, fixed.CurrentPriority)
	assert.Equal(t, 10.0, winner.CurrentPriority)
}

func TestArbiter_PredicateErrorLeavesPrioritiesAlone(t *testing.T) {
	boom := errors.New("boom")
	broken := cerebrum.Tier{Name: "broken", Descriptors: []interlingua.Descriptor{
		{"name": interlingua.Where("exploding", func(any) (bool, error) { return false, boom })},
	}}
	top := cerebrum.NewEntry(byName("top", "never"), 10, 1)
	bad := cerebrum.NewEntry(broken, 5, 1)
	strategy := mustStrategy(t, top, bad)
	arbiter := cerebrum.NewArbiter(archivist.Discard())

	_, err := arbiter.Select(strategy, interlingua.Content{el("object")}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	var perr *matching.PredicateError
	assert.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 10.0, top.CurrentPriority)
	assert.Equal(t, 5.0, bad.CurrentPriority)
}

func TestArbiter_DeterministicForSeed(t *testing.T) {
	run := func(seed int64) []string {
		strategy := mustStrategy(t,
			cerebrum.NewEntry(byName("objects", "object"), 2, 1),
			cerebrum.NewEntry(byName("rest", "fixation", "noise"), 3, 0),
		)
		arbiter := cerebrum.NewArbiter(archivist.Discard())
		rng := rand.New(rand.NewSource(seed))
		content := interlingua.Content{
			interlingua.New("object", interlingua.Args{"slot": 1}),
			interlingua.New("object", interlingua.Args{"slot": 2}),
			el("fixation"),
		}
		var out []string
		for i := 0; i < 30; i++ {
			d, err := arbiter.Select(strategy, content, rng)
			require.NoError(t, err)
			out = append(out, d.Focus.String())
		}
		return out
	}
	assert.Equal(t, run(11), run(11))
}
