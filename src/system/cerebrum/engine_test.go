package cerebrum_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
	"github.com/voodooEntity/cyberfocus/src/system/interfaces"
	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
)

// recorder keeps every snapshot it receives and emits one element per cycle
// carrying its own cycle counter.
type recorder struct {
	name     string
	updates  int
	focuses  []*interlingua.Element
	contents []interlingua.Content
}

func (p *recorder) Update(focus *interlingua.Element, content interlingua.Content) error {
	p.updates++
	p.focuses = append(p.focuses, focus)
	p.contents = append(p.contents, content)
	return nil
}

func (p *recorder) Emit() (interlingua.Content, error) {
	return interlingua.Content{interlingua.New(p.name, interlingua.Args{"n": p.updates})}, nil
}

// vandal mutates the content it receives, which must not leak to peers.
type vandal struct{}

func (vandal) Update(focus *interlingua.Element, content interlingua.Content) error {
	for i := range content {
		content[i] = interlingua.New("vandalised", nil)
	}
	if focus != nil {
		focus.Name = "vandalised"
	}
	return nil
}

func (vandal) Emit() (interlingua.Content, error) {
	return interlingua.Content{}, nil
}

type failing struct {
	phase cerebrum.Phase
	err   error
}

func (f failing) Update(focus *interlingua.Element, content interlingua.Content) error {
	if f.phase == cerebrum.PhaseUpdate {
		return f.err
	}
	return nil
}

func (f failing) Emit() (interlingua.Content, error) {
	if f.phase == cerebrum.PhaseEmit {
		return nil, f.err
	}
	return interlingua.Content{interlingua.New("never", nil)}, nil
}

type constant struct {
	out interlingua.Content
}

func (c constant) Update(*interlingua.Element, interlingua.Content) error { return nil }

func (c constant) Emit() (interlingua.Content, error) { return c.out, nil }

func newEngine(t *testing.T, strategy *cerebrum.Strategy, components ...any) *cerebrum.Engine {
	t.Helper()
	registry := cerebrum.NewRegistry()
	for i := 0; i+1 < len(components); i += 2 {
		require.NoError(t, registry.Register(components[i].(string), components[i+1].(interfaces.ComponentInterface)))
	}
	return cerebrum.NewEngine(registry, strategy, 1, nil, archivist.Discard())
}

func TestEngine_StartsEmpty(t *testing.T) {
	engine := newEngine(t, nil)
	assert.Equal(t, 0, engine.Cycle())
	assert.Nil(t, engine.Focus())
	assert.Empty(t, engine.Content())
}

func TestEngine_EmptyContentGivesNoFocus(t *testing.T) {
	engine := newEngine(t, nil, "silent", constant{})
	for i := 0; i < 3; i++ {
		require.NoError(t, engine.Step())
		assert.Nil(t, engine.Focus())
	}
	assert.Equal(t, 3, engine.Cycle())
}

// Every component sees the previous snapshot, emissions only become
// visible on the following cycle.
func TestEngine_EmissionsVisibleNextCycle(t *testing.T) {
	a := &recorder{name: "a"}
	b := &recorder{name: "b"}
	engine := newEngine(t, nil, "a", a, "b", b)

	require.NoError(t, engine.Step())
	assert.Empty(t, a.contents[0])
	assert.Empty(t, b.contents[0], "b must not see a's cycle 1 emission")
	assert.Nil(t, a.focuses[0])

	require.NoError(t, engine.Step())
	require.Len(t, a.contents[1], 2)
	require.Len(t, b.contents[1], 2)
	for _, e := range b.contents[1] {
		assert.Equal(t, 1, e.Cycle)
		assert.Equal(t, 1, e.Arguments["n"], "b sees the emission of cycle 1 only")
	}
	assert.Equal(t, a.contents[1], b.contents[1])
	require.NotNil(t, a.focuses[1])
	assert.Equal(t, *a.focuses[1], *b.focuses[1])
}

func TestEngine_SnapshotsAreCopies(t *testing.T) {
	a := &recorder{name: "a"}
	engine := newEngine(t, nil, "vandal", vandal{}, "a", a, "fix", constant{out: interlingua.Content{interlingua.New("fixation", nil)}})

	require.NoError(t, engine.Step())
	require.NoError(t, engine.Step())

	for _, e := range a.contents[1] {
		assert.NotEqual(t, "vandalised", e.Name)
	}
	assert.NotEqual(t, "vandalised", a.focuses[1].Name)
	assert.NotEqual(t, "vandalised", engine.Focus().Name)
}

// counter emits its own argument map and bumps it on every update.
type counter struct {
	args interlingua.Args
}

func (c *counter) Update(*interlingua.Element, interlingua.Content) error {
	c.args["n"] = c.args["n"].(int) + 1
	c.args["history"] = append(c.args["history"].([]any), c.args["n"])
	return nil
}

func (c *counter) Emit() (interlingua.Content, error) {
	return interlingua.Content{interlingua.New("object", c.args)}, nil
}

// scribbler writes into the argument maps of the content it receives.
type scribbler struct{}

func (scribbler) Update(focus *interlingua.Element, content interlingua.Content) error {
	for i := range content {
		if content[i].Arguments != nil {
			content[i].Arguments["n"] = "scribbled"
			if history, ok := content[i].Arguments["history"].([]any); ok && len(history) > 0 {
				history[0] = "scribbled"
			}
		}
	}
	if focus != nil && focus.Arguments != nil {
		focus.Arguments["n"] = "scribbled"
	}
	return nil
}

func (scribbler) Emit() (interlingua.Content, error) {
	return interlingua.Content{}, nil
}

func TestEngine_PublishedContentDoesNotAliasComponentState(t *testing.T) {
	source := &counter{args: interlingua.Args{"n": 0, "history": []any{}}}
	peer := &recorder{name: "peer"}
	engine := newEngine(t, nil, "source", source, "scribbler", scribbler{}, "peer", peer)

	require.NoError(t, engine.Step())
	firstContent := engine.Content()
	firstFocus := engine.Focus()

	require.NoError(t, engine.Step())

	var seen *interlingua.Element
	for i := range peer.contents[1] {
		if peer.contents[1][i].Source == "source" {
			seen = &peer.contents[1][i]
		}
	}
	require.NotNil(t, seen)
	assert.Equal(t, 1, seen.Arguments["n"], "peer must see the value emitted in cycle 1")
	assert.Equal(t, []any{1}, seen.Arguments["history"])
	assert.Equal(t, 2, source.args["n"])

	// snapshots taken after cycle 1 stay frozen
	for _, e := range firstContent {
		if e.Source == "source" {
			assert.Equal(t, 1, e.Arguments["n"])
		}
	}
	if firstFocus.Source == "source" {
		assert.Equal(t, 1, firstFocus.Arguments["n"])
	}

	for _, e := range engine.Content() {
		if e.Source == "source" {
			assert.Equal(t, 2, e.Arguments["n"])
			assert.Equal(t, []any{1, 2}, e.Arguments["history"])
		}
	}
	if last := engine.LastDecision().Focus; last != nil && last.Source == "source" {
		assert.Equal(t, 2, last.Arguments["n"])
	}
}

func TestEngine_StampsMetadata(t *testing.T) {
	engine := newEngine(t, nil, "fix", constant{out: interlingua.Content{interlingua.New("fixation", nil)}})
	require.NoError(t, engine.Step())
	require.NoError(t, engine.Step())

	content := engine.Content()
	require.Len(t, content, 1)
	assert.Equal(t, "fix", content[0].Source)
	assert.Equal(t, 2, content[0].Cycle)
	assert.Equal(t, "fix", engine.Focus().Source)
}

func TestEngine_DuplicatesKeptInContent(t *testing.T) {
	object := interlingua.New("object", interlingua.Args{"color": "red"})
	strategy := mustStrategy(t, cerebrum.NewEntry(byName("objects", "object"), 1, 0))
	engine := newEngine(t, strategy,
		"left", constant{out: interlingua.Content{object}},
		"right", constant{out: interlingua.Content{object}},
	)
	require.NoError(t, engine.Step())

	content := engine.Content()
	require.Len(t, content, 2)
	assert.True(t, interlingua.Equal(content[0], content[1]))
	assert.Equal(t, 2, engine.LastDecision().Candidates)
}

func TestEngine_ComponentErrorAbortsCycle(t *testing.T) {
	boom := errors.New("boom")
	for _, phase := range []cerebrum.Phase{cerebrum.PhaseUpdate, cerebrum.PhaseEmit} {
		t.Run(string(phase), func(t *testing.T) {
			a := &recorder{name: "a"}
			engine := newEngine(t, nil, "a", a, "bad", failing{phase: phase, err: boom}, "late", &recorder{name: "late"})

			err := engine.Step()
			require.Error(t, err)
			var stepErr *cerebrum.ComponentStepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, "bad", stepErr.Component)
			assert.Equal(t, phase, stepErr.Phase)
			assert.Equal(t, 1, stepErr.Cycle)
			assert.ErrorIs(t, err, boom)

			assert.Equal(t, 0, engine.Cycle(), "failed cycle must not be published")
			assert.Nil(t, engine.Focus())
			assert.Empty(t, engine.Content())
		})
	}
}

func TestEngine_PredicateErrorAbortsCycle(t *testing.T) {
	boom := errors.New("boom")
	tier := cerebrum.Tier{Name: "bad", Descriptors: []interlingua.Descriptor{
		{"name": interlingua.Where("exploding", func(any) (bool, error) { return false, boom })},
	}}
	engine := newEngine(t, mustStrategy(t, cerebrum.NewEntry(tier, 1, 0)),
		"fix", constant{out: interlingua.Content{interlingua.New("fixation", nil)}})

	err := engine.Step()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, engine.Cycle())
}

// switcher replaces the active strategy from inside its update, the swap
// must wait for the next boundary.
type switcher struct {
	engine *cerebrum.Engine
	next   *cerebrum.Strategy
	at     int
	seen   int
}

func (s *switcher) Update(*interlingua.Element, interlingua.Content) error {
	s.seen++
	if s.seen == s.at {
		s.engine.SwitchStrategy(s.next)
	}
	return nil
}

func (s *switcher) Emit() (interlingua.Content, error) {
	return interlingua.Content{interlingua.New("object", nil), interlingua.New("fixation", nil)}, nil
}

func TestEngine_StrategySwitchAtBoundary(t *testing.T) {
	objects := mustStrategy(t, cerebrum.NewEntry(byName("objects", "object"), 1, 0))
	fixationEntry := cerebrum.NewEntry(byName("fixation", "fixation"), 2, 0)
	aging := cerebrum.NewEntry(byName("aging", "never"), 1, 3)
	fixations := mustStrategy(t, fixationEntry, aging)
	aging.CurrentPriority = 40

	registry := cerebrum.NewRegistry()
	sw := &switcher{next: fixations, at: 2}
	require.NoError(t, registry.Register("switcher", sw))
	engine := cerebrum.NewEngine(registry, objects, 1, nil, archivist.Discard())
	sw.engine = engine

	require.NoError(t, engine.Step())
	assert.Equal(t, "object", engine.Focus().Name)

	// switch requested during cycle 2 update, cycle 2 still uses objects
	require.NoError(t, engine.Step())
	assert.Equal(t, "object", engine.Focus().Name)
	assert.Same(t, objects, engine.Strategy())
	assert.Equal(t, 1.0, aging.CurrentPriority, "switched in strategy starts from base")

	require.NoError(t, engine.Step())
	assert.Same(t, fixations, engine.Strategy())
	assert.Equal(t, "fixation", engine.Focus().Name)
	assert.Equal(t, 4.0, aging.CurrentPriority)
}

func TestEngine_StopFlag(t *testing.T) {
	engine := newEngine(t, nil)
	assert.False(t, engine.Stopped())
	engine.Stop()
	assert.True(t, engine.Stopped())
	// a raised flag does not prevent an explicit step
	require.NoError(t, engine.Step())
	assert.Equal(t, 1, engine.Cycle())
}

func TestEngine_ReproducibleRuns(t *testing.T) {
	run := func() []string {
		strategy := mustStrategy(t,
			cerebrum.NewEntry(byName("objects", "object"), 1, 1),
			cerebrum.NewEntry(byName("fixation", "fixation"), 3, 0),
		)
		out := interlingua.Content{
			interlingua.New("object", interlingua.Args{"slot": 1}),
			interlingua.New("object", interlingua.Args{"slot": 2}),
			interlingua.New("object", interlingua.Args{"slot": 3}),
			interlingua.New("fixation", nil),
		}
		engine := newEngine(t, strategy, "scene", constant{out: out})
		var foci []string
		for i := 0; i < 40; i++ {
			require.NoError(t, engine.Step())
			foci = append(foci, engine.Focus().String())
		}
		return foci
	}
	assert.Equal(t, run(), run())
}
