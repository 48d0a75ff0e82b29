package cerebrum

import (
	"fmt"
	"math/rand"

	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/interfaces"
	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
)

// Engine owns all mutable state of a run and drives the two phase cycle:
// every component updates against the previous (focus, content) snapshot,
// then every component emits, and the arbiter picks the new focus from the
// union of emissions. Nothing emitted in cycle n is visible before n+1.
type Engine struct {
	registry *Registry
	arbiter  *Arbiter
	memory   *Memory
	log      *archivist.Archivist
	rng      *rand.Rand

	strategy *Strategy
	pending  *Strategy

	cycle   int
	focus   *interlingua.Element
	content interlingua.Content
	last    Decision
	stopped bool
}

// NewEngine builds an engine at cycle 0 with no focus and empty content.
// memory may be nil to disable cycle history.
func NewEngine(registry *Registry, strategy *Strategy, seed int64, memory *Memory, logger *archivist.Archivist) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Engine{
		registry: registry,
		arbiter:  NewArbiter(logger),
		memory:   memory,
		log:      logger,
		rng:      rand.New(rand.NewSource(seed)),
		strategy: strategy,
		content:  interlingua.Content{},
		last:     Decision{Descriptor: -1},
	}
}

// Step runs one full cycle. A component or predicate error abandons the
// cycle: the engine keeps publishing the previous cycle's state and the
// error is returned unchanged in kind.
func (e *Engine) Step() error {
	if e.pending != nil {
		e.log.Info("switching strategy", e.strategy.nameOrNone(), "->", e.pending.Name)
		e.strategy = e.pending
		e.pending = nil
	}
	n := e.cycle + 1
	e.log.Debug(archivist.DEBUG_LEVEL_TRACE, "cycle CYC begin n=", n)

	err := e.registry.each(func(name string, component interfaces.ComponentInterface) error {
		if err := component.Update(e.focusSnapshot(), e.content.Clone()); err != nil {
			return &ComponentStepError{Component: name, Phase: PhaseUpdate, Cycle: n, Err: err}
		}
		return nil
	})
	if err != nil {
		e.log.Error("cycle aborted", err.Error())
		return err
	}

	next := interlingua.Content{}
	err = e.registry.each(func(name string, component interfaces.ComponentInterface) error {
		emitted, err := component.Emit()
		if err != nil {
			return &ComponentStepError{Component: name, Phase: PhaseEmit, Cycle: n, Err: err}
		}
		for _, raw := range emitted {
			// copy so later updates of the component cannot reach published content
			el := raw.Clone()
			el.Source = name
			el.Cycle = n
			next = append(next, el)
		}
		e.log.Debug(archivist.DEBUG_LEVEL_INFO, "cycle CYC emit component=", name, " elements=", len(emitted))
		return nil
	})
	if err != nil {
		e.log.Error("cycle aborted", err.Error())
		return err
	}

	decision, err := e.arbiter.Select(e.strategy, next, e.rng)
	if err != nil {
		e.log.Error("cycle aborted in arbitration", err.Error())
		return fmt.Errorf("cycle %d: arbitration: %w", n, err)
	}

	e.cycle = n
	e.focus = decision.Focus
	e.content = next
	e.last = decision
	if e.memory != nil {
		e.memory.Record(n, decision, next)
	}
	if e.log.DebugEnabled(archivist.DEBUG_LEVEL_DUMP) {
		e.log.Debug(archivist.DEBUG_LEVEL_DUMP, "cycle CYC content", next)
	}
	e.log.Debug(archivist.DEBUG_LEVEL_TRACE, "cycle CYC published n=", n, " focus=", describeFocus(decision.Focus), " content=", len(next))
	return nil
}

func (e *Engine) focusSnapshot() *interlingua.Element {
	if e.focus == nil {
		return nil
	}
	f := e.focus.Clone()
	return &f
}

// SwitchStrategy queues s to replace the active strategy at the next cycle
// boundary. Its entries are reset to their base priorities right away, so
// aging never carries over from a previous activation.
func (e *Engine) SwitchStrategy(s *Strategy) {
	if s != nil {
		s.Reset()
	}
	e.pending = s
}

// Stop raises the cooperative stop flag. It is only looked at between
// cycles, a running Step always completes.
func (e *Engine) Stop() {
	e.stopped = true
}

func (e *Engine) Stopped() bool {
	return e.stopped
}

func (e *Engine) Cycle() int {
	return e.cycle
}

// Focus returns a copy of the current focus, nil when there is none.
func (e *Engine) Focus() *interlingua.Element {
	return e.focusSnapshot()
}

// Content returns a deep copy of the content published by the last cycle.
func (e *Engine) Content() interlingua.Content {
	return e.content.Clone()
}

func (e *Engine) Strategy() *Strategy {
	return e.strategy
}

// LastDecision returns the outcome of the last published arbitration, its
// focus is a copy.
func (e *Engine) LastDecision() Decision {
	d := e.last
	d.Focus = e.focusSnapshot()
	return d
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) Memory() *Memory {
	return e.memory
}

// Rand exposes the run's generator for components that need randomness
// and want to stay reproducible under the run seed.
func (e *Engine) Rand() *rand.Rand {
	return e.rng
}

func (s *Strategy) nameOrNone() string {
	if s == nil {
		return "<none>"
	}
	return s.Name
}

func describeFocus(focus *interlingua.Element) string {
	if focus == nil {
		return "<none>"
	}
	return focus.Name + "@" + focus.Source
}
