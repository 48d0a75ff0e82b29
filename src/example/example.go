// Package example contains toy components wired into the demo model: an
// eye reporting coloured objects, a motor that acts on attended objects and
// a fixation marker that is always present.
package example

import (
	"errors"

	"github.com/voodooEntity/cyberfocus/src/system/interfaces"
	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
)

// Eye reports one object per colour. Every period cycles it rotates the
// colour list so the visible scene changes over time.
type Eye struct {
	colors []string
	period int
	seen   int
}

func NewEye(period int, colors ...string) *Eye {
	if period < 1 {
		period = 1
	}
	if len(colors) == 0 {
		colors = []string{"red", "green", "blue"}
	}
	return &Eye{colors: append([]string(nil), colors...), period: period}
}

func (e *Eye) Update(focus *interlingua.Element, content interlingua.Content) error {
	e.seen++
	if e.seen%e.period == 0 {
		e.colors = append(e.colors[1:], e.colors[0])
	}
	return nil
}

func (e *Eye) Emit() (interlingua.Content, error) {
	out := make(interlingua.Content, 0, len(e.colors))
	for idx, color := range e.colors {
		out = append(out, interlingua.New("object", interlingua.Args{
			"color": color,
			"slot":  idx,
		}).WithType("percept").WithWorld("scene"))
	}
	return out, nil
}

// Motor answers an attended object with a grasp action on the next cycle.
type Motor struct {
	target *interlingua.Element
	grasps int
}

func NewMotor() *Motor {
	return &Motor{}
}

func (m *Motor) Update(focus *interlingua.Element, content interlingua.Content) error {
	m.target = nil
	if focus != nil && focus.Name == "object" {
		target := *focus
		m.target = &target
		m.grasps++
	}
	return nil
}

func (m *Motor) Emit() (interlingua.Content, error) {
	if m.target == nil {
		return interlingua.Content{}, nil
	}
	return interlingua.Content{
		interlingua.New("action", interlingua.Args{
			"verb":   "grasp",
			"target": *m.target,
		}).WithType("motor"),
	}, nil
}

// Grasps counts how often an object was attended.
func (m *Motor) Grasps() int {
	return m.grasps
}

// Fixation always emits a fixation marker.
type Fixation struct{}

func (Fixation) Update(focus *interlingua.Element, content interlingua.Content) error {
	return nil
}

func (Fixation) Emit() (interlingua.Content, error) {
	return interlingua.Content{interlingua.New("fixation", nil)}, nil
}

// ErrBroken is returned by Broken.
var ErrBroken = errors.New("broken component")

// Broken fails its update once the given cycle is reached, used to exercise
// error propagation.
type Broken struct {
	FailAt int
	cycle  int
}

func (b *Broken) Update(focus *interlingua.Element, content interlingua.Content) error {
	b.cycle++
	if b.cycle >= b.FailAt {
		return ErrBroken
	}
	return nil
}

func (b *Broken) Emit() (interlingua.Content, error) {
	return interlingua.Content{}, nil
}

var (
	_ interfaces.ComponentInterface = (*Eye)(nil)
	_ interfaces.ComponentInterface = (*Motor)(nil)
	_ interfaces.ComponentInterface = Fixation{}
	_ interfaces.ComponentInterface = (*Broken)(nil)
)
