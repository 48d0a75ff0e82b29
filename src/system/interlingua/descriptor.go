package interlingua

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags the variant a Constraint holds.
type Kind int

const (
	KindLiteral Kind = iota
	KindSet
	KindPredicate
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindSet:
		return "set"
	case KindPredicate:
		return "predicate"
	}
	return "unknown"
}

// PredicateFunc receives the resolved value, nil when absent is never
// passed. A returned error aborts the whole match.
type PredicateFunc func(value any) (bool, error)

// Constraint is the per-field part of a descriptor: an exact literal, a set
// of admissible values, or an arbitrary predicate.
type Constraint struct {
	kind      Kind
	literal   any
	set       []any
	predicate PredicateFunc
	label     string
}

// Literal requires structural equality. Literal(nil) requires the field to
// be absent or nil.
func Literal(v any) Constraint {
	return Constraint{kind: KindLiteral, literal: v}
}

// OneOf requires the resolved value to equal one of vs.
func OneOf(vs ...any) Constraint {
	set := make([]any, len(vs))
	copy(set, vs)
	return Constraint{kind: KindSet, set: set}
}

// Where wraps a fallible predicate. label only shows up in errors and
// String output.
func Where(label string, fn PredicateFunc) Constraint {
	return Constraint{kind: KindPredicate, predicate: fn, label: label}
}

// Test wraps a predicate that cannot fail.
func Test(label string, fn func(value any) bool) Constraint {
	return Where(label, func(value any) (bool, error) {
		return fn(value), nil
	})
}

func (c Constraint) Kind() Kind {
	return c.kind
}

func (c Constraint) Value() any {
	return c.literal
}

func (c Constraint) Values() []any {
	return c.set
}

func (c Constraint) Predicate() PredicateFunc {
	return c.predicate
}

func (c Constraint) Label() string {
	return c.label
}

// AdmitsAbsent reports whether a missing field can satisfy the constraint.
func (c Constraint) AdmitsAbsent() bool {
	switch c.kind {
	case KindLiteral:
		return c.literal == nil
	case KindSet:
		for _, v := range c.set {
			if v == nil {
				return true
			}
		}
	}
	return false
}

func (c Constraint) String() string {
	switch c.kind {
	case KindLiteral:
		if c.literal == nil {
			return "null"
		}
		return fmt.Sprintf("%v", c.literal)
	case KindSet:
		parts := make([]string, 0, len(c.set))
		for _, v := range c.set {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindPredicate:
		if c.label == "" {
			return "<predicate>"
		}
		return "<" + c.label + ">"
	}
	return "<invalid>"
}

// Descriptor is a partial element: every key present constrains the
// matching field, keys left out impose nothing.
type Descriptor map[string]Constraint

// Describe turns a field map into a descriptor. Values that already are a
// Constraint are kept, everything else becomes a Literal.
func Describe(fields map[string]any) Descriptor {
	d := make(Descriptor, len(fields))
	for key, value := range fields {
		if c, ok := value.(Constraint); ok {
			d[key] = c
			continue
		}
		d[key] = Literal(value)
	}
	return d
}

// DescriptorFrom builds the exact descriptor of e. It matches e and every
// element Equal to it.
func DescriptorFrom(e Element) Descriptor {
	d := Descriptor{
		KeyName:  Literal(e.Name),
		KeyType:  Literal(e.Type),
		KeyWorld: Literal(nullable(e.World)),
	}
	for k, v := range e.Arguments {
		d[k] = Literal(v)
	}
	return d
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// With returns a copy of d with key constrained by c.
func (d Descriptor) With(key string, c Constraint) Descriptor {
	out := make(Descriptor, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	out[key] = c
	return out
}

// Keys returns the constrained keys in sorted order.
func (d Descriptor) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d Descriptor) String() string {
	parts := make([]string, 0, len(d))
	for _, k := range d.Keys() {
		parts = append(parts, k+":"+d[k].String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}
