// Package matching evaluates descriptors against elements and content.
//
// Every derived operation is built on Matches and shares its error
// behaviour: an error returned by a descriptor predicate is wrapped in a
// *PredicateError and handed back to the caller immediately. Nothing is
// retried and a failing predicate never counts as a plain mismatch.
package matching

import (
	"fmt"
	"math/rand"

	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
)

// PredicateError reports a predicate that failed while matching Key.
type PredicateError struct {
	Key   string
	Label string
	Err   error
}

func (e *PredicateError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("predicate %q on key %q: %v", e.Label, e.Key, e.Err)
	}
	return fmt.Sprintf("predicate on key %q: %v", e.Key, e.Err)
}

func (e *PredicateError) Unwrap() error {
	return e.Err
}

// Matches reports whether e satisfies every constraint of d. Keys are
// evaluated in sorted order so predicate side effects and errors are
// reproducible.
func Matches(d interlingua.Descriptor, e interlingua.Element) (bool, error) {
	for _, key := range d.Keys() {
		ok, err := matchKey(key, d[key], e)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchKey(key string, c interlingua.Constraint, e interlingua.Element) (bool, error) {
	value, present := e.Get(key)
	if !present {
		return c.AdmitsAbsent(), nil
	}
	switch c.Kind() {
	case interlingua.KindLiteral:
		return interlingua.ValueEqual(c.Value(), value), nil
	case interlingua.KindSet:
		for _, candidate := range c.Values() {
			if interlingua.ValueEqual(candidate, value) {
				return true, nil
			}
		}
		return false, nil
	case interlingua.KindPredicate:
		fn := c.Predicate()
		if fn == nil {
			return false, &PredicateError{Key: key, Label: c.Label(), Err: fmt.Errorf("nil predicate")}
		}
		ok, err := fn(value)
		if err != nil {
			return false, &PredicateError{Key: key, Label: c.Label(), Err: err}
		}
		return ok, nil
	}
	return false, fmt.Errorf("key %q: unknown constraint kind %d", key, c.Kind())
}

// Filter returns every element of content matching d, in content order.
// Duplicates are kept.
func Filter(d interlingua.Descriptor, content interlingua.Content) (interlingua.Content, error) {
	out := interlingua.Content{}
	for _, e := range content {
		ok, err := Matches(d, e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// First returns the first matching element, nil when nothing matches.
func First(d interlingua.Descriptor, content interlingua.Content) (*interlingua.Element, error) {
	for i := range content {
		ok, err := Matches(d, content[i])
		if err != nil {
			return nil, err
		}
		if ok {
			hit := content[i]
			return &hit, nil
		}
	}
	return nil, nil
}

// Some reports whether at least one element matches.
func Some(d interlingua.Descriptor, content interlingua.Content) (bool, error) {
	hit, err := First(d, content)
	return hit != nil, err
}

// Every reports whether all elements match. Empty content is vacuously true.
func Every(d interlingua.Descriptor, content interlingua.Content) (bool, error) {
	for _, e := range content {
		ok, err := Matches(d, e)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// NotAny reports whether no element matches.
func NotAny(d interlingua.Descriptor, content interlingua.Content) (bool, error) {
	some, err := Some(d, content)
	if err != nil {
		return false, err
	}
	return !some, nil
}

// Count returns the number of matching elements.
func Count(d interlingua.Descriptor, content interlingua.Content) (int, error) {
	hits, err := Filter(d, content)
	return len(hits), err
}

// RandMatch picks one matching element uniformly at random using rng, nil
// when nothing matches. rng is the run's shared generator.
func RandMatch(rng *rand.Rand, d interlingua.Descriptor, content interlingua.Content) (*interlingua.Element, error) {
	hits, err := Filter(d, content)
	if err != nil {
		return nil, err
	}
	return Pick(rng, hits), nil
}

// Pick returns a uniformly random element of content, nil when empty.
func Pick(rng *rand.Rand, content interlingua.Content) *interlingua.Element {
	if len(content) == 0 {
		return nil
	}
	hit := content[rng.Intn(len(content))]
	return &hit
}
