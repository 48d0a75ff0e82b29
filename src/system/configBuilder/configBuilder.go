package configBuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
	"github.com/voodooEntity/cyberfocus/src/system/matching"
)

// Commonly used priorities. Any float works, these only name the usual
// layering of a model.
const (
	PRIORITY_FALLBACK float64 = 0
	PRIORITY_DEFAULT  float64 = 1
	PRIORITY_ELEVATED float64 = 5
	PRIORITY_URGENT   float64 = 10
)

type StrategyBuilder struct {
	Name  string
	Tiers []*TierBuilder
}

func NewStrategy(name string) *StrategyBuilder {
	return &StrategyBuilder{
		Name:  name,
		Tiers: make([]*TierBuilder, 0),
	}
}

func (builder *StrategyBuilder) SetName(name string) *StrategyBuilder {
	builder.Name = name
	return builder
}

// AddTier appends a tier. Declaration order breaks priority ties.
func (builder *StrategyBuilder) AddTier(tier *TierBuilder) *StrategyBuilder {
	builder.Tiers = append(builder.Tiers, tier)
	return builder
}

func (builder *StrategyBuilder) Build() (*cerebrum.Strategy, error) {
	entries := make([]*cerebrum.PriorityEntry, 0, len(builder.Tiers))
	for _, tier := range builder.Tiers {
		entry, err := tier.Build()
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", builder.Name, err)
		}
		entries = append(entries, entry)
	}
	return cerebrum.NewStrategy(builder.Name, entries...)
}

type TierBuilder struct {
	Name        string
	Priority    float64
	Step        float64
	Descriptors []*DescriptorBuilder
}

func NewTier(name string) *TierBuilder {
	return &TierBuilder{
		Name:        name,
		Priority:    PRIORITY_DEFAULT,
		Descriptors: make([]*DescriptorBuilder, 0),
	}
}

func (t *TierBuilder) SetPriority(priority float64) *TierBuilder {
	t.Priority = priority
	return t
}

// SetStep sets the aging applied each cycle the tier loses. Zero keeps the
// priority fixed.
func (t *TierBuilder) SetStep(step float64) *TierBuilder {
	t.Step = step
	return t
}

// AddDescriptor appends a descriptor, earlier descriptors take precedence
// inside the tier.
func (t *TierBuilder) AddDescriptor(d *DescriptorBuilder) *TierBuilder {
	t.Descriptors = append(t.Descriptors, d)
	return t
}

func (t *TierBuilder) Build() (*cerebrum.PriorityEntry, error) {
	tier := cerebrum.Tier{Name: t.Name}
	for idx, d := range t.Descriptors {
		built, err := d.Build()
		if err != nil {
			return nil, fmt.Errorf("tier %q descriptor %d: %w", t.Name, idx, err)
		}
		tier.Descriptors = append(tier.Descriptors, built)
	}
	return cerebrum.NewEntry(tier, t.Priority, t.Step), nil
}

type DescriptorBuilder struct {
	Fields map[string]interlingua.Constraint
	Filter map[string][3]string
	Nested map[string]*DescriptorBuilder
}

func NewDescriptor() *DescriptorBuilder {
	return &DescriptorBuilder{
		Fields: make(map[string]interlingua.Constraint),
		Filter: make(map[string][3]string),
		Nested: make(map[string]*DescriptorBuilder),
	}
}

// Named is a shortcut for NewDescriptor().SetName(name).
func Named(name string) *DescriptorBuilder {
	return NewDescriptor().SetName(name)
}

func (d *DescriptorBuilder) SetName(name string) *DescriptorBuilder {
	return d.Set(interlingua.KeyName, name)
}

func (d *DescriptorBuilder) SetType(elementType string) *DescriptorBuilder {
	return d.Set(interlingua.KeyType, elementType)
}

func (d *DescriptorBuilder) SetWorld(world string) *DescriptorBuilder {
	return d.Set(interlingua.KeyWorld, world)
}

// Set requires key to equal value exactly.
func (d *DescriptorBuilder) Set(key string, value any) *DescriptorBuilder {
	d.Fields[key] = interlingua.Literal(value)
	return d
}

// AnyOf requires key to hold one of values.
func (d *DescriptorBuilder) AnyOf(key string, values ...any) *DescriptorBuilder {
	d.Fields[key] = interlingua.OneOf(values...)
	return d
}

// Absent requires key to be missing or nil.
func (d *DescriptorBuilder) Absent(key string) *DescriptorBuilder {
	d.Fields[key] = interlingua.Literal(nil)
	return d
}

func (d *DescriptorBuilder) Where(key string, label string, fn interlingua.PredicateFunc) *DescriptorBuilder {
	d.Fields[key] = interlingua.Where(label, fn)
	return d
}

// AddFilter adds a named [Field, Operator, Value] filter. Several filters on
// the same field are combined with AND.
func (d *DescriptorBuilder) AddFilter(name string, field string, operator string, value string) *DescriptorBuilder {
	d.Filter[name] = [3]string{field, operator, value}
	return d
}

// SetInner requires key to hold a nested element matching inner.
func (d *DescriptorBuilder) SetInner(key string, inner *DescriptorBuilder) *DescriptorBuilder {
	d.Nested[key] = inner
	return d
}

func (d *DescriptorBuilder) Build() (interlingua.Descriptor, error) {
	out := make(interlingua.Descriptor, len(d.Fields)+len(d.Filter)+len(d.Nested))
	for key, c := range d.Fields {
		out[key] = c
	}

	for key, inner := range d.Nested {
		if _, ok := out[key]; ok {
			return nil, fmt.Errorf("key %q constrained twice", key)
		}
		built, err := inner.Build()
		if err != nil {
			return nil, fmt.Errorf("nested %q: %w", key, err)
		}
		out[key] = matching.Inner(built)
	}

	// group filters by field, in filter name order for stable evaluation
	names := make([]string, 0, len(d.Filter))
	for name := range d.Filter {
		names = append(names, name)
	}
	sort.Strings(names)
	grouped := map[string][]interlingua.Constraint{}
	var fields []string
	for _, name := range names {
		filter := d.Filter[name]
		field := normalizeField(filter[0])
		if field == "" {
			return nil, fmt.Errorf("filter %q has no field", name)
		}
		c, err := matching.Compare(filter[1], filter[2])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", name, err)
		}
		if _, ok := grouped[field]; !ok {
			fields = append(fields, field)
		}
		grouped[field] = append(grouped[field], c)
	}
	for _, field := range fields {
		if _, ok := out[field]; ok {
			return nil, fmt.Errorf("key %q constrained twice", field)
		}
		out[field] = conjunction(grouped[field])
	}
	return out, nil
}

// normalizeField accepts "Arguments.color" as well as "color".
func normalizeField(field string) string {
	field = strings.TrimSpace(field)
	for _, prefix := range []string{"Arguments.", "arguments."} {
		if strings.HasPrefix(field, prefix) {
			return strings.TrimPrefix(field, prefix)
		}
	}
	return field
}

func conjunction(constraints []interlingua.Constraint) interlingua.Constraint {
	if len(constraints) == 1 {
		return constraints[0]
	}
	label := ""
	for i, c := range constraints {
		if i > 0 {
			label += " && "
		}
		label += c.Label()
	}
	return interlingua.Where(label, func(value any) (bool, error) {
		for _, c := range constraints {
			ok, err := c.Predicate()(value)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}
