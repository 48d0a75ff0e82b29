// Package blueprint loads strategies from TOML or YAML files.
//
// A blueprint lists tiers in declaration order. Each tier holds descriptors
// in precedence order; a descriptor combines exact matches, admissible
// sets, required absences, operator filters and nested element queries:
//
//	name = "default"
//
//	[[tier]]
//	name = "actions"
//	priority = 5
//	step = 0
//	  [[tier.descriptor]]
//	  match = { name = "action", verb = ["grasp", "look"] }
//	  absent = ["world"]
//	  filters = [["urgency", ">=", "2"]]
//	  [tier.descriptor.inner.target]
//	  match = { name = "object" }
package blueprint

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
	"github.com/voodooEntity/cyberfocus/src/system/configBuilder"
)

// Format selects the decoder.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

type File struct {
	Name  string     `toml:"name" yaml:"name"`
	Tiers []TierSpec `toml:"tier" yaml:"tiers"`
}

type TierSpec struct {
	Name        string           `toml:"name" yaml:"name"`
	Priority    float64          `toml:"priority" yaml:"priority"`
	Step        float64          `toml:"step" yaml:"step"`
	Descriptors []DescriptorSpec `toml:"descriptor" yaml:"descriptors"`
}

type DescriptorSpec struct {
	// Match maps keys to a literal, or to a list which is read as a set.
	Match   map[string]any            `toml:"match" yaml:"match"`
	Absent  []string                  `toml:"absent" yaml:"absent"`
	Filters [][]string                `toml:"filters" yaml:"filters"`
	Inner   map[string]DescriptorSpec `toml:"inner" yaml:"inner"`
}

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported blueprint extension %q", filepath.Ext(path))
}

// LoadFile reads and compiles the blueprint at path.
func LoadFile(path string) (*cerebrum.Strategy, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load blueprint: %w", err)
	}
	strategy, err := Load(data, format)
	if err != nil {
		return nil, fmt.Errorf("load blueprint %s: %w", path, err)
	}
	return strategy, nil
}

// Load decodes and compiles a blueprint held in memory.
func Load(data []byte, format Format) (*cerebrum.Strategy, error) {
	file, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	builder, err := file.Builder()
	if err != nil {
		return nil, err
	}
	return builder.Build()
}

// Decode parses data without compiling it. Unknown keys are rejected.
func Decode(data []byte, format Format) (File, error) {
	var file File
	switch format {
	case FormatTOML:
		meta, err := toml.Decode(string(data), &file)
		if err != nil {
			return File{}, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return File{}, fmt.Errorf("decode toml: unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return File{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return File{}, fmt.Errorf("unknown blueprint format %q", format)
	}
	return file, nil
}

// Builder translates the decoded file into a strategy builder.
func (f File) Builder() (*configBuilder.StrategyBuilder, error) {
	builder := configBuilder.NewStrategy(f.Name)
	for i, spec := range f.Tiers {
		name := spec.Name
		if name == "" {
			name = "tier-" + strconv.Itoa(i)
		}
		tier := configBuilder.NewTier(name).SetPriority(spec.Priority).SetStep(spec.Step)
		for j, ds := range spec.Descriptors {
			d, err := ds.builder()
			if err != nil {
				return nil, fmt.Errorf("tier %q descriptor %d: %w", name, j, err)
			}
			tier.AddDescriptor(d)
		}
		builder.AddTier(tier)
	}
	return builder, nil
}

func (ds DescriptorSpec) builder() (*configBuilder.DescriptorBuilder, error) {
	d := configBuilder.NewDescriptor()
	for key, value := range ds.Match {
		if list, ok := value.([]any); ok {
			d.AnyOf(key, list...)
			continue
		}
		d.Set(key, value)
	}
	for _, key := range ds.Absent {
		if _, ok := ds.Match[key]; ok {
			return nil, fmt.Errorf("key %q is both matched and absent", key)
		}
		d.Absent(key)
	}
	for i, filter := range ds.Filters {
		if len(filter) != 3 {
			return nil, fmt.Errorf("filter %d: want [field, operator, value], got %d items", i, len(filter))
		}
		d.AddFilter(fmt.Sprintf("f%03d", i), filter[0], filter[1], filter[2])
	}
	for key, inner := range ds.Inner {
		nested, err := inner.builder()
		if err != nil {
			return nil, fmt.Errorf("inner %q: %w", key, err)
		}
		d.SetInner(key, nested)
	}
	return d, nil
}
