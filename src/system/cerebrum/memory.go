package cerebrum

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/storage"
	"github.com/voodooEntity/gits/src/transport"
	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
)

// Memory keeps the history of a run inside its own gits instance. Each
// cycle becomes a "Cycle" entity whose children are the published
// elements. It is write-only from the engine's point of view and exists for
// tooling and regression tests.
type Memory struct {
	Gits  *gits.Gits
	Ident string
	log   *archivist.Archivist
}

// CycleRecord is the flattened view of one recorded cycle.
type CycleRecord struct {
	Cycle       int
	FocusName   string
	FocusType   string
	FocusWorld  string
	FocusSource string
	Tier        string
	Fallback    bool
	ContentSize int
}

// NewMemory creates a fresh gits instance named after ident. ident has to
// be unique within the process.
func NewMemory(ident string, logger *archivist.Archivist) *Memory {
	return &Memory{
		Gits:  gits.NewInstance(ident),
		Ident: ident,
		log:   logger,
	}
}

// Record maps one published cycle into storage.
func (m *Memory) Record(cycle int, decision Decision, content interlingua.Content) {
	properties := map[string]string{
		"Tier":        decision.TierName(),
		"Fallback":    strconv.FormatBool(decision.Fallback),
		"ContentSize": strconv.Itoa(len(content)),
		"HasFocus":    strconv.FormatBool(decision.Focus != nil),
	}
	if decision.Focus != nil {
		properties["Focus.Name"] = decision.Focus.Name
		properties["Focus.Type"] = decision.Focus.Type
		properties["Focus.World"] = decision.Focus.World
		properties["Focus.Source"] = decision.Focus.Source
		properties["Focus.Fingerprint"] = decision.Focus.Fingerprint()
	}

	children := make([]transport.TransportRelation, 0, len(content))
	for _, el := range content {
		children = append(children, transport.TransportRelation{
			Target: m.elementEntity(el),
		})
	}

	m.Gits.MapData(transport.TransportEntity{
		ID:             storage.MAP_FORCE_CREATE,
		Type:           "Cycle",
		Value:          strconv.Itoa(cycle),
		Context:        m.Ident,
		Properties:     properties,
		ChildRelations: children,
	})
	m.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "memory MEM recorded cycle=", cycle, " elements=", len(content))
}

func (m *Memory) elementEntity(el interlingua.Element) transport.TransportEntity {
	properties := map[string]string{
		"Type":        el.Type,
		"World":       el.World,
		"Source":      el.Source,
		"Fingerprint": el.Fingerprint(),
	}
	keys := make([]string, 0, len(el.Arguments))
	for k := range el.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		properties["Arg."+k] = fmt.Sprint(el.Arguments[k])
	}
	return transport.TransportEntity{
		ID:         storage.MAP_FORCE_CREATE,
		Type:       "Element",
		Value:      el.Name,
		Context:    m.Ident,
		Properties: properties,
	}
}

// Lookup returns the record of cycle n.
func (m *Memory) Lookup(n int) (CycleRecord, bool) {
	qry := gits.NewQuery().Read("Cycle").Match("Value", "==", strconv.Itoa(n))
	res := m.Gits.Query().Execute(qry)
	if res.Amount == 0 {
		return CycleRecord{}, false
	}
	props := res.Entities[0].Properties
	size, _ := strconv.Atoi(props["ContentSize"])
	fallback, _ := strconv.ParseBool(props["Fallback"])
	return CycleRecord{
		Cycle:       n,
		FocusName:   props["Focus.Name"],
		FocusType:   props["Focus.Type"],
		FocusWorld:  props["Focus.World"],
		FocusSource: props["Focus.Source"],
		Tier:        props["Tier"],
		Fallback:    fallback,
		ContentSize: size,
	}, true
}

// Cycles returns how many cycles have been recorded.
func (m *Memory) Cycles() int {
	res := m.Gits.Query().Execute(gits.NewQuery().Read("Cycle"))
	return res.Amount
}

// WonBy counts the recorded cycles a tier won.
func (m *Memory) WonBy(tierName string) int {
	qry := gits.NewQuery().Read("Cycle").Match("Properties.Tier", "==", tierName)
	return m.Gits.Query().Execute(qry).Amount
}
