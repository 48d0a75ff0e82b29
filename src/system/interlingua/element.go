// Package interlingua holds the message type exchanged between components
// and the descriptor type used to query it.
package interlingua

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Top-level field names. Every other key addresses Arguments.
const (
	KeyName  = "name"
	KeyType  = "type"
	KeyWorld = "world"
)

// Args holds the free-form arguments of an element.
type Args map[string]any

// Element is one interlingua message. Source and Cycle are stamped by the
// engine on emission and are not part of the element's identity.
type Element struct {
	Name      string
	Arguments Args
	Type      string
	// World is empty when the element carries no world.
	World string

	Source string
	Cycle  int
}

// Content is the set of elements emitted during one cycle. Order carries no
// meaning and duplicates are allowed.
type Content []Element

// New builds an element with the given name and arguments.
func New(name string, args Args) Element {
	return Element{Name: name, Arguments: args}
}

// FromFields routes name, type and world into their top-level slots and
// every other key into Arguments. Non string values for the top-level keys
// are formatted with fmt.Sprint, nil leaves the slot empty.
func FromFields(fields map[string]any) Element {
	e := Element{}
	for key, value := range fields {
		switch key {
		case KeyName:
			e.Name = topLevelString(value)
		case KeyType:
			e.Type = topLevelString(value)
		case KeyWorld:
			e.World = topLevelString(value)
		default:
			if e.Arguments == nil {
				e.Arguments = Args{}
			}
			e.Arguments[key] = value
		}
	}
	return e
}

func topLevelString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func (e Element) WithType(t string) Element {
	e.Type = t
	return e
}

func (e Element) WithWorld(world string) Element {
	e.World = world
	return e
}

// WithArg returns a copy with key set in Arguments, the receiver's map is
// left untouched.
func (e Element) WithArg(key string, value any) Element {
	args := make(Args, len(e.Arguments)+1)
	for k, v := range e.Arguments {
		args[k] = v
	}
	args[key] = value
	e.Arguments = args
	return e
}

// Get resolves key against the element: top-level lookup for name, type and
// world, otherwise a lookup in Arguments. Name and type are always present,
// even when empty. Only world is nullable, so an empty world resolves as
// absent, as does a nil argument.
func (e Element) Get(key string) (any, bool) {
	switch key {
	case KeyName:
		return e.Name, true
	case KeyType:
		return e.Type, true
	case KeyWorld:
		return e.World, e.World != ""
	}
	v, ok := e.Arguments[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (e Element) String() string {
	return e.canonical()
}

// Equal reports structural equality over name, arguments, type and world.
func Equal(a, b Element) bool {
	if a.Name != b.Name || a.Type != b.Type || a.World != b.World {
		return false
	}
	return argsEqual(a.Arguments, b.Arguments)
}

// Equal is the method form of Equal.
func (e Element) Equal(other Element) bool {
	return Equal(e, other)
}

// Fingerprint hashes the canonical form of the element. Elements that are
// Equal share a fingerprint.
func (e Element) Fingerprint() string {
	sum := sha1.Sum([]byte(e.canonical()))
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of e. Arguments, nested elements, slices and
// maps are copied recursively; other pointers are shared.
func (e Element) Clone() Element {
	e.Arguments = cloneArgs(e.Arguments)
	return e
}

// Clone returns a new slice holding deep copies of the elements, so neither
// the slice nor any argument value is shared with c.
func (c Content) Clone() Content {
	out := make(Content, len(c))
	for i, e := range c {
		out[i] = e.Clone()
	}
	return out
}

func cloneArgs(args Args) Args {
	if args == nil {
		return nil
	}
	out := make(Args, len(args))
	for k, v := range args {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case Element:
		return tv.Clone()
	case *Element:
		if tv == nil {
			return tv
		}
		c := tv.Clone()
		return &c
	case Args:
		return cloneArgs(tv)
	case Content:
		return tv.Clone()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			setCloned(out.Index(i), rv.Index(i))
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item := reflect.New(rv.Type().Elem()).Elem()
			setCloned(item, iter.Value())
			out.SetMapIndex(iter.Key(), item)
		}
		return out.Interface()
	}
	return v
}

// setCloned stores a deep copy of src into dst, both of the same type.
func setCloned(dst, src reflect.Value) {
	if (src.Kind() == reflect.Interface || src.Kind() == reflect.Pointer) && src.IsNil() {
		return
	}
	cloned := cloneValue(src.Interface())
	if cloned == nil {
		return
	}
	dst.Set(reflect.ValueOf(cloned))
}

func argsEqual(a, b Args) bool {
	for k, av := range a {
		if !ValueEqual(av, b[k]) {
			return false
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok && bv != nil {
			return false
		}
	}
	return true
}

// ValueEqual compares two argument values structurally. Numbers compare by
// value independent of their Go type, nested elements use Equal.
func ValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := numberOf(a); ok {
		bn, ok := numberOf(b)
		return ok && an.equal(bn)
	}
	switch av := a.(type) {
	case Element:
		bv, ok := asElement(b)
		return ok && Equal(av, bv)
	case *Element:
		bv, ok := asElement(b)
		return ok && av != nil && Equal(*av, bv)
	case Args:
		return mapEqual(av, b)
	case map[string]any:
		return mapEqual(Args(av), b)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isList(ra) && isList(rb) {
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !ValueEqual(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func mapEqual(a Args, b any) bool {
	switch bv := b.(type) {
	case Args:
		return argsEqual(a, bv)
	case map[string]any:
		return argsEqual(a, Args(bv))
	}
	return false
}

func asElement(v any) (Element, bool) {
	switch e := v.(type) {
	case Element:
		return e, true
	case *Element:
		if e == nil {
			return Element{}, false
		}
		return *e, true
	}
	return Element{}, false
}

func isList(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

type numKind int

const (
	numInt numKind = iota
	numUint
	numFloat
)

// number keeps integers exact; only floats go through float64.
type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func numberOf(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return number{kind: numInt, i: int64(n)}, true
	case int8:
		return number{kind: numInt, i: int64(n)}, true
	case int16:
		return number{kind: numInt, i: int64(n)}, true
	case int32:
		return number{kind: numInt, i: int64(n)}, true
	case int64:
		return number{kind: numInt, i: n}, true
	case uint:
		return number{kind: numUint, u: uint64(n)}, true
	case uint8:
		return number{kind: numUint, u: uint64(n)}, true
	case uint16:
		return number{kind: numUint, u: uint64(n)}, true
	case uint32:
		return number{kind: numUint, u: uint64(n)}, true
	case uint64:
		return number{kind: numUint, u: n}, true
	case float32:
		return number{kind: numFloat, f: float64(n)}, true
	case float64:
		return number{kind: numFloat, f: n}, true
	}
	return number{}, false
}

// integral reports the exact integer value of n. ok is false for floats
// with a fraction, NaN, infinities and values outside the uint64/int64
// range.
func (n number) integral() (neg bool, mag uint64, ok bool) {
	switch n.kind {
	case numInt:
		if n.i < 0 {
			return true, uint64(-(n.i + 1)) + 1, true
		}
		return false, uint64(n.i), true
	case numUint:
		return false, n.u, true
	}
	f := n.f
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false, 0, false
	}
	if f >= 0 {
		if f >= 1<<64 {
			return false, 0, false
		}
		return false, uint64(f), true
	}
	if f < -(1 << 63) {
		return false, 0, false
	}
	return true, uint64(-(int64(f) + 1)) + 1, true
}

func (n number) equal(o number) bool {
	if n.kind == numFloat && o.kind == numFloat {
		if math.IsNaN(n.f) && math.IsNaN(o.f) {
			return true
		}
		return n.f == o.f
	}
	nNeg, nMag, nOK := n.integral()
	oNeg, oMag, oOK := o.integral()
	if !nOK || !oOK {
		return false
	}
	if nMag == 0 && oMag == 0 {
		return true
	}
	return nNeg == oNeg && nMag == oMag
}

// canonical renders the identity fields with sorted argument keys.
func (e Element) canonical() string {
	var sb strings.Builder
	sb.WriteString("{name=" + strconv.Quote(e.Name))
	sb.WriteString(" type=" + strconv.Quote(e.Type))
	sb.WriteString(" world=" + strconv.Quote(e.World))
	sb.WriteString(" args=")
	writeArgs(&sb, e.Arguments)
	sb.WriteString("}")
	return sb.String()
}

func writeArgs(sb *strings.Builder, args Args) {
	keys := make([]string, 0, len(args))
	for k, v := range args {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strconv.Quote(k) + ":")
		writeValue(sb, args[k])
	}
	sb.WriteString("}")
}

func writeValue(sb *strings.Builder, v any) {
	if v == nil {
		sb.WriteString("null")
		return
	}
	if n, ok := numberOf(v); ok {
		writeNumber(sb, n)
		return
	}
	switch tv := v.(type) {
	case string:
		sb.WriteString(strconv.Quote(tv))
		return
	case Element:
		sb.WriteString(tv.canonical())
		return
	case *Element:
		if tv != nil {
			sb.WriteString(tv.canonical())
			return
		}
	case Args:
		writeArgs(sb, tv)
		return
	case map[string]any:
		writeArgs(sb, Args(tv))
		return
	}
	rv := reflect.ValueOf(v)
	if isList(rv) {
		sb.WriteString("[")
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				sb.WriteString(" ")
			}
			writeValue(sb, rv.Index(i).Interface())
		}
		sb.WriteString("]")
		return
	}
	sb.WriteString(fmt.Sprintf("%#v", v))
}

// writeNumber renders integral values in integer form so that equal
// numbers of different Go types share a canonical form.
func writeNumber(sb *strings.Builder, n number) {
	if neg, mag, ok := n.integral(); ok {
		if neg && mag != 0 {
			sb.WriteString("-")
		}
		sb.WriteString(strconv.FormatUint(mag, 10))
		return
	}
	if math.IsNaN(n.f) {
		sb.WriteString("NaN")
		return
	}
	sb.WriteString(strconv.FormatFloat(n.f, 'g', -1, 64))
}
