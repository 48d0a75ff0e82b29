package matching

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
)

// Inner constrains a field holding a nested element to match d.
// Values that are not elements do not match.
func Inner(d interlingua.Descriptor) interlingua.Constraint {
	return interlingua.Where("inner"+d.String(), func(value any) (bool, error) {
		e, ok := elementOf(value)
		if !ok {
			return false, nil
		}
		return Matches(d, e)
	})
}

// Contains constrains a field holding a sequence of elements: at least one
// of them has to match d.
func Contains(d interlingua.Descriptor) interlingua.Constraint {
	return interlingua.Where("contains"+d.String(), func(value any) (bool, error) {
		seq, ok := sequenceOf(value)
		if !ok {
			return false, nil
		}
		return Some(d, seq)
	})
}

// All constrains a field holding a sequence of elements: every one of them
// has to match d. An empty sequence matches.
func All(d interlingua.Descriptor) interlingua.Constraint {
	return interlingua.Where("all"+d.String(), func(value any) (bool, error) {
		seq, ok := sequenceOf(value)
		if !ok {
			return false, nil
		}
		return Every(d, seq)
	})
}

func elementOf(value any) (interlingua.Element, bool) {
	switch e := value.(type) {
	case interlingua.Element:
		return e, true
	case *interlingua.Element:
		if e != nil {
			return *e, true
		}
	}
	return interlingua.Element{}, false
}

func sequenceOf(value any) (interlingua.Content, bool) {
	switch seq := value.(type) {
	case interlingua.Content:
		return seq, true
	case []interlingua.Element:
		return interlingua.Content(seq), true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make(interlingua.Content, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		e, ok := elementOf(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out = append(out, e)
	}
	return out, true
}

// Operators understood by Compare.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpContains     = "contains"
	OpPrefix       = "prefix"
	OpSuffix       = "suffix"
)

// ErrUnknownOperator is returned by Compare for operators it does not know.
type ErrUnknownOperator struct {
	Operator string
}

func (e ErrUnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Operator)
}

// Compare builds a predicate from a [Field, Operator, Value] style filter.
// operand is parsed as a number for the ordering operators; == and != fall
// back to string comparison when either side is not numeric.
func Compare(operator string, operand string) (interlingua.Constraint, error) {
	label := operator + " " + operand
	num, numErr := strconv.ParseFloat(strings.TrimSpace(operand), 64)
	switch operator {
	case OpEqual, OpNotEqual:
		want := operator == OpEqual
		return interlingua.Test(label, func(value any) bool {
			if numErr == nil {
				if f, ok := numberOf(value); ok {
					return (f == num) == want
				}
			}
			return (stringOf(value) == operand) == want
		}), nil
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		if numErr != nil {
			return interlingua.Constraint{}, fmt.Errorf("operator %q needs a numeric operand, got %q", operator, operand)
		}
		return interlingua.Test(label, func(value any) bool {
			f, ok := numberOf(value)
			if !ok {
				return false
			}
			switch operator {
			case OpGreater:
				return f > num
			case OpGreaterEqual:
				return f >= num
			case OpLess:
				return f < num
			}
			return f <= num
		}), nil
	case OpContains:
		return interlingua.Test(label, func(value any) bool {
			if s, ok := value.(string); ok {
				return strings.Contains(s, operand)
			}
			rv := reflect.ValueOf(value)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				return false
			}
			for i := 0; i < rv.Len(); i++ {
				if stringOf(rv.Index(i).Interface()) == operand {
					return true
				}
			}
			return false
		}), nil
	case OpPrefix:
		return interlingua.Test(label, func(value any) bool {
			s, ok := value.(string)
			return ok && strings.HasPrefix(s, operand)
		}), nil
	case OpSuffix:
		return interlingua.Test(label, func(value any) bool {
			s, ok := value.(string)
			return ok && strings.HasSuffix(s, operand)
		}), nil
	}
	return interlingua.Constraint{}, ErrUnknownOperator{Operator: operator}
}

func numberOf(value any) (float64, bool) {
	switch n := value.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		return 0, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func stringOf(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
