package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindDateTime
	// KindList is a homogeneous array of scalar values.
	KindList
	// KindOther carries the stringified form of a store value outside the
	// supported kinds. Exporters publish it as a plain literal.
	KindOther
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindBoolean:  "boolean",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindList:     "list",
	KindOther:    "other",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Layouts of the temporal kinds. Both are local (no zone).
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05.999999999"
)

// Value is a property value: a scalar of one of the supported kinds, or a
// list of scalars.
type Value struct {
	kind  Kind
	str   string
	num   int64
	float float64
	flag  bool
	time  time.Time
	items []Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Integer(i int64) Value { return Value{kind: KindInteger, num: i} }
func Float(f float64) Value { return Value{kind: KindFloat, float: f} }
func Boolean(b bool) Value { return Value{kind: KindBoolean, flag: b} }
func Other(repr string) Value { return Value{kind: KindOther, str: repr} }
func Date(t time.Time) Value { return Value{kind: KindDate, time: dateOnly(t)} }
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, time: localTime(t)} }

// List builds a list value. Nested lists are flattened into their elements.
func List(items ...Value) Value {
	flat := make([]Value, 0, len(items))
	for _, item := range items {
		if item.kind == KindList {
			flat = append(flat, item.items...)
			continue
		}
		flat = append(flat, item)
	}
	return Value{kind: KindList, items: flat}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func localTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsList() bool { return v.kind == KindList }
func (v Value) Str() string { return v.str }
func (v Value) Int() int64 { return v.num }
func (v Value) Float() float64 { return v.float }
func (v Value) Bool() bool { return v.flag }
func (v Value) Time() time.Time { return v.time }

// Items returns the elements of a list, or the value itself for scalars.
func (v Value) Items() []Value {
	if v.kind == KindList {
		return v.items
	}
	return []Value{v}
}

// Append returns a list holding the elements of v followed by item.
func (v Value) Append(item Value) Value {
	items := append([]Value(nil), v.Items()...)
	return List(append(items, item)...)
}

// String renders the value in its lexical form.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindOther:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	case KindDate:
		return v.time.Format(DateLayout)
	case KindDateTime:
		return v.time.Format(DateTimeLayout)
	case KindList:
		return fmt.Sprint(v.items)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString, KindOther:
		return v.str == other.str
	case KindInteger:
		return v.num == other.num
	case KindFloat:
		return v.float == other.float
	case KindBoolean:
		return v.flag == other.flag
	case KindDate, KindDateTime:
		return v.time.Equal(other.time)
	case KindList:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// FromNative converts a Go value as returned by a store driver. Values outside
// the supported kinds become KindOther with their fmt representation.
func FromNative(raw any) Value {
	switch x := raw.(type) {
	case Value:
		return x
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case int:
		return Integer(int64(x))
	case int8:
		return Integer(int64(x))
	case int16:
		return Integer(int64(x))
	case int32:
		return Integer(int64(x))
	case int64:
		return Integer(x)
	case uint8:
		return Integer(int64(x))
	case uint16:
		return Integer(int64(x))
	case uint32:
		return Integer(int64(x))
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case bool:
		return Boolean(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return Date(x)
		}
		return DateTime(x)
	case []string:
		return listOf(x, String)
	case []int64:
		return listOf(x, Integer)
	case []float64:
		return listOf(x, Float)
	case []bool:
		return listOf(x, Boolean)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromNative(item)
		}
		return List(items...)
	case nil:
		return Other("")
	default:
		return Other(fmt.Sprint(x))
	}
}

func listOf[T any](xs []T, ctor func(T) Value) Value {
	items := make([]Value, len(xs))
	for i, x := range xs {
		items[i] = ctor(x)
	}
	return List(items...)
}

type wireValue struct {
	Kind  string      `json:"k"`
	Value string      `json:"v,omitempty"`
	Items []wireValue `json:"items,omitempty"`
}

func (v Value) wire() wireValue {
	if v.kind == KindList {
		items := make([]wireValue, len(v.items))
		for i, item := range v.items {
			items[i] = item.wire()
		}
		return wireValue{Kind: v.kind.String(), Items: items}
	}
	return wireValue{Kind: v.kind.String(), Value: v.String()}
}

// MarshalJSON encodes the value with its kind. The encoding is deterministic,
// so encoded values can be compared byte for byte.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wire())
}

// UnmarshalJSON decodes a value produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := fromWire(w)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromWire(w wireValue) (Value, error) {
	switch w.Kind {
	case "string":
		return String(w.Value), nil
	case "other":
		return Other(w.Value), nil
	case "integer":
		i, err := strconv.ParseInt(w.Value, 10, 64)
		return Integer(i), err
	case "float":
		f, err := strconv.ParseFloat(w.Value, 64)
		return Float(f), err
	case "boolean":
		b, err := strconv.ParseBool(w.Value)
		return Boolean(b), err
	case "date":
		t, err := time.Parse(DateLayout, w.Value)
		return Date(t), err
	case "datetime":
		t, err := time.Parse(DateTimeLayout, w.Value)
		return DateTime(t), err
	case "list":
		items := make([]Value, len(w.Items))
		for i, item := range w.Items {
			decoded, err := fromWire(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = decoded
		}
		return List(items...), nil
	default:
		return Value{}, fmt.Errorf("graph: unknown value kind %q", w.Kind)
	}
}
