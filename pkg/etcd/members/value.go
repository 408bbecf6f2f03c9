package members

import (
    "encoding/json"
    "strconv"
)

// Kind is the scalar type a member attribute value was coerced to.
type Kind uint8

const (
    KindString Kind = iota
    KindBool
    KindInt
)

func (k Kind) String() string {
    switch k {
    case KindBool:
        return "bool"
    case KindInt:
        return "int"
    default:
        return "string"
    }
}

// Value is one attribute value from a member line. The raw text is always
// kept; Bool and Int are only meaningful for the matching Kind.
type Value struct {
    kind Kind
    raw  string
    b    bool
    i    int64
}

// ParseValue coerces raw text: "true"/"false" become booleans, anything
// that parses fully as a base-10 integer becomes an int, the rest stays a
// string.
func ParseValue(raw string) Value {
    switch raw {
    case "true":
        return Value{kind: KindBool, raw: raw, b: true}
    case "false":
        return Value{kind: KindBool, raw: raw}
    }
    if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
        return Value{kind: KindInt, raw: raw, i: n}
    }
    return Value{kind: KindString, raw: raw}
}

func StringValue(s string) Value { return Value{kind: KindString, raw: s} }

func BoolValue(b bool) Value { return Value{kind: KindBool, raw: strconv.FormatBool(b), b: b} }

func IntValue(n int64) Value { return Value{kind: KindInt, raw: strconv.FormatInt(n, 10), i: n} }

func (v Value) Kind() Kind { return v.kind }

// String returns the raw text as read from the etcdctl output.
func (v Value) String() string { return v.raw }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Interface returns the typed value as string, bool or int64.
func (v Value) Interface() any {
    switch v.kind {
    case KindBool:
        return v.b
    case KindInt:
        return v.i
    default:
        return v.raw
    }
}

func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.Interface()) }
