// Package table provides the tagged value, row and table model shared by the
// warehouse reader, the Airtable adapter and the reconciler.
package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NullText is the textual form of a missing value produced by upstream exports.
// It is treated as null wherever nulls are normalized.
const NullText = "None"

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindOther
)

var kindNames = [...]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "integer",
	KindFloat:  "float",
	KindBool:   "boolean",
	KindTime:   "time",
	KindOther:  "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Normalizable reports whether nulls in a column of this kind can be replaced
// with a typed substitute.
func (k Kind) Normalizable() bool {
	return k == KindString || k == KindInt || k == KindFloat
}

// Coercible reports whether values can be converted into this kind.
func (k Kind) Coercible() bool {
	return k == KindString || k == KindInt || k == KindFloat || k == KindBool
}

// ParseKind parses a kind name as used in configuration ("int", "integer", "str", ...).
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str", "text":
		return KindString, nil
	case "integer", "int":
		return KindInt, nil
	case "float", "number", "double":
		return KindFloat, nil
	case "boolean", "bool":
		return KindBool, nil
	default:
		return KindNull, fmt.Errorf("unknown column type %q (expected string, integer, float or boolean)", name)
	}
}

// ErrCoercion is matched by every CoercionError.
var ErrCoercion = errors.New("value cannot be coerced")

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	raw  any
}

// Null returns the null marker.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Other wraps a value with no scalar representation (lists, attachments, ...).
func Other(v any) Value { return Value{kind: KindOther, raw: v} }

// FromAny converts a decoded Go value into a Value.
// Supports the integer and float families, string, []byte, bool, time.Time and json.Number.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case bool:
		return Bool(x)
	case int64:
		return Int(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case uint:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case uint32:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint8:
		return Int(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case time.Time:
		return Time(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		if f, err := x.Float64(); err == nil {
			return Float(f)
		}
		return String(x.String())
	default:
		return Other(x)
	}
}

// fromUint keeps values above math.MaxInt64 as exact decimal text.
func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return String(strconv.FormatUint(u, 10))
	}
	return Int(int64(u))
}

// Kind returns the dynamic type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null marker.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNullLike reports whether v is null or the NullText literal.
func (v Value) IsNullLike() bool {
	return v.kind == KindNull || (v.kind == KindString && v.s == NullText)
}

// ProfileKind is the kind recorded for v in a column type profile.
// Null-like strings are profiled as null.
func (v Value) ProfileKind() Kind {
	if v.IsNullLike() {
		return KindNull
	}
	return v.kind
}

// AsString returns the string payload, or "" for other kinds.
func (v Value) AsString() string { return v.s }

// AsInt returns the integer payload, or 0 for other kinds.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload, or 0 for other kinds.
func (v Value) AsFloat() float64 { return v.f }

// AsBool returns the boolean payload, or false for other kinds.
func (v Value) AsBool() bool { return v.b }

// AsTime returns the timestamp payload, or the zero time for other kinds.
func (v Value) AsTime() time.Time { return v.t }

// Interface returns v as a plain Go value suitable for JSON encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindOther:
		return v.raw
	default:
		return nil
	}
}

// String returns the canonical text of v. Integral values of different kinds
// share a text form, which is what key matching relies on.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindOther:
		return fmt.Sprintf("%v", v.raw)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return fmt.Sprint(v.raw) == fmt.Sprint(o.raw)
	}
}

// CoerceTo converts v to the target kind.
// Null-like values become null for non-string targets; for string targets
// they are left untouched so normalization can replace them later.
func (v Value) CoerceTo(target Kind) (Value, error) {
	if v.kind == target {
		return v, nil
	}
	if v.IsNullLike() {
		if target == KindString {
			return v, nil
		}
		return Null(), nil
	}

	switch target {
	case KindString:
		switch v.kind {
		case KindInt, KindFloat, KindBool, KindTime:
			return String(v.String()), nil
		}
	case KindInt:
		switch v.kind {
		case KindString:
			i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
			if err != nil {
				return v, fmt.Errorf("%w: %q is not an integer", ErrCoercion, v.s)
			}
			return Int(i), nil
		case KindFloat:
			if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
				return v, fmt.Errorf("%w: %v is not finite", ErrCoercion, v.f)
			}
			f := math.Trunc(v.f)
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return v, fmt.Errorf("%w: %v is out of integer range", ErrCoercion, v.f)
			}
			return Int(int64(f)), nil
		case KindBool:
			if v.b {
				return Int(1), nil
			}
			return Int(0), nil
		}
	case KindFloat:
		switch v.kind {
		case KindString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return v, fmt.Errorf("%w: %q is not a number", ErrCoercion, v.s)
			}
			return Float(f), nil
		case KindInt:
			return Float(float64(v.i)), nil
		case KindBool:
			if v.b {
				return Float(1), nil
			}
			return Float(0), nil
		}
	case KindBool:
		switch v.kind {
		case KindString:
			b, err := strconv.ParseBool(strings.TrimSpace(v.s))
			if err != nil {
				return v, fmt.Errorf("%w: %q is not a boolean", ErrCoercion, v.s)
			}
			return Bool(b), nil
		case KindInt:
			switch v.i {
			case 0:
				return Bool(false), nil
			case 1:
				return Bool(true), nil
			}
			return v, fmt.Errorf("%w: %d is not 0 or 1", ErrCoercion, v.i)
		}
	}

	return v, fmt.Errorf("%w: no conversion from %s to %s", ErrCoercion, v.kind, target)
}

// CoercionError reports a cell that could not be converted to its column's target kind.
type CoercionError struct {
	Column string
	Row    int
	Value  Value
	Target Kind
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot coerce %s value %q to %s: %v",
		e.Column, e.Row, e.Value.Kind(), e.Value.String(), e.Target, e.Err)
}

// Unwrap returns the underlying conversion error.
func (e *CoercionError) Unwrap() error { return e.Err }

// Is implements errors.Is support.
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}
