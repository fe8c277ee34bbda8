package table

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny_Kinds(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    interface{}
		expected Kind
	}{
		{name: "nil", input: nil, expected: KindNull},
		{name: "string", input: "abc", expected: KindString},
		{name: "bytes", input: []byte("abc"), expected: KindString},
		{name: "bool", input: true, expected: KindBool},
		{name: "int64", input: int64(42), expected: KindInt},
		{name: "int", input: 42, expected: KindInt},
		{name: "uint8", input: uint8(7), expected: KindInt},
		{name: "float64", input: 4.5, expected: KindFloat},
		{name: "float32", input: float32(4.5), expected: KindFloat},
		{name: "time", input: ts, expected: KindTime},
		{name: "json integer", input: json.Number("12"), expected: KindInt},
		{name: "json float", input: json.Number("12.5"), expected: KindFloat},
		{name: "slice", input: []interface{}{"a"}, expected: KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromAny(tt.input).Kind())
		})
	}
}

func TestValue_NullLike(t *testing.T) {
	assert.True(t, Null().IsNullLike())
	assert.True(t, String("None").IsNullLike())
	assert.False(t, String("none").IsNullLike())
	assert.False(t, String("").IsNullLike())
	assert.False(t, Int(0).IsNullLike())

	assert.Equal(t, KindNull, String("None").ProfileKind())
	assert.Equal(t, KindString, String("x").ProfileKind())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "42", Float(42).String())
	assert.Equal(t, "2.5", Float(2.5).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "", Null().String())
	assert.Equal(t, "2024-05-01T12:00:00Z", Time(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)).String())
}

func TestValue_CoerceTo(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		target   Kind
		expected Value
	}{
		{name: "same kind", input: Int(3), target: KindInt, expected: Int(3)},
		{name: "int to string", input: Int(30), target: KindString, expected: String("30")},
		{name: "float to string", input: Float(2.5), target: KindString, expected: String("2.5")},
		{name: "bool to string", input: Bool(false), target: KindString, expected: String("false")},
		{name: "string to int", input: String(" 25 "), target: KindInt, expected: Int(25)},
		{name: "float to int truncates", input: Float(42.9), target: KindInt, expected: Int(42)},
		{name: "negative float to int", input: Float(-50.5), target: KindInt, expected: Int(-50)},
		{name: "string to float", input: String("1.25"), target: KindFloat, expected: Float(1.25)},
		{name: "int to float", input: Int(2), target: KindFloat, expected: Float(2)},
		{name: "string to bool", input: String("true"), target: KindBool, expected: Bool(true)},
		{name: "int to bool", input: Int(0), target: KindBool, expected: Bool(false)},
		{name: "null to int", input: Null(), target: KindInt, expected: Null()},
		{name: "None text to float", input: String("None"), target: KindFloat, expected: Null()},
		{name: "None text to string kept", input: String("None"), target: KindString, expected: String("None")},
		{name: "null to string kept", input: Null(), target: KindString, expected: Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.CoerceTo(tt.target)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v (%s), got %v (%s)",
				tt.expected, tt.expected.Kind(), got, got.Kind())
		})
	}
}

func TestValue_CoerceTo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  Value
		target Kind
	}{
		{name: "text to int", input: String("thirty"), target: KindInt},
		{name: "decimal text to int", input: String("2.5"), target: KindInt},
		{name: "text to float", input: String("abc"), target: KindFloat},
		{name: "NaN text to float", input: String("NaN"), target: KindFloat},
		{name: "int 2 to bool", input: Int(2), target: KindBool},
		{name: "time to int", input: Time(time.Now()), target: KindInt},
		{name: "other to string", input: Other([]string{"a"}), target: KindString},
		{name: "float above int range", input: Float(1e20), target: KindInt},
		{name: "float below int range", input: Float(-1e20), target: KindInt},
		{name: "float at 2^63", input: Float(9223372036854775808), target: KindInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.CoerceTo(tt.target)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCoercion))
		})
	}
}

func TestValue_CoerceTo_IntRangeBoundary(t *testing.T) {
	got, err := Float(-9223372036854775808).CoerceTo(KindInt)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got.AsInt())

	got, err = Float(1e18 + 0.9).CoerceTo(KindInt)
	require.NoError(t, err)
	assert.Equal(t, int64(1e18), got.AsInt())
}

func TestFromAny_LargeUnsigned(t *testing.T) {
	v := FromAny(uint64(1) << 63)
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, "9223372036854775808", v.AsString())

	v = FromAny(uint64(math.MaxInt64))
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int64(math.MaxInt64), v.AsInt())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
		wantErr  bool
	}{
		{input: "int", expected: KindInt},
		{input: "Integer", expected: KindInt},
		{input: "str", expected: KindString},
		{input: "float", expected: KindFloat},
		{input: "bool", expected: KindBool},
		{input: "date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			k, err := ParseKind(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, k)
		})
	}
}

func TestCoercionError(t *testing.T) {
	_, cause := String("abc").CoerceTo(KindInt)
	err := &CoercionError{Column: "age", Row: 2, Value: String("abc"), Target: KindInt, Err: cause}

	assert.True(t, errors.Is(err, ErrCoercion))
	assert.Contains(t, err.Error(), `column "age" row 2`)
	assert.Contains(t, err.Error(), "integer")

	var ce *CoercionError
	require.True(t, errors.As(error(err), &ce))
	assert.Equal(t, "age", ce.Column)
}
