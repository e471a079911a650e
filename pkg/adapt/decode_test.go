package adapt

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kat/pkg/value"
)

type allTypes struct {
	StringValue   string
	IntegerValue  int
	FloatValue    float64
	BooleanValue  bool
	DatetimeValue value.Datetime
	ArrayValue    []int
	TableValue    map[string]string
}

func TestDecodeAllTypes(t *testing.T) {
	r := NewRegistry()
	dt := value.OffsetDateTime(time.Date(1979, time.May, 27, 7, 32, 0, 0, time.UTC))
	raw := value.Table{
		"string_value":   value.String("hello"),
		"integer_value":  value.Integer(42),
		"float_value":    value.Float(3.5),
		"boolean_value":  value.Boolean(true),
		"datetime_value": dt,
		"array_value":    value.Array{value.Integer(1), value.Integer(2)},
		"table_value":    value.Table{"k": value.String("v")},
	}

	got, err := Decode[allTypes](r, raw)
	require.NoError(t, err)
	assert.Equal(t, allTypes{
		StringValue:   "hello",
		IntegerValue:  42,
		FloatValue:    3.5,
		BooleanValue:  true,
		DatetimeValue: dt,
		ArrayValue:    []int{1, 2},
		TableValue:    map[string]string{"k": "v"},
	}, got)
}

func TestDecodeFieldNames(t *testing.T) {
	r := NewRegistry()

	type record struct {
		Tagged  string `kat:"renamed"`
		Snake   string
		Exact   string
		Folded  string
		Ignored string `kat:"-"`
	}

	got, err := Decode[record](r, value.Table{
		"renamed": value.String("a"),
		"snake":   value.String("b"),
		"Exact":   value.String("c"),
		"FOLDED":  value.String("d"),
		"ignored": value.String("e"),
	})
	require.NoError(t, err)
	assert.Equal(t, record{Tagged: "a", Snake: "b", Exact: "c", Folded: "d"}, got)
}

func TestDecodeMissingField(t *testing.T) {
	r := NewRegistry()

	type record struct {
		Required string
		Optional string  `kat:"opt,optional"`
		Pointer  *string `kat:"ptr"`
	}

	got, err := Decode[record](r, value.Table{"required": value.String("x")})
	require.NoError(t, err)
	assert.Equal(t, "x", got.Required)
	assert.Empty(t, got.Optional)
	assert.Nil(t, got.Pointer)

	got, err = Decode[record](r, value.Table{"required": value.String("x"), "ptr": value.String("p")})
	require.NoError(t, err)
	require.NotNil(t, got.Pointer)
	assert.Equal(t, "p", *got.Pointer)

	_, err = Decode[record](r, value.Table{}, WithPath("global"))
	require.Error(t, err)
	assert.True(t, IsMissingField(err))
	assert.Equal(t, `global: missing field: missing field "required" (decoding adapt.record)`, err.Error())
}

func TestDecodeStrict(t *testing.T) {
	r := NewRegistry()

	type record struct {
		Name string
	}
	raw := value.Table{"name": value.String("x"), "extra": value.Integer(1)}

	got, err := Decode[record](r, raw)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)

	_, err = Decode[record](r, raw, WithStrict(true))
	require.Error(t, err)
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindUnknownField, ae.Kind)
	assert.Contains(t, ae.Message, `"extra"`)
}

func TestDecodeErrorPath(t *testing.T) {
	r := NewRegistry()

	type testCase struct {
		Value int
	}
	type document struct {
		Test []testCase
	}

	raw := value.Table{
		"test": value.Array{
			value.Table{"value": value.Integer(1)},
			value.Table{"value": value.String("two")},
		},
	}

	_, err := Decode[document](r, raw)
	require.Error(t, err)
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "test[1].value", ae.Path)
	assert.Equal(t, value.CategoryString, ae.Got)
}

func TestDecodeMixedArrayInRecord(t *testing.T) {
	r := NewRegistry()

	type record struct {
		Items []any
	}

	_, err := Decode[record](r, value.Table{
		"items": value.Array{value.Integer(1), value.Float(2)},
	})
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
	assert.Contains(t, err.Error(), "items[1]")
}

func TestDecodeIntegers(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		decode  func() error
		wantErr bool
	}{
		{
			name: "uint8 in range",
			decode: func() error {
				_, err := Decode[uint8](r, value.Integer(255))
				return err
			},
		},
		{
			name: "uint8 overflow",
			decode: func() error {
				_, err := Decode[uint8](r, value.Integer(256))
				return err
			},
			wantErr: true,
		},
		{
			name: "negative uint",
			decode: func() error {
				_, err := Decode[uint](r, value.Integer(-1))
				return err
			},
			wantErr: true,
		},
		{
			name: "int8 underflow",
			decode: func() error {
				_, err := Decode[int8](r, value.Integer(-129))
				return err
			},
			wantErr: true,
		},
		{
			name: "float from integer",
			decode: func() error {
				_, err := Decode[float64](r, value.Integer(1))
				return err
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsTypeMismatch(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDecodeFixedArray(t *testing.T) {
	r := NewRegistry()

	got, err := Decode[[3]string](r, value.Array{value.String("a"), value.String("b"), value.String("c")})
	require.NoError(t, err)
	assert.Equal(t, [3]string{"a", "b", "c"}, got)

	_, err = Decode[[3]string](r, value.Array{value.String("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3 elements, found 1")
}

func TestDecodeTime(t *testing.T) {
	r := NewRegistry()
	loc := time.FixedZone("CET", 3600)

	got, err := Decode[time.Time](r, value.OffsetDateTime(time.Date(2024, time.March, 1, 10, 0, 0, 0, loc)))
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)))
	_, offset := got.Zone()
	assert.Equal(t, 3600, offset)

	got, err = Decode[time.Time](r, value.LocalDate(2024, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestDecodeTextUnmarshaler(t *testing.T) {
	r := NewRegistry()

	got, err := Decode[netip.Addr](r, value.String("192.0.2.1"))
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), got)

	_, err = Decode[netip.Addr](r, value.String("not-an-ip"))
	require.Error(t, err)
	assert.True(t, IsConstructorFailure(err))

	_, err = Decode[netip.Addr](r, value.Integer(1))
	assert.True(t, IsTypeMismatch(err))
}

func TestDecodeGenericValues(t *testing.T) {
	r := NewRegistry()
	raw := value.Table{"a": value.Array{value.Integer(1)}, "b": value.Boolean(true)}

	native, err := Decode[any](r, raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{int64(1)}, "b": true}, native)

	v, err := Decode[value.Value](r, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, v)

	tbl, err := Decode[value.Table](r, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, tbl)

	_, err = Decode[value.Array](r, raw)
	assert.True(t, IsTypeMismatch(err))
}

func TestDecodeRegisteredInsideContainers(t *testing.T) {
	r := NewRegistry()
	Register(r, func(s string) stringData { return stringData{s} })

	type record struct {
		List  []stringData
		ByKey map[string]stringData
		Ptr   *stringData
	}

	got, err := Decode[record](r, value.Table{
		"list":   value.Array{value.String("a"), value.String("b")},
		"by_key": value.Table{"k": value.String("v")},
		"ptr":    value.String("p"),
	})
	require.NoError(t, err)
	assert.Equal(t, []stringData{{"a"}, {"b"}}, got.List)
	assert.Equal(t, map[string]stringData{"k": {"v"}}, got.ByKey)
	require.NotNil(t, got.Ptr)
	assert.Equal(t, "p", got.Ptr.S)
}

func TestDecodeTargetUntouchedOnError(t *testing.T) {
	r := NewRegistry()

	type record struct {
		A string
		B int
	}
	out := record{A: "keep", B: 7}
	err := r.Decode(value.Table{"a": value.String("new"), "b": value.String("bad")}, &out)
	require.Error(t, err)
	assert.Equal(t, record{A: "keep", B: 7}, out)
}

func TestDecodeRejectsBadTarget(t *testing.T) {
	r := NewRegistry()
	var out string
	assert.Error(t, r.Decode(value.String("x"), out))
	assert.Error(t, r.Decode(value.String("x"), (*string)(nil)))
	assert.Error(t, r.Decode(nil, &out))
}

func TestDecodeBadTag(t *testing.T) {
	r := NewRegistry()

	type record struct {
		A string `kat:"a,bogus"`
	}
	_, err := Decode[record](r, value.Table{"a": value.String("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kat tag option "bogus"`)
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestName", "test_name"},
		{"HTTPServer", "http_server"},
		{"ID", "id"},
		{"Value", "value"},
		{"UserID", "user_id"},
		{"Version2Name", "version2_name"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, snakeCase(tt.in))
		})
	}
}
