package kat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kat/pkg/value"
)

func TestTOML_Datetimes(t *testing.T) {
	doc := []byte(`
odt = 1979-05-27T07:32:00-07:00
ldt = 1979-05-27T07:32:00.5
ld = 1979-05-27
lt = 07:32:00
`)
	tbl, err := TOML.Parse(doc)
	require.NoError(t, err)

	tests := []struct {
		key  string
		kind value.DatetimeKind
		text string
	}{
		{"odt", value.KindOffsetDateTime, "1979-05-27T07:32:00-07:00"},
		{"ldt", value.KindLocalDateTime, "1979-05-27T07:32:00.5"},
		{"ld", value.KindLocalDate, "1979-05-27"},
		{"lt", value.KindLocalTime, "07:32:00"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			dt, ok := tbl[tt.key].(value.Datetime)
			require.True(t, ok, "expected datetime, got %T", tbl[tt.key])
			assert.Equal(t, tt.kind, dt.Kind)
			assert.Equal(t, tt.text, dt.String())
		})
	}
}

func TestTOML_Scalars(t *testing.T) {
	tbl, err := TOML.Parse([]byte(`
s = "x"
i = -7
f = 2.5
b = true
arr = [[1, 2], [3]]
tbl = { k = "v" }
`))
	require.NoError(t, err)

	assert.Equal(t, value.Table{
		"s":   value.String("x"),
		"i":   value.Integer(-7),
		"f":   value.Float(2.5),
		"b":   value.Boolean(true),
		"arr": value.Array{value.Array{value.Integer(1), value.Integer(2)}, value.Array{value.Integer(3)}},
		"tbl": value.Table{"k": value.String("v")},
	}, tbl)
}

func TestTOML_Empty(t *testing.T) {
	tbl, err := TOML.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, tbl)
}

func TestTOML_SyntaxError(t *testing.T) {
	_, err := TOML.Parse([]byte("a = = 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestYAML_Scalars(t *testing.T) {
	tbl, err := YAML.Parse([]byte(`
s: x
quoted: "2024-01-01"
i: 0x10
f: 2.5
b: true
when: 2024-03-01T10:00:00+01:00
day: 2024-03-01
list: [1, 2]
nested:
  k: v
`))
	require.NoError(t, err)

	assert.Equal(t, value.String("x"), tbl["s"])
	assert.Equal(t, value.String("2024-01-01"), tbl["quoted"])
	assert.Equal(t, value.Integer(16), tbl["i"])
	assert.Equal(t, value.Float(2.5), tbl["f"])
	assert.Equal(t, value.Boolean(true), tbl["b"])
	assert.Equal(t, value.Array{value.Integer(1), value.Integer(2)}, tbl["list"])
	assert.Equal(t, value.Table{"k": value.String("v")}, tbl["nested"])

	when, ok := tbl["when"].(value.Datetime)
	require.True(t, ok)
	assert.Equal(t, value.KindOffsetDateTime, when.Kind)
	assert.True(t, when.Time.Equal(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)))

	day, ok := tbl["day"].(value.Datetime)
	require.True(t, ok)
	assert.Equal(t, value.KindLocalDate, day.Kind)
}

func TestYAML_Aliases(t *testing.T) {
	tbl, err := YAML.Parse([]byte(`
base: &base
  k: v
copy: *base
`))
	require.NoError(t, err)
	assert.Equal(t, tbl["base"], tbl["copy"])
}

func TestYAML_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"null value", "a: null\n"},
		{"empty value", "a:\n"},
		{"top-level sequence", "- 1\n- 2\n"},
		{"duplicate key", "a: 1\na: 2\n"},
		{"syntax", "a: [1, 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := YAML.Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestYAML_Empty(t *testing.T) {
	tbl, err := YAML.Parse([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, tbl)
}

func TestFormatByName(t *testing.T) {
	f, err := FormatByName("TOML")
	require.NoError(t, err)
	assert.Equal(t, TOML, f)

	f, err = FormatByName("yaml")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)

	_, err = FormatByName("json")
	assert.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"a/b.toml", TOML, true},
		{"a/b.yaml", YAML, true},
		{"a/b.YML", YAML, true},
		{"a/b.json", nil, false},
		{"a/b", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FormatForPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
