package kat

import (
	"errors"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/kat/pkg/value"
)

type tomlFormat struct{}

func (tomlFormat) Name() string { return "toml" }
func (tomlFormat) Ext() string  { return ".toml" }

func (tomlFormat) Parse(data []byte) (value.Table, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return nil, err
	}
	v, err := fromTOML(raw)
	if err != nil {
		return nil, err
	}
	return v.(value.Table), nil
}

// fromTOML converts the decoder's generic output into a document value,
// keeping the flavour of local dates and times.
func fromTOML(raw any) (value.Value, error) {
	switch v := raw.(type) {
	case toml.LocalDate:
		return value.LocalDate(v.Year, time.Month(v.Month), v.Day), nil
	case toml.LocalTime:
		return value.LocalTime(v.Hour, v.Minute, v.Second, v.Nanosecond), nil
	case toml.LocalDateTime:
		return value.LocalDateTime(v.Year, time.Month(v.Month), v.Day, v.Hour, v.Minute, v.Second, v.Nanosecond), nil
	case []any:
		arr := make(value.Array, len(v))
		for i, elem := range v {
			ev, err := fromTOML(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		tbl := make(value.Table, len(v))
		for k, elem := range v {
			ev, err := fromTOML(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			tbl[k] = ev
		}
		return tbl, nil
	default:
		return value.FromNative(raw)
	}
}
