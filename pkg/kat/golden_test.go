package kat

import (
	"testing"

	"github.com/roach88/kat/pkg/value"
)

func TestAssertDocumentGolden(t *testing.T) {
	AssertDocumentGolden(t, "data_add_table_section", testdataConfig("data_add_table_section"))
}

func TestAssertGolden(t *testing.T) {
	AssertGolden(t, "data_add_table_section", value.Table{
		"global": value.Table{
			"global_value": value.String("GLOBAL"),
			"table":        value.Table{"name": value.String("GLOBAL TABLE"), "value": value.Integer(69)},
		},
		"test": value.Array{
			value.Table{
				"test_value": value.String("TEST"),
				"table":      value.Table{"name": value.String("TEST TABLE"), "value": value.Integer(69)},
			},
		},
	})
}
