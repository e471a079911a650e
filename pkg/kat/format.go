package kat

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roach88/kat/pkg/value"
)

// Format parses one document syntax into a document table.
type Format interface {
	// Name identifies the format on the command line ("toml", "yaml").
	Name() string

	// Ext is the canonical file extension, including the dot.
	Ext() string

	// Parse decodes a whole document. The top level must be a table.
	Parse(data []byte) (value.Table, error)
}

var (
	// TOML is the default document format.
	TOML Format = tomlFormat{}

	// YAML reads documents with a top-level mapping.
	YAML Format = yamlFormat{}
)

// Formats lists the supported formats.
var Formats = []Format{TOML, YAML}

// FormatByName returns the format with the given name.
func FormatByName(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(f.Name(), name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown document format %q (valid: toml, yaml)", name)
}

// FormatForPath picks the format from a file extension.
// Unknown extensions report false.
func FormatForPath(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yml" {
		return YAML, true
	}
	for _, f := range Formats {
		if f.Ext() == ext {
			return f, true
		}
	}
	return nil, false
}
