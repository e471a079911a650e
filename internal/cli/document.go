package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/roach88/kat/pkg/adapt"
	"github.com/roach88/kat/pkg/kat"
	"github.com/roach88/kat/pkg/value"
)

// genericHarness decodes a document without user record types.
type genericHarness = kat.Harness[value.Table, value.Table]

// documentFormat picks the format for path: the --doc-format flag when set,
// otherwise the file extension, otherwise TOML.
func documentFormat(path, name string) (kat.Format, error) {
	if name != "" {
		return kat.FormatByName(name)
	}
	if f, ok := kat.FormatForPath(path); ok {
		return f, nil
	}
	return kat.TOML, nil
}

// exactExt keeps the extension of a path named on the command line, which
// the harness would otherwise replace with the format's canonical one.
type exactExt struct {
	kat.Format
	ext string
}

func (f exactExt) Ext() string { return f.ext }

// openDocument loads and parses the document at path generically.
func openDocument(path, formatName string, logger *slog.Logger) (*genericHarness, *kat.Document[value.Table, value.Table], error) {
	format, err := documentFormat(path, formatName)
	if err != nil {
		return nil, nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	if ext := filepath.Ext(abs); ext != "" {
		format = exactExt{Format: format, ext: ext}
	}

	h := kat.New[value.Table, value.Table](kat.Config{
		Root:     filepath.Dir(abs),
		Path:     []string{filepath.Base(abs)},
		Format:   format,
		Registry: adapt.NewRegistry(),
		Logger:   logger,
	})
	doc, err := h.Open()
	if err != nil {
		return h, nil, err
	}
	return h, doc, nil
}

// errorCode maps a harness failure to a JSON error code.
func errorCode(err error) string {
	switch {
	case kat.IsNotFound(err):
		return CodeNotFound
	case kat.IsReadError(err):
		return CodeReadError
	case kat.IsParseError(err):
		return CodeParseError
	}
	return CodeUsage
}

// shapeProblems reports every test entry whose keys or value categories
// differ from the first entry's.
func shapeProblems(tests []value.Table) []string {
	if len(tests) < 2 {
		return nil
	}

	ref := tests[0]
	var problems []string
	for i, tc := range tests[1:] {
		i++
		for _, key := range ref.SortedKeys() {
			v, ok := tc[key]
			if !ok {
				problems = append(problems, fmt.Sprintf("test[%d]: missing key %q", i, key))
				continue
			}
			if got, want := v.Category(), ref[key].Category(); got != want {
				problems = append(problems, fmt.Sprintf("test[%d].%s: %s, test[0] has %s", i, key, got, want))
			}
		}
		for _, key := range tc.SortedKeys() {
			if _, ok := ref[key]; !ok {
				problems = append(problems, fmt.Sprintf("test[%d]: unexpected key %q", i, key))
			}
		}
	}
	return problems
}

func globalKeys(global value.Table) []string {
	keys := make([]string, 0, len(global))
	for k := range global {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
