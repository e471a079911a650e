package kat

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/kat/pkg/value"
)

// AssertGolden compares the canonical JSON of v against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertGolden(t *testing.T, name string, v value.Value) {
	t.Helper()

	data, err := value.MarshalCanonical(v)
	if err != nil {
		t.Fatalf("kat: canonical JSON for golden %q: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// AssertDocumentGolden opens the document cfg describes and compares its
// parsed table against a golden file.
func AssertDocumentGolden(t *testing.T, name string, cfg Config) {
	t.Helper()

	h := New[value.Table, value.Table](cfg)
	if _, err := h.Open(); err != nil {
		t.Fatalf("kat: %v", err)
	}
	AssertGolden(t, name, h.Table())
}
