package kat

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/kat/pkg/adapt"
	"github.com/roach88/kat/pkg/value"
)

// Document is the root record of a test document: one globals record
// and the test cases in document order.
type Document[G, T any] struct {
	Global G `kat:"global"`
	Tests  []T `kat:"test"`
}

// State is a harness lifecycle state.
type State int

const (
	StateUnresolved State = iota
	StateResolved
	StateLoaded
	StateParsed
	StateIterating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolved:
		return "resolved"
	case StateLoaded:
		return "loaded"
	case StateParsed:
		return "parsed"
	case StateIterating:
		return "iterating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Harness drives one document through resolve, load, parse and iteration.
// A Harness is single-use and not safe for concurrent use.
type Harness[G, T any] struct {
	cfg     Config
	logger  *slog.Logger
	state   State
	failure ErrorKind

	path string
	data []byte
	raw  value.Table
	doc  *Document[G, T]
}

// New creates a harness for the document cfg describes.
func New[G, T any](cfg Config) *Harness[G, T] {
	cfg = cfg.withDefaults()
	return &Harness[G, T]{
		cfg:    cfg,
		logger: cfg.Logger,
		state:  StateUnresolved,
	}
}

// State returns the current lifecycle state.
func (h *Harness[G, T]) State() State { return h.state }

// Failure returns the kind of the failure that moved the harness to
// StateFailed, or "" otherwise.
func (h *Harness[G, T]) Failure() ErrorKind { return h.failure }

// Path returns the resolved document path.
func (h *Harness[G, T]) Path() string { return h.path }

// Content returns the raw document bytes once loaded.
func (h *Harness[G, T]) Content() []byte { return h.data }

// Table returns the parsed document before record decoding.
func (h *Harness[G, T]) Table() value.Table { return h.raw }

// Resolve computes the document path. It performs no I/O beyond locating
// the module root when Config.Root is empty.
func (h *Harness[G, T]) Resolve() (string, error) {
	if err := h.expect("resolve", StateUnresolved); err != nil {
		return "", err
	}
	path, err := h.cfg.resolve()
	if err != nil {
		if errors.Is(err, ErrNoModuleRoot) {
			return "", h.fail(&Error{Kind: KindNotFound, Path: fmt.Sprint(h.cfg.Path), Cause: err})
		}
		return "", err
	}
	h.path = path
	h.state = StateResolved
	h.logger.Debug("resolved document", "path", path, "format", h.cfg.Format.Name())
	return path, nil
}

// Load reads the whole document. The path must name a regular file.
func (h *Harness[G, T]) Load() error {
	if err := h.expect("load", StateResolved); err != nil {
		return err
	}

	info, err := os.Stat(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return h.fail(&Error{Kind: KindNotFound, Path: h.path, Cause: err})
		}
		return h.fail(&Error{Kind: KindReadError, Path: h.path, Cause: err})
	}
	if !info.Mode().IsRegular() {
		return h.fail(&Error{Kind: KindNotFound, Path: h.path, Cause: errors.New("not a regular file")})
	}

	data, err := os.ReadFile(h.path)
	if err != nil {
		return h.fail(&Error{Kind: KindReadError, Path: h.path, Cause: err})
	}
	h.data = data
	h.state = StateLoaded
	h.logger.Debug("loaded document", "path", h.path, "bytes", len(data))
	return nil
}

// Parse decodes the loaded document into its root record. Any problem
// anywhere in the document fails the whole parse; no partial record is
// returned.
func (h *Harness[G, T]) Parse() (*Document[G, T], error) {
	if err := h.expect("parse", StateLoaded); err != nil {
		return nil, err
	}

	raw, err := h.cfg.Format.Parse(h.data)
	if err != nil {
		return nil, h.fail(&Error{Kind: KindParseError, Path: h.path, Cause: err})
	}

	var doc Document[G, T]
	if err := h.cfg.Registry.Decode(raw, &doc, adapt.WithStrict(h.cfg.Strict)); err != nil {
		return nil, h.fail(&Error{Kind: KindParseError, Path: h.path, Cause: err})
	}

	h.raw = raw
	h.doc = &doc
	h.state = StateParsed
	h.logger.Debug("parsed document", "path", h.path, "cases", len(doc.Tests))
	return h.doc, nil
}

// Open resolves, loads and parses the document.
func (h *Harness[G, T]) Open() (*Document[G, T], error) {
	if _, err := h.Resolve(); err != nil {
		return nil, err
	}
	if err := h.Load(); err != nil {
		return nil, err
	}
	return h.Parse()
}

// Each calls fn for every test case in document order. Every call gets the
// same globals pointer.
func (h *Harness[G, T]) Each(fn func(i int, global *G, tc T)) error {
	if err := h.expect("iterate", StateParsed); err != nil {
		return err
	}
	h.state = StateIterating
	for i, tc := range h.doc.Tests {
		h.logger.Debug("running case", "path", h.path, "index", i)
		fn(i, &h.doc.Global, tc)
	}
	h.state = StateDone
	return nil
}

func (h *Harness[G, T]) expect(op string, want State) error {
	if h.state != want {
		return fmt.Errorf("%w: cannot %s in state %s", ErrOutOfOrder, op, h.state)
	}
	return nil
}

func (h *Harness[G, T]) fail(err *Error) error {
	h.state = StateFailed
	h.failure = err.Kind
	h.logger.Error("document failed", "path", err.Path, "kind", string(err.Kind), "error", err.Cause)
	return err
}
