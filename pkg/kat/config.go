package kat

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/kat/pkg/adapt"
)

// ModuleMarker is the file that marks the default document root.
const ModuleMarker = "go.mod"

// ErrNoModuleRoot is returned when no ancestor directory contains go.mod.
var ErrNoModuleRoot = errors.New("go.mod not found: not inside a Go module (or any parent up to the root)")

// Config locates a document and controls how it is decoded.
// The zero value plus a Path is a valid configuration.
type Config struct {
	// Root is the directory Path is relative to.
	// Defaults to the module root found from the working directory.
	Root string

	// Path lists the path components of the document. A component may
	// itself contain slashes. The extension is replaced by the format's.
	Path []string

	// Format parses the document. Defaults to TOML.
	Format Format

	// Registry holds the conversions for custom field types.
	// Defaults to adapt.Default.
	Registry *adapt.Registry

	// Strict rejects document keys that no record field claims.
	Strict bool

	// Logger receives lifecycle events. Defaults to discarding.
	Logger *slog.Logger

	// History is an optional SQLite database path. When set, Run records
	// each run and its case outcomes there.
	History string
}

func (c Config) withDefaults() Config {
	if c.Format == nil {
		c.Format = TOML
	}
	if c.Registry == nil {
		c.Registry = adapt.Default
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// resolve joins the root and path components and normalizes the extension.
func (c Config) resolve() (string, error) {
	if len(c.Path) == 0 {
		return "", errors.New("kat: config has no document path")
	}
	root := c.Root
	if root == "" {
		r, err := FindRoot()
		if err != nil {
			return "", err
		}
		root = r
	}

	parts := make([]string, 0, len(c.Path)+1)
	parts = append(parts, root)
	for _, p := range c.Path {
		parts = append(parts, filepath.FromSlash(p))
	}
	path := filepath.Join(parts...)
	return strings.TrimSuffix(path, filepath.Ext(path)) + c.Format.Ext(), nil
}

// FindRoot walks up from the current working directory until it finds go.mod.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds go.mod.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ModuleMarker)); err == nil && info.Mode().IsRegular() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoModuleRoot
		}
		dir = parent
	}
}
