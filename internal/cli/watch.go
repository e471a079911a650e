package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

// docWatcher reports changes to a fixed set of document files. It watches
// their parent directories so files replaced by rename are still seen.
type docWatcher struct {
	w     *fsnotify.Watcher
	files map[string]bool
}

func newDocWatcher(paths []string) (*docWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	d := &docWatcher{w: w, files: make(map[string]bool, len(paths))}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		d.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return d, nil
}

// Run calls onChange with the path of a changed document until ctx is done.
// Events within debounce of each other produce one call for the last path.
func (d *docWatcher) Run(ctx context.Context, debounce time.Duration, onChange func(path string)) error {
	var (
		fire    <-chan time.Time
		changed string
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-d.w.Events:
			if !ok {
				return nil
			}
			if !d.files[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			changed = ev.Name
			fire = time.After(debounce)
		case <-fire:
			fire = nil
			onChange(changed)
		case err, ok := <-d.w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

func (d *docWatcher) Close() error {
	return d.w.Close()
}

// watchCheck checks the documents, then re-checks them on every change until
// the command's context is cancelled. The last check's status is returned.
func watchCheck(opts *CheckOptions, paths []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	result, lastErr := runCheck(opts, paths, cmd)
	if lastErr != nil && !isExitError(lastErr) {
		return lastErr
	}

	watched := make([]string, 0, len(result.Documents))
	for _, r := range result.Documents {
		watched = append(watched, r.Path)
	}
	dw, err := newDocWatcher(watched)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer dw.Close()

	out.Textf("\nwatching %d documents, press Ctrl-C to stop\n", len(watched))
	out.VerboseLog("watching %v", watched)

	err = dw.Run(cmd.Context(), watchDebounce, func(path string) {
		out.Textf("\n%s changed\n", path)
		_, lastErr = runCheck(opts, paths, cmd)
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "watch failed", err)
	}
	return lastErr
}

func isExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
