package kat

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/roach88/kat/internal/store"
	"github.com/roach88/kat/pkg/value"
)

// CheckFunc is the check run once per test case. global is shared by every
// case and must be treated as read-only.
type CheckFunc[G, T any] func(t testing.TB, global *G, tc T)

// RunOption modifies how Run drives the check.
type RunOption func(*runOptions)

type runOptions struct {
	skip          bool
	skipReason    string
	expectFailure bool
	failureText   string
	name          func(i int, tc any) string
}

// Skip skips the whole run without loading the document.
func Skip(reason string) RunOption {
	return func(o *runOptions) {
		o.skip = true
		o.skipReason = reason
	}
}

// ExpectFailure inverts every case: the check must fail, by reporting a test
// failure or by panicking. If text is non-empty the failure output must
// contain it.
func ExpectFailure(text string) RunOption {
	return func(o *runOptions) {
		o.expectFailure = true
		o.failureText = text
	}
}

// WithName names each case's subtest. The default is "case_<i>".
func WithName(fn func(i int, tc any) string) RunOption {
	return func(o *runOptions) { o.name = fn }
}

// Run loads the document cfg describes and calls check once per test case,
// each in its own subtest. A document that cannot be loaded or parsed fails
// t before any case runs.
func Run[G, T any](t *testing.T, cfg Config, check CheckFunc[G, T], opts ...RunOption) {
	t.Helper()

	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.skip {
		t.Skip(o.skipReason)
	}

	started := time.Now()
	h := New[G, T](cfg)
	if _, err := h.Open(); err != nil {
		t.Fatalf("kat: %v", err)
	}

	var results []store.CaseResult
	err := h.Each(func(i int, global *G, tc T) {
		name := fmt.Sprintf("case_%d", i)
		if o.name != nil {
			name = o.name(i, tc)
		}

		outcome := store.OutcomeFail
		t.Run(name, func(t *testing.T) {
			defer func() { outcome = outcomeOf(t) }()
			if o.expectFailure {
				expectFailure(t, o.failureText, func(tb testing.TB) { check(tb, global, tc) })
				return
			}
			check(t, global, tc)
		})
		results = append(results, store.CaseResult{Index: i, Name: name, Outcome: outcome})
	})
	if err != nil {
		t.Fatalf("kat: %v", err)
	}

	if h.cfg.History != "" {
		if err := recordHistory(h, started, results); err != nil {
			t.Errorf("kat: recording history: %v", err)
		}
	}
}

func outcomeOf(t testing.TB) store.Outcome {
	switch {
	case t.Skipped():
		return store.OutcomeSkip
	case t.Failed():
		return store.OutcomeFail
	}
	return store.OutcomePass
}

func recordHistory[G, T any](h *Harness[G, T], started time.Time, results []store.CaseResult) error {
	hash, err := value.Hash(h.Table())
	if err != nil {
		return err
	}

	st, err := store.Open(h.cfg.History)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.RecordRun(context.Background(), store.Run{
		Document:    h.Path(),
		ContentHash: hash,
		Format:      h.cfg.Format.Name(),
		StartedAt:   started,
		Cases:       results,
	})
	if err != nil {
		return err
	}
	h.logger.Debug("recorded run", "id", run.ID, "passed", run.Passed, "failed", run.Failed)
	return nil
}

// expectFailure runs fn against a recorder and fails t unless fn failed.
func expectFailure(t testing.TB, text string, fn func(testing.TB)) {
	t.Helper()

	r := runRecorded(t, fn)
	switch {
	case r.skipped:
		t.Skip(r.output())
	case !r.failed:
		t.Errorf("expected check to fail, but it passed")
	case text != "" && !strings.Contains(r.output(), text):
		t.Errorf("expected failure containing %q, got:\n%s", text, r.output())
	default:
		t.Logf("failed as expected:\n%s", r.output())
	}
}

// recorder is a testing.TB that captures failures instead of reporting them.
// Methods it does not override (TempDir, Cleanup, Name, ...) go to the
// embedded TB.
type recorder struct {
	testing.TB

	mu      sync.Mutex
	failed  bool
	skipped bool
	out     strings.Builder
}

// runRecorded calls fn on its own goroutine so FailNow and SkipNow can end it
// with runtime.Goexit, as the testing package does.
func runRecorded(tb testing.TB, fn func(testing.TB)) *recorder {
	r := &recorder{TB: tb}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if p := recover(); p != nil {
				r.log(fmt.Sprintf("panic: %v", p))
				r.Fail()
			}
		}()
		fn(r)
	}()
	<-done
	return r
}

func (r *recorder) log(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		r.out.WriteByte('\n')
	}
}

func (r *recorder) output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.String()
}

func (r *recorder) Helper() {}

func (r *recorder) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
}

func (r *recorder) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

func (r *recorder) FailNow() {
	r.Fail()
	runtime.Goexit()
}

func (r *recorder) Log(args ...any)                 { r.log(fmt.Sprintln(args...)) }
func (r *recorder) Logf(format string, args ...any) { r.log(fmt.Sprintf(format, args...)) }

func (r *recorder) Error(args ...any) {
	r.Log(args...)
	r.Fail()
}

func (r *recorder) Errorf(format string, args ...any) {
	r.Logf(format, args...)
	r.Fail()
}

func (r *recorder) Fatal(args ...any) {
	r.Log(args...)
	r.FailNow()
}

func (r *recorder) Fatalf(format string, args ...any) {
	r.Logf(format, args...)
	r.FailNow()
}

func (r *recorder) Skipped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

func (r *recorder) SkipNow() {
	r.mu.Lock()
	r.skipped = true
	r.mu.Unlock()
	runtime.Goexit()
}

func (r *recorder) Skip(args ...any) {
	r.Log(args...)
	r.SkipNow()
}

func (r *recorder) Skipf(format string, args ...any) {
	r.Logf(format, args...)
	r.SkipNow()
}
