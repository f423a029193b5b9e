// Package demo runs the fixed upload/download/exists/list/delete sequence
// against a Store, in blocking and callback styles, checking each result.
package demo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
	objio "github.com/charliek/objstore/internal/io"
	"github.com/charliek/objstore/internal/objstore"
	"github.com/charliek/objstore/internal/ui"
)

// Mode selects how steps are issued
type Mode string

const (
	// ModeSync awaits each step directly
	ModeSync Mode = "sync"
	// ModeCallback issues each step with Go(...).Then(...), the continuation issuing the next
	ModeCallback Mode = "callback"
	// ModeBoth runs sync, then callback
	ModeBoth Mode = "both"
)

// DefaultSampleContent is written when the sample file is created on request
const DefaultSampleContent = "Hello, objstore!\n"

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSync, ModeCallback, ModeBoth:
		return m, nil
	case "":
		return ModeBoth, nil
	default:
		return "", domain.Errorf(domain.ErrInvalidArgs, "unknown demo mode %q (expected sync, callback or both)", s)
	}
}

// Options configures a demo run
type Options struct {
	// SamplePath is the local file uploaded twice
	SamplePath string
	// DownloadPath receives the downloaded copy of the first object
	DownloadPath string
	// Mode selects sync, callback or both
	Mode Mode
	// CreateSample writes DefaultSampleContent to SamplePath when it is missing
	CreateSample bool
}

// StepResult records one completed step
type StepResult struct {
	Step   string `json:"step"`
	Detail string `json:"detail,omitempty"`
}

// RunResult records one pass through the steps
type RunResult struct {
	Mode  Mode         `json:"mode"`
	Steps []StepResult `json:"steps"`
	Error string       `json:"error,omitempty"`
	Kind  string       `json:"kind,omitempty"`
}

// Report is the outcome of Run
type Report struct {
	Runs []RunResult `json:"runs"`
}

// Runner executes the demo scenario
type Runner struct {
	store *objstore.Store
	out   *ui.Output
	log   *zap.Logger
	opts  Options
}

// NewRunner creates a demo runner. Empty paths fall back to the defaults.
func NewRunner(store *objstore.Store, out *ui.Output, log *zap.Logger, opts Options) *Runner {
	if opts.SamplePath == "" {
		opts.SamplePath = constants.DemoSamplePath
	}
	if opts.DownloadPath == "" {
		opts.DownloadPath = constants.DemoDownloadPath
	}
	if opts.Mode == "" {
		opts.Mode = ModeBoth
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{store: store, out: out, log: log, opts: opts}
}

// Run executes the scenario in the configured mode(s). It stops at the first
// failing step; a failed check is reported as domain.ErrCheckFailed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := r.prepareSample(); err != nil {
		return report, err
	}

	modes := []Mode{r.opts.Mode}
	if r.opts.Mode == ModeBoth {
		modes = []Mode{ModeSync, ModeCallback}
	}

	for _, mode := range modes {
		result, err := r.runMode(ctx, mode)
		report.Runs = append(report.Runs, result)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *Runner) prepareSample() error {
	_, err := os.Stat(r.opts.SamplePath)
	if err == nil || !os.IsNotExist(err) || !r.opts.CreateSample {
		// Upload reports a missing sample as not-found
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.opts.SamplePath), 0o755); err != nil {
		return domain.Errorf(domain.ErrInvalidArgs, "failed to create sample directory: %v", err)
	}
	if err := os.WriteFile(r.opts.SamplePath, []byte(DefaultSampleContent), 0o644); err != nil {
		return domain.Errorf(domain.ErrInvalidArgs, "failed to write sample file: %v", err)
	}
	r.out.Verbose("Created sample file %s", r.opts.SamplePath)
	return nil
}

func (r *Runner) runMode(ctx context.Context, mode Mode) (RunResult, error) {
	result := RunResult{Mode: mode, Steps: []StepResult{}}
	r.out.Success("--- %s test", mode)

	// Callback continuations record from other goroutines
	var mu sync.Mutex
	record := func(name, detail string) {
		mu.Lock()
		defer mu.Unlock()
		result.Steps = append(result.Steps, StepResult{Step: name, Detail: detail})
	}

	var err error
	switch mode {
	case ModeCallback:
		err = r.runCallback(ctx, r.steps(), record)
	default:
		err = r.runSync(ctx, r.steps(), record)
	}

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		result.Error = err.Error()
		result.Kind = domain.KindOf(err)
	}
	return result, err
}

// step is one facade call plus its check. run returns the text printed for it.
type step struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func (r *Runner) runSync(ctx context.Context, steps []step, record func(name, detail string)) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		detail, err := s.run(ctx)
		if err != nil {
			return r.fail(s, err)
		}
		r.report(s, detail, record)
	}
	return nil
}

// runCallback issues each step through a Future; the continuation of one step
// issues the next, and the result of the last one (or the first failure) ends the run.
func (r *Runner) runCallback(ctx context.Context, steps []step, record func(name, detail string)) error {
	done := make(chan error, 1)

	var issue func(i int)
	issue = func(i int) {
		if i == len(steps) {
			done <- nil
			return
		}
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		s := steps[i]
		objstore.Go(func() (string, error) {
			return s.run(ctx)
		}).Then(func(detail string, err error) {
			if err != nil {
				done <- r.fail(s, err)
				return
			}
			r.report(s, detail, record)
			issue(i + 1)
		})
	}
	issue(0)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) report(s step, detail string, record func(name, detail string)) {
	record(s.name, detail)
	r.out.Success("%s", detail)
}

func (r *Runner) fail(s step, err error) error {
	r.log.Error("demo step failed",
		zap.String("step", s.name),
		zap.String("kind", domain.KindOf(err)),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w", s.name, err)
}

func (r *Runner) steps() []step {
	first, second := constants.DemoFirstObject, constants.DemoSecondObject

	upload := func(remote string) step {
		return step{
			name: "upload " + remote,
			run: func(ctx context.Context) (string, error) {
				meta, err := r.store.Upload(ctx, r.opts.SamplePath, remote)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("upload(%s) done", meta.Path), nil
			},
		}
	}

	exists := func(remote string, want bool) step {
		return step{
			name: "exists " + remote,
			run: func(ctx context.Context) (string, error) {
				ok, err := r.store.Exists(ctx, remote)
				if err != nil {
					return "", err
				}
				if ok != want {
					return "", domain.Errorf(domain.ErrCheckFailed, "exists(%s) = %t, expected %t", remote, ok, want)
				}
				return fmt.Sprintf("exists(%s): %t", remote, ok), nil
			},
		}
	}

	list := func(present, absent []string) step {
		return step{
			name: "list",
			run: func(ctx context.Context) (string, error) {
				objects, err := r.store.List(ctx)
				if err != nil {
					return "", err
				}

				var b bytes.Buffer
				names := make([]string, 0, len(objects))
				for i, obj := range objects {
					if i > 0 {
						b.WriteByte('\n')
					}
					fmt.Fprintf(&b, "list: %s", obj.Path)
					names = append(names, obj.Path)
				}

				for _, p := range present {
					if !slices.Contains(names, p) {
						return "", domain.Errorf(domain.ErrCheckFailed, "list is missing %s", p)
					}
				}
				for _, p := range absent {
					if slices.Contains(names, p) {
						return "", domain.Errorf(domain.ErrCheckFailed, "list still contains %s", p)
					}
				}
				return b.String(), nil
			},
		}
	}

	return []step{
		upload(first),
		upload(second),
		{
			name: "download " + first,
			run: func(ctx context.Context) (string, error) {
				if err := r.store.Download(ctx, first, r.opts.DownloadPath); err != nil {
					return "", err
				}
				if err := r.compareWithSample(); err != nil {
					return "", err
				}
				return fmt.Sprintf("download(%s) done", first), nil
			},
		},
		exists(second, true),
		list([]string{first, second}, nil),
		{
			name: "delete " + second,
			run: func(ctx context.Context) (string, error) {
				if err := r.store.Delete(ctx, second); err != nil {
					return "", err
				}
				return fmt.Sprintf("delete(%s) done", second), nil
			},
		},
		exists(second, false),
		list([]string{first}, []string{second}),
	}
}

// compareWithSample checks the downloaded copy is byte-identical to the sample
func (r *Runner) compareWithSample() error {
	want, err := readLimited(r.opts.SamplePath, "sample file")
	if err != nil {
		return err
	}
	got, err := readLimited(r.opts.DownloadPath, "downloaded file")
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return domain.Errorf(domain.ErrCheckFailed, "downloaded copy (%s) differs from sample (%s)",
			objio.FormatSize(int64(len(got))), objio.FormatSize(int64(len(want))))
	}
	return nil
}

func readLimited(path, what string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "%s not found: %s", what, path)
		}
		return nil, domain.Errorf(domain.ErrCheckFailed, "failed to open %s: %v", what, err)
	}
	defer f.Close()
	return objio.LimitedReadAll(f, constants.MaxDemoSampleSize, what)
}
