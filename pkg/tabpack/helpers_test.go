package tabpack

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"mvdan.cc/sh/v3/interp"
)

// fakeTools stands in for cargo and elf2tab
type fakeTools struct {
	t        *testing.T
	dir      string
	calls    [][]string
	status   map[string]uint8
	buildELF string
}

func newFakeTools(t *testing.T) *fakeTools {
	return &fakeTools{
		t:      t,
		dir:    t.TempDir(),
		status: make(map[string]uint8),
	}
}

func (f *fakeTools) handler(ctx context.Context, args []string) error {
	f.calls = append(f.calls, append([]string(nil), args...))

	if args[0] == "cargo" && f.buildELF != "" {
		path := filepath.Join(f.dir, filepath.FromSlash(f.buildELF))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			f.t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte("\x7fELF"), 0o644); err != nil {
			f.t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	if status := f.status[args[0]]; status != 0 {
		return interp.NewExitStatus(status)
	}
	return nil
}

func (f *fakeTools) runner(opts ...RunnerOption) *Runner {
	opts = append([]RunnerOption{
		WithDir(f.dir),
		WithOutput(io.Discard, io.Discard),
		WithExecHandler(f.handler),
	}, opts...)
	return NewRunner(opts...)
}

type recordingReporter struct {
	tasks []string
}

func (r *recordingReporter) Task(msg string) {
	r.tasks = append(r.tasks, msg)
}
