package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/interp"
)

const testELF = "target/thumbv6m-none-eabi/release/blinky"

type fixture struct {
	t      *testing.T
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
	calls  [][]string
	status map[string]uint8
	elf    string
}

func newFixture(t *testing.T) *fixture {
	// keep a developer's own ~/.config/tabpack/config.yml out of the tests
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()

	return &fixture{
		t:      t,
		dir:    t.TempDir(),
		status: make(map[string]uint8),
	}
}

func (f *fixture) exec(ctx context.Context, args []string) error {
	f.calls = append(f.calls, append([]string(nil), args...))

	if len(f.calls) == 1 && f.elf != "" {
		path := filepath.Join(f.dir, filepath.FromSlash(f.elf))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			f.t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("\x7fELF"), 0o644); err != nil {
			f.t.Fatal(err)
		}
	}

	if status := f.status[filepath.Base(args[0])]; status != 0 {
		return interp.NewExitStatus(status)
	}
	return nil
}

func (f *fixture) run(args ...string) int {
	return run(context.Background(), args, &app{
		stdout: &f.stdout,
		stderr: &f.stderr,
		exec:   f.exec,
		logger: zerolog.New(NewConsoleWriter(&f.stderr, false)),
	})
}

func TestWrongArgumentCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "none"},
		{name: "one", args: []string{"blinky"}},
		{name: "three", args: []string{"blinky", "thumbv6m-none-eabi", "extra"}},
		{name: "unknown flag", args: []string{"--bogus", "blinky", "thumbv6m-none-eabi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			code := f.run(tt.args...)
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}

			if !strings.Contains(f.stdout.String(), "tabpack blinky thumbv6m-none-eabi") {
				t.Errorf("usage example missing from stdout:\n%s", f.stdout.String())
			}

			if len(f.calls) != 0 {
				t.Errorf("expected no tool invocations, got %q", f.calls)
			}
		})
	}
}

func TestPackageSuccess(t *testing.T) {
	f := newFixture(t)
	f.elf = testELF

	code := f.run("-C", f.dir, "blinky", "thumbv6m-none-eabi")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstdout:\n%s\nstderr:\n%s", code, f.stdout.String(), f.stderr.String())
	}

	if len(f.calls) != 2 {
		t.Fatalf("expected 2 tool invocations, got %q", f.calls)
	}
	if f.calls[0][0] != "cargo" || f.calls[1][0] != "elf2tab" {
		t.Errorf("unexpected tools: %q", f.calls)
	}

	out := f.stdout.String()
	for _, path := range []string{"target/blinky.tab", "target/thumbv6m-none-eabi/release/blinky.tbf"} {
		if !strings.Contains(out, path) {
			t.Errorf("stdout does not mention %s:\n%s", path, out)
		}
	}
}

func TestBuildFailure(t *testing.T) {
	f := newFixture(t)
	f.status["cargo"] = 101

	code := f.run("-C", f.dir, "blinky", "thumbv6m-none-eabi")
	if code != 101 {
		t.Errorf("exit code = %d, want 101", code)
	}
	if len(f.calls) != 1 {
		t.Errorf("packaging must not run, got %q", f.calls)
	}
}

func TestMissingArtifact(t *testing.T) {
	f := newFixture(t)

	code := f.run("-C", f.dir, "blinky", "thumbv6m-none-eabi")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(f.stdout.String(), testELF) {
		t.Errorf("stdout does not name %s:\n%s", testELF, f.stdout.String())
	}
	if len(f.calls) != 1 {
		t.Errorf("packaging must not run, got %q", f.calls)
	}
}

func TestPackagingFailure(t *testing.T) {
	f := newFixture(t)
	f.elf = testELF
	f.status["elf2tab"] = 7

	code := f.run("-C", f.dir, "blinky", "thumbv6m-none-eabi")
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
}

func TestDryRun(t *testing.T) {
	f := newFixture(t)

	code := f.run("-n", "-C", f.dir, "blinky", "thumbv6m-none-eabi")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr:\n%s", code, f.stderr.String())
	}
	if len(f.calls) != 0 {
		t.Errorf("dry run invoked %q", f.calls)
	}

	out := f.stdout.String()
	if !strings.Contains(out, "commands:") || !strings.Contains(out, "cargo build --release --bin blinky") {
		t.Errorf("plan missing from stdout:\n%s", out)
	}
	if !strings.Contains(f.stderr.String(), "$ elf2tab -n blinky") {
		t.Errorf("packaging command not logged:\n%s", f.stderr.String())
	}
}

func TestConfigOverridesTools(t *testing.T) {
	f := newFixture(t)
	f.elf = testELF

	cfg := "tools:\n  cargo: /opt/rust/bin/cargo\n  elf2tab: /opt/tock/bin/elf2tab\n"
	if err := os.WriteFile(filepath.Join(f.dir, "tabpack.yml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	code := f.run("-C", f.dir, "blinky", "thumbv6m-none-eabi")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr:\n%s", code, f.stderr.String())
	}

	if f.calls[0][0] != "/opt/rust/bin/cargo" {
		t.Errorf("build tool = %q", f.calls[0][0])
	}
	if f.calls[1][0] != "/opt/tock/bin/elf2tab" {
		t.Errorf("packaging tool = %q", f.calls[1][0])
	}
}

func TestMissingConfigFile(t *testing.T) {
	f := newFixture(t)

	code := f.run("-C", f.dir, "-c", filepath.Join(f.dir, "missing.yml"), "blinky", "thumbv6m-none-eabi")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if len(f.calls) != 0 {
		t.Errorf("expected no tool invocations, got %q", f.calls)
	}
}

func TestMessagesKeepUnusualNames(t *testing.T) {
	tests := []struct {
		name   string
		binary string
		triple string
	}{
		{name: "colour markup", binary: "a[red]b", triple: "thumbv6m-none-eabi"},
		{name: "markup in triple", binary: "blinky", triple: "thumb[bold]v7em-none-eabi"},
		{name: "shell characters", binary: "it's $HOME", triple: "thumbv6m-none-eabi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := "target/" + tt.binary + ".tab"
			elf := "target/" + tt.triple + "/release/" + tt.binary

			f := newFixture(t)
			f.elf = elf

			code := f.run("-C", f.dir, tt.binary, tt.triple)
			if code != 0 {
				t.Fatalf("exit code = %d, want 0\nstderr:\n%s", code, f.stderr.String())
			}

			out := f.stdout.String()
			for _, path := range []string{tab, elf + ".tbf"} {
				if !strings.Contains(out, path) {
					t.Errorf("stdout does not mention %s:\n%s", path, out)
				}
			}

			if len(f.calls) != 2 || f.calls[0][4] != tt.binary || f.calls[1][len(f.calls[1])-1] != elf {
				t.Errorf("unexpected tool invocations %q", f.calls)
			}
		})
	}
}

func TestMissingArtifactKeepsUnusualNames(t *testing.T) {
	f := newFixture(t)

	code := f.run("-C", f.dir, "a[red]b", "thumbv6m-none-eabi")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	want := "target/thumbv6m-none-eabi/release/a[red]b"
	if !strings.Contains(f.stdout.String(), want) {
		t.Errorf("stdout does not name %s:\n%s", want, f.stdout.String())
	}
}
