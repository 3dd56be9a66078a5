package tabpack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Tools names the executables used for building and packaging
type Tools struct {
	Cargo   string
	Elf2Tab string
}

// DefaultTools looks both tools up in PATH
var DefaultTools = Tools{
	Cargo:   "cargo",
	Elf2Tab: "elf2tab",
}

// Reporter receives a short message whenever the driver starts a new step
type Reporter interface {
	Task(msg string)
}

// Options controls a Driver
type Options struct {
	Runner   *Runner  // Executes the tools, a default Runner is used if nil.
	Tools    Tools    // Tool executables, empty fields fall back to DefaultTools.
	Reporter Reporter // Optional progress output.
}

// Driver builds a binary with cargo and packages it with elf2tab
type Driver struct {
	runner   *Runner
	tools    Tools
	reporter Reporter
}

// New creates a Driver from the given options
func New(opts Options) *Driver {
	d := &Driver{
		runner:   opts.Runner,
		tools:    opts.Tools,
		reporter: opts.Reporter,
	}

	if d.runner == nil {
		d.runner = NewRunner()
	}
	if d.tools.Cargo == "" {
		d.tools.Cargo = DefaultTools.Cargo
	}
	if d.tools.Elf2Tab == "" {
		d.tools.Elf2Tab = DefaultTools.Elf2Tab
	}

	return d
}

// BuildCommand returns the argv that builds the given binary
func (d *Driver) BuildCommand(binary, triple string) []string {
	return []string{d.tools.Cargo, "build", "--" + Profile, "--bin", binary, "--target", triple}
}

// PackageCommand returns the argv that turns the ELF into an application bundle
func (d *Driver) PackageCommand(binary string, artifacts Artifacts) []string {
	return append([]string{d.tools.Elf2Tab}, NewPackageMeta(binary).Args(artifacts.TAB, artifacts.ELF)...)
}

// Run builds and packages the given binary for the given target triple.
//
// Every failure is final: a failing build skips packaging, a missing ELF is reported as
// *MissingArtifactError and failing tools as *ExitError. The TBF file is produced by elf2tab
// as a side effect and is not checked.
func (d *Driver) Run(ctx context.Context, binary, triple string) (Artifacts, error) {
	if binary == "" || triple == "" {
		return Artifacts{}, eris.Wrap(ErrUsage, "binary name and target triple must not be empty")
	}

	artifacts := ArtifactPaths(binary, triple)
	logger := log(ctx).With().
		Str("binary", binary).
		Str("target", triple).
		Logger()
	ctx = WithLogger(ctx, &logger)

	d.report(fmt.Sprintf("Building %s for %s", binary, triple))
	err := d.runner.Run(ctx, d.BuildCommand(binary, triple)...)
	if err != nil {
		return artifacts, err
	}

	if d.runner.DryRun() {
		log(ctx).Debug().
			Str("path", artifacts.ELF).
			Msg("dry run, skipping the artifact check")
	} else {
		err = d.checkArtifact(ctx, artifacts.ELF)
		if err != nil {
			return artifacts, err
		}
	}

	d.report(fmt.Sprintf("Packaging %s", artifacts.TAB))
	err = d.runner.Run(ctx, d.PackageCommand(binary, artifacts)...)
	if err != nil {
		return artifacts, err
	}

	return artifacts, nil
}

func (d *Driver) checkArtifact(ctx context.Context, elf string) error {
	fullPath := filepath.Join(d.runner.Dir(), filepath.FromSlash(elf))
	info, err := os.Stat(fullPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return &MissingArtifactError{Path: elf}
		}
		return eris.Wrapf(err, "Failed to check %s", elf)
	}

	if !info.Mode().IsRegular() {
		log(ctx).Warn().
			Str("path", elf).
			Msgf("%s exists but is not a regular file", elf)
		return &MissingArtifactError{Path: elf}
	}

	log(ctx).Debug().
		Str("path", elf).
		Int64("size", info.Size()).
		Msg("found ELF")
	return nil
}

func (d *Driver) report(msg string) {
	if d.reporter != nil {
		d.reporter.Task(msg)
	}
}
