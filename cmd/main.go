package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/interp"

	"github.com/ngld/tabpack/pkg"
	"github.com/ngld/tabpack/pkg/config"
	"github.com/ngld/tabpack/pkg/tabpack"
)

// app bundles everything a single invocation writes to or executes
type app struct {
	stdout io.Writer
	stderr io.Writer
	exec   interp.ExecHandlerFunc
	color  bool
	logger zerolog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabpack [flags] binary-name target-triple",
		Short: "Builds a Rust binary and packages it as a Tock application",
		Long: `Builds the given binary with "cargo build --release" for the given target triple and
wraps the resulting ELF into a Tock application bundle (target/<binary-name>.tab) with elf2tab.`,
		Example:       "  tabpack blinky thumbv6m-none-eabi",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return eris.Wrapf(tabpack.ErrUsage, "expected 2 arguments, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, err := cmd.Flags().GetBool("dry")
			if err != nil {
				return err
			}

			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}

			dir, err := cmd.Flags().GetString("dir")
			if err != nil {
				return err
			}

			cfgFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			if verbose {
				a.logger = a.logger.Level(zerolog.DebugLevel)
			}

			ctx := tabpack.WithLogger(cmd.Context(), &a.logger)
			return packageApp(ctx, a, args[0], args[1], dir, cfgFile, dryRun)
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return eris.Wrap(tabpack.ErrUsage, err.Error())
	})

	rootCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	rootCmd.Flags().BoolP("verbose", "v", false, "print debug messages")
	rootCmd.Flags().StringP("dir", "C", ".", "run in this directory instead of the current one")
	rootCmd.Flags().StringP("config", "c", "", "read the configuration from this file")

	return rootCmd
}

func packageApp(ctx context.Context, a *app, binary, triple, dir, cfgFile string, dryRun bool) error {
	cfg, err := config.Load(dir, cfgFile)
	if err != nil {
		return err
	}

	if cfg.File != "" {
		a.logger.Debug().
			Str("path", cfg.File).
			Msgf("Loaded config from %s", cfg.File)
	}

	console := pkg.NewConsole(a.stdout, a.color)
	runner := tabpack.NewRunner(
		tabpack.WithDir(dir),
		tabpack.WithEnv(cfg.Env),
		tabpack.WithOutput(a.stdout, a.stderr),
		tabpack.WithDryRun(dryRun),
		tabpack.WithExecHandler(a.exec),
	)
	driver := tabpack.New(tabpack.Options{
		Runner: runner,
		Tools: tabpack.Tools{
			Cargo:   cfg.Tools.Cargo,
			Elf2Tab: cfg.Tools.Elf2Tab,
		},
		Reporter: console,
	})

	if dryRun {
		plan, err := driver.Plan(binary, triple)
		if err != nil {
			return err
		}

		err = plan.WriteYAML(a.stdout)
		if err != nil {
			return err
		}
	}

	artifacts, err := driver.Run(ctx, binary, triple)
	if err != nil {
		return err
	}

	if dryRun {
		console.Subtask("Dry run finished, nothing was built")
		return nil
	}

	console.Subtask(fmt.Sprintf("Application built successfully: %s (%s)", artifacts.TAB, artifacts.TBF))
	return nil
}

// run executes the root command with the given arguments and returns the process exit code
func run(ctx context.Context, args []string, a *app) int {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	console := pkg.NewConsole(a.stdout, a.color)
	var missing *tabpack.MissingArtifactError

	switch {
	case eris.Is(err, tabpack.ErrUsage):
		console.Error(err.Error())
		fmt.Fprint(a.stdout, rootCmd.UsageString())
	case errors.As(err, &missing):
		console.Error(missing.Error())
	default:
		a.logger.Error().Err(err).Msg("tabpack failed")
	}

	return tabpack.ExitCode(err)
}

// Execute runs tabpack with the process arguments and returns the exit code
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	color := isatty(os.Stderr)
	logger := zerolog.New(NewConsoleWriter(os.Stderr, color)).
		Level(zerolog.InfoLevel).
		With().
		Str("run", nanoid.New()).
		Logger()

	return run(ctx, os.Args[1:], &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		exec:   interp.DefaultExecHandler(2 * time.Second),
		color:  color && isatty(os.Stdout),
		logger: logger,
	})
}

// Whether the given file is an interactive terminal.
func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
