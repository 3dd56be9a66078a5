package tabpack

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// time a child gets between SIGINT and SIGKILL once the context is cancelled
const killTimeout = 2 * time.Second

// characters that force an argument to be quoted
const shellSpecialChars = " \t\n$'\"\\`*?[]{}()<>|&;#~!"

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// Runner executes commands through the mvdan.cc/sh interpreter
type Runner struct {
	dir    string
	env    map[string]string
	stdout io.Writer
	stderr io.Writer
	dryRun bool
	exec   interp.ExecHandlerFunc
}

// WithDir sets the working directory for all commands
func WithDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithEnv adds environment variables on top of the process environment
func WithEnv(env map[string]string) RunnerOption {
	return func(r *Runner) {
		for name, value := range env {
			r.env[name] = value
		}
	}
}

// WithOutput redirects the commands' stdout and stderr
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithDryRun only logs the commands instead of executing them
func WithDryRun(dryRun bool) RunnerOption {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// WithExecHandler replaces the handler that starts external programs. nil keeps the default.
func WithExecHandler(handler interp.ExecHandlerFunc) RunnerOption {
	return func(r *Runner) {
		if handler != nil {
			r.exec = handler
		}
	}
}

// NewRunner creates a Runner which runs commands in the current directory with the process'
// environment and stdio.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		dir:    ".",
		env:    make(map[string]string),
		stdout: os.Stdout,
		stderr: os.Stderr,
		exec:   interp.DefaultExecHandler(killTimeout),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Dir returns the directory commands are executed in
func (r *Runner) Dir() string {
	return r.dir
}

// DryRun reports whether commands are only logged
func (r *Runner) DryRun() bool {
	return r.dryRun
}

func (r *Runner) environ() expand.Environ {
	envVars := os.Environ()

	for name, value := range r.env {
		envVars = append(envVars, name+"="+value)
	}

	return expand.ListEnviron(envVars...)
}

// Run executes argv as a single command and waits for it to finish.
// A non-zero exit status is returned as *ExitError.
func (r *Runner) Run(ctx context.Context, argv ...string) error {
	if len(argv) == 0 {
		return eris.New("no command given")
	}

	line, err := FormatCommand(argv)
	if err != nil {
		return err
	}

	log(ctx).Info().
		Bool("command", true).
		Msg(line)

	if r.dryRun {
		return nil
	}

	script, err := syntax.NewParser().Parse(strings.NewReader(line), argv[0])
	if err != nil {
		return eris.Wrapf(err, "failed to parse command %s", line)
	}

	runner, err := interp.New(
		interp.Dir(r.dir),
		interp.Env(r.environ()),
		interp.ExecHandler(r.exec),
		interp.StdIO(nil, r.stdout, r.stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "Failed to initialize runner")
	}

	err = runner.Run(ctx, script)
	if status, ok := interp.IsExitStatus(err); ok {
		return &ExitError{Command: line, Status: status}
	}
	if err != nil {
		return eris.Wrapf(err, "failed to run %s", line)
	}

	return nil
}

// FormatCommand renders argv as a single shell command line, quoting arguments where necessary.
func FormatCommand(argv []string) (string, error) {
	call := &syntax.CallExpr{
		Args: make([]*syntax.Word, len(argv)),
	}

	for idx, arg := range argv {
		call.Args[idx] = &syntax.Word{
			Parts: []syntax.WordPart{quoteArg(arg)},
		}
	}

	var buffer strings.Builder
	printer := syntax.NewPrinter(syntax.Minify(true))
	err := printer.Print(&buffer, call)
	if err != nil {
		return "", eris.Wrapf(err, "failed to format command %v", argv)
	}

	return buffer.String(), nil
}

func quoteArg(arg string) syntax.WordPart {
	if arg != "" && !strings.ContainsAny(arg, shellSpecialChars) {
		return &syntax.Lit{Value: arg}
	}

	if !strings.Contains(arg, "'") {
		return &syntax.SglQuoted{Value: arg}
	}

	// single quotes can't be escaped inside single quotes
	escaper := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return &syntax.DblQuoted{
		Parts: []syntax.WordPart{&syntax.Lit{Value: escaper.Replace(arg)}},
	}
}
