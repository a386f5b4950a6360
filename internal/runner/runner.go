// Package runner abstracts external command execution behind a small
// interface so that every provisioning step can be exercised in tests
// without touching the host.
//
// The provisioner shells out to the system tools it converges (apt-get,
// dpkg-query, ufw, systemctl, git, crontab, docker-compose, shutdown)
// rather than reimplementing them. ExecRunner is the real implementation;
// FakeRunner (fake.go) records issued commands and plays back scripted
// output for tests.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/berth/internal/model"
)

// Opts carries the optional execution context for a command.
// The zero value runs the command in the current directory with the
// inherited environment and no stdin.
type Opts struct {
	// Dir is the working directory for the command. Empty means the
	// current process working directory.
	Dir string

	// Env holds extra environment variables appended to the inherited
	// environment (e.g., DEBIAN_FRONTEND=noninteractive for apt-get).
	Env map[string]string

	// Stdin, when non-empty, is fed to the command's standard input.
	// Used by the crontab writer, which reads the new table from stdin.
	Stdin string
}

// Runner executes external commands. All blocking calls take a
// context.Context; callers own cancellation. There is deliberately no
// per-command timeout: a hung package mirror or git remote hangs the
// step, matching the provisioner's sequential execution model.
type Runner interface {
	// Run executes a command and returns its combined stdout+stderr.
	// A non-zero exit wraps the output in a model.CLIError with
	// ExitCommandFailed.
	Run(ctx context.Context, name string, args ...string) (string, error)

	// RunWith is Run with an explicit working directory, extra
	// environment, and optional stdin.
	RunWith(ctx context.Context, opts Opts, name string, args ...string) (string, error)

	// LookPath reports the absolute path of an executable, or an error
	// if it is not on PATH. Steps use this for presence checks before
	// conditional installs.
	LookPath(name string) (string, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner creates the exec-backed Runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command in the current directory with the inherited
// environment.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return r.RunWith(ctx, Opts{}, name, args...)
}

// RunWith executes a command with the given options. It captures combined
// output so that a failing command's own diagnostics travel with the error;
// the provisioner adds no structured reporting beyond that.
func (r *ExecRunner) RunWith(ctx context.Context, opts Opts, name string, args ...string) (string, error) {
	// #nosec G204 — command names and args are constructed internally,
	// not from untrusted input.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir

	if len(opts.Env) > 0 {
		// os.Environ returns a copy, so appending does not mutate the
		// parent process environment.
		cmd.Env = os.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	if opts.Stdin != "" {
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		message := fmt.Sprintf("%s %s failed", name, strings.Join(args, " "))
		if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
			message = fmt.Sprintf("%s: %s", message, trimmed)
		}
		return string(output), model.WrapCLIError(model.ExitCommandFailed, message, err)
	}

	return string(output), nil
}

// LookPath defers to exec.LookPath.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
