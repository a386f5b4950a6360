// Package cron registers the boot hook that restarts the stack after a
// host reboot.
//
// Registration is declarative: the @reboot entry carries a marker comment,
// and the registrar rewrites the invoking user's crontab only when no
// marked entry exists yet. Re-running the provisioner therefore leaves the
// table with exactly one berth entry instead of one per run.
package cron

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/berth/internal/runner"
)

// Marker tags the berth-owned crontab entry. The registrar matches on
// this string, so it must stay stable across releases.
const Marker = "# berth:stack-restart"

// BootHookLine builds the @reboot crontab entry: wait for the Docker
// daemon to come up, then rebuild and start the stack from the clone.
func BootHookLine(stackDir string, delaySeconds int) string {
	return fmt.Sprintf("@reboot sleep %d && cd %s && docker-compose up -d --build %s",
		delaySeconds, stackDir, Marker)
}

// Registrar reads and rewrites the invoking user's crontab via the
// crontab CLI through a Runner.
type Registrar struct {
	r runner.Runner
}

// NewRegistrar creates a Registrar backed by the given runner.
func NewRegistrar(r runner.Runner) *Registrar {
	return &Registrar{r: r}
}

// Current returns the user's crontab. A user with no crontab yet is an
// empty table, not an error; any other read failure propagates, because
// rewriting a table we could not read would destroy existing entries.
func (reg *Registrar) Current(ctx context.Context) (string, error) {
	out, err := reg.r.Run(ctx, "crontab", "-l")
	if err != nil {
		if strings.Contains(out, "no crontab") || strings.Contains(err.Error(), "no crontab") {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// Registered reports whether the table already holds a marked entry.
func (reg *Registrar) Registered(ctx context.Context) (bool, error) {
	table, err := reg.Current(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(table, Marker), nil
}

// Register installs the boot hook line unless a marked entry already
// exists. The rewrite goes through `crontab -`, which replaces the whole
// table, so the existing content is carried over verbatim.
func (reg *Registrar) Register(ctx context.Context, line string) error {
	table, err := reg.Current(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(table, Marker) {
		return nil
	}

	if table != "" && !strings.HasSuffix(table, "\n") {
		table += "\n"
	}
	table += line + "\n"

	_, err = reg.r.RunWith(ctx, runner.Opts{Stdin: table}, "crontab", "-")
	return err
}
