// Package aptpkg converges the host's Debian package inventory.
//
// It wraps apt-get and dpkg-query through the runner abstraction. The
// default convergence policy installs only what is missing; the legacy
// force-reinstall policy (purge + autoremove + install for every package
// that is already present) survives behind a flag for hosts suspected of
// carrying partially-broken installs.
package aptpkg

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/berth/internal/runner"
)

// nonInteractive suppresses every debconf prompt so apt-get never blocks
// the sequential provisioning run waiting for terminal input.
var nonInteractive = map[string]string{"DEBIAN_FRONTEND": "noninteractive"}

// Manager performs package operations through a Runner.
type Manager struct {
	r runner.Runner
}

// NewManager creates a package Manager backed by the given runner.
func NewManager(r runner.Runner) *Manager {
	return &Manager{r: r}
}

// Refresh updates the package index and upgrades all installed packages.
// No version pinning; conflict resolution is left to apt's defaults.
func (m *Manager) Refresh(ctx context.Context) error {
	if _, err := m.r.RunWith(ctx, runner.Opts{Env: nonInteractive}, "apt-get", "update"); err != nil {
		return err
	}
	_, err := m.r.RunWith(ctx, runner.Opts{Env: nonInteractive}, "apt-get", "upgrade", "-y")
	return err
}

// Installed reports whether the package is fully installed according to
// the dpkg database. dpkg-query exits non-zero for unknown packages, so
// a command error simply means "not installed".
func (m *Manager) Installed(ctx context.Context, pkg string) bool {
	out, err := m.r.Run(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
	if err != nil {
		return false
	}
	return strings.Contains(out, "install ok installed")
}

// Install installs the given packages in a single apt-get invocation.
func (m *Manager) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, pkgs...)
	_, err := m.r.RunWith(ctx, runner.Opts{Env: nonInteractive}, "apt-get", args...)
	return err
}

// Purge removes a package together with its configuration files and then
// autoremoves orphaned dependencies.
func (m *Manager) Purge(ctx context.Context, pkg string) error {
	if _, err := m.r.RunWith(ctx, runner.Opts{Env: nonInteractive}, "apt-get", "purge", "-y", pkg); err != nil {
		return err
	}
	_, err := m.r.RunWith(ctx, runner.Opts{Env: nonInteractive}, "apt-get", "autoremove", "-y")
	return err
}

// Missing returns the subset of packages not currently installed,
// preserving the input order.
func (m *Manager) Missing(ctx context.Context, pkgs []string) []string {
	var missing []string
	for _, pkg := range pkgs {
		if !m.Installed(ctx, pkg) {
			missing = append(missing, pkg)
		}
	}
	return missing
}

// Converge brings the package list to the installed state.
//
// Default policy: install only the missing packages (one apt-get call).
// With forceReinstall, every already-installed package is purged,
// autoremoved, and installed fresh, and missing packages are installed
// plainly — the original churn-heavy behavior, kept for recovering hosts
// with damaged package state.
//
// Returns a short description of what was done, for step reporting.
func (m *Manager) Converge(ctx context.Context, pkgs []string, forceReinstall bool) (string, error) {
	if !forceReinstall {
		missing := m.Missing(ctx, pkgs)
		if len(missing) == 0 {
			return "all packages present", nil
		}
		if err := m.Install(ctx, missing...); err != nil {
			return "", err
		}
		return fmt.Sprintf("installed %s", strings.Join(missing, ", ")), nil
	}

	// Force path: reinstall one package at a time, preserving list order,
	// so a failure identifies the offending package.
	for _, pkg := range pkgs {
		if m.Installed(ctx, pkg) {
			if err := m.Purge(ctx, pkg); err != nil {
				return "", err
			}
		}
		if err := m.Install(ctx, pkg); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("force-reinstalled %d packages", len(pkgs)), nil
}
