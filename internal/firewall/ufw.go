// Package firewall handles disabling the host firewall so the deployed
// stack's published ports are reachable.
//
// Only ufw is recognized. A host without ufw is treated as already
// satisfied — the provisioner logs a warning and moves on rather than
// failing, because an absent firewall cannot block anything.
package firewall

import (
	"context"
	"strings"

	"github.com/mmr-tortoise/berth/internal/runner"
)

// Status describes the observed firewall state.
type Status int

const (
	// StatusAbsent means no supported firewall tool is installed.
	StatusAbsent Status = iota

	// StatusInactive means ufw is installed but not enforcing.
	StatusInactive

	// StatusActive means ufw is installed and enforcing.
	StatusActive
)

// Manager inspects and disables the host firewall through a Runner.
type Manager struct {
	r runner.Runner
}

// NewManager creates a firewall Manager backed by the given runner.
func NewManager(r runner.Runner) *Manager {
	return &Manager{r: r}
}

// Observe reports the current firewall state. A failing `ufw status`
// is reported as active so the disable step still runs; disabling an
// already-inactive firewall is harmless.
func (m *Manager) Observe(ctx context.Context) (Status, error) {
	if _, err := m.r.LookPath("ufw"); err != nil {
		return StatusAbsent, nil
	}

	out, err := m.r.Run(ctx, "ufw", "status")
	if err != nil {
		return StatusActive, nil
	}
	if strings.Contains(out, "Status: inactive") {
		return StatusInactive, nil
	}
	return StatusActive, nil
}

// Disable turns ufw off. Callers only invoke this when Observe reported
// an installed firewall.
func (m *Manager) Disable(ctx context.Context) error {
	_, err := m.r.Run(ctx, "ufw", "disable")
	return err
}
