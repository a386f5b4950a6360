// Package sysd wraps the systemctl and shutdown interactions the
// provisioner needs: activating the container runtime service and
// scheduling the final host reboot.
package sysd

import (
	"context"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/berth/internal/runner"
)

// Manager drives systemd through a Runner.
type Manager struct {
	r runner.Runner
}

// NewManager creates a systemd Manager backed by the given runner.
func NewManager(r runner.Runner) *Manager {
	return &Manager{r: r}
}

// IsActive reports whether the named unit is currently active.
// `systemctl is-active` exits non-zero for inactive units, so a command
// error means "not active" rather than a failure.
func (m *Manager) IsActive(ctx context.Context, unit string) bool {
	out, err := m.r.Run(ctx, "systemctl", "is-active", unit)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "active"
}

// IsEnabled reports whether the named unit is enabled to start at boot.
func (m *Manager) IsEnabled(ctx context.Context, unit string) bool {
	out, err := m.r.Run(ctx, "systemctl", "is-enabled", unit)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "enabled"
}

// EnableNow enables the unit for boot and starts it immediately.
// Idempotent under systemd's own semantics.
func (m *Manager) EnableNow(ctx context.Context, unit string) error {
	_, err := m.r.Run(ctx, "systemctl", "enable", "--now", unit)
	return err
}

// ScheduleReboot schedules a host reboot after the given delay in
// minutes. The session terminates when the reboot fires; nothing after
// this call is expected to run.
func (m *Manager) ScheduleReboot(ctx context.Context, delayMinutes int) error {
	_, err := m.r.Run(ctx, "shutdown", "-r", "+"+strconv.Itoa(delayMinutes))
	return err
}
