package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Empty(t, cfg.HostIP)
	assert.Empty(t, cfg.RepoURL)
	assert.Equal(t, "v2.29.2", cfg.ComposeVersion)
	assert.Equal(t, "/usr/local/lib/berth", cfg.ComposeHome)
	assert.Equal(t, "/usr/local/bin/docker-compose", cfg.ComposeLink)
	assert.Equal(t, 1, cfg.RebootDelayMinutes)
	assert.Equal(t, 60, cfg.BootDelaySeconds)
}

// TestLoadEnvOverrides verifies that BERTH_* environment variables take
// precedence over compiled defaults.
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BERTH_HOST_IP", "192.0.2.10")
	t.Setenv("BERTH_REPO_URL", "https://example.com/fork.git")
	t.Setenv("BERTH_COMPOSE_VERSION", "v2.30.0")
	t.Setenv("BERTH_REBOOT_DELAY_MIN", "5")

	cfg := Load()

	assert.Equal(t, "192.0.2.10", cfg.HostIP)
	assert.Equal(t, "https://example.com/fork.git", cfg.RepoURL)
	assert.Equal(t, "v2.30.0", cfg.ComposeVersion)
	assert.Equal(t, 5, cfg.RebootDelayMinutes)
}
