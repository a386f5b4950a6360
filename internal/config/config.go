// Package config loads berth's runtime configuration.
//
// The provisioner is deliberately non-interactive: every knob has a
// compiled-in default and can be overridden through the environment
// (BERTH_* variables, via viper) or a command-line flag. There is no
// config file discovery here — the stack shape itself lives in the
// optional JSONC manifest handled by the stackgen package.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Environment variable names, without the BERTH_ prefix.
const (
	keyHostIP         = "host_ip"
	keyRepoURL        = "repo_url"
	keyRepoRef        = "repo_ref"
	keyInstallDir     = "install_dir"
	keyManifest       = "manifest"
	keyComposeVersion = "compose_version"
	keyComposeHome    = "compose_home"
	keyComposeLink    = "compose_link"
	keyRebootDelay    = "reboot_delay_min"
	keyBootDelay      = "boot_delay_sec"
)

// Config holds the host-level runtime settings for a provisioning run.
// Stack shape (services, images, ports, package list) comes from the
// manifest; these are the knobs that vary per host or per invocation.
type Config struct {
	// HostIP overrides interface-based IP detection when non-empty.
	HostIP string

	// RepoURL and RepoRef override the manifest's repository settings
	// when non-empty. Useful for deploying a fork or a release tag
	// without editing the manifest.
	RepoURL string
	RepoRef string

	// InstallDir overrides where the application repository is synced.
	InstallDir string

	// ManifestPath points at an optional berth.jsonc stack manifest.
	ManifestPath string

	// ComposeVersion is the pinned docker-compose release to install
	// when the binary is absent from PATH.
	ComposeVersion string

	// ComposeHome is the directory the downloaded binary is written to.
	ComposeHome string

	// ComposeLink is the PATH symlink target for the installed binary.
	ComposeLink string

	// RebootDelayMinutes is the delay passed to shutdown -r.
	RebootDelayMinutes int

	// BootDelaySeconds is the sleep prefix in the @reboot crontab entry,
	// giving the Docker daemon time to come up before compose runs.
	BootDelaySeconds int
}

// Load builds the configuration from defaults and BERTH_* environment
// variables. It never fails: unset variables fall back to defaults, and
// flag-level overrides are applied by the CLI layer afterwards.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("berth")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyHostIP, "")
	v.SetDefault(keyRepoURL, "")
	v.SetDefault(keyRepoRef, "")
	v.SetDefault(keyInstallDir, "")
	v.SetDefault(keyManifest, "")
	v.SetDefault(keyComposeVersion, "v2.29.2")
	v.SetDefault(keyComposeHome, "/usr/local/lib/berth")
	v.SetDefault(keyComposeLink, "/usr/local/bin/docker-compose")
	v.SetDefault(keyRebootDelay, 1)
	v.SetDefault(keyBootDelay, 60)

	return &Config{
		HostIP:             v.GetString(keyHostIP),
		RepoURL:            v.GetString(keyRepoURL),
		RepoRef:            v.GetString(keyRepoRef),
		InstallDir:         v.GetString(keyInstallDir),
		ManifestPath:       v.GetString(keyManifest),
		ComposeVersion:     v.GetString(keyComposeVersion),
		ComposeHome:        v.GetString(keyComposeHome),
		ComposeLink:        v.GetString(keyComposeLink),
		RebootDelayMinutes: v.GetInt(keyRebootDelay),
		BootDelaySeconds:   v.GetInt(keyBootDelay),
	}
}
