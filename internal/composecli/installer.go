// Package composecli installs the pinned docker-compose release binary
// when it is absent from PATH.
//
// The install is a direct HTTPS download of the standalone binary,
// written under a private lib directory with the executable bit set and
// symlinked into a standard binary directory. The presence check makes
// the whole step idempotent; an existing docker-compose of any version
// is left alone.
package composecli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mmr-tortoise/berth/internal/model"
	rnr "github.com/mmr-tortoise/berth/internal/runner"
)

// defaultBaseURL is the docker/compose GitHub release download root.
const defaultBaseURL = "https://github.com/docker/compose/releases/download"

// Installer downloads and links the docker-compose binary.
type Installer struct {
	// Version is the pinned release tag, e.g. "v2.29.2".
	Version string

	// HomeDir is where the binary is written (e.g. /usr/local/lib/berth).
	HomeDir string

	// LinkPath is the PATH symlink (e.g. /usr/local/bin/docker-compose).
	LinkPath string

	// BaseURL overrides the release download root in tests.
	BaseURL string

	// Client is the HTTP client for the download. No overall timeout is
	// set; cancellation comes from the caller's context.
	Client *http.Client

	r rnr.Runner
}

// NewInstaller creates an Installer with the production HTTP client.
func NewInstaller(r rnr.Runner, version, homeDir, linkPath string) *Installer {
	return &Installer{
		Version:  version,
		HomeDir:  homeDir,
		LinkPath: linkPath,
		BaseURL:  defaultBaseURL,
		Client:   http.DefaultClient,
		r:        r,
	}
}

// Installed reports whether docker-compose is already on PATH.
func (i *Installer) Installed() bool {
	_, err := i.r.LookPath("docker-compose")
	return err == nil
}

// releaseAsset maps the build platform to the upstream release asset name,
// e.g. "docker-compose-linux-x86_64".
func releaseAsset() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	return fmt.Sprintf("docker-compose-%s-%s", runtime.GOOS, arch)
}

// Install downloads the pinned release binary, writes it executable under
// HomeDir, and symlinks it at LinkPath. A pre-existing symlink is replaced
// so repeated installs converge rather than fail on EEXIST.
func (i *Installer) Install(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/%s", i.BaseURL, i.Version, releaseAsset())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "building download request", err)
	}

	resp, err := i.Client.Do(req)
	if err != nil {
		return model.WrapCLIError(model.ExitCommandFailed,
			fmt.Sprintf("downloading docker-compose %s", i.Version), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.NewCLIError(model.ExitCommandFailed,
			fmt.Sprintf("downloading docker-compose %s: unexpected status %s from %s",
				i.Version, resp.Status, url))
	}

	if err := os.MkdirAll(i.HomeDir, 0o755); err != nil {
		return model.WrapCLIError(model.ExitCommandFailed, "creating install directory", err)
	}

	binPath := filepath.Join(i.HomeDir, "docker-compose")
	f, err := os.OpenFile(binPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return model.WrapCLIError(model.ExitCommandFailed, "writing docker-compose binary", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return model.WrapCLIError(model.ExitCommandFailed, "writing docker-compose binary", err)
	}
	if err := f.Close(); err != nil {
		return model.WrapCLIError(model.ExitCommandFailed, "writing docker-compose binary", err)
	}

	// Replace any stale symlink; os.Symlink fails on an existing path.
	if _, err := os.Lstat(i.LinkPath); err == nil {
		if err := os.Remove(i.LinkPath); err != nil {
			return model.WrapCLIError(model.ExitCommandFailed, "replacing docker-compose symlink", err)
		}
	}
	if err := os.Symlink(binPath, i.LinkPath); err != nil {
		return model.WrapCLIError(model.ExitCommandFailed, "linking docker-compose into PATH", err)
	}

	return nil
}
