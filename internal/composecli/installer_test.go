package composecli

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/berth/internal/runner"
)

func TestInstalled(t *testing.T) {
	present := &runner.FakeRunner{Path: map[string]string{"docker-compose": "/usr/local/bin/docker-compose"}}
	absent := &runner.FakeRunner{Path: map[string]string{}}

	assert.True(t, NewInstaller(present, "v2.29.2", "", "").Installed())
	assert.False(t, NewInstaller(absent, "v2.29.2", "", "").Installed())
}

// TestInstall verifies the full download → write → symlink sequence
// against a local HTTP server: the binary lands under HomeDir with the
// executable bit set, and LinkPath points at it.
func TestInstall(t *testing.T) {
	const payload = "#!/bin/sh\necho fake compose\n"

	var requestedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	inst := NewInstaller(&runner.FakeRunner{Path: map[string]string{}},
		"v2.29.2", filepath.Join(dir, "lib"), filepath.Join(dir, "bin", "docker-compose"))
	inst.BaseURL = srv.URL
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))

	require.NoError(t, inst.Install(context.Background()))

	// The release URL embeds the pinned version and platform asset name.
	assert.Contains(t, requestedPath, "/v2.29.2/docker-compose-")

	binPath := filepath.Join(dir, "lib", "docker-compose")
	info, err := os.Stat(binPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "binary must be executable")

	data, err := os.ReadFile(binPath)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	target, err := os.Readlink(filepath.Join(dir, "bin", "docker-compose"))
	require.NoError(t, err)
	assert.Equal(t, binPath, target)
}

// TestInstallReplacesStaleSymlink verifies idempotence: a second install
// over an existing symlink succeeds instead of failing on EEXIST.
func TestInstallReplacesStaleSymlink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "binary")
	}))
	defer srv.Close()

	dir := t.TempDir()
	link := filepath.Join(dir, "docker-compose")
	require.NoError(t, os.Symlink("/nonexistent/old-compose", link))

	inst := NewInstaller(&runner.FakeRunner{Path: map[string]string{}},
		"v2.29.2", filepath.Join(dir, "lib"), link)
	inst.BaseURL = srv.URL

	require.NoError(t, inst.Install(context.Background()))

	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lib", "docker-compose"), target)
}

func TestInstallHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	inst := NewInstaller(&runner.FakeRunner{Path: map[string]string{}},
		"v9.9.9", filepath.Join(dir, "lib"), filepath.Join(dir, "docker-compose"))
	inst.BaseURL = srv.URL

	err := inst.Install(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
