package stackgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifestIsValid(t *testing.T) {
	m := DefaultManifest()
	require.NoError(t, m.Validate())

	assert.Equal(t, "main", m.Repo.Ref)
	assert.Equal(t, 3000, m.App.Port)
	assert.Equal(t, "postgres:16-alpine", m.DBImage)
	assert.Equal(t, "redis:7-alpine", m.CacheImage)
	assert.Contains(t, m.Packages, "docker.io")
}

func TestLoadManifestEmptyPathReturnsDefaults(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	assert.Equal(t, DefaultManifest(), m)
}

// TestLoadManifestOverlay verifies that a JSONC manifest (comments and
// trailing commas included) overrides only the fields it mentions.
func TestLoadManifestOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "berth.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// Deploy the staging fork pinned to a release tag.
		"repo": {
			"url": "https://github.com/example/staging.git",
			"ref": "v2.1.0",
			"dir": "/srv/staging",
		},
		"app": {
			"port": 8080,
		},
	}`), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/example/staging.git", m.Repo.URL)
	assert.Equal(t, "v2.1.0", m.Repo.Ref)
	assert.Equal(t, "/srv/staging", m.Repo.Dir)
	assert.Equal(t, 8080, m.App.Port)

	// Untouched fields keep their defaults.
	assert.Equal(t, "postgres:16-alpine", m.DBImage)
	assert.Equal(t, DefaultManifest().Packages, m.Packages)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.jsonc"))
	assert.Error(t, err)
}

func TestLoadManifestInvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "berth.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"repo": {"url": ""}}`), 0o644))

	_, err := LoadManifest(path)
	assert.ErrorContains(t, err, "invalid manifest")
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Manifest)
		errMsg string
	}{
		{
			name:   "empty repo url",
			mutate: func(m *Manifest) { m.Repo.URL = "" },
			errMsg: "repo.url",
		},
		{
			name:   "empty repo dir",
			mutate: func(m *Manifest) { m.Repo.Dir = "" },
			errMsg: "repo.dir",
		},
		{
			name:   "app port out of range",
			mutate: func(m *Manifest) { m.App.Port = 70000 },
			errMsg: "app.port",
		},
		{
			name:   "zero db port",
			mutate: func(m *Manifest) { m.DBPort = 0 },
			errMsg: "dbPort",
		},
		{
			name:   "empty package list",
			mutate: func(m *Manifest) { m.Packages = nil },
			errMsg: "packages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultManifest()
			tt.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
