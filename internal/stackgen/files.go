package stackgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mmr-tortoise/berth/internal/model"
)

// Generated file names, relative to the application clone directory.
const (
	FileDockerfile = "Dockerfile"
	FileCompose    = "docker-compose.yml"
	FileEnv        = ".env"
)

// RenderDockerfile produces the image build definition for the
// application service: install dependencies and build in the configured
// base image, expose the app port, start via the configured command.
func RenderDockerfile(m *Manifest) []byte {
	return []byte(fmt.Sprintf(`# Generated by berth. Rewritten on every provisioning run — do not edit.
FROM %s
WORKDIR /app
COPY . .
RUN %s
ENV NODE_ENV=production
EXPOSE %d
CMD ["sh", "-c", %q]
`, m.App.BuildImage, m.App.BuildCommand, m.App.Port, m.App.StartCommand))
}

// RenderEnvFile produces the .env consumed by the app service: exactly
// two keys, the database and cache connection strings, both pointing at
// the detected host IP.
func RenderEnvFile(m *Manifest, hostIP string, creds model.DBCredentials) []byte {
	return []byte(fmt.Sprintf(
		"DATABASE_URL=postgres://%s:%s@%s:%d/%s\nREDIS_URL=redis://%s:%d/0\n",
		creds.User, creds.Password, hostIP, m.DBPort, creds.Name,
		hostIP, m.CachePort,
	))
}

// RenderAll renders the three deployment files keyed by file name.
func RenderAll(m *Manifest, hostIP string, creds model.DBCredentials) (map[string][]byte, error) {
	compose, err := RenderCompose(m, creds)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{
		FileDockerfile: RenderDockerfile(m),
		FileCompose:    compose,
		FileEnv:        RenderEnvFile(m, hostIP, creds),
	}, nil
}

// UpToDate reports whether every rendered file already exists in dir with
// identical content. Used by the configuration step's check phase so a
// re-run on an unchanged host registers as satisfied.
func UpToDate(dir string, files map[string][]byte) bool {
	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || !bytes.Equal(got, want) {
			return false
		}
	}
	return true
}

// WriteFiles writes the rendered files into dir, fully replacing any
// previous versions. The .env file is written 0600 since it embeds
// credentials; everything else is world-readable.
func WriteFiles(dir string, files map[string][]byte) error {
	// Deterministic write order keeps failure reports stable.
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mode := os.FileMode(0o644)
		if name == FileEnv {
			mode = 0o600
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], mode); err != nil {
			return model.WrapCLIError(model.ExitCommandFailed,
				fmt.Sprintf("writing %s", path), err)
		}
		// os.WriteFile does not chmod existing files; enforce the mode
		// so a leftover world-readable .env gets tightened.
		if err := os.Chmod(path, mode); err != nil {
			return model.WrapCLIError(model.ExitCommandFailed,
				fmt.Sprintf("setting mode on %s", path), err)
		}
	}
	return nil
}
