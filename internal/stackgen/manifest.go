package stackgen

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/berth/internal/model"
)

// Fixed Compose service names. The status command and the generated
// labels rely on these being stable across runs.
const (
	ServiceApp   = "app"
	ServiceDB    = "db"
	ServiceCache = "cache"
)

// Management labels applied to every generated service, used by the
// status command to rediscover stack containers through the Docker API.
const (
	LabelManaged = "berth.managed"
	LabelService = "berth.service"
)

// Manifest describes the stack to deploy. Every field has a default;
// a berth.jsonc file overrides only what it mentions.
type Manifest struct {
	// Repo identifies the application repository.
	Repo RepoSpec `json:"repo"`

	// App configures the application image build and runtime.
	App AppSpec `json:"app"`

	// DBImage and CacheImage are the pinned service images.
	DBImage    string `json:"dbImage,omitempty"`
	CacheImage string `json:"cacheImage,omitempty"`

	// DBPort and CachePort are the host-published ports for the
	// database and cache services.
	DBPort    int `json:"dbPort,omitempty"`
	CachePort int `json:"cachePort,omitempty"`

	// Packages is the ordered list of host packages the provisioner
	// converges before touching Docker.
	Packages []string `json:"packages,omitempty"`
}

// RepoSpec identifies the application repository and where it is synced.
type RepoSpec struct {
	// URL is the HTTPS clone URL.
	URL string `json:"url,omitempty"`

	// Ref is the pinned branch, tag, or commit to deploy.
	Ref string `json:"ref,omitempty"`

	// Dir is the host directory the repository is synced into.
	Dir string `json:"dir,omitempty"`
}

// AppSpec configures the generated Dockerfile and the app service.
type AppSpec struct {
	// Port is the container port the application listens on; it is
	// published on the host at the same number.
	Port int `json:"port,omitempty"`

	// BuildImage is the base image of the generated Dockerfile.
	BuildImage string `json:"buildImage,omitempty"`

	// BuildCommand produces the runnable application inside the image.
	BuildCommand string `json:"buildCommand,omitempty"`

	// StartCommand launches the application; it becomes the CMD.
	StartCommand string `json:"startCommand,omitempty"`

	// HealthPath is the HTTP path probed by the app health check.
	HealthPath string `json:"healthPath,omitempty"`
}

// DefaultManifest returns the compiled-in stack shape.
func DefaultManifest() *Manifest {
	return &Manifest{
		Repo: RepoSpec{
			URL: "https://github.com/mmr-tortoise/berth-app.git",
			Ref: "main",
			Dir: "/opt/berth/app",
		},
		App: AppSpec{
			Port:         3000,
			BuildImage:   "node:20-bookworm-slim",
			BuildCommand: "npm ci && npm run build",
			StartCommand: "node build",
			HealthPath:   "/",
		},
		DBImage:    "postgres:16-alpine",
		CacheImage: "redis:7-alpine",
		DBPort:     5432,
		CachePort:  6379,
		Packages: []string{
			"git",
			"curl",
			"ca-certificates",
			"docker.io",
			"postgresql-client",
			"redis-tools",
		},
	}
}

// LoadManifest reads a berth.jsonc manifest and overlays it onto the
// defaults. The file may contain comments and trailing commas; unknown
// fields are ignored. An empty path returns the defaults unchanged.
func LoadManifest(path string) (*Manifest, error) {
	m := DefaultManifest()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("reading manifest %s", path), err)
	}

	// jsonc.ToJSON strips comments and trailing commas, producing plain
	// JSON for the standard decoder.
	if err := json.Unmarshal(jsonc.ToJSON(data), m); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("parsing manifest %s", path), err)
	}

	if err := m.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid manifest %s", path), err)
	}
	return m, nil
}

// Validate rejects manifests that would render an unusable stack.
func (m *Manifest) Validate() error {
	if m.Repo.URL == "" {
		return fmt.Errorf("repo.url must not be empty")
	}
	if m.Repo.Dir == "" {
		return fmt.Errorf("repo.dir must not be empty")
	}
	for _, p := range []struct {
		name string
		port int
	}{
		{"app.port", m.App.Port},
		{"dbPort", m.DBPort},
		{"cachePort", m.CachePort},
	} {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("%s %d out of range (1-65535)", p.name, p.port)
		}
	}
	if len(m.Packages) == 0 {
		return fmt.Errorf("packages must not be empty")
	}
	return nil
}
