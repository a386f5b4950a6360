package stackgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/berth/internal/model"
)

var testCreds = model.DBCredentials{User: "app", Password: "app-secret", Name: "app"}

// parsedCompose mirrors the generated document loosely for assertions.
type parsedCompose struct {
	Services map[string]struct {
		Build       string            `yaml:"build"`
		Image       string            `yaml:"image"`
		Restart     string            `yaml:"restart"`
		Ports       []string          `yaml:"ports"`
		EnvFile     []string          `yaml:"env_file"`
		Environment map[string]string `yaml:"environment"`
		Volumes     []string          `yaml:"volumes"`
		DependsOn   map[string]struct {
			Condition string `yaml:"condition"`
		} `yaml:"depends_on"`
		Healthcheck struct {
			Test    []string `yaml:"test"`
			Retries int      `yaml:"retries"`
		} `yaml:"healthcheck"`
		Labels map[string]string `yaml:"labels"`
	} `yaml:"services"`
	Volumes map[string]any `yaml:"volumes"`
}

func renderAndParse(t *testing.T, m *Manifest) parsedCompose {
	t.Helper()

	data, err := RenderCompose(m, testCreds)
	require.NoError(t, err)

	var doc parsedCompose
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

// TestRenderComposeDeclaresThreeServices verifies the orchestration
// definition's contract: app, db, and cache, each with restart policy,
// health check, port mapping, and management labels.
func TestRenderComposeDeclaresThreeServices(t *testing.T) {
	doc := renderAndParse(t, DefaultManifest())

	require.Len(t, doc.Services, 3)
	for _, name := range []string{ServiceApp, ServiceDB, ServiceCache} {
		svc, ok := doc.Services[name]
		require.True(t, ok, "service %s must be declared", name)

		assert.Equal(t, "unless-stopped", svc.Restart, "%s restart policy", name)
		assert.NotEmpty(t, svc.Ports, "%s port mapping", name)
		assert.NotEmpty(t, svc.Healthcheck.Test, "%s health check", name)
		assert.Equal(t, "true", svc.Labels[LabelManaged], "%s managed label", name)
		assert.Equal(t, name, svc.Labels[LabelService], "%s service label", name)
	}
}

func TestRenderComposeAppService(t *testing.T) {
	doc := renderAndParse(t, DefaultManifest())
	app := doc.Services[ServiceApp]

	assert.Equal(t, ".", app.Build)
	assert.Empty(t, app.Image, "app is built, not pulled")
	assert.Equal(t, []string{"3000:3000"}, app.Ports)
	assert.Equal(t, []string{".env"}, app.EnvFile)

	// The app must wait for healthy backends, or it crash-loops while
	// postgres initializes its data directory on first boot.
	require.Contains(t, app.DependsOn, ServiceDB)
	require.Contains(t, app.DependsOn, ServiceCache)
	assert.Equal(t, "service_healthy", app.DependsOn[ServiceDB].Condition)
	assert.Equal(t, "service_healthy", app.DependsOn[ServiceCache].Condition)
}

func TestRenderComposeDBService(t *testing.T) {
	doc := renderAndParse(t, DefaultManifest())
	db := doc.Services[ServiceDB]

	assert.Equal(t, "postgres:16-alpine", db.Image)
	assert.Equal(t, []string{"5432:5432"}, db.Ports)
	assert.Equal(t, "app", db.Environment["POSTGRES_USER"])
	assert.Equal(t, "app-secret", db.Environment["POSTGRES_PASSWORD"])
	assert.Equal(t, "app", db.Environment["POSTGRES_DB"])
	assert.Contains(t, db.Volumes, "db-data:/var/lib/postgresql/data")
	assert.Contains(t, strings.Join(db.Healthcheck.Test, " "), "pg_isready")

	_, hasVolume := doc.Volumes["db-data"]
	assert.True(t, hasVolume, "named volume must be declared at top level")
}

func TestRenderComposeCacheService(t *testing.T) {
	doc := renderAndParse(t, DefaultManifest())
	cache := doc.Services[ServiceCache]

	assert.Equal(t, "redis:7-alpine", cache.Image)
	assert.Equal(t, []string{"6379:6379"}, cache.Ports)
	assert.Contains(t, strings.Join(cache.Healthcheck.Test, " "), "redis-cli")
}

// TestRenderComposeDeterministic verifies byte-identical output for
// identical inputs, which is what makes the rewrite-every-run approach
// idempotent in effect.
func TestRenderComposeDeterministic(t *testing.T) {
	m := DefaultManifest()

	first, err := RenderCompose(m, testCreds)
	require.NoError(t, err)
	second, err := RenderCompose(m, testCreds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderComposeHonorsManifestOverrides(t *testing.T) {
	m := DefaultManifest()
	m.App.Port = 8080
	m.DBImage = "postgres:15-alpine"
	m.CachePort = 16379

	doc := renderAndParse(t, m)

	assert.Equal(t, []string{"8080:8080"}, doc.Services[ServiceApp].Ports)
	assert.Equal(t, "postgres:15-alpine", doc.Services[ServiceDB].Image)
	assert.Equal(t, []string{"16379:6379"}, doc.Services[ServiceCache].Ports)
}
