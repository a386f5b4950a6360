package stackgen

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/berth/internal/model"
)

// composeFile is the YAML document structure for the generated
// docker-compose.yml, serialized via yaml.v3.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]struct{}       `yaml:"volumes,omitempty"`
}

// composeService is one service definition. Only the fields the
// generated stack uses are modeled.
type composeService struct {
	Build       string               `yaml:"build,omitempty"`
	Image       string               `yaml:"image,omitempty"`
	Restart     string               `yaml:"restart"`
	Ports       []string             `yaml:"ports"`
	EnvFile     []string             `yaml:"env_file,omitempty"`
	Environment map[string]string    `yaml:"environment,omitempty"`
	Volumes     []string             `yaml:"volumes,omitempty"`
	DependsOn   map[string]dependsOn `yaml:"depends_on,omitempty"`
	Healthcheck *healthcheck         `yaml:"healthcheck"`
	Labels      map[string]string    `yaml:"labels"`
}

// dependsOn expresses a startup ordering condition on another service.
type dependsOn struct {
	Condition string `yaml:"condition"`
}

// healthcheck is the Compose health check block.
type healthcheck struct {
	Test        []string `yaml:"test"`
	Interval    string   `yaml:"interval"`
	Timeout     string   `yaml:"timeout"`
	Retries     int      `yaml:"retries"`
	StartPeriod string   `yaml:"start_period,omitempty"`
}

// serviceLabels builds the management labels for one service.
func serviceLabels(service string) map[string]string {
	return map[string]string{
		LabelManaged: "true",
		LabelService: service,
	}
}

// RenderCompose produces the docker-compose.yml bytes for the stack:
// the application (built from the synced clone), PostgreSQL, and Redis.
// Every service carries a restart policy, a health check, a host port
// mapping, and the management labels.
func RenderCompose(m *Manifest, creds model.DBCredentials) ([]byte, error) {
	appHealth := fmt.Sprintf("wget -q -O /dev/null http://localhost:%d%s || exit 1",
		m.App.Port, m.App.HealthPath)

	doc := composeFile{
		Services: map[string]composeService{
			ServiceApp: {
				Build:   ".",
				Restart: "unless-stopped",
				Ports:   []string{fmt.Sprintf("%d:%d", m.App.Port, m.App.Port)},
				EnvFile: []string{".env"},
				DependsOn: map[string]dependsOn{
					ServiceDB:    {Condition: "service_healthy"},
					ServiceCache: {Condition: "service_healthy"},
				},
				Healthcheck: &healthcheck{
					Test:        []string{"CMD-SHELL", appHealth},
					Interval:    "30s",
					Timeout:     "5s",
					Retries:     5,
					StartPeriod: "15s",
				},
				Labels: serviceLabels(ServiceApp),
			},
			ServiceDB: {
				Image:   m.DBImage,
				Restart: "unless-stopped",
				Ports:   []string{fmt.Sprintf("%d:5432", m.DBPort)},
				Environment: map[string]string{
					"POSTGRES_USER":     creds.User,
					"POSTGRES_PASSWORD": creds.Password,
					"POSTGRES_DB":       creds.Name,
				},
				Volumes: []string{"db-data:/var/lib/postgresql/data"},
				Healthcheck: &healthcheck{
					Test: []string{"CMD-SHELL",
						fmt.Sprintf("pg_isready -U %s -d %s", creds.User, creds.Name)},
					Interval: "10s",
					Timeout:  "5s",
					Retries:  5,
				},
				Labels: serviceLabels(ServiceDB),
			},
			ServiceCache: {
				Image:   m.CacheImage,
				Restart: "unless-stopped",
				Ports:   []string{fmt.Sprintf("%d:6379", m.CachePort)},
				Healthcheck: &healthcheck{
					Test:     []string{"CMD", "redis-cli", "ping"},
					Interval: "10s",
					Timeout:  "3s",
					Retries:  5,
				},
				Labels: serviceLabels(ServiceCache),
			},
		},
		Volumes: map[string]struct{}{
			"db-data": {},
		},
	}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializing compose definition: %w", err)
	}

	header := "# Generated by berth. Rewritten on every provisioning run — do not edit.\n"
	return append([]byte(header), body...), nil
}
