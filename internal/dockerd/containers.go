package dockerd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/berth/internal/model"
	"github.com/mmr-tortoise/berth/internal/stackgen"
)

// ListStackServices queries the daemon for the deployed stack's containers
// by the berth management label and maps each to a ServiceInfo. Stopped
// containers are included: a crashed service is exactly what the status
// command needs to show. Results are sorted by service name.
func ListStackServices(ctx context.Context, cli *Client) ([]model.ServiceInfo, error) {
	// Server-side label filtering: only containers created from the
	// generated Compose file carry berth.managed=true.
	filterArgs := filters.NewArgs(
		filters.Arg("label", stackgen.LabelManaged+"=true"),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable,
			"failed to list stack containers", err)
	}

	result := make([]model.ServiceInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToService(c))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Service < result[j].Service
	})
	return result, nil
}

// containerToService maps a Docker API container to the domain ServiceInfo.
func containerToService(c types.Container) model.ServiceInfo {
	name := ""
	if len(c.Names) > 0 {
		// The API prefixes names with "/"; strip it for display.
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	service := c.Labels[stackgen.LabelService]
	if service == "" {
		// Fall back to the Compose service label for containers created
		// before the berth.service label existed.
		service = c.Labels["com.docker.compose.service"]
	}

	return model.ServiceInfo{
		Service:       service,
		ContainerID:   c.ID,
		ContainerName: name,
		State:         c.State,
		Health:        parseHealth(c.Status),
		Ports:         formatPorts(c.Ports),
	}
}

// parseHealth extracts the health-check verdict from the human-readable
// status string, e.g. "Up 3 minutes (healthy)". Containers without a
// health check yield an empty string.
func parseHealth(status string) string {
	switch {
	case strings.Contains(status, "(healthy)"):
		return "healthy"
	case strings.Contains(status, "(unhealthy)"):
		return "unhealthy"
	case strings.Contains(status, "(health: starting)"):
		return "starting"
	default:
		return ""
	}
}

// formatPorts renders published port mappings as "host:container/proto",
// skipping container-internal ports, sorted for stable output.
func formatPorts(ports []types.Port) []string {
	var out []string
	for _, p := range ports {
		if p.PublicPort == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%d:%d/%s", p.PublicPort, p.PrivatePort, p.Type))
	}
	sort.Strings(out)
	return out
}
