// Package dockerd wraps the Docker Engine SDK client for the provisioner.
//
// It handles Docker socket detection, verifies daemon connectivity before
// the stack is built, and rediscovers the deployed stack's containers
// through the management labels baked into the generated Compose file.
package dockerd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/docker/client"

	"github.com/mmr-tortoise/berth/internal/model"
)

// defaultPingTimeout bounds the daemon liveness probe. Without it a paused
// or wedged daemon would hang the provisioning run at the ping instead of
// failing with a diagnosable error.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker SDK client. Wrapping rather than embedding keeps
// the exposed surface down to what the provisioner actually uses.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client. DOCKER_HOST is respected when set;
// otherwise the standard Unix socket is probed. The provisioner targets
// Linux hosts, so no other platform transports are attempted.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		const socketPath = "/var/run/docker.sock"
		if _, err := os.Stat(socketPath); err != nil {
			return nil, model.WrapCLIError(model.ExitDockerUnavailable,
				fmt.Sprintf("Docker socket not found at %s — is the docker service running?", socketPath),
				err)
		}
		host = "unix://" + socketPath
	}

	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable,
			fmt.Sprintf("failed to create Docker client for host %q", host), err)
	}

	return &Client{inner: c}, nil
}

// Inner exposes the underlying SDK client for API calls.
func (c *Client) Inner() *client.Client {
	return c.inner
}

// Ping verifies the Docker daemon is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(model.ExitDockerUnavailable,
			"Docker daemon is not responding — is the docker service running?", err)
	}
	return nil
}

// Close releases the client's underlying resources.
func (c *Client) Close() error {
	return c.inner.Close()
}
