// status.go implements the "berth status" command.
//
// Status rediscovers the deployed stack through the management labels on
// its containers and reports per-service state. With --probe it also
// dials each service's published port on the detected host IP, which is
// the end-to-end reachability the provisioner exists to establish. The
// probes are independent reads and run concurrently.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmr-tortoise/berth/internal/dockerd"
	"github.com/mmr-tortoise/berth/internal/hostinfo"
	"github.com/mmr-tortoise/berth/internal/model"
	"github.com/mmr-tortoise/berth/internal/stackgen"
)

// probeTimeout bounds each reachability dial so one filtered port does
// not stall the whole status report.
const probeTimeout = 3 * time.Second

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	probe    bool   // --probe: dial each published port on the host IP
	manifest string // --manifest: stack manifest path
}

// serviceStatus is a ServiceInfo augmented with the probe result.
type serviceStatus struct {
	model.ServiceInfo
	Reachable string `json:"reachable,omitempty"`
}

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	flags := &statusFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the deployed stack's service states",
		Long: `Query the Docker daemon for the stack's containers and show each
service's state, health, and published ports. Services declared in the
manifest but missing from the daemon are reported as absent.

Examples:
  berth status
  berth status --probe
  berth status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.probe, "probe", false,
		"Dial each service's published port on the host IP")
	cmd.Flags().StringVar(&flags.manifest, "manifest", "",
		"Path to a berth.jsonc stack manifest (default: compiled-in stack)")

	return cmd
}

func runStatus(ctx context.Context, flags *statusFlags) error {
	cfg, manifest, err := loadStack(flags.manifest)
	if err != nil {
		return err
	}

	cli, err := dockerd.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	found, err := dockerd.ListStackServices(ctx, cli)
	if err != nil {
		return err
	}

	statuses := mergeExpected(manifest, found)

	if flags.probe {
		hostIP := cfg.HostIP
		if hostIP == "" {
			hostIP, err = hostinfo.PrimaryIPv4()
			if err != nil {
				return err
			}
		}
		probeServices(ctx, hostIP, manifest, statuses)
	}

	printStatus(statuses)
	return nil
}

// mergeExpected overlays the discovered containers onto the manifest's
// declared services, so a service with no container still shows up —
// as "absent" — instead of silently disappearing from the report.
func mergeExpected(m *stackgen.Manifest, found []model.ServiceInfo) []serviceStatus {
	byService := make(map[string]model.ServiceInfo, len(found))
	for _, svc := range found {
		byService[svc.Service] = svc
	}

	expected := []string{stackgen.ServiceApp, stackgen.ServiceDB, stackgen.ServiceCache}
	statuses := make([]serviceStatus, 0, len(expected))
	for _, name := range expected {
		if svc, ok := byService[name]; ok {
			statuses = append(statuses, serviceStatus{ServiceInfo: svc})
			delete(byService, name)
			continue
		}
		statuses = append(statuses, serviceStatus{
			ServiceInfo: model.ServiceInfo{Service: name, State: "absent"},
		})
	}

	// Containers with an unexpected service label still get reported.
	for _, svc := range found {
		if _, stillUnclaimed := byService[svc.Service]; stillUnclaimed {
			statuses = append(statuses, serviceStatus{ServiceInfo: svc})
		}
	}
	return statuses
}

// servicePort maps a manifest service to its host-published port.
func servicePort(m *stackgen.Manifest, service string) int {
	switch service {
	case stackgen.ServiceApp:
		return m.App.Port
	case stackgen.ServiceDB:
		return m.DBPort
	case stackgen.ServiceCache:
		return m.CachePort
	default:
		return 0
	}
}

// probeServices dials each declared service's published port on the host
// IP concurrently and records the verdict. Probes are pure reads, so the
// strictly-sequential rule of provisioning does not apply here.
func probeServices(ctx context.Context, hostIP string, m *stackgen.Manifest, statuses []serviceStatus) {
	g, ctx := errgroup.WithContext(ctx)

	for i := range statuses {
		port := servicePort(m, statuses[i].Service)
		if port == 0 {
			continue
		}

		st := &statuses[i]
		addr := net.JoinHostPort(hostIP, strconv.Itoa(port))
		g.Go(func() error {
			d := net.Dialer{Timeout: probeTimeout}
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err != nil {
				st.Reachable = "no (" + addr + ")"
				return nil // a down service is a finding, not a probe failure
			}
			_ = conn.Close()
			st.Reachable = "yes (" + addr + ")"
			return nil
		})
	}

	// Probes never return errors, so Wait only propagates ctx cancellation.
	_ = g.Wait()
}

func printStatus(statuses []serviceStatus) {
	if IsJSONOutput() {
		type resultJSON struct {
			Services []serviceStatus `json:"services"`
		}
		data, _ := json.MarshalIndent(resultJSON{Services: statuses}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%-10s %-10s %-10s %-22s %s\n",
		"SERVICE", "STATE", "HEALTH", "PORTS", "REACHABLE")
	for _, st := range statuses {
		fmt.Printf("%-10s %-10s %-10s %-22s %s\n",
			st.Service,
			colorState(st.State),
			dashIfEmpty(st.Health),
			dashIfEmpty(strings.Join(st.Ports, ",")),
			dashIfEmpty(st.Reachable),
		)
	}
}

// colorState renders the container state with a traffic-light color.
func colorState(state string) string {
	switch state {
	case "running":
		return color.GreenString(state)
	case "absent", "exited", "dead":
		return color.RedString(state)
	default:
		return color.YellowString(state)
	}
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
