// provision.go implements the "berth provision" command — the full
// reconciliation run that converges the host and deploys the stack.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/berth/internal/provision"
	"github.com/mmr-tortoise/berth/internal/runner"
	"github.com/mmr-tortoise/berth/internal/secrets"
)

// provisionFlags holds the flag values for the provision command.
type provisionFlags struct {
	forceReinstall bool   // --force-reinstall: legacy purge+reinstall package policy
	noReboot       bool   // --no-reboot: skip the final reboot step
	manifest       string // --manifest: stack manifest path
}

// NewProvisionCommand creates the "provision" cobra command.
func NewProvisionCommand() *cobra.Command {
	flags := &provisionFlags{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Converge the host and deploy the application stack",
		Long: `Run the full ordered step sequence: privilege check, dependency
bootstrap, firewall disable, package refresh and convergence,
docker-compose install, docker service activation, repository sync,
configuration generation, stack build and start, boot hook registration,
and a final reboot.

The run is fail-fast: the first failing step aborts immediately with no
rollback. Re-run after fixing the cause; satisfied steps are skipped.

Examples:
  sudo berth provision
  sudo berth provision --no-reboot
  sudo berth provision --manifest /etc/berth/berth.jsonc
  sudo BERTH_HOST_IP=203.0.113.7 berth provision`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.forceReinstall, "force-reinstall", false,
		"Purge and reinstall every listed package instead of installing only what is missing")
	cmd.Flags().BoolVar(&flags.noReboot, "no-reboot", false,
		"Skip the final host reboot")
	cmd.Flags().StringVar(&flags.manifest, "manifest", "",
		"Path to a berth.jsonc stack manifest (default: compiled-in stack)")

	return cmd
}

func runProvision(ctx context.Context, flags *provisionFlags) error {
	cfg, manifest, err := loadStack(flags.manifest)
	if err != nil {
		return err
	}

	log.WithField("repo", manifest.Repo.URL).Info("starting provisioning run")

	steps := provision.BuildSteps(provision.Options{
		Cfg:            cfg,
		Manifest:       manifest,
		Runner:         runner.NewExecRunner(),
		Secrets:        secrets.Defaults(),
		Log:            log,
		ForceReinstall: flags.forceReinstall,
		NoReboot:       flags.noReboot,
	})

	engine := provision.NewEngine(log, steps)
	results, convergeErr := engine.Converge(ctx)

	printResults(results)

	if convergeErr != nil {
		return convergeErr
	}

	if !IsJSONOutput() {
		if flags.noReboot {
			fmt.Println("\nProvisioning complete.")
		} else {
			fmt.Printf("\nProvisioning complete. Host reboots in %d minute(s).\n",
				cfg.RebootDelayMinutes)
		}
	}
	return nil
}
