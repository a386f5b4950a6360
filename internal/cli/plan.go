// plan.go implements the "berth plan" command — a read-only dry run that
// reports what a provisioning run would change.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/berth/internal/provision"
	"github.com/mmr-tortoise/berth/internal/runner"
	"github.com/mmr-tortoise/berth/internal/secrets"
)

// planFlags holds the flag values for the plan command.
type planFlags struct {
	manifest string // --manifest: stack manifest path
}

// NewPlanCommand creates the "plan" cobra command.
func NewPlanCommand() *cobra.Command {
	flags := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a provisioning run would change, without applying",
		Long: `Run every step's check phase against the host and report the diff:
steps already satisfied are marked ✓, steps that would apply are marked →.

Plan is read-only — it inspects packages, services, files, and the
crontab but mutates nothing. Like provision it must run as root, since
several checks read privileged state.

Examples:
  sudo berth plan
  sudo berth plan --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.manifest, "manifest", "",
		"Path to a berth.jsonc stack manifest (default: compiled-in stack)")

	return cmd
}

func runPlan(ctx context.Context, flags *planFlags) error {
	cfg, manifest, err := loadStack(flags.manifest)
	if err != nil {
		return err
	}

	steps := provision.BuildSteps(provision.Options{
		Cfg:      cfg,
		Manifest: manifest,
		Runner:   runner.NewExecRunner(),
		Secrets:  secrets.Defaults(),
		Log:      log,
	})

	engine := provision.NewEngine(log, steps)
	results, planErr := engine.Plan(ctx)

	printResults(results)
	return planErr
}
