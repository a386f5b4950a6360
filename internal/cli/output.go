// output.go holds the shared result-rendering helpers for the provision
// and plan commands, plus the config/manifest loading they both need.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"

	"github.com/mmr-tortoise/berth/internal/config"
	"github.com/mmr-tortoise/berth/internal/model"
	"github.com/mmr-tortoise/berth/internal/stackgen"
)

// Step result markers for text output.
var (
	markSkipped = color.New(color.FgGreen).Sprint("✓")
	markApplied = color.New(color.FgYellow).Sprint("~")
	markWould   = color.New(color.FgYellow).Sprint("→")
	markFailed  = color.New(color.FgRed).Sprint("✗")
)

// loadStack loads the runtime config and the stack manifest, applying
// the config's repository overrides onto the manifest. manifestFlag,
// when non-empty, wins over BERTH_MANIFEST.
func loadStack(manifestFlag string) (*config.Config, *stackgen.Manifest, error) {
	cfg := config.Load()
	if manifestFlag != "" {
		cfg.ManifestPath = manifestFlag
	}

	m, err := stackgen.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RepoURL != "" {
		m.Repo.URL = cfg.RepoURL
	}
	if cfg.RepoRef != "" {
		m.Repo.Ref = cfg.RepoRef
	}
	if cfg.InstallDir != "" {
		m.Repo.Dir = cfg.InstallDir
	}

	return cfg, m, nil
}

// printResults outputs step results in text or JSON format, depending on
// the --json flag.
func printResults(results []model.StepResult) {
	if IsJSONOutput() {
		printResultsJSON(results)
	} else {
		printResultsText(results)
	}
}

func printResultsJSON(results []model.StepResult) {
	type resultJSON struct {
		Steps []model.StepResult `json:"steps"`
	}
	// Empty slice rather than nil so JSON shows [] instead of null.
	out := resultJSON{Steps: make([]model.StepResult, 0, len(results))}
	out.Steps = append(out.Steps, results...)

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// printResultsText renders one line per step:
//
//	✓ firewall        ufw already inactive
//	~ packages        installed curl, docker.io
//	✗ stack           docker-compose up -d --build failed: ...
func printResultsText(results []model.StepResult) {
	for _, r := range results {
		mark := markApplied
		detail := r.Detail
		switch r.Action {
		case model.ActionSkipped:
			mark = markSkipped
		case model.ActionWouldApply:
			mark = markWould
		case model.ActionFailed:
			mark = markFailed
			detail = r.Err
		}
		fmt.Printf("%s %-14s %s\n", mark, r.Name, detail)
	}
}
