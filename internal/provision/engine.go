// Package provision defines the ordered resource steps and the engine
// that converges a host through them.
//
// Every step is a small reconciler: Check reads the current state of one
// host resource and compares it to the desired state; Apply mutates the
// host to close the gap. The engine runs steps strictly sequentially and
// aborts on the first error — there are no retries and no rollback, so a
// failed run can leave the host partially converged (firewall disabled,
// packages upgraded, no stack). Re-running is the recovery path: satisfied
// steps are skipped and the run resumes where the drift remains.
package provision

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mmr-tortoise/berth/internal/model"
)

// Step is one host resource reconciler.
type Step interface {
	// Name is the step's stable identifier, used in output and logs.
	Name() string

	// Check reads the resource's current state and returns it together
	// with a short human-readable detail. StateSatisfied skips Apply;
	// StateNeedsApply and StateUnknown both run it. An error aborts
	// the whole run.
	Check(ctx context.Context) (model.StepState, string, error)

	// Apply mutates the host toward the desired state. The returned
	// detail, when non-empty, replaces the check detail in reporting.
	Apply(ctx context.Context) (string, error)
}

// Engine runs steps in order with fail-fast semantics.
type Engine struct {
	steps []Step
	log   *logrus.Logger
}

// NewEngine creates an engine over the given ordered steps.
func NewEngine(log *logrus.Logger, steps []Step) *Engine {
	return &Engine{steps: steps, log: log}
}

// Plan runs every step's check phase without applying anything and
// reports what a provisioning run would do. A check error aborts the
// plan; the partial results up to and including the failure are returned.
func (e *Engine) Plan(ctx context.Context) ([]model.StepResult, error) {
	results := make([]model.StepResult, 0, len(e.steps))

	for _, step := range e.steps {
		state, detail, err := step.Check(ctx)
		if err != nil {
			results = append(results, model.StepResult{
				Name:   step.Name(),
				State:  state,
				Action: model.ActionFailed,
				Err:    err.Error(),
			})
			return results, err
		}

		action := model.ActionWouldApply
		if state == model.StateSatisfied {
			action = model.ActionSkipped
		}
		results = append(results, model.StepResult{
			Name:   step.Name(),
			State:  state,
			Action: action,
			Detail: detail,
		})
	}

	return results, nil
}

// Converge runs the full reconcile cycle over every step in order.
// The first failing check or apply aborts the run immediately; completed
// steps are not undone. Results cover every step that ran, including the
// failed one.
func (e *Engine) Converge(ctx context.Context) ([]model.StepResult, error) {
	results := make([]model.StepResult, 0, len(e.steps))

	for _, step := range e.steps {
		stepLog := e.log.WithField("step", step.Name())

		state, detail, err := step.Check(ctx)
		if err != nil {
			stepLog.WithError(err).Error("check failed")
			results = append(results, model.StepResult{
				Name:   step.Name(),
				State:  state,
				Action: model.ActionFailed,
				Err:    err.Error(),
			})
			return results, err
		}

		if state == model.StateSatisfied {
			stepLog.WithField("detail", detail).Info("satisfied, skipping")
			results = append(results, model.StepResult{
				Name:   step.Name(),
				State:  state,
				Action: model.ActionSkipped,
				Detail: detail,
			})
			continue
		}

		stepLog.WithField("detail", detail).Info("applying")
		applyDetail, err := step.Apply(ctx)
		if err != nil {
			stepLog.WithError(err).Error("apply failed")
			results = append(results, model.StepResult{
				Name:   step.Name(),
				State:  state,
				Action: model.ActionFailed,
				Detail: detail,
				Err:    err.Error(),
			})
			return results, err
		}

		if applyDetail == "" {
			applyDetail = detail
		}
		stepLog.WithField("detail", applyDetail).Info("applied")
		results = append(results, model.StepResult{
			Name:   step.Name(),
			State:  state,
			Action: model.ActionApplied,
			Detail: applyDetail,
		})
	}

	return results, nil
}
