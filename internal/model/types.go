package model

import (
	"fmt"
	"strings"
)

// StepState represents the outcome of a resource check: whether the host
// already matches the desired state for that resource or an apply is needed.
//
// The reconciliation cycle for every provisioning step is:
//
//	Check → Satisfied  (nothing to do, step is skipped)
//	Check → NeedsApply → Apply → re-converged
type StepState string

const (
	// StateSatisfied indicates the resource already matches the desired
	// state and the step's Apply phase will be skipped.
	StateSatisfied StepState = "satisfied"

	// StateNeedsApply indicates the resource diverges from the desired
	// state and the step's Apply phase will run.
	StateNeedsApply StepState = "needs-apply"

	// StateUnknown indicates the check could not determine the resource
	// state. Steps whose state is inherently unknowable in advance
	// (a full package upgrade, a stack rebuild) report this and always apply.
	StateUnknown StepState = "unknown"
)

// String returns the string representation of StepState.
func (s StepState) String() string {
	return string(s)
}

// IsValid checks whether the StepState value is one of the
// predefined valid states.
func (s StepState) IsValid() bool {
	switch s {
	case StateSatisfied, StateNeedsApply, StateUnknown:
		return true
	default:
		return false
	}
}

// ParseStepState converts a string to a StepState.
// Returns an error if the string does not match any valid state.
func ParseStepState(s string) (StepState, error) {
	state := StepState(strings.ToLower(s))
	if !state.IsValid() {
		return "", fmt.Errorf("invalid step state: %q (valid: satisfied, needs-apply, unknown)", s)
	}
	return state, nil
}

// StepAction records what the engine did with a step during a run.
type StepAction string

const (
	// ActionSkipped means the check reported Satisfied and Apply did not run.
	ActionSkipped StepAction = "skipped"

	// ActionApplied means Apply ran and completed successfully.
	ActionApplied StepAction = "applied"

	// ActionFailed means either Check or Apply returned an error.
	// The run aborts at the first failed step.
	ActionFailed StepAction = "failed"

	// ActionWouldApply is reported by plan mode for steps that would
	// run Apply during a real provision.
	ActionWouldApply StepAction = "would-apply"
)

// StepResult is the per-step record produced by an engine run.
// It is the unit of both text and JSON output for the provision
// and plan commands.
type StepResult struct {
	// Name is the step's stable identifier (e.g., "firewall", "boot-hook").
	Name string `json:"name"`

	// State is what the check phase observed before any apply.
	State StepState `json:"state"`

	// Action is what the engine did (or would do) with the step.
	Action StepAction `json:"action"`

	// Detail is a short human-readable note from the check phase,
	// e.g., "ufw not installed, nothing to disable".
	Detail string `json:"detail,omitempty"`

	// Err holds the failure message when Action is ActionFailed.
	Err string `json:"error,omitempty"`
}

// ServiceInfo holds runtime information about one deployed stack service,
// reconstructed from Docker container labels and state. Produced by the
// status command; nothing here is persisted.
type ServiceInfo struct {
	// Service is the Compose service name (app, db, cache).
	Service string `json:"service"`

	// ContainerID is the Docker container identifier, empty when the
	// service has no container yet.
	ContainerID string `json:"containerId,omitempty"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName,omitempty"`

	// State is the Docker container state (e.g., "running", "exited").
	// "absent" when no container exists for the service.
	State string `json:"state"`

	// Health is the container health-check status when the container
	// declares one ("healthy", "unhealthy", "starting").
	Health string `json:"health,omitempty"`

	// Ports lists the published port mappings in "host:container/proto" form.
	Ports []string `json:"ports,omitempty"`
}

// DBCredentials holds the relational database identity used when rendering
// the stack configuration. Values are resolved through the secrets store,
// never hard-coded at render sites.
type DBCredentials struct {
	User     string
	Password string
	Name     string
}

// ExitCode defines the CLI exit codes. These map the provisioner's error
// taxonomy onto process exit statuses so scripts and CI can distinguish
// failure classes.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitNotPrivileged indicates the process is not running with the
	// elevated privileges the provisioner requires.
	ExitNotPrivileged ExitCode = 2

	// ExitCommandFailed indicates an invoked external command
	// (apt-get, git, systemctl, docker-compose, ...) returned non-zero.
	ExitCommandFailed ExitCode = 3

	// ExitDockerUnavailable indicates the Docker daemon is not accessible.
	ExitDockerUnavailable ExitCode = 4

	// ExitConfigError indicates the stack manifest or runtime
	// configuration could not be loaded or is invalid.
	ExitConfigError ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
