package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseStepState verifies the round-trip between strings and StepState,
// including case normalization and rejection of unknown values.
func TestParseStepState(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    StepState
		wantErr bool
	}{
		{name: "satisfied", input: "satisfied", want: StateSatisfied},
		{name: "needs-apply", input: "needs-apply", want: StateNeedsApply},
		{name: "unknown", input: "unknown", want: StateUnknown},
		{name: "uppercase is normalized", input: "SATISFIED", want: StateSatisfied},
		{name: "invalid value", input: "converged", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStepState(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestStepStateIsValid(t *testing.T) {
	assert.True(t, StateSatisfied.IsValid())
	assert.True(t, StateNeedsApply.IsValid())
	assert.True(t, StateUnknown.IsValid())
	assert.False(t, StepState("drifted").IsValid())
}

// TestCLIErrorUnwrap verifies that CLIError participates in Go error
// wrapping so that callers can use errors.Is/errors.As on the chain.
func TestCLIErrorUnwrap(t *testing.T) {
	inner := errors.New("dpkg database is locked")
	wrapped := WrapCLIError(ExitCommandFailed, "apt-get install failed", inner)

	assert.Equal(t, ExitCommandFailed, wrapped.Code)
	assert.ErrorIs(t, wrapped, inner)
	assert.Contains(t, wrapped.Error(), "apt-get install failed")
	assert.Contains(t, wrapped.Error(), "dpkg database is locked")
}

func TestCLIErrorWithoutUnderlying(t *testing.T) {
	err := NewCLIError(ExitNotPrivileged, "must run as root")
	assert.Equal(t, "must run as root", err.Error())
	assert.Nil(t, err.Unwrap())
}
