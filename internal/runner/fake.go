package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/berth/internal/model"
)

// Call records a single command issued through a FakeRunner.
type Call struct {
	Name string
	Args []string
	Opts Opts
}

// Cmdline returns the call as a single space-joined string, convenient
// for assertions ("apt-get install -y git").
func (c Call) Cmdline() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Response is the scripted result for commands whose command line starts
// with Prefix. The first matching response wins.
type Response struct {
	Prefix string
	Output string
	Err    error
}

// FakeRunner is a test double that records every command and answers from
// a scripted response table. Commands with no matching response succeed
// with empty output, so tests only script the interactions they assert.
type FakeRunner struct {
	// Calls holds every command issued, in order.
	Calls []Call

	// Responses is the scripted response table, matched by prefix.
	Responses []Response

	// Path maps executable names to their LookPath result. Names absent
	// from the map are reported as not found. A nil map means every
	// lookup succeeds with a synthetic /usr/bin path.
	Path map[string]string
}

// Run records the call and returns the scripted response, if any.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f.RunWith(ctx, Opts{}, name, args...)
}

// RunWith records the call with its options and returns the scripted
// response, if any.
func (f *FakeRunner) RunWith(ctx context.Context, opts Opts, name string, args ...string) (string, error) {
	call := Call{Name: name, Args: args, Opts: opts}
	f.Calls = append(f.Calls, call)

	line := call.Cmdline()
	for _, resp := range f.Responses {
		if strings.HasPrefix(line, resp.Prefix) {
			if resp.Err != nil {
				return resp.Output, model.WrapCLIError(model.ExitCommandFailed,
					fmt.Sprintf("%s failed", line), resp.Err)
			}
			return resp.Output, nil
		}
	}
	return "", nil
}

// LookPath answers from the Path map. With a nil map everything resolves.
func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.Path == nil {
		return "/usr/bin/" + name, nil
	}
	if p, ok := f.Path[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// Cmdlines returns every recorded call as a command-line string,
// preserving order.
func (f *FakeRunner) Cmdlines() []string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.Cmdline())
	}
	return lines
}
