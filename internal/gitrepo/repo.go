// Package gitrepo acquires and updates the application repository that
// the stack is built from.
//
// It shells out to the git CLI through the runner abstraction rather than
// using a Go Git library: clone/fetch/reset need full CLI compatibility
// (credentials helpers, transport config) and nothing here justifies a
// second Git implementation on the host.
//
// Acquisition is convergent: a directory already holding a clone of the
// configured remote is fetched and hard-reset to the pinned ref in place.
// The destructive remove-and-reclone survives only as the fallback for a
// missing, foreign, or corrupt directory.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mmr-tortoise/berth/internal/model"
	"github.com/mmr-tortoise/berth/internal/runner"
)

// Manager performs git operations through a Runner.
type Manager struct {
	r runner.Runner
}

// NewManager creates a git Manager backed by the given runner.
func NewManager(r runner.Runner) *Manager {
	return &Manager{r: r}
}

// IsCloneOf reports whether dir is a git clone whose origin remote points
// at url. Any git failure (not a repository, no origin remote) counts as
// "no", which routes Sync to the reclone path.
func (m *Manager) IsCloneOf(ctx context.Context, dir, url string) bool {
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	out, err := m.run(ctx, dir, "remote", "get-url", "origin")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == url
}

// Sync converges dir onto the given remote url at ref.
//
// An existing clone of the same remote is updated in place: fetch, then
// hard reset to the remote-tracking ref (or the literal ref for tags and
// commits). Local modifications are discarded — the clone is deployment
// state, not a working copy. Anything else at dir is removed and a fresh
// clone is made.
//
// Returns a short description of what was done, for step reporting.
func (m *Manager) Sync(ctx context.Context, dir, url, ref string) (string, error) {
	if m.IsCloneOf(ctx, dir, url) {
		if err := m.update(ctx, dir, ref); err != nil {
			return "", err
		}
		return fmt.Sprintf("updated existing clone to %s", ref), nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return "", model.WrapCLIError(model.ExitCommandFailed,
			fmt.Sprintf("removing %s before clone", dir), err)
	}

	if _, err := m.r.Run(ctx, "git", "clone", url, dir); err != nil {
		return "", err
	}
	if ref != "" {
		if _, err := m.run(ctx, dir, "checkout", ref); err != nil {
			return "", err
		}
	}
	return "cloned fresh", nil
}

// update fetches origin and hard-resets the working tree to ref.
// Branch names resolve through their remote-tracking ref so the reset
// lands on the freshly fetched tip rather than a stale local branch.
func (m *Manager) update(ctx context.Context, dir, ref string) error {
	if _, err := m.run(ctx, dir, "fetch", "--tags", "origin"); err != nil {
		return err
	}

	target := ref
	if _, err := m.run(ctx, dir, "rev-parse", "--verify", "origin/"+ref); err == nil {
		target = "origin/" + ref
	}

	_, err := m.run(ctx, dir, "reset", "--hard", target)
	return err
}

// run executes a git command against the repository at dir via git -C,
// which avoids changing the process working directory.
func (m *Manager) run(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)
	return m.r.Run(ctx, "git", fullArgs...)
}
