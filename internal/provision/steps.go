package provision

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mmr-tortoise/berth/internal/aptpkg"
	"github.com/mmr-tortoise/berth/internal/composecli"
	"github.com/mmr-tortoise/berth/internal/config"
	"github.com/mmr-tortoise/berth/internal/cron"
	"github.com/mmr-tortoise/berth/internal/dockerd"
	"github.com/mmr-tortoise/berth/internal/firewall"
	"github.com/mmr-tortoise/berth/internal/gitrepo"
	"github.com/mmr-tortoise/berth/internal/hostinfo"
	"github.com/mmr-tortoise/berth/internal/model"
	"github.com/mmr-tortoise/berth/internal/runner"
	"github.com/mmr-tortoise/berth/internal/secrets"
	"github.com/mmr-tortoise/berth/internal/stackgen"
	"github.com/mmr-tortoise/berth/internal/sysd"
)

// progressTool is the utility installed by the dependency bootstrap step.
const progressTool = "pv"

// Options wires the dependencies for the step sequence. Function fields
// default to their production implementations when nil, and exist so
// tests can substitute privilege, IP detection, and daemon probing.
type Options struct {
	Cfg      *config.Config
	Manifest *stackgen.Manifest
	Runner   runner.Runner
	Secrets  secrets.Store
	Log      *logrus.Logger

	// ForceReinstall restores the legacy purge+reinstall package policy.
	ForceReinstall bool

	// NoReboot drops the final reboot step from the sequence.
	NoReboot bool

	// Euid returns the effective user id. Defaults to os.Geteuid.
	Euid func() int

	// DetectIP returns the host's primary IPv4 address. Defaults to
	// hostinfo.PrimaryIPv4, pre-empted by Cfg.HostIP when set.
	DetectIP func() (string, error)

	// PingDocker probes the Docker daemon before the stack build.
	// Defaults to a one-shot SDK client ping.
	PingDocker func(ctx context.Context) error
}

// BuildSteps assembles the ordered step sequence for a provisioning run.
func BuildSteps(opts Options) []Step {
	if opts.Euid == nil {
		opts.Euid = os.Geteuid
	}
	if opts.DetectIP == nil {
		opts.DetectIP = hostinfo.PrimaryIPv4
	}
	if opts.PingDocker == nil {
		opts.PingDocker = defaultDockerPing
	}

	m := opts.Manifest
	pkgs := aptpkg.NewManager(opts.Runner)
	services := sysd.NewManager(opts.Runner)

	ip := &ipResolver{override: opts.Cfg.HostIP, detect: opts.DetectIP}
	creds := secrets.DBCredentials(opts.Secrets)

	steps := []Step{
		&privilegeStep{euid: opts.Euid},
		&bootstrapStep{r: opts.Runner, pkgs: pkgs},
		&firewallStep{fw: firewall.NewManager(opts.Runner), log: opts.Log},
		&aptRefreshStep{pkgs: pkgs},
		&packagesStep{pkgs: pkgs, list: m.Packages, force: opts.ForceReinstall},
		&composeCLIStep{inst: composecli.NewInstaller(opts.Runner,
			opts.Cfg.ComposeVersion, opts.Cfg.ComposeHome, opts.Cfg.ComposeLink)},
		&dockerServiceStep{services: services},
		&repoStep{git: gitrepo.NewManager(opts.Runner), dir: m.Repo.Dir, url: m.Repo.URL, ref: m.Repo.Ref},
		&configStep{manifest: m, ip: ip, creds: creds},
		&stackStep{r: opts.Runner, dir: m.Repo.Dir, ping: opts.PingDocker},
		&bootHookStep{reg: cron.NewRegistrar(opts.Runner),
			line: cron.BootHookLine(m.Repo.Dir, opts.Cfg.BootDelaySeconds)},
	}

	if !opts.NoReboot {
		steps = append(steps, &rebootStep{services: services, delay: opts.Cfg.RebootDelayMinutes})
	}

	return steps
}

// ipResolver memoizes host IP detection so the address is read once per
// run, and every consumer interpolates the same value.
type ipResolver struct {
	override string
	detect   func() (string, error)

	once sync.Once
	ip   string
	err  error
}

func (r *ipResolver) resolve() (string, error) {
	if r.override != "" {
		return r.override, nil
	}
	r.once.Do(func() {
		r.ip, r.err = r.detect()
	})
	return r.ip, r.err
}

// privilegeStep aborts the run when not running as root. Every later
// step mutates privileged host state, so there is nothing to apply —
// a failed check is fatal.
type privilegeStep struct {
	euid func() int
}

func (s *privilegeStep) Name() string { return "privilege" }

func (s *privilegeStep) Check(ctx context.Context) (model.StepState, string, error) {
	if s.euid() != 0 {
		return model.StateNeedsApply, "",
			model.NewCLIError(model.ExitNotPrivileged, "berth must run as root (try sudo)")
	}
	return model.StateSatisfied, "running as root", nil
}

func (s *privilegeStep) Apply(ctx context.Context) (string, error) {
	// Unreachable: Check either satisfies or errors.
	return "", nil
}

// bootstrapStep installs the progress-reporting utility used by later
// package operations, if it is not already present.
type bootstrapStep struct {
	r    runner.Runner
	pkgs *aptpkg.Manager
}

func (s *bootstrapStep) Name() string { return "bootstrap" }

func (s *bootstrapStep) Check(ctx context.Context) (model.StepState, string, error) {
	if _, err := s.r.LookPath(progressTool); err == nil {
		return model.StateSatisfied, progressTool + " already installed", nil
	}
	return model.StateNeedsApply, progressTool + " missing", nil
}

func (s *bootstrapStep) Apply(ctx context.Context) (string, error) {
	if err := s.pkgs.Install(ctx, progressTool); err != nil {
		return "", err
	}
	return "installed " + progressTool, nil
}

// firewallStep disables ufw so the stack's published ports are reachable.
// A host without ufw satisfies the step with a warning.
type firewallStep struct {
	fw  *firewall.Manager
	log *logrus.Logger
}

func (s *firewallStep) Name() string { return "firewall" }

func (s *firewallStep) Check(ctx context.Context) (model.StepState, string, error) {
	status, err := s.fw.Observe(ctx)
	if err != nil {
		return model.StateUnknown, "", err
	}
	switch status {
	case firewall.StatusAbsent:
		s.log.Warn("ufw not installed, nothing to disable")
		return model.StateSatisfied, "ufw not installed, nothing to disable", nil
	case firewall.StatusInactive:
		return model.StateSatisfied, "ufw already inactive", nil
	default:
		return model.StateNeedsApply, "ufw active", nil
	}
}

func (s *firewallStep) Apply(ctx context.Context) (string, error) {
	if err := s.fw.Disable(ctx); err != nil {
		return "", err
	}
	return "ufw disabled", nil
}

// aptRefreshStep updates the package index and upgrades everything.
// Whether an upgrade is pending is not knowable without doing the work,
// so the step always applies.
type aptRefreshStep struct {
	pkgs *aptpkg.Manager
}

func (s *aptRefreshStep) Name() string { return "apt-refresh" }

func (s *aptRefreshStep) Check(ctx context.Context) (model.StepState, string, error) {
	return model.StateUnknown, "package index refresh and upgrade run every time", nil
}

func (s *aptRefreshStep) Apply(ctx context.Context) (string, error) {
	if err := s.pkgs.Refresh(ctx); err != nil {
		return "", err
	}
	return "packages updated and upgraded", nil
}

// packagesStep converges the fixed package list.
type packagesStep struct {
	pkgs  *aptpkg.Manager
	list  []string
	force bool
}

func (s *packagesStep) Name() string { return "packages" }

func (s *packagesStep) Check(ctx context.Context) (model.StepState, string, error) {
	if s.force {
		return model.StateNeedsApply, "force-reinstall requested", nil
	}
	missing := s.pkgs.Missing(ctx, s.list)
	if len(missing) == 0 {
		return model.StateSatisfied, "all packages present", nil
	}
	return model.StateNeedsApply, "missing: " + strings.Join(missing, ", "), nil
}

func (s *packagesStep) Apply(ctx context.Context) (string, error) {
	return s.pkgs.Converge(ctx, s.list, s.force)
}

// composeCLIStep installs the pinned docker-compose binary when absent.
type composeCLIStep struct {
	inst *composecli.Installer
}

func (s *composeCLIStep) Name() string { return "compose-cli" }

func (s *composeCLIStep) Check(ctx context.Context) (model.StepState, string, error) {
	if s.inst.Installed() {
		return model.StateSatisfied, "docker-compose already on PATH", nil
	}
	return model.StateNeedsApply, "docker-compose missing, will install " + s.inst.Version, nil
}

func (s *composeCLIStep) Apply(ctx context.Context) (string, error) {
	if err := s.inst.Install(ctx); err != nil {
		return "", err
	}
	return "installed docker-compose " + s.inst.Version, nil
}

// dockerServiceStep enables and starts the container runtime service.
type dockerServiceStep struct {
	services *sysd.Manager
}

func (s *dockerServiceStep) Name() string { return "docker-service" }

func (s *dockerServiceStep) Check(ctx context.Context) (model.StepState, string, error) {
	if s.services.IsActive(ctx, "docker") && s.services.IsEnabled(ctx, "docker") {
		return model.StateSatisfied, "docker service active and enabled", nil
	}
	return model.StateNeedsApply, "docker service not active or not enabled", nil
}

func (s *dockerServiceStep) Apply(ctx context.Context) (string, error) {
	if err := s.services.EnableNow(ctx, "docker"); err != nil {
		return "", err
	}
	return "docker service enabled and started", nil
}

// repoStep syncs the application repository: update in place when the
// directory already holds a clone of the configured remote, reclone
// otherwise. Whether the clone is behind the remote is not knowable
// without fetching, so an existing clone reports Unknown.
type repoStep struct {
	git *gitrepo.Manager
	dir string
	url string
	ref string
}

func (s *repoStep) Name() string { return "repository" }

func (s *repoStep) Check(ctx context.Context) (model.StepState, string, error) {
	if s.git.IsCloneOf(ctx, s.dir, s.url) {
		return model.StateUnknown, fmt.Sprintf("clone present, will fetch and reset to %s", s.ref), nil
	}
	return model.StateNeedsApply, "will clone " + s.url, nil
}

func (s *repoStep) Apply(ctx context.Context) (string, error) {
	return s.git.Sync(ctx, s.dir, s.url, s.ref)
}

// configStep writes the three generated deployment files into the clone.
type configStep struct {
	manifest *stackgen.Manifest
	ip       *ipResolver
	creds    model.DBCredentials
}

func (s *configStep) Name() string { return "configuration" }

func (s *configStep) render() (map[string][]byte, string, error) {
	ip, err := s.ip.resolve()
	if err != nil {
		return nil, "", err
	}
	files, err := stackgen.RenderAll(s.manifest, ip, s.creds)
	return files, ip, err
}

func (s *configStep) Check(ctx context.Context) (model.StepState, string, error) {
	files, ip, err := s.render()
	if err != nil {
		return model.StateUnknown, "", err
	}
	if stackgen.UpToDate(s.manifest.Repo.Dir, files) {
		return model.StateSatisfied, "generated files current for host " + ip, nil
	}
	return model.StateNeedsApply, "generated files stale or missing (host " + ip + ")", nil
}

func (s *configStep) Apply(ctx context.Context) (string, error) {
	files, ip, err := s.render()
	if err != nil {
		return "", err
	}
	if err := stackgen.WriteFiles(s.manifest.Repo.Dir, files); err != nil {
		return "", err
	}
	return "wrote Dockerfile, docker-compose.yml, .env for host " + ip, nil
}

// stackStep builds the images and starts all services. A rebuild is run
// on every provisioning pass; Compose's own caching makes repeats cheap.
type stackStep struct {
	r    runner.Runner
	dir  string
	ping func(ctx context.Context) error
}

func (s *stackStep) Name() string { return "stack" }

func (s *stackStep) Check(ctx context.Context) (model.StepState, string, error) {
	return model.StateUnknown, "stack is rebuilt and restarted every run", nil
}

func (s *stackStep) Apply(ctx context.Context) (string, error) {
	if err := s.ping(ctx); err != nil {
		return "", err
	}
	if _, err := s.r.RunWith(ctx, runner.Opts{Dir: s.dir},
		"docker-compose", "up", "-d", "--build"); err != nil {
		return "", err
	}
	return "stack built and started", nil
}

// bootHookStep registers the @reboot crontab entry exactly once.
type bootHookStep struct {
	reg  *cron.Registrar
	line string
}

func (s *bootHookStep) Name() string { return "boot-hook" }

func (s *bootHookStep) Check(ctx context.Context) (model.StepState, string, error) {
	registered, err := s.reg.Registered(ctx)
	if err != nil {
		return model.StateUnknown, "", err
	}
	if registered {
		return model.StateSatisfied, "boot hook already registered", nil
	}
	return model.StateNeedsApply, "boot hook missing from crontab", nil
}

func (s *bootHookStep) Apply(ctx context.Context) (string, error) {
	if err := s.reg.Register(ctx, s.line); err != nil {
		return "", err
	}
	return "boot hook registered", nil
}

// rebootStep schedules the final host reboot. It terminates the session
// when it fires, so it is always last and can be dropped with --no-reboot.
type rebootStep struct {
	services *sysd.Manager
	delay    int
}

func (s *rebootStep) Name() string { return "reboot" }

func (s *rebootStep) Check(ctx context.Context) (model.StepState, string, error) {
	return model.StateNeedsApply, fmt.Sprintf("host will reboot in %d minute(s)", s.delay), nil
}

func (s *rebootStep) Apply(ctx context.Context) (string, error) {
	if err := s.services.ScheduleReboot(ctx, s.delay); err != nil {
		return "", err
	}
	return fmt.Sprintf("reboot scheduled in %d minute(s)", s.delay), nil
}

// defaultDockerPing probes the daemon through a short-lived SDK client.
func defaultDockerPing(ctx context.Context) error {
	cli, err := dockerd.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()
	return cli.Ping(ctx)
}
