package cli

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "os/signal"
    "syscall"

    "github.com/hashicorp/go-hclog"
    "github.com/spf13/cobra"
    "github.com/spf13/viper"

    "github.com/wmcs/wmcsctl/pkg/config"
    "github.com/wmcs/wmcsctl/pkg/discovery/dns"
    "github.com/wmcs/wmcsctl/pkg/etcd/etcdctl"
    "github.com/wmcs/wmcsctl/pkg/internal/logutil"
    "github.com/wmcs/wmcsctl/pkg/observability/metrics"
    "github.com/wmcs/wmcsctl/pkg/observability/tracing"
)

// Option customizes the commands built by AddAll.
type Option func(*app)

// WithRunner replaces the process runner used for etcdctl.
func WithRunner(r etcdctl.Runner) Option { return func(a *app) { a.runner = r } }

// WithResolver replaces the DNS resolver used by --discovery-srv.
func WithResolver(r dns.Resolver) Option { return func(a *app) { a.resolver = r } }

// WithOutput redirects command results and logs.
func WithOutput(stdout, stderr io.Writer) Option {
    return func(a *app) { a.stdout, a.stderr = stdout, stderr }
}

// app is the state shared by one command tree.
type app struct {
    v        *viper.Viper
    cfg      config.Config
    logger   hclog.Logger
    runner   etcdctl.Runner
    resolver dns.Resolver
    stdout   io.Writer
    stderr   io.Writer
    cleanup  []func()
}

// AddAll attaches the etcd, enc and apiserver command groups and the global
// flags to the provided root command.
func AddAll(root *cobra.Command, opts ...Option) {
    a := &app{v: config.New(), stdout: os.Stdout, stderr: os.Stderr}
    for _, o := range opts {
        o(a)
    }
    root.SetOut(a.stdout)
    root.SetErr(a.stderr)

    pf := root.PersistentFlags()
    pf.String("config", "", "path to a YAML config file (keys are the long flag names)")
    pf.String("log-level", "info", "log level: trace|debug|info|warn|error")
    pf.Bool("log-json", false, "log as JSON (also WMCS_LOG_JSON=1 or WMCS_LOG_FORMAT=json)")
    pf.Bool("trace", false, "print OpenTelemetry spans to stderr")
    pf.String("etcdctl", etcdctl.DefaultBinary, "etcdctl binary")
    pf.String("metrics-textfile", "", "write prometheus metrics to this file on exit (node exporter textfile format)")
    root.PersistentPreRunE = a.setup

    root.AddCommand(newEtcdCmd(a))
    root.AddCommand(newENCCmd(a))
    root.AddCommand(newAPIServerCmd(a))
}

// setup binds the flags of the executing command, resolves the
// configuration and starts logging and tracing.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
    if err := a.v.BindPFlags(cmd.Flags()); err != nil { return err }
    if err := a.v.BindPFlags(cmd.InheritedFlags()); err != nil { return err }
    if err := config.ReadFile(a.v, a.v.GetString("config")); err != nil {
        return fmt.Errorf("config: %w", err)
    }
    a.cfg = config.Load(a.v)
    a.logger = logutil.New(logutil.Options{
        Name:   "wmcsctl",
        Level:  a.cfg.LogLevel,
        JSON:   a.cfg.LogJSON,
        Output: a.stderr,
    })

    metrics.Register()
    shutdown, err := tracing.Setup(a.cfg.Trace, a.stderr)
    if err != nil {
        a.logger.Warn("tracing setup failed", "error", err)
    } else {
        a.cleanup = append(a.cleanup, func() { _ = shutdown(context.Background()) })
    }
    return nil
}

// run wraps a command body with signal handling and the exit-time work
// (span flush, metrics textfile) that must happen on success and failure.
func (a *app) run(fn func(ctx context.Context, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
    return func(cmd *cobra.Command, _ []string) error {
        ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
        defer stop()
        err := fn(ctx, cmd)
        a.finish()
        return err
    }
}

func (a *app) finish() {
    for i := len(a.cleanup) - 1; i >= 0; i-- {
        a.cleanup[i]()
    }
    a.cleanup = nil
    if path := a.cfg.MetricsTextfile; path != "" {
        if err := metrics.WriteTextfile(path); err != nil {
            a.logger.Error("writing metrics textfile", "path", path, "error", err)
        }
    }
}

func (a *app) emit(v any) error {
    return json.NewEncoder(a.stdout).Encode(v)
}
