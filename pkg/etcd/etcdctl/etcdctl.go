// Package etcdctl runs the etcdctl binary against a cluster. It builds the
// argument vector and captures the process result; it never interprets the
// output.
package etcdctl

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "os/exec"
    "strings"
    "time"

    "github.com/hashicorp/go-hclog"
    "go.opentelemetry.io/otel/attribute"

    "github.com/wmcs/wmcsctl/pkg/observability/metrics"
    "github.com/wmcs/wmcsctl/pkg/observability/tracing"
)

// Output is the captured result of one etcdctl process.
type Output struct {
    Args     []string `json:"args"`
    ExitCode int      `json:"rc"`
    Stdout   string   `json:"stdout"`
    Stderr   string   `json:"stderr"`
}

// Err returns an *InvocationError when the process exited non-zero.
func (o Output) Err() error {
    if o.ExitCode == 0 {
        return nil
    }
    return &InvocationError{Output: o}
}

// InvocationError carries everything needed to reproduce a failed call.
type InvocationError struct {
    Output
}

func (e *InvocationError) Error() string {
    return fmt.Sprintf("etcdctl: %s exited with code %d\nstdout:\n%s\nstderr:\n%s",
        strings.Join(e.Args, " "), e.ExitCode, e.Stdout, e.Stderr)
}

// Runner executes an argument vector. A non-zero exit is reported in
// Output.ExitCode; the error is reserved for processes that could not run.
type Runner interface {
    Run(ctx context.Context, argv []string) (Output, error)
}

// ExecRunner runs argv as a child process and waits for it to exit.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv []string) (Output, error) {
    out := Output{Args: append([]string(nil), argv...)}
    if len(argv) == 0 {
        return out, errors.New("etcdctl: empty argument vector")
    }
    var stdout, stderr bytes.Buffer
    cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
    cmd.Stdout = &stdout
    cmd.Stderr = &stderr
    err := cmd.Run()
    out.Stdout = stdout.String()
    out.Stderr = stderr.String()
    var exitErr *exec.ExitError
    if errors.As(err, &exitErr) {
        out.ExitCode = exitErr.ExitCode()
        return out, nil
    }
    if err != nil {
        out.ExitCode = -1
        return out, fmt.Errorf("etcdctl: run %s: %w", argv[0], err)
    }
    return out, nil
}

// Client binds connection Options to a Runner.
type Client struct {
    opts   Options
    runner Runner
    logger hclog.Logger
}

// New constructs a Client. A nil runner means ExecRunner, a nil logger
// discards output.
func New(opts Options, runner Runner, logger hclog.Logger) *Client {
    if runner == nil { runner = ExecRunner{} }
    if logger == nil { logger = hclog.NewNullLogger() }
    return &Client{opts: opts.WithDefaults(), runner: runner, logger: logger}
}

func (c *Client) Options() Options { return c.opts }

// Run invokes etcdctl with the given subcommand arguments, e.g.
// Run(ctx, "member", "list").
func (c *Client) Run(ctx context.Context, sub ...string) (Output, error) {
    argv := c.opts.Args(sub...)
    label := subcommand(sub)
    ctx, end := tracing.StartSpan(ctx, "etcdctl "+label, attribute.StringSlice("etcdctl.args", sub))
    defer end()

    c.logger.Debug("running etcdctl", "args", argv)
    start := time.Now()
    out, err := c.runner.Run(ctx, argv)
    metrics.EtcdctlDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
    switch {
    case err != nil:
        metrics.EtcdctlInvocations.WithLabelValues(label, "error").Inc()
        c.logger.Error("etcdctl could not run", "args", argv, "error", err)
        return out, err
    case out.ExitCode != 0:
        metrics.EtcdctlInvocations.WithLabelValues(label, "failed").Inc()
        c.logger.Warn("etcdctl exited non-zero", "args", argv, "rc", out.ExitCode, "stderr", out.Stderr)
    default:
        metrics.EtcdctlInvocations.WithLabelValues(label, "ok").Inc()
        c.logger.Debug("etcdctl finished", "rc", out.ExitCode, "elapsed", time.Since(start))
    }
    return out, nil
}

// subcommand is the metric label for a call: the first two arguments
// ("member list", "member add", ...).
func subcommand(sub []string) string {
    if len(sub) > 2 {
        sub = sub[:2]
    }
    if len(sub) == 0 {
        return "none"
    }
    return strings.Join(sub, " ")
}
