package cli

import (
    "context"
    "errors"
    "fmt"
    "io"
    "os"
    "time"

    "github.com/spf13/cobra"

    "github.com/wmcs/wmcsctl/pkg/enc"
    "github.com/wmcs/wmcsctl/pkg/internal/logutil"
    "github.com/wmcs/wmcsctl/pkg/security/tlsconfig"
)

func newENCCmd(a *app) *cobra.Command {
    cmd := &cobra.Command{Use: "enc", Short: "Puppet ENC API hiera"}
    pf := cmd.PersistentFlags()
    pf.String("enc-url", "", "ENC API base url, e.g. https://puppet-enc.cloudinfra.wmcloud.org/v1")
    pf.String("project", "", "openstack project")
    pf.Duration("enc-timeout", 10*time.Second, "per request timeout")
    pf.String("enc-ca-file", "", "CA certificate for the ENC API")

    cmd.AddCommand(newProjectInfoCmd(a))
    cmd.AddCommand(newPrefixInfoCmd(a))
    cmd.AddCommand(newPrefixSetCmd(a))
    cmd.AddCommand(newNodeInfoCmd(a))
    return cmd
}

func (a *app) encClient() (*enc.Client, error) {
    c, err := enc.NewClient(a.cfg.ENC.URL, a.cfg.ENC.Project, a.cfg.ENC.Timeout, logutil.Named(a.logger, "enc"))
    if err != nil {
        return nil, err
    }
    if a.cfg.ENC.CAFile != "" {
        t, err := tlsconfig.Options{Enable: true, CAFile: a.cfg.ENC.CAFile}.Client()
        if err != nil {
            return nil, err
        }
        c.UseTLS(t)
    }
    return c, nil
}

// encInfo is the read-only result of the enc info commands.
type encInfo struct {
    Changed bool   `json:"changed"`
    Data    any    `json:"enc_data"`
    Project string `json:"openstack_project"`
    Prefix  string `json:"prefix,omitempty"`
    FQDN    string `json:"fqdn,omitempty"`
}

func newProjectInfoCmd(a *app) *cobra.Command {
    return &cobra.Command{
        Use:   "project-info",
        Short: "Show the project-wide hiera",
        RunE: a.run(func(ctx context.Context, _ *cobra.Command) error {
            c, err := a.encClient()
            if err != nil { return err }
            resp, err := c.GetProjectHiera(ctx)
            if err != nil { return err }
            data, err := resp.DecodeHiera()
            if err != nil { return err }
            return a.emit(encInfo{Data: data, Project: c.Project()})
        }),
    }
}

func newPrefixInfoCmd(a *app) *cobra.Command {
    var prefix string
    cmd := &cobra.Command{
        Use:   "prefix-info",
        Short: "Show the hiera of a hostname prefix",
        RunE: a.run(func(ctx context.Context, _ *cobra.Command) error {
            c, err := a.encClient()
            if err != nil { return err }
            resp, err := c.GetPrefixHiera(ctx, prefix)
            if err != nil { return err }
            data, err := resp.DecodeHiera()
            if err != nil { return err }
            return a.emit(encInfo{Data: data, Project: c.Project(), Prefix: prefix})
        }),
    }
    cmd.Flags().StringVar(&prefix, "prefix", "", "hostname prefix (required)")
    _ = cmd.MarkFlagRequired("prefix")
    return cmd
}

func newPrefixSetCmd(a *app) *cobra.Command {
    var prefix, data, dataFile string
    var check bool
    cmd := &cobra.Command{
        Use:   "prefix-set",
        Short: "Set the hiera of a hostname prefix",
        RunE: a.run(func(ctx context.Context, cmd *cobra.Command) error {
            body, err := hieraData(data, dataFile, cmd.InOrStdin())
            if err != nil { return err }
            c, err := a.encClient()
            if err != nil { return err }
            res, err := c.EnsurePrefixHiera(ctx, prefix, body, check)
            if err != nil { return err }
            return a.emit(res)
        }),
    }
    f := cmd.Flags()
    f.StringVar(&prefix, "prefix", "", "hostname prefix (required)")
    f.StringVar(&data, "data", "", "hiera as a YAML mapping")
    f.StringVar(&dataFile, "data-file", "", "read the hiera from a file, - for stdin")
    f.BoolVar(&check, "check", false, "report whether the hiera would change without writing it")
    _ = cmd.MarkFlagRequired("prefix")
    cmd.MarkFlagsMutuallyExclusive("data", "data-file")
    return cmd
}

func hieraData(data, file string, stdin io.Reader) (string, error) {
    switch file {
    case "":
        if data == "" {
            return "", errors.New("one of --data or --data-file is required")
        }
        return data, nil
    case "-":
        b, err := io.ReadAll(stdin)
        return string(b), err
    default:
        b, err := os.ReadFile(file)
        if err != nil {
            return "", fmt.Errorf("reading hiera data: %w", err)
        }
        return string(b), nil
    }
}

func newNodeInfoCmd(a *app) *cobra.Command {
    var fqdn string
    var own bool
    cmd := &cobra.Command{
        Use:   "node-info",
        Short: "Show the configuration puppet gets for a node",
        RunE: a.run(func(ctx context.Context, _ *cobra.Command) error {
            c, err := a.encClient()
            if err != nil { return err }
            var resp enc.Response
            if own {
                resp, err = c.GetNodeInfo(ctx, fqdn)
            } else {
                resp, err = c.GetNodeConsolidatedInfo(ctx, fqdn)
            }
            if err != nil { return err }
            data, err := resp.DecodeHiera()
            if err != nil { return err }
            return a.emit(encInfo{Data: data, Project: c.Project(), FQDN: fqdn})
        }),
    }
    f := cmd.Flags()
    f.StringVar(&fqdn, "fqdn", "", "node fqdn (required)")
    f.BoolVar(&own, "own-only", false, "only the node's own hiera, not merged with project and prefix")
    _ = cmd.MarkFlagRequired("fqdn")
    return cmd
}
