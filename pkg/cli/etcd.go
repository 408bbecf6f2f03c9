package cli

import (
    "context"

    "github.com/spf13/cobra"

    "github.com/wmcs/wmcsctl/pkg/discovery/dns"
    "github.com/wmcs/wmcsctl/pkg/etcd/etcdctl"
    "github.com/wmcs/wmcsctl/pkg/etcd/members"
    "github.com/wmcs/wmcsctl/pkg/etcd/reconcile"
    "github.com/wmcs/wmcsctl/pkg/internal/logutil"
    "github.com/wmcs/wmcsctl/pkg/security/tlsconfig"
)

func newEtcdCmd(a *app) *cobra.Command {
    cmd := &cobra.Command{Use: "etcd", Short: "etcd cluster membership"}
    pf := cmd.PersistentFlags()
    pf.String("endpoints", "", "comma separated client urls of reachable members")
    pf.String("ca-file", etcdctl.DefaultCAFile, "CA certificate for the etcd endpoints")
    pf.String("cert-file", "", "client certificate")
    pf.String("key-file", "", "client private key")
    pf.String("discovery-srv", "", "find endpoints from _etcd-client-ssl._tcp SRV records of this domain")
    pf.Bool("tls-preflight", false, "validate the TLS files before running etcdctl")

    cmd.AddCommand(newClusterInfoCmd(a))
    cmd.AddCommand(newMemberCmd(a))
    return cmd
}

// reconciler builds the etcdctl client from the resolved configuration.
func (a *app) reconciler(ctx context.Context) (*reconcile.Reconciler, error) {
    opts := a.cfg.Etcd.WithDefaults()
    if opts.Endpoints == "" && a.cfg.DiscoverySRV != "" {
        urls, err := dns.Endpoints(ctx, dns.Options{
            Domain:   a.cfg.DiscoverySRV,
            Resolver: a.resolver,
            Logger:   logutil.Named(a.logger, "discovery"),
        })
        if err != nil {
            return nil, err
        }
        opts.Endpoints = etcdctl.JoinEndpoints(urls...)
    }
    if err := opts.Validate(); err != nil {
        return nil, err
    }
    if a.cfg.TLSPreflight {
        t := tlsconfig.Options{Enable: true, CAFile: opts.CAFile, CertFile: opts.CertFile, KeyFile: opts.KeyFile}
        if err := t.Check(); err != nil {
            return nil, err
        }
    }
    runner := a.runner
    if runner == nil { runner = etcdctl.ExecRunner{} }
    client := etcdctl.New(opts, runner, logutil.Named(a.logger, "etcdctl"))
    return reconcile.New(client, logutil.Named(a.logger, "reconcile")), nil
}

type clusterInfo struct {
    Changed bool             `json:"changed"`
    Members members.Snapshot `json:"members"`
}

func newClusterInfoCmd(a *app) *cobra.Command {
    return &cobra.Command{
        Use:   "cluster-info",
        Short: "List and parse the current membership",
        RunE: a.run(func(ctx context.Context, _ *cobra.Command) error {
            r, err := a.reconciler(ctx)
            if err != nil { return err }
            snap, _, err := r.Members(ctx)
            if err != nil { return err }
            return a.emit(clusterInfo{Members: snap})
        }),
    }
}

// checkResult is printed by "etcd member --check".
type checkResult struct {
    Changed  bool             `json:"changed"`
    Action   reconcile.Action `json:"action"`
    MemberID string           `json:"new_member_id"`
    Members  members.Snapshot `json:"members"`
    Message  string           `json:"message,omitempty"`
    Args     []string         `json:"args,omitempty"`
}

func newMemberCmd(a *app) *cobra.Command {
    var (
        req   reconcile.Request
        check bool
    )
    cmd := &cobra.Command{
        Use:   "member",
        Short: "Ensure a member is present with a peer url, or absent",
        RunE: a.run(func(ctx context.Context, cmd *cobra.Command) error {
            r, err := a.reconciler(ctx)
            if err != nil { return err }
            if check {
                plan, snap, err := r.Plan(ctx, req)
                if err != nil { return err }
                return a.emit(checkResult{
                    Changed:  plan.Action != reconcile.ActionNone,
                    Action:   plan.Action,
                    MemberID: plan.MemberID,
                    Members:  snap,
                    Message:  plan.Message,
                    Args:     plan.Args,
                })
            }
            res, err := r.Reconcile(ctx, req)
            if err != nil { return err }
            return a.emit(res)
        }),
    }
    f := cmd.Flags()
    f.StringVar(&req.FQDN, "member-fqdn", "", "member name, the fqdn of its host (required)")
    f.StringVar(&req.PeerURL, "member-peer-url", "", "peer url (default https://<fqdn>:2380)")
    f.StringVar((*string)(&req.Ensure), "ensure", string(reconcile.Present), "present or absent")
    f.BoolVar(&check, "check", false, "report what would change without mutating")
    _ = cmd.MarkFlagRequired("member-fqdn")
    return cmd
}
