package cli

import (
    "context"

    "github.com/spf13/cobra"

    "github.com/wmcs/wmcsctl/pkg/internal/logutil"
    "github.com/wmcs/wmcsctl/pkg/k8s/apiserver"
)

func newAPIServerCmd(a *app) *cobra.Command {
    cmd := &cobra.Command{Use: "apiserver", Short: "kube-apiserver static pod manifest"}
    cmd.AddCommand(newEtcdServersCmd(a))
    return cmd
}

func newEtcdServersCmd(a *app) *cobra.Command {
    var (
        servers []string
        e       apiserver.Editor
    )
    cmd := &cobra.Command{
        Use:   "etcd-servers",
        Short: "Point the apiserver at a set of etcd client urls",
        RunE: a.run(func(_ context.Context, _ *cobra.Command) error {
            e.Logger = logutil.Named(a.logger, "apiserver")
            res, err := e.SetEtcdServers(servers)
            if err != nil { return err }
            return a.emit(res)
        }),
    }
    f := cmd.Flags()
    f.StringSliceVar(&servers, "etcd-member", nil, "etcd client url, repeatable or comma separated (required)")
    f.StringVar(&e.Path, "manifest", apiserver.DefaultManifestPath, "manifest path")
    f.BoolVar(&e.Check, "check", false, "report whether the manifest would change without writing it")
    _ = cmd.MarkFlagRequired("etcd-member")
    return cmd
}
