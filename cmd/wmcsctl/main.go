package main

import (
    "log"

    "github.com/spf13/cobra"

    wmcscli "github.com/wmcs/wmcsctl/pkg/cli"
)

func main() {
    if err := newRoot().Execute(); err != nil {
        log.SetFlags(0)
        log.Fatal(err)
    }
}

func newRoot() *cobra.Command {
    root := &cobra.Command{
        Use:           "wmcsctl",
        Short:         "Cloud VPS etcd, ENC and apiserver management",
        SilenceUsage:  true,
        SilenceErrors: true,
    }
    wmcscli.AddAll(root)
    return root
}
