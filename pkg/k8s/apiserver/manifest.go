// Package apiserver edits the kube-apiserver static pod manifest of a
// control plane node.
package apiserver

import (
    "bytes"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path/filepath"
    "sort"
    "strings"

    "github.com/hashicorp/go-hclog"
    "gopkg.in/yaml.v3"

    "github.com/wmcs/wmcsctl/pkg/observability/metrics"
)

const (
    DefaultManifestPath = "/etc/kubernetes/manifests/kube-apiserver.yaml"

    etcdServersFlag = "--etcd-servers="
)

var (
    ErrNoMembers         = errors.New("apiserver: at least one etcd member is required")
    ErrManifestNotFound  = errors.New("apiserver: manifest does not exist")
    ErrNoContainer       = errors.New("apiserver: manifest has no spec.containers[0].command")
    ErrNoEtcdServersFlag = errors.New("apiserver: manifest has no --etcd-servers argument")
)

// Result mirrors what the ansible module reported.
type Result struct {
    Changed    bool   `json:"changed"`
    OldMembers string `json:"old_members"`
    NewMembers string `json:"new_members"`
    Path       string `json:"path"`
}

// EtcdServersArg renders the apiserver flag for the given client urls,
// sorted so the value does not depend on input order.
func EtcdServersArg(members []string) string {
    sorted := append([]string(nil), members...)
    sort.Strings(sorted)
    return etcdServersFlag + strings.Join(sorted, ",")
}

// Editor rewrites the --etcd-servers flag of a manifest.
type Editor struct {
    Path string
    // Check reports what would change without writing.
    Check  bool
    Logger hclog.Logger
}

// SetEtcdServers points the apiserver at members. The apiserver container
// is expected to be the first one in the pod spec.
func (e Editor) SetEtcdServers(members []string) (res Result, err error) {
    defer func() {
        switch {
        case err != nil:
            metrics.ManifestUpdates.WithLabelValues("error").Inc()
        case res.Changed:
            metrics.ManifestUpdates.WithLabelValues("changed").Inc()
        default:
            metrics.ManifestUpdates.WithLabelValues("unchanged").Inc()
        }
    }()
    logger := e.Logger
    if logger == nil { logger = hclog.NewNullLogger() }
    path := e.Path
    if path == "" { path = DefaultManifestPath }
    res.Path = path

    if len(members) == 0 {
        return res, ErrNoMembers
    }
    res.NewMembers = EtcdServersArg(members)

    raw, err := os.ReadFile(path)
    if errors.Is(err, fs.ErrNotExist) {
        return res, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
    }
    if err != nil {
        return res, fmt.Errorf("apiserver: read manifest: %w", err)
    }
    var doc yaml.Node
    if err := yaml.Unmarshal(raw, &doc); err != nil {
        return res, fmt.Errorf("apiserver: parse %s: %w", path, err)
    }
    command := commandNode(&doc)
    if command == nil {
        return res, fmt.Errorf("%w: %s", ErrNoContainer, path)
    }

    var arg *yaml.Node
    for _, n := range command.Content {
        if n.Kind == yaml.ScalarNode && strings.HasPrefix(n.Value, etcdServersFlag) {
            arg = n
            break
        }
    }
    if arg == nil {
        return res, fmt.Errorf("%w: %s", ErrNoEtcdServersFlag, path)
    }
    res.OldMembers = arg.Value
    if arg.Value == res.NewMembers {
        logger.Debug("etcd servers already up to date", "path", path)
        return res, nil
    }
    res.Changed = true
    if e.Check {
        logger.Info("would update etcd servers", "path", path, "old", res.OldMembers, "new", res.NewMembers)
        return res, nil
    }

    arg.Value = res.NewMembers
    var buf bytes.Buffer
    enc := yaml.NewEncoder(&buf)
    enc.SetIndent(2)
    if err := enc.Encode(&doc); err != nil {
        return res, fmt.Errorf("apiserver: encode manifest: %w", err)
    }
    if err := enc.Close(); err != nil {
        return res, fmt.Errorf("apiserver: encode manifest: %w", err)
    }
    if err := writeFile(path, buf.Bytes()); err != nil {
        return res, err
    }
    logger.Info("updated etcd servers", "path", path, "old", res.OldMembers, "new", res.NewMembers)
    return res, nil
}

// commandNode returns spec.containers[0].command, or nil.
func commandNode(doc *yaml.Node) *yaml.Node {
    if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
        return nil
    }
    spec := lookup(doc.Content[0], "spec")
    containers := lookup(spec, "containers")
    if containers == nil || containers.Kind != yaml.SequenceNode || len(containers.Content) == 0 {
        return nil
    }
    command := lookup(containers.Content[0], "command")
    if command == nil || command.Kind != yaml.SequenceNode {
        return nil
    }
    return command
}

func lookup(m *yaml.Node, key string) *yaml.Node {
    if m == nil || m.Kind != yaml.MappingNode {
        return nil
    }
    for i := 0; i+1 < len(m.Content); i += 2 {
        if m.Content[i].Value == key {
            return m.Content[i+1]
        }
    }
    return nil
}

// writeFile replaces path via a temporary file in the same directory,
// keeping the original permissions. The temporary name is a dotfile, which
// the kubelet skips when scanning the manifest directory.
func writeFile(path string, data []byte) error {
    mode := fs.FileMode(0o600)
    if st, err := os.Stat(path); err == nil {
        mode = st.Mode().Perm()
    }
    tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
    if err != nil {
        return fmt.Errorf("apiserver: write manifest: %w", err)
    }
    defer os.Remove(tmp.Name())
    if _, err := tmp.Write(data); err != nil {
        tmp.Close()
        return fmt.Errorf("apiserver: write manifest: %w", err)
    }
    if err := tmp.Chmod(mode); err != nil {
        tmp.Close()
        return fmt.Errorf("apiserver: write manifest: %w", err)
    }
    if err := tmp.Close(); err != nil {
        return fmt.Errorf("apiserver: write manifest: %w", err)
    }
    if err := os.Rename(tmp.Name(), path); err != nil {
        return fmt.Errorf("apiserver: write manifest: %w", err)
    }
    return nil
}
