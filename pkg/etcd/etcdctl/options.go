package etcdctl

import (
    "errors"
    "strings"
)

const (
    DefaultBinary = "etcdctl"
    DefaultCAFile = "/etc/etcd/ssl/ca.pem"
)

var (
    ErrNoEndpoints        = errors.New("etcdctl: no endpoints")
    ErrEndpointSpace      = errors.New("etcdctl: endpoints must not contain whitespace")
    ErrMissingCredentials =errors.New("etcdctl: cert file and key file are required")
)

// Options are the connection parameters shared by every etcdctl call.
// Endpoints is a comma-separated list of client urls of existing members.
type Options struct {
    Binary    string
    Endpoints string
    CAFile    string
    CertFile  string
    KeyFile   string
}

// WithDefaults fills the binary and CA file when unset.
func (o Options) WithDefaults() Options {
    if o.Binary == "" { o.Binary = DefaultBinary }
    if o.CAFile == "" { o.CAFile = DefaultCAFile }
    return o
}

func (o Options) Validate() error {
    if strings.TrimSpace(o.Endpoints) == "" {
        return ErrNoEndpoints
    }
    if strings.ContainsAny(o.Endpoints, " \t\r\n") {
        return ErrEndpointSpace
    }
    if o.CertFile == "" || o.KeyFile == "" {
        return ErrMissingCredentials
    }
    return nil
}

// Args builds the full argument vector. Flag order is fixed so that two
// calls with the same inputs produce identical vectors.
func (o Options) Args(sub ...string) []string {
    o = o.WithDefaults()
    argv := make([]string, 0, 9+len(sub))
    argv = append(argv,
        o.Binary,
        "--endpoints", o.Endpoints,
        "--ca-file", o.CAFile,
        "--cert-file", o.CertFile,
        "--key-file", o.KeyFile,
    )
    return append(argv, sub...)
}

// JoinEndpoints joins client urls into the endpoints form expected by
// etcdctl, dropping blanks and surrounding whitespace.
func JoinEndpoints(urls ...string) string {
    return strings.Join(ParseEndpoints(strings.Join(urls, ",")), ",")
}

// ParseEndpoints converts a comma-separated list into trimmed, non-empty urls.
func ParseEndpoints(csv string) []string {
    if csv == "" {
        return nil
    }
    parts := strings.Split(csv, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}
