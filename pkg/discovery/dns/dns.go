// Package dns finds etcd client endpoints from DNS SRV records, the same
// records etcd itself uses for --discovery-srv bootstrap.
package dns

import (
    "context"
    "errors"
    "fmt"
    "net"
    "sort"
    "strconv"
    "strings"

    "github.com/hashicorp/go-hclog"
)

const (
    // DefaultService is looked up as _etcd-client-ssl._tcp.<domain>.
    DefaultService = "etcd-client-ssl"
    DefaultScheme  = "https"
)

var ErrNoRecords = errors.New("dns: no SRV records")

// Resolver is the part of *net.Resolver used for lookups.
type Resolver interface {
    LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// Options configures SRV discovery.
type Options struct {
    // Domain is the SRV domain, e.g. "toolsbeta.eqiad1.wikimedia.cloud".
    Domain string

    // Service defaults to DefaultService.
    Service string

    // Scheme of the returned urls; defaults to https.
    Scheme string

    // Resolver optionally overrides net.DefaultResolver.
    Resolver Resolver

    Logger hclog.Logger
}

// Endpoints resolves the SRV records of o.Domain into client urls, sorted
// and without duplicates.
func Endpoints(ctx context.Context, o Options) ([]string, error) {
    domain := strings.TrimSuffix(strings.TrimSpace(o.Domain), ".")
    if domain == "" {
        return nil, errors.New("dns: srv domain is required")
    }
    if o.Service == "" { o.Service = DefaultService }
    if o.Scheme == "" { o.Scheme = DefaultScheme }
    if o.Logger == nil { o.Logger = hclog.NewNullLogger() }
    var res Resolver = net.DefaultResolver
    if o.Resolver != nil { res = o.Resolver }

    _, addrs, err := res.LookupSRV(ctx, o.Service, "tcp", domain)
    if err != nil {
        return nil, fmt.Errorf("dns: lookup _%s._tcp.%s: %w", o.Service, domain, err)
    }
    seen := make(map[string]struct{}, len(addrs))
    out := make([]string, 0, len(addrs))
    for _, a := range addrs {
        host := strings.TrimSuffix(a.Target, ".")
        if host == "" { continue }
        u := o.Scheme + "://" + net.JoinHostPort(host, strconv.Itoa(int(a.Port)))
        if _, ok := seen[u]; ok { continue }
        seen[u] = struct{}{}
        out = append(out, u)
    }
    if len(out) == 0 {
        return nil, fmt.Errorf("%w for _%s._tcp.%s", ErrNoRecords, o.Service, domain)
    }
    sort.Strings(out)
    o.Logger.Debug("discovered etcd endpoints", "domain", domain, "endpoints", out)
    return out, nil
}
