// Package enc is a client for the Puppet ENC (external node classifier)
// API of Cloud VPS, which stores hiera per project, per hostname prefix and
// per node.
package enc

import (
    "context"
    "crypto/tls"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/hashicorp/go-hclog"
    "go.opentelemetry.io/otel/attribute"

    "github.com/wmcs/wmcsctl/pkg/observability/metrics"
    "github.com/wmcs/wmcsctl/pkg/observability/tracing"
)

// projectPrefix is the prefix the API maps to project-wide hiera.
const projectPrefix = " "

var ErrNoBaseURL = errors.New("enc: base url is required")

// Error is returned for non-2xx responses.
type Error struct {
    Op         string
    URL        string
    Project    string
    StatusCode int
    Body       string
}

func (e *Error) Error() string {
    return fmt.Sprintf("enc: %s %s (project %q): status %d: %s", e.Op, e.URL, e.Project, e.StatusCode, e.Body)
}

// Response is a successful API response. Body is YAML.
type Response struct {
    URL        string
    StatusCode int
    Body       []byte
}

// Client is a thin HTTP client for one project of the ENC API. Idempotent
// GETs are retried with backoff; POSTs are sent once.
type Client struct {
    baseURL   string
    project   string
    httpc     *http.Client
    transport *http.Transport
    logger    hclog.Logger
    attempts  int
}

// NewClient constructs a new Client with the given timeout.
func NewClient(baseURL, project string, timeout time.Duration, logger hclog.Logger) (*Client, error) {
    if strings.TrimSpace(baseURL) == "" { return nil, ErrNoBaseURL }
    if strings.TrimSpace(project) == "" { return nil, errors.New("enc: project is required") }
    if timeout <= 0 { timeout = 10 * time.Second }
    if logger == nil { logger = hclog.NewNullLogger() }
    tr := &http.Transport{Proxy: http.ProxyFromEnvironment}
    return &Client{
        baseURL:   strings.TrimRight(baseURL, "/"),
        project:   project,
        httpc:     &http.Client{Timeout: timeout, Transport: tr},
        transport: tr,
        logger:    logger,
        attempts:  3,
    }, nil
}

// UseTLS sets the TLS config for the underlying HTTP client.
func (c *Client) UseTLS(cfg *tls.Config) *Client {
    if c.transport != nil { c.transport.TLSClientConfig = cfg }
    return c
}

func (c *Client) Project() string { return c.project }

// GetProjectHiera returns the project-wide hiera.
func (c *Client) GetProjectHiera(ctx context.Context) (Response, error) {
    return c.GetPrefixHiera(ctx, projectPrefix)
}

// GetPrefixHiera returns the hiera set for a hostname prefix.
func (c *Client) GetPrefixHiera(ctx context.Context, prefix string) (Response, error) {
    return c.do(ctx, "get prefix hiera", http.MethodGet, c.url("prefix", prefix, "hiera"), "")
}

// SetPrefixHiera replaces the hiera of a prefix with data (a YAML document).
func (c *Client) SetPrefixHiera(ctx context.Context, prefix, data string) (Response, error) {
    return c.do(ctx, "set prefix hiera", http.MethodPost, c.url("prefix", prefix, "hiera"), data)
}

// GetNodeConsolidatedInfo returns the merged project + prefix + node
// configuration for fqdn, as puppet consumes it.
func (c *Client) GetNodeConsolidatedInfo(ctx context.Context, fqdn string) (Response, error) {
    return c.do(ctx, "get node info", http.MethodGet, c.url("node", fqdn), "")
}

// GetNodeInfo returns only the node's own hiera. The API stores it under a
// prefix equal to the fqdn.
func (c *Client) GetNodeInfo(ctx context.Context, fqdn string) (Response, error) {
    return c.do(ctx, "get node hiera", http.MethodGet, c.url("prefix", fqdn), "")
}

func (c *Client) url(segments ...string) string {
    var b strings.Builder
    b.WriteString(c.baseURL)
    b.WriteByte('/')
    b.WriteString(url.PathEscape(c.project))
    for i, s := range segments {
        b.WriteByte('/')
        // odd positions are caller supplied values, the rest are fixed
        if i%2 == 1 {
            s = url.PathEscape(s)
        }
        b.WriteString(s)
    }
    return b.String()
}

func (c *Client) do(ctx context.Context, op, method, target, body string) (Response, error) {
    ctx, end := tracing.StartSpan(ctx, "enc "+op,
        attribute.String("http.method", method),
        attribute.String("http.url", target))
    defer end()

    attempts := 1
    if method == http.MethodGet { attempts = c.attempts }
    var lastErr error
    for attempt := 0; attempt < attempts; attempt++ {
        resp, retry, err := c.once(ctx, op, method, target, body)
        if err == nil {
            return resp, nil
        }
        lastErr = err
        if !retry || attempt == attempts-1 {
            break
        }
        c.logger.Warn("enc request failed, retrying", "op", op, "url", target, "attempt", attempt+1, "error", err)
        // backoff unless context is done
        select {
        case <-ctx.Done():
            return Response{}, ctx.Err()
        case <-time.After(time.Duration(100*(1<<attempt)) * time.Millisecond):
        }
    }
    tracing.RecordError(ctx, lastErr)
    return Response{}, lastErr
}

// once performs a single request; retry reports whether the failure is
// transient (transport error or 5xx).
func (c *Client) once(ctx context.Context, op, method, target, body string) (Response, bool, error) {
    var rd io.Reader
    if body != "" { rd = strings.NewReader(body) }
    req, err := http.NewRequestWithContext(ctx, method, target, rd)
    if err != nil { return Response{}, false, err }

    resp, err := c.httpc.Do(req)
    if err != nil {
        metrics.ENCRequests.WithLabelValues(op, "error").Inc()
        return Response{}, ctx.Err() == nil, fmt.Errorf("enc: %s %s: %w", op, target, err)
    }
    defer resp.Body.Close()
    b, err := io.ReadAll(resp.Body)
    metrics.ENCRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
    if err != nil {
        return Response{}, true, fmt.Errorf("enc: %s %s: read body: %w", op, target, err)
    }
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return Response{}, resp.StatusCode >= 500, &Error{
            Op:         op,
            URL:        target,
            Project:    c.project,
            StatusCode: resp.StatusCode,
            Body:       string(b),
        }
    }
    c.logger.Debug("enc request done", "op", op, "url", target, "status", resp.StatusCode)
    return Response{URL: target, StatusCode: resp.StatusCode, Body: b}, false, nil
}
