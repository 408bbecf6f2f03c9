package enc

import (
    "context"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

type seen struct {
    method string
    path   string
    body   string
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]seen) {
    t.Helper()
    var reqs []seen
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        b, _ := io.ReadAll(r.Body)
        reqs = append(reqs, seen{method: r.Method, path: r.URL.EscapedPath(), body: string(b)})
        w.WriteHeader(status)
        _, _ = io.WriteString(w, reply)
    }))
    t.Cleanup(srv.Close)
    return srv, &reqs
}

func newClient(t *testing.T, base string) *Client {
    t.Helper()
    c, err := NewClient(base+"/v1/", "toolsbeta", time.Second, nil)
    require.NoError(t, err)
    return c
}

func TestPaths(t *testing.T) {
    srv, reqs := newServer(t, http.StatusOK, "a: 1\n")
    c := newClient(t, srv.URL)
    ctx := context.Background()

    _, err := c.GetPrefixHiera(ctx, "toolsbeta-proxy")
    require.NoError(t, err)
    _, err = c.GetProjectHiera(ctx)
    require.NoError(t, err)
    _, err = c.GetNodeConsolidatedInfo(ctx, "proxy-1.toolsbeta.eqiad1.wikimedia.cloud")
    require.NoError(t, err)
    _, err = c.GetNodeInfo(ctx, "proxy-1.toolsbeta.eqiad1.wikimedia.cloud")
    require.NoError(t, err)
    _, err = c.SetPrefixHiera(ctx, "toolsbeta-proxy", "http_proxy: ''\n")
    require.NoError(t, err)

    require.Equal(t, []seen{
        {http.MethodGet, "/v1/toolsbeta/prefix/toolsbeta-proxy/hiera", ""},
        {http.MethodGet, "/v1/toolsbeta/prefix/%20/hiera", ""},
        {http.MethodGet, "/v1/toolsbeta/node/proxy-1.toolsbeta.eqiad1.wikimedia.cloud", ""},
        {http.MethodGet, "/v1/toolsbeta/prefix/proxy-1.toolsbeta.eqiad1.wikimedia.cloud", ""},
        {http.MethodPost, "/v1/toolsbeta/prefix/toolsbeta-proxy/hiera", "http_proxy: ''\n"},
    }, *reqs)
}

func TestDecode(t *testing.T) {
    srv, _ := newServer(t, http.StatusOK, "roles:\n  - role::wmcs::proxy\nhiera:\n  authdns_servers:\n    208.80.154.11: 208.80.154.11\n  port: 8080\n  7: seven\n")
    resp, err := newClient(t, srv.URL).GetNodeConsolidatedInfo(context.Background(), "n")
    require.NoError(t, err)

    data, err := resp.Decode()
    require.NoError(t, err)
    m, ok := data.(map[string]any)
    require.True(t, ok)
    assert.Equal(t, []any{"role::wmcs::proxy"}, m["roles"])
    hiera := m["hiera"].(map[string]any)
    assert.Equal(t, 8080, hiera["port"])
    assert.Equal(t, "seven", hiera["7"])
    assert.Equal(t, map[string]any{"208.80.154.11": "208.80.154.11"}, hiera["authdns_servers"])
}

func TestDecodeError(t *testing.T) {
    _, err := Response{URL: "u", Body: []byte("a: [1\n")}.Decode()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "a: [1")
}

func TestNon2xx(t *testing.T) {
    srv, reqs := newServer(t, http.StatusNotFound, "no such prefix")
    _, err := newClient(t, srv.URL).GetPrefixHiera(context.Background(), "missing")
    var eerr *Error
    require.True(t, errors.As(err, &eerr))
    assert.Equal(t, http.StatusNotFound, eerr.StatusCode)
    assert.Equal(t, "no such prefix", eerr.Body)
    assert.Equal(t, "toolsbeta", eerr.Project)
    assert.Len(t, *reqs, 1, "4xx is not retried")
}

func TestRetryOn5xxForGetOnly(t *testing.T) {
    var hits atomic.Int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if hits.Add(1) < 3 {
            w.WriteHeader(http.StatusBadGateway)
            return
        }
        _, _ = io.WriteString(w, "ok: true\n")
    }))
    defer srv.Close()
    c := newClient(t, srv.URL)

    resp, err := c.GetPrefixHiera(context.Background(), "p")
    require.NoError(t, err)
    assert.Equal(t, int32(3), hits.Load())
    assert.Equal(t, "ok: true\n", string(resp.Body))

    hits.Store(0)
    _, err = c.SetPrefixHiera(context.Background(), "p", "a: 1\n")
    require.Error(t, err)
    assert.Equal(t, int32(1), hits.Load())
}

func TestNewClientValidation(t *testing.T) {
    _, err := NewClient("", "p", 0, nil)
    assert.ErrorIs(t, err, ErrNoBaseURL)
    _, err = NewClient("http://x", " ", 0, nil)
    assert.Error(t, err)
}

func TestValidateHiera(t *testing.T) {
    assert.NoError(t, ValidateHiera("a: 1\nb:\n  c: true\n"))
    assert.NoError(t, ValidateHiera(""))
    assert.Error(t, ValidateHiera("- a\n- b\n"))
    assert.Error(t, ValidateHiera("a: [1\n"))
}

func TestDecodeHiera(t *testing.T) {
    body := "hiera: |\n  http_proxy: ''\n  profile::toolforge::proxy: true\nprefix: toolsbeta-proxy\n"
    data, err := Response{URL: "u", Body: []byte(body)}.DecodeHiera()
    require.NoError(t, err)
    assert.Equal(t, map[string]any{
        "prefix": "toolsbeta-proxy",
        "hiera": map[string]any{
            "http_proxy":                "",
            "profile::toolforge::proxy": true,
        },
    }, data)

    _, err = Response{URL: "u", Body: []byte("hiera: \"a: [1\"\n")}.DecodeHiera()
    require.Error(t, err)
}
