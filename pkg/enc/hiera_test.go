package enc

import (
    "context"
    "io"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// hieraServer stores one prefix's hiera and answers like the ENC API.
type hieraServer struct {
    hiera string
    found bool
    posts int
}

func (h *hieraServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        if !h.found {
            w.WriteHeader(http.StatusNotFound)
            return
        }
        _, _ = io.WriteString(w, "prefix: p\nhiera: "+quote(h.hiera)+"\n")
    case http.MethodPost:
        b, _ := io.ReadAll(r.Body)
        h.hiera, h.found = string(b), true
        h.posts++
        _, _ = io.WriteString(w, "status: ok\n")
    }
}

func quote(s string) string {
    out := "\""
    for _, c := range s {
        switch c {
        case '\n':
            out += `\n`
        case '"':
            out += `\"`
        default:
            out += string(c)
        }
    }
    return out + "\""
}

func TestEnsurePrefixHiera(t *testing.T) {
    hs := &hieraServer{}
    srv := httptest.NewServer(hs)
    defer srv.Close()
    c := newClient(t, srv.URL)
    ctx := context.Background()

    res, err := c.EnsurePrefixHiera(ctx, "p", "a: 1\nb: x\n", true)
    require.NoError(t, err)
    assert.True(t, res.Changed)
    assert.Zero(t, hs.posts, "check mode must not write")

    res, err = c.EnsurePrefixHiera(ctx, "p", "a: 1\nb: x\n", false)
    require.NoError(t, err)
    assert.True(t, res.Changed)
    assert.Equal(t, map[string]any{"status": "ok"}, res.Result)
    assert.Equal(t, 1, hs.posts)

    // same values, different formatting
    res, err = c.EnsurePrefixHiera(ctx, "p", "b: x\na: 1\n", false)
    require.NoError(t, err)
    assert.False(t, res.Changed)
    assert.Equal(t, 1, hs.posts)
    assert.Equal(t, "toolsbeta", res.Project)
}

func TestEnsurePrefixHieraEmptyOnMissingPrefix(t *testing.T) {
    hs := &hieraServer{}
    srv := httptest.NewServer(hs)
    defer srv.Close()

    res, err := newClient(t, srv.URL).EnsurePrefixHiera(context.Background(), "p", "{}\n", false)
    require.NoError(t, err)
    assert.False(t, res.Changed)
    assert.Zero(t, hs.posts)
}

func TestEnsurePrefixHieraRejectsNonMapping(t *testing.T) {
    _, err := newClient(t, "http://127.0.0.1:1").EnsurePrefixHiera(context.Background(), "p", "- a\n", false)
    require.Error(t, err)
}
