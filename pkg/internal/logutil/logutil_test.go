package logutil

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
    var buf bytes.Buffer
    l := New(Options{Name: "wmcsctl", Level: "debug", JSON: true, Output: &buf})
    Named(l, "etcdctl").Debug("running", "rc", 0)

    var evt map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &evt))
    assert.Equal(t, "running", evt["@message"])
    assert.Equal(t, "wmcsctl.etcdctl", evt["@module"])
    assert.Equal(t, "debug", evt["@level"])
}

func TestNewLevelFallback(t *testing.T) {
    var buf bytes.Buffer
    l := New(Options{Level: "bogus", Output: &buf})
    l.Debug("hidden")
    l.Info("shown")
    assert.NotContains(t, buf.String(), "hidden")
    assert.Contains(t, buf.String(), "shown")
}

func TestJSONFromEnv(t *testing.T) {
    t.Setenv("WMCS_LOG_JSON", "")
    t.Setenv("WMCS_LOG_FORMAT", "")
    assert.False(t, JSONFromEnv())
    t.Setenv("WMCS_LOG_FORMAT", "JSON")
    assert.True(t, JSONFromEnv())
}

func TestNamedNil(t *testing.T) {
    assert.NotNil(t, Named(nil, "x"))
}
