package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/spf13/pflag"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/wmcs/wmcsctl/pkg/etcd/etcdctl"
)

func TestDefaults(t *testing.T) {
    cfg := Load(New())
    assert.Equal(t, etcdctl.DefaultBinary, cfg.Etcd.Binary)
    assert.Equal(t, etcdctl.DefaultCAFile, cfg.Etcd.CAFile)
    assert.Equal(t, 10*time.Second, cfg.ENC.Timeout)
    assert.Equal(t, "info", cfg.LogLevel)
}

func TestPrecedence(t *testing.T) {
    path := filepath.Join(t.TempDir(), "wmcsctl.yaml")
    require.NoError(t, os.WriteFile(path, []byte(
        "endpoints: https://file:2379\ncert-file: /file.pem\nkey-file: /file.key\nenc-url: http://enc.file/v1\n"), 0o644))
    t.Setenv("WMCS_CERT_FILE", "/env.pem")

    v := New()
    fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
    fs.String("endpoints", "", "")
    require.NoError(t, fs.Parse([]string{"--endpoints=https://flag:2379"}))
    require.NoError(t, v.BindPFlags(fs))
    require.NoError(t, ReadFile(v, path))

    cfg := Load(v)
    assert.Equal(t, "https://flag:2379", cfg.Etcd.Endpoints)
    assert.Equal(t, "/env.pem", cfg.Etcd.CertFile)
    assert.Equal(t, "/file.key", cfg.Etcd.KeyFile)
    assert.Equal(t, "http://enc.file/v1", cfg.ENC.URL)
}

func TestReadFileMissing(t *testing.T) {
    require.NoError(t, ReadFile(New(), ""))
    assert.Error(t, ReadFile(New(), filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLogJSONFromEnv(t *testing.T) {
    t.Setenv("WMCS_LOG_FORMAT", "json")
    assert.True(t, Load(New()).LogJSON)
}
