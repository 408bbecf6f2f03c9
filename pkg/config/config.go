// Package config resolves wmcsctl settings from flags, WMCS_* environment
// variables and an optional YAML config file, in that order of precedence.
package config

import (
    "strings"
    "time"

    "github.com/spf13/viper"

    "github.com/wmcs/wmcsctl/pkg/etcd/etcdctl"
    "github.com/wmcs/wmcsctl/pkg/internal/logutil"
)

// EnvPrefix is prepended to every key, with dashes turned into underscores:
// cert-file is read from WMCS_CERT_FILE.
const EnvPrefix = "WMCS"

// Config is the resolved configuration of one wmcsctl run.
type Config struct {
    Etcd etcdctl.Options
    // DiscoverySRV is the SRV domain used to find endpoints when none are set.
    DiscoverySRV string
    // TLSPreflight validates the etcd TLS files before calling etcdctl.
    TLSPreflight bool

    ENC ENC

    LogLevel string
    LogJSON  bool

    Trace           bool
    MetricsTextfile string
}

// ENC settings for the Puppet ENC API.
type ENC struct {
    URL     string
    Project string
    Timeout time.Duration
    CAFile  string
}

// New returns a viper instance with env binding and defaults set.
func New() *viper.Viper {
    v := viper.New()
    v.SetEnvPrefix(EnvPrefix)
    v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
    v.AutomaticEnv()

    v.SetDefault("etcdctl", etcdctl.DefaultBinary)
    v.SetDefault("ca-file", etcdctl.DefaultCAFile)
    v.SetDefault("enc-timeout", 10*time.Second)
    v.SetDefault("log-level", "info")
    v.SetDefault("log-json", logutil.JSONFromEnv())
    return v
}

// ReadFile merges a YAML config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
    if path == "" {
        return nil
    }
    v.SetConfigFile(path)
    v.SetConfigType("yaml")
    return v.ReadInConfig()
}

// Load reads the resolved values out of v.
func Load(v *viper.Viper) Config {
    return Config{
        Etcd: etcdctl.Options{
            Binary:    v.GetString("etcdctl"),
            Endpoints: v.GetString("endpoints"),
            CAFile:    v.GetString("ca-file"),
            CertFile:  v.GetString("cert-file"),
            KeyFile:   v.GetString("key-file"),
        },
        DiscoverySRV: v.GetString("discovery-srv"),
        TLSPreflight: v.GetBool("tls-preflight"),
        ENC: ENC{
            URL:     v.GetString("enc-url"),
            Project: v.GetString("project"),
            Timeout: v.GetDuration("enc-timeout"),
            CAFile:  v.GetString("enc-ca-file"),
        },
        LogLevel:        v.GetString("log-level"),
        LogJSON:         v.GetBool("log-json"),
        Trace:           v.GetBool("trace"),
        MetricsTextfile: v.GetString("metrics-textfile"),
    }
}
