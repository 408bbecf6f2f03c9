package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    EtcdctlInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "wmcs",
        Subsystem: "etcdctl",
        Name:      "invocations_total",
        Help:      "Total etcdctl invocations by subcommand and result (ok|failed|error)",
    }, []string{"subcommand", "result"})

    EtcdctlDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
        Namespace: "wmcs",
        Subsystem: "etcdctl",
        Name:      "invocation_duration_seconds",
        Help:      "Wall time of etcdctl invocations",
        Buckets:   prometheus.DefBuckets,
    }, []string{"subcommand"})

    ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "wmcs",
        Subsystem: "etcd",
        Name:      "reconcile_total",
        Help:      "Total member reconciliations by action (none|add|update|remove) and result",
    }, []string{"action", "result"})

    ClusterMembers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
        Namespace: "wmcs",
        Subsystem: "etcd",
        Name:      "members",
        Help:      "Members seen in the last membership snapshot, by status",
    }, []string{"status"})

    ENCRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "wmcs",
        Subsystem: "enc",
        Name:      "requests_total",
        Help:      "Total ENC API requests by operation and HTTP status code",
    }, []string{"op", "code"})

    ManifestUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "wmcs",
        Subsystem: "apiserver",
        Name:      "manifest_updates_total",
        Help:      "Apiserver manifest etcd-servers rewrites by result (changed|unchanged|error)",
    }, []string{"result"})
)

// Register registers metrics into the default Prometheus registry (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(EtcdctlInvocations)
        prometheus.MustRegister(EtcdctlDuration)
        prometheus.MustRegister(ReconcileTotal)
        prometheus.MustRegister(ClusterMembers)
        prometheus.MustRegister(ENCRequests)
        prometheus.MustRegister(ManifestUpdates)
    })
}

// ObserveMembers replaces the member gauge with the given per-status counts.
func ObserveMembers(byStatus map[string]int) {
    ClusterMembers.Reset()
    for status, n := range byStatus {
        ClusterMembers.WithLabelValues(status).Set(float64(n))
    }
}

// WriteTextfile dumps the default registry in the text format read by the
// node exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
    Register()
    return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
