package logutil

import (
    "io"
    "os"
    "strings"

    "github.com/hashicorp/go-hclog"
)

// DefaultTimeFormat for logger
const DefaultTimeFormat = "2006-01-02 15:04:05.000000"

// JSONFromEnv reports whether WMCS_LOG_JSON=1 or WMCS_LOG_FORMAT=json.
func JSONFromEnv() bool {
    return os.Getenv("WMCS_LOG_JSON") == "1" || strings.EqualFold(os.Getenv("WMCS_LOG_FORMAT"), "json")
}

// Options for New. Output defaults to stderr.
type Options struct {
    Name   string
    Level  string
    JSON   bool
    Output io.Writer
}

// New builds the root logger. Unknown levels fall back to info.
func New(o Options) hclog.Logger {
    if o.Output == nil { o.Output = os.Stderr }
    level := hclog.LevelFromString(o.Level)
    if level == hclog.NoLevel { level = hclog.Info }
    return hclog.New(&hclog.LoggerOptions{
        Name:       o.Name,
        Level:      level,
        Output:     o.Output,
        JSONFormat: o.JSON,
        TimeFormat: DefaultTimeFormat,
    })
}

// Named returns l.Named(name), or a null logger when l is nil.
func Named(l hclog.Logger, name string) hclog.Logger {
    if l == nil { return hclog.NewNullLogger() }
    return l.Named(name)
}
