package tlsconfig

import (
    "crypto/tls"
    "crypto/x509"
    "errors"
    "fmt"
    "os"
)

var ErrNoCertificates = errors.New("tls: no PEM certificates found in CA file")

// Options defines TLS material given as file paths.
type Options struct {
    Enable             bool
    CAFile             string
    CertFile           string
    KeyFile            string
    InsecureSkipVerify bool
    ServerName         string
}

// Client returns a tls.Config for clients if enabled, otherwise nil.
func (o Options) Client() (*tls.Config, error) {
    if !o.Enable {
        return nil, nil
    }
    cfg := &tls.Config{InsecureSkipVerify: o.InsecureSkipVerify} //nolint:gosec
    if o.ServerName != "" { cfg.ServerName = o.ServerName }
    if o.CAFile != "" {
        pool, err := loadPool(o.CAFile)
        if err != nil { return nil, err }
        cfg.RootCAs = pool
    }
    if o.CertFile != "" && o.KeyFile != "" {
        cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
        if err != nil { return nil, fmt.Errorf("tls: load key pair: %w", err) }
        cfg.Certificates = []tls.Certificate{cert}
    }
    return cfg, nil
}

// Check verifies that the CA file holds at least one certificate and that
// the cert/key pair loads. Empty paths are skipped. It is used before
// handing the paths to an external tool, whose own errors are less precise.
func (o Options) Check() error {
    if o.CAFile != "" {
        if _, err := loadPool(o.CAFile); err != nil { return err }
    }
    if o.CertFile != "" || o.KeyFile != "" {
        if o.CertFile == "" || o.KeyFile == "" {
            return errors.New("tls: cert file and key file must be given together")
        }
        if _, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile); err != nil {
            return fmt.Errorf("tls: load key pair: %w", err)
        }
    }
    return nil
}

func loadPool(path string) (*x509.CertPool, error) {
    ca, err := os.ReadFile(path)
    if err != nil { return nil, fmt.Errorf("tls: read CA: %w", err) }
    pool := x509.NewCertPool()
    if !pool.AppendCertsFromPEM(ca) {
        return nil, fmt.Errorf("%w: %s", ErrNoCertificates, path)
    }
    return pool, nil
}
