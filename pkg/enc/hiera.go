package enc

import (
    "context"
    "errors"
    "net/http"
    "reflect"

    "gopkg.in/yaml.v3"
)

// PrefixResult is the outcome of EnsurePrefixHiera.
type PrefixResult struct {
    Changed bool   `json:"changed"`
    Prefix  string `json:"prefix"`
    Project string `json:"openstack_project"`
    // Result is the decoded API reply to the update, nil when nothing was sent.
    Result any `json:"result"`
}

// EnsurePrefixHiera makes the hiera of prefix equal to data (YAML). The
// current hiera is read first and the update is skipped when both decode to
// the same values. A prefix unknown to the API counts as empty. With check
// set nothing is written.
func (c *Client) EnsurePrefixHiera(ctx context.Context, prefix, data string, check bool) (PrefixResult, error) {
    res := PrefixResult{Prefix: prefix, Project: c.project}
    if err := ValidateHiera(data); err != nil {
        return res, err
    }
    var desired any
    _ = yaml.Unmarshal([]byte(data), &desired)
    desired = normalize(desired)

    var current any
    resp, err := c.GetPrefixHiera(ctx, prefix)
    var eerr *Error
    switch {
    case errors.As(err, &eerr) && eerr.StatusCode == http.StatusNotFound:
    case err != nil:
        return res, err
    default:
        decoded, err := resp.DecodeHiera()
        if err != nil {
            return res, err
        }
        if m, ok := decoded.(map[string]any); ok {
            current = m["hiera"]
        }
    }

    if sameHiera(current, desired) {
        c.logger.Debug("prefix hiera up to date", "prefix", prefix)
        return res, nil
    }
    res.Changed = true
    if check {
        return res, nil
    }
    resp, err = c.SetPrefixHiera(ctx, prefix, data)
    if err != nil {
        return res, err
    }
    if res.Result, err = resp.Decode(); err != nil {
        return res, err
    }
    c.logger.Info("prefix hiera updated", "prefix", prefix, "project", c.project)
    return res, nil
}

func sameHiera(a, b any) bool {
    if empty(a) && empty(b) {
        return true
    }
    return reflect.DeepEqual(a, b)
}

func empty(v any) bool {
    if v == nil {
        return true
    }
    m, ok := v.(map[string]any)
    return ok && len(m) == 0
}
