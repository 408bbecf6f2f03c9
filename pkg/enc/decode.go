package enc

import (
    "fmt"

    "gopkg.in/yaml.v3"
)

// Decode parses the YAML body. Mappings come back as map[string]any so the
// result can be re-encoded as JSON; an empty body decodes to nil.
func (r Response) Decode() (any, error) {
    var out any
    if err := yaml.Unmarshal(r.Body, &out); err != nil {
        return nil, fmt.Errorf("enc: parse response from %s: %w\nresponse:\n%s", r.URL, err, r.Body)
    }
    return normalize(out), nil
}

func normalize(v any) any {
    switch t := v.(type) {
    case map[string]any:
        for k, e := range t {
            t[k] = normalize(e)
        }
        return t
    case map[any]any:
        m := make(map[string]any, len(t))
        for k, e := range t {
            m[fmt.Sprint(k)] = normalize(e)
        }
        return m
    case []any:
        for i, e := range t {
            t[i] = normalize(e)
        }
        return t
    default:
        return v
    }
}

// ValidateHiera checks that data is a YAML mapping (or empty) before it is
// sent to the API.
func ValidateHiera(data string) error {
    var out any
    if err := yaml.Unmarshal([]byte(data), &out); err != nil {
        return fmt.Errorf("enc: hiera data is not valid YAML: %w", err)
    }
    switch normalize(out).(type) {
    case nil, map[string]any:
        return nil
    default:
        return fmt.Errorf("enc: hiera data must be a YAML mapping, got %T", out)
    }
}

// DecodeHiera decodes a prefix hiera response. The API returns the hiera
// itself as a YAML string under the "hiera" key; that string is decoded in
// place.
func (r Response) DecodeHiera() (any, error) {
    data, err := r.Decode()
    if err != nil {
        return nil, err
    }
    m, ok := data.(map[string]any)
    if !ok {
        return data, nil
    }
    if s, ok := m["hiera"].(string); ok {
        var hiera any
        if err := yaml.Unmarshal([]byte(s), &hiera); err != nil {
            return nil, fmt.Errorf("enc: parse hiera from %s: %w\nresponse:\n%s", r.URL, err, r.Body)
        }
        m["hiera"] = normalize(hiera)
    }
    return m, nil
}
