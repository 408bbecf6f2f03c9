// Package members models etcd cluster membership as reported by
// `etcdctl member list` and parses its line-oriented text output.
package members

import (
    "encoding/json"
    "sort"
)

const (
    // DefaultStatus is assumed when a member line carries no [status] bracket.
    DefaultStatus = "up"

    KeyName       = "name"
    KeyPeerURLs   = "peerURLs"
    KeyClientURLs = "clientURLs"
    KeyIsLeader   = "isLeader"
)

// Member is one row of cluster membership. Attrs holds every key=value pair
// of the line with typed values; PeerURLs and Name mirror the raw text of
// the corresponding keys. Name is empty until the member has joined.
type Member struct {
    ID       string
    Status   string
    PeerURLs string
    Name     string
    Attrs    map[string]Value
}

// Joined reports whether the member advertises a name, which etcd only
// does once the member has started and joined the cluster.
func (m Member) Joined() bool { return m.Name != "" }

func (m Member) ClientURLs() string { return m.Attrs[KeyClientURLs].String() }

func (m Member) IsLeader() bool {
    b, _ := m.Attrs[KeyIsLeader].Bool()
    return b
}

// MarshalJSON flattens the member the way the ansible modules reported it:
// member_id and status next to the attributes from the line.
func (m Member) MarshalJSON() ([]byte, error) {
    out := make(map[string]any, len(m.Attrs)+2)
    for k, v := range m.Attrs {
        out[k] = v
    }
    out["member_id"] = m.ID
    out["status"] = m.Status
    return json.Marshal(out)
}

// Snapshot maps member id to member at one instant. Ordering carries no
// meaning; use IDs for a stable iteration order.
type Snapshot map[string]Member

// IDs returns the member ids in lexical order.
func (s Snapshot) IDs() []string {
    ids := make([]string, 0, len(s))
    for id := range s {
        ids = append(ids, id)
    }
    sort.Strings(ids)
    return ids
}

// Find locates the member for fqdn/peerURL. A joined member matches on its
// name; a member that has not joined yet has no name and matches on its
// peer url instead. A name match wins over a peer url match, and ties are
// broken by id order.
func (s Snapshot) Find(fqdn, peerURL string) (Member, bool) {
    var (
        byPeer Member
        found  bool
    )
    for _, id := range s.IDs() {
        m := s[id]
        if m.Joined() {
            if m.Name == fqdn {
                return m, true
            }
            continue
        }
        if !found && m.PeerURLs == peerURL {
            byPeer, found = m, true
        }
    }
    return byPeer, found
}

// CountByStatus returns how many members report each status.
func (s Snapshot) CountByStatus() map[string]int {
    out := make(map[string]int)
    for _, m := range s {
        out[m.Status]++
    }
    return out
}

// NewIDs returns the ids present in after but not in before, sorted.
func NewIDs(before, after Snapshot) []string {
    var out []string
    for id := range after {
        if _, ok := before[id]; !ok {
            out = append(out, id)
        }
    }
    sort.Strings(out)
    return out
}
