package reconcile

import (
    "errors"
    "fmt"
    "net"
    "strconv"
    "strings"

    "github.com/wmcs/wmcsctl/pkg/etcd/members"
)

// DefaultPeerPort is used to derive a peer url from the member fqdn.
const DefaultPeerPort = 2380

// Ensure is the desired presence of a member.
type Ensure string

const (
    Present Ensure = "present"
    Absent  Ensure = "absent"
)

var (
    ErrNoFQDN        = errors.New("reconcile: member fqdn is required")
    ErrInvalidEnsure = errors.New("reconcile: ensure must be present or absent")
)

// Request is the desired state for one member.
type Request struct {
    FQDN    string `json:"member_fqdn"`
    PeerURL string `json:"member_peer_url"`
    Ensure  Ensure `json:"ensure"`
}

// DefaultPeerURL is https://<fqdn>:2380.
func DefaultPeerURL(fqdn string) string {
    return "https://" + net.JoinHostPort(fqdn, strconv.Itoa(DefaultPeerPort))
}

// Normalize validates the request and fills the defaults: ensure=present
// and the peer url derived from the fqdn.
func (r Request) Normalize() (Request, error) {
    r.FQDN = strings.TrimSpace(r.FQDN)
    r.PeerURL = strings.TrimSpace(r.PeerURL)
    if r.FQDN == "" {
        return r, ErrNoFQDN
    }
    switch r.Ensure {
    case "":
        r.Ensure = Present
    case Present, Absent:
    default:
        return r, fmt.Errorf("%w: got %q", ErrInvalidEnsure, r.Ensure)
    }
    if r.PeerURL == "" {
        r.PeerURL = DefaultPeerURL(r.FQDN)
    }
    return r, nil
}

// Action is the single etcdctl mutation a reconcile performs.
type Action string

const (
    ActionNone   Action = "none"
    ActionAdd    Action = "add"
    ActionUpdate Action = "update"
    ActionRemove Action = "remove"
)

// Plan is the decision for a request against one snapshot.
type Plan struct {
    Action Action `json:"action"`
    // MemberID is the matched member, empty when nothing matched.
    MemberID string `json:"member_id,omitempty"`
    // Args are the etcdctl subcommand arguments, nil for ActionNone.
    Args    []string `json:"args,omitempty"`
    Message string   `json:"message,omitempty"`
}

// Decide picks the action moving snap towards req. req must be normalized.
func Decide(req Request, snap members.Snapshot) Plan {
    current, found := snap.Find(req.FQDN, req.PeerURL)
    if req.Ensure == Absent {
        if !found {
            return Plan{Action: ActionNone, Message: "already absent"}
        }
        return Plan{
            Action:   ActionRemove,
            MemberID: current.ID,
            Args:     []string{"member", "remove", current.ID},
        }
    }
    switch {
    case found && current.PeerURLs == req.PeerURL:
        return Plan{Action: ActionNone, MemberID: current.ID, Message: "already present"}
    case found:
        return Plan{
            Action:   ActionUpdate,
            MemberID: current.ID,
            Args:     []string{"member", "update", current.ID, req.PeerURL},
        }
    default:
        return Plan{
            Action: ActionAdd,
            Args:   []string{"member", "add", req.FQDN, req.PeerURL},
        }
    }
}
