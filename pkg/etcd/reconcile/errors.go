package reconcile

import (
    "errors"
    "fmt"
)

var (
    // ErrMemberNotAdded: member add succeeded but no new id showed up.
    ErrMemberNotAdded = errors.New("reconcile: member add produced no new member")
    // ErrConcurrentMutation: more than one new id showed up, someone else
    // changed the cluster between the two snapshots.
    ErrConcurrentMutation = errors.New("reconcile: concurrent membership change detected")
)

// ConsistencyError is returned when the before/after snapshot diff used to
// discover a new member id does not yield exactly one candidate.
type ConsistencyError struct {
    FQDN       string
    PeerURL    string
    Before     []string
    After      []string
    Candidates []string
    Reason     error
}

func (e *ConsistencyError) Error() string {
    return fmt.Sprintf("%v: adding %s (%s) yielded new ids %v; before=%v after=%v",
        e.Reason, e.FQDN, e.PeerURL, e.Candidates, e.Before, e.After)
}

func (e *ConsistencyError) Unwrap() error { return e.Reason }
