// Package reconcile converges etcd cluster membership towards a desired
// state for one member, one etcdctl mutation at a time.
//
// etcdctl does not print the id it assigns on member add, so the id is
// recovered by diffing the membership before and after the add. This
// requires a single writer: callers must serialize membership changes to a
// cluster (for example with an external lock). When the diff is ambiguous
// the reconcile fails with a *ConsistencyError instead of guessing.
package reconcile

import (
    "context"
    "fmt"

    "github.com/hashicorp/go-hclog"
    "go.opentelemetry.io/otel/attribute"

    "github.com/wmcs/wmcsctl/pkg/etcd/etcdctl"
    "github.com/wmcs/wmcsctl/pkg/etcd/members"
    "github.com/wmcs/wmcsctl/pkg/observability/metrics"
    "github.com/wmcs/wmcsctl/pkg/observability/tracing"
)

// Invoker runs one etcdctl subcommand. *etcdctl.Client implements it.
type Invoker interface {
    Run(ctx context.Context, sub ...string) (etcdctl.Output, error)
}

var _ Invoker = (*etcdctl.Client)(nil)

// Result reports the outcome of Reconcile. Output is the mutating call, zero
// for no-ops.
type Result struct {
    Changed bool   `json:"changed"`
    Action  Action `json:"action"`
    // MemberID is the new or pre-existing id; empty after a removal or when
    // the member was already absent.
    MemberID string           `json:"new_member_id"`
    Members  members.Snapshot `json:"members"`
    Message  string           `json:"message,omitempty"`
    etcdctl.Output
}

type Reconciler struct {
    inv    Invoker
    logger hclog.Logger
}

// New returns a Reconciler driving inv. A nil logger discards output.
func New(inv Invoker, logger hclog.Logger) *Reconciler {
    if logger == nil { logger = hclog.NewNullLogger() }
    return &Reconciler{inv: inv, logger: logger}
}

// Members reads and parses the live membership.
func (r *Reconciler) Members(ctx context.Context) (members.Snapshot, etcdctl.Output, error) {
    out, err := r.inv.Run(ctx, "member", "list")
    if err != nil {
        return nil, out, err
    }
    if err := out.Err(); err != nil {
        return nil, out, err
    }
    snap, err := members.Parse(out.Stdout)
    if err != nil {
        r.logger.Error("unparseable member list", "error", err)
        return nil, out, err
    }
    metrics.ObserveMembers(snap.CountByStatus())
    return snap, out, nil
}

// Plan reads the membership and returns what Reconcile would do, without
// mutating anything.
func (r *Reconciler) Plan(ctx context.Context, req Request) (Plan, members.Snapshot, error) {
    req, err := req.Normalize()
    if err != nil {
        return Plan{}, nil, err
    }
    snap, _, err := r.Members(ctx)
    if err != nil {
        return Plan{}, nil, err
    }
    return Decide(req, snap), snap, nil
}

// Reconcile applies at most one mutation so that the member described by
// req is present with the requested peer url, or absent. A failure after
// the mutation is not rolled back; calling Reconcile again converges.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (res Result, err error) {
    req, err = req.Normalize()
    if err != nil {
        return Result{}, err
    }
    ctx, end := tracing.StartSpan(ctx, "etcd reconcile",
        attribute.String("member.fqdn", req.FQDN),
        attribute.String("member.peer_url", req.PeerURL),
        attribute.String("ensure", string(req.Ensure)))
    defer end()

    action := ActionNone
    defer func() {
        result := "ok"
        if err != nil {
            result = "error"
            tracing.RecordError(ctx, err)
        }
        metrics.ReconcileTotal.WithLabelValues(string(action), result).Inc()
    }()

    before, _, err := r.Members(ctx)
    if err != nil {
        return Result{}, err
    }
    plan := Decide(req, before)
    action = plan.Action
    log := r.logger.With("fqdn", req.FQDN, "peer_url", req.PeerURL, "ensure", req.Ensure)

    if plan.Action == ActionNone {
        log.Info("member already in desired state", "member_id", plan.MemberID)
        return Result{
            Action:   ActionNone,
            MemberID: plan.MemberID,
            Members:  before,
            Message:  plan.Message,
        }, nil
    }

    log.Info("changing membership", "action", plan.Action, "member_id", plan.MemberID)
    out, err := r.inv.Run(ctx, plan.Args...)
    if err != nil {
        return Result{}, fmt.Errorf("reconcile: member %s: %w", plan.Action, err)
    }
    if err := out.Err(); err != nil {
        return Result{}, err
    }

    after, _, err := r.Members(ctx)
    if err != nil {
        return Result{}, fmt.Errorf("reconcile: member %s applied, reading membership: %w", plan.Action, err)
    }

    res = Result{Changed: true, Action: plan.Action, Members: after, Output: out}
    switch plan.Action {
    case ActionAdd:
        id, err := discoverID(req, before, after)
        if err != nil {
            return Result{}, err
        }
        res.MemberID = id
    case ActionUpdate:
        res.MemberID = plan.MemberID
    case ActionRemove:
        if _, still := after[plan.MemberID]; still {
            log.Warn("removed member still listed", "member_id", plan.MemberID)
        }
    }
    log.Info("membership changed", "action", plan.Action, "member_id", res.MemberID, "members", len(after))
    return res, nil
}

func discoverID(req Request, before, after members.Snapshot) (string, error) {
    ids := members.NewIDs(before, after)
    if len(ids) == 1 {
        return ids[0], nil
    }
    cerr := &ConsistencyError{
        FQDN:       req.FQDN,
        PeerURL:    req.PeerURL,
        Before:     before.IDs(),
        After:      after.IDs(),
        Candidates: ids,
        Reason:     ErrMemberNotAdded,
    }
    if len(ids) > 1 {
        cerr.Reason = ErrConcurrentMutation
    }
    return "", cerr
}
