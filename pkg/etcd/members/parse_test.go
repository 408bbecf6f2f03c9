package members

import (
    "encoding/json"
    "errors"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const listOutput = `5208bbf5c00e7cdf[up]: name=etcd2 peerURLs=https://etcd2.example:2380 clientURLs=https://etcd2.example:2379 isLeader=false
a35238e603a2372c: name=etcd1 peerURLs=https://etcd1.example:2380 clientURLs=https://etcd1.example:2379 isLeader=true

f00dfeed12345678[unstarted]: peerURLs=https://etcd3.example:2380
`

func TestParseSimpleLine(t *testing.T) {
    snap, err := Parse("abc123: name=n1 peerURLs=https://h1:2380\n")
    require.NoError(t, err)
    require.Len(t, snap, 1)

    m := snap["abc123"]
    assert.Equal(t, "abc123", m.ID)
    assert.Equal(t, "up", m.Status)
    assert.Equal(t, "n1", m.Name)
    assert.Equal(t, "https://h1:2380", m.PeerURLs)
    assert.True(t, m.Joined())
}

func TestParseListOutput(t *testing.T) {
    snap, err := Parse(listOutput)
    require.NoError(t, err)
    require.Equal(t, []string{"5208bbf5c00e7cdf", "a35238e603a2372c", "f00dfeed12345678"}, snap.IDs())

    leader := snap["a35238e603a2372c"]
    assert.True(t, leader.IsLeader())
    assert.Equal(t, "https://etcd1.example:2379", leader.ClientURLs())

    follower := snap["5208bbf5c00e7cdf"]
    assert.Equal(t, "up", follower.Status)
    assert.False(t, follower.IsLeader())

    pending := snap["f00dfeed12345678"]
    assert.Equal(t, "unstarted", pending.Status)
    assert.False(t, pending.Joined())
    assert.Equal(t, "https://etcd3.example:2380", pending.PeerURLs)

    assert.Equal(t, map[string]int{"up": 2, "unstarted": 1}, snap.CountByStatus())
}

func TestParseMemberCountMatchesLines(t *testing.T) {
    lines := []string{
        "1: peerURLs=https://a:2380",
        "2[up]: peerURLs=https://b:2380 name=b",
        "3[unstarted]: peerURLs=https://c:2380",
        "\t4:\tpeerURLs=https://d:2380\r",
    }
    snap, err := Parse(strings.Join(lines, "\n"))
    require.NoError(t, err)
    require.Len(t, snap, len(lines))
    for id, m := range snap {
        assert.NotEmpty(t, m.PeerURLs, id)
    }
}

func TestParseEmptyOutput(t *testing.T) {
    snap, err := Parse("\n  \n")
    require.NoError(t, err)
    assert.Empty(t, snap)
}

func TestParseErrors(t *testing.T) {
    cases := []struct {
        name   string
        in     string
        reason string
    }{
        {"missing peer urls", "abc: name=n1", "missing peerURLs"},
        {"no colon", "abc name=n1 peerURLs=x", "expected ':' after member id"},
        {"missing id", ": peerURLs=x", "missing member id"},
        {"unterminated bracket", "abc[up: peerURLs=x", "unterminated status bracket"},
        {"empty status", "abc[]: peerURLs=x", "empty status"},
        {"bare token", "abc: peerURLs=x garbage", `expected key=value, got "garbage"`},
        {"empty key", "abc: =x peerURLs=x", `empty key in "=x"`},
        {"duplicate key", "abc: peerURLs=x peerURLs=y", `duplicate key "peerURLs"`},
        {"duplicate id", "abc: peerURLs=x\nabc: peerURLs=y", "duplicate member id abc"},
    }
    for _, c := range cases {
        t.Run(c.name, func(t *testing.T) {
            _, err := Parse(c.in)
            require.Error(t, err)
            var perr *ParseError
            require.True(t, errors.As(err, &perr))
            assert.Equal(t, c.reason, perr.Reason)
            assert.Equal(t, c.in, perr.Output)
            assert.Contains(t, err.Error(), "full output")
        })
    }
}

func TestParseErrorLineNumber(t *testing.T) {
    _, err := Parse("a: peerURLs=x\n\nb: name=b\n")
    var perr *ParseError
    require.ErrorAs(t, err, &perr)
    assert.Equal(t, 3, perr.Line)
    assert.Equal(t, "b: name=b", perr.Text)
}

func TestParseLine(t *testing.T) {
    m, err := ParseLine("x[learner]: peerURLs=https://x:2380 isLearner=true")
    require.NoError(t, err)
    assert.Equal(t, "learner", m.Status)
    b, ok := m.Attrs["isLearner"].Bool()
    assert.True(t, ok)
    assert.True(t, b)

    _, err = ParseLine("x:")
    require.Error(t, err)
}

func TestValueCoercion(t *testing.T) {
    cases := []struct {
        in   string
        kind Kind
        want any
    }{
        {"true", KindBool, true},
        {"false", KindBool, false},
        {"42", KindInt, int64(42)},
        {"-7", KindInt, int64(-7)},
        {"host.example", KindString, "host.example"},
        {"True", KindString, "True"},
        {"42abc", KindString, "42abc"},
        {"", KindString, ""},
    }
    for _, c := range cases {
        v := ParseValue(c.in)
        assert.Equal(t, c.kind, v.Kind(), c.in)
        assert.Equal(t, c.want, v.Interface(), c.in)
        assert.Equal(t, c.in, v.String(), c.in)
    }
}

func TestMemberJSON(t *testing.T) {
    m, err := ParseLine("5208bbf5c00e7cdf[up]: name=etcd2 peerURLs=https://h:2380 isLeader=false")
    require.NoError(t, err)
    b, err := json.Marshal(m)
    require.NoError(t, err)
    assert.JSONEq(t, `{
        "member_id": "5208bbf5c00e7cdf",
        "status": "up",
        "name": "etcd2",
        "peerURLs": "https://h:2380",
        "isLeader": false
    }`, string(b))
}
