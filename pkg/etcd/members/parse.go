package members

import (
    "fmt"
    "strings"
)

// ParseError reports a member line that does not follow the
// `<id>[<status>]: key=value ...` grammar or lacks peerURLs.
type ParseError struct {
    // Line is 1-based within Output.
    Line   int
    Text   string
    Reason string
    // Output is the full text handed to Parse.
    Output string
}

func (e *ParseError) Error() string {
    msg := fmt.Sprintf("members: line %d: %s: %q", e.Line, e.Reason, e.Text)
    if e.Output != "" {
        msg += "\nfull output:\n" + e.Output
    }
    return msg
}

// Parse converts `etcdctl member list` output into a Snapshot. Blank lines
// are ignored; any other line that cannot be parsed, or that repeats a
// member id, fails the whole parse.
func Parse(out string) (Snapshot, error) {
    snap := make(Snapshot)
    for i, line := range strings.Split(out, "\n") {
        if strings.TrimSpace(line) == "" {
            continue
        }
        m, reason := parseLine(line)
        if reason == "" {
            if _, dup := snap[m.ID]; dup {
                reason = "duplicate member id " + m.ID
            }
        }
        if reason != "" {
            return nil, &ParseError{Line: i + 1, Text: line, Reason: reason, Output: out}
        }
        snap[m.ID] = m
    }
    return snap, nil
}

// ParseLine parses a single member line.
func ParseLine(line string) (Member, error) {
    m, reason := parseLine(line)
    if reason != "" {
        return Member{}, &ParseError{Line: 1, Text: line, Reason: reason}
    }
    return m, nil
}

func parseLine(line string) (Member, string) {
    lx := &lexer{s: line}
    lx.skipSpace()

    id := lx.take(func(c byte) bool { return c == '[' || c == ':' || isSpace(c) })
    if id == "" {
        return Member{}, "missing member id"
    }
    status := DefaultStatus
    if lx.accept('[') {
        status = lx.take(func(c byte) bool { return c == ']' || isSpace(c) })
        if !lx.accept(']') {
            return Member{}, "unterminated status bracket"
        }
        if status == "" {
            return Member{}, "empty status"
        }
    }
    if !lx.accept(':') {
        return Member{}, "expected ':' after member id"
    }

    attrs := make(map[string]Value)
    for {
        lx.skipSpace()
        if lx.done() {
            break
        }
        tok := lx.take(isSpace)
        key, raw, ok := strings.Cut(tok, "=")
        if !ok {
            return Member{}, fmt.Sprintf("expected key=value, got %q", tok)
        }
        if key == "" {
            return Member{}, fmt.Sprintf("empty key in %q", tok)
        }
        if _, dup := attrs[key]; dup {
            return Member{}, fmt.Sprintf("duplicate key %q", key)
        }
        attrs[key] = ParseValue(raw)
    }

    peer, ok := attrs[KeyPeerURLs]
    if !ok {
        return Member{}, "missing " + KeyPeerURLs
    }
    return Member{
        ID:       id,
        Status:   status,
        PeerURLs: peer.String(),
        Name:     attrs[KeyName].String(),
        Attrs:    attrs,
    }, ""
}

// lexer walks one line byte by byte; the grammar is ASCII only.
type lexer struct {
    s   string
    pos int
}

func (l *lexer) done() bool { return l.pos >= len(l.s) }

func (l *lexer) skipSpace() {
    for !l.done() && isSpace(l.s[l.pos]) {
        l.pos++
    }
}

// take consumes bytes up to (not including) the first one matching stop.
func (l *lexer) take(stop func(byte) bool) string {
    start := l.pos
    for !l.done() && !stop(l.s[l.pos]) {
        l.pos++
    }
    return l.s[start:l.pos]
}

func (l *lexer) accept(c byte) bool {
    if l.done() || l.s[l.pos] != c {
        return false
    }
    l.pos++
    return true
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }
