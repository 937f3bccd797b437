package digest

import (
	"fmt"

	"github.com/google/uuid"
)

// retryJumpbackMaxMS bounds the backward timestamp perturbation tried on
// the single permitted retry, mirroring calculate_add_nonce_with_retry's
// up-to-127ms backward jump.
const retryJumpbackMaxMS = 127

// ChallengeRequest carries the fields a host needs to resolve before
// asking for a fresh challenge.
type ChallengeRequest struct {
	Method    string
	URI       string
	RemoteKey string // stable per-connection identifier, used only to jitter the retry
	NowMS     uint64
	Stale     bool // echoed from the verdict that triggered this challenge
}

// Challenge is a ready-to-render WWW-Authenticate payload.
type Challenge struct {
	Realm     string
	Nonce     string
	Opaque    string
	Algorithm Algorithm
	QOP       string
	Stale     bool
	// Retried reports whether the first candidate nonce collided with an
	// occupied slot, forcing the one permitted retry.
	Retried bool
	// Degraded reports whether the retry also collided; Nonce is then the
	// original, untracked candidate (§4.G step 3) rather than a tracked
	// one. Its MAC still checks out, but its slot holds a different nonce
	// of the same or a later timestamp, so the table check reports a
	// submission against it as NonceStale.
	Degraded bool
}

// Challenger issues nonces backed by a Table, retrying at most once on
// slot collision by perturbing the timestamp the way
// calculate_add_nonce_with_retry does.
type Challenger struct {
	Table      *Table
	RandomSeed string
	Realm      string
	Algorithm  Algorithm
}

// Issue produces a new Challenge, inserting its nonce into the table.
// Exactly one retry is attempted on a slot collision, jumping the
// timestamp backward by a small jittered amount. If the retry also
// collides, the original candidate is emitted untracked instead of
// failing the request: it is still a valid self-authenticating nonce, but
// it is not recorded in the table, so the next submission against it is
// reported NonceStale and the client is challenged again.
func (c *Challenger) Issue(req ChallengeRequest) (Challenge, error) {
	ts := TrimTimestamp(req.NowMS)
	first := BuildNonce(ts, req.Method, c.RandomSeed, req.URI, c.Realm, c.Algorithm)

	nonce := first
	retried := false
	degraded := false

	if !c.Table.TryInsert(first, req.NowMS) {
		retried = true
		jitter := rollingHash(req.RemoteKey)
		backoff := uint64(jitter%retryJumpbackMaxMS) + 1
		retryTS := TrimTimestamp(ts - backoff)
		retry := BuildNonce(retryTS, req.Method, c.RandomSeed, req.URI, c.Realm, c.Algorithm)
		if c.Table.TryInsert(retry, req.NowMS) {
			nonce = retry
		} else {
			degraded = true
		}
	}

	opaque := uuid.New().String()

	return Challenge{
		Realm:     c.Realm,
		Nonce:     nonce,
		Opaque:    opaque,
		Algorithm: c.Algorithm,
		QOP:       "auth",
		Stale:     req.Stale,
		Retried:   retried,
		Degraded:  degraded,
	}, nil
}

// Header renders the WWW-Authenticate challenge header value.
func (ch Challenge) Header() string {
	s := fmt.Sprintf(`Digest realm=%q,qop=%q,nonce=%q,opaque=%q,algorithm=%s`,
		ch.Realm, ch.QOP, ch.Nonce, ch.Opaque, ch.Algorithm.String())
	if ch.Stale {
		s += `,stale="true"`
	}
	return s
}
