package digest

import (
	"sync"
)

// ReuseTimeoutMS is the quiet period during which a newly issued, unused
// nonce cannot be evicted from its slot by a colliding new nonce.
const ReuseTimeoutMS uint64 = 30_000

// windowSize is the width of the sliding nonce-count acceptance bitmask.
const windowSize = 64

// CheckResult is the outcome of a nonce-nc table lookup.
type CheckResult int

const (
	CheckOK CheckResult = iota
	CheckStale
	CheckWrong
)

// slot is the tracking record for one hash bucket. nonce is zero-padded
// and NUL-terminated; empty ⇔ nonce[0] == 0. mask is meaningful only when
// nc != 0.
type slot struct {
	nonce [MaxNonceLen + 1]byte
	nlen  int
	nc    uint64
	mask  uint64
}

func (s *slot) empty() bool {
	return s.nonce[0] == 0
}

func (s *slot) equals(candidate string) bool {
	return s.nlen == len(candidate) && string(s.nonce[:s.nlen]) == candidate
}

func (s *slot) set(candidate string) {
	n := copy(s.nonce[:], candidate)
	s.nonce[n] = 0
	for i := n + 1; i < len(s.nonce); i++ {
		s.nonce[i] = 0
	}
	s.nlen = n
	s.nc = 0
	s.mask = 0
}

// Table is a fixed-length, open-addressed (hash-indexed, single-slot)
// array of nonce/nc/bitmask records, allocated once and guarded by a
// single mutex. A zero-sized table disables tracking: every TryInsert
// fails and every Check reports CheckStale.
type Table struct {
	mu    sync.Mutex
	slots []slot
}

// NewTable allocates a table with size slots. size == 0 is valid and
// disables tracking entirely, per spec.md §6.
func NewTable(size int) *Table {
	return &Table{slots: make([]slot, size)}
}

// Size returns the number of slots in the table.
func (t *Table) Size() int {
	return len(t.slots)
}

// Occupied returns the number of slots currently holding a nonce, for
// gauge-style reporting. It takes the table lock like any other access.
func (t *Table) Occupied() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := range t.slots {
		if !t.slots[i].empty() {
			n++
		}
	}
	return n
}

// rollingHash is the byte-stream reduction h ← rotl32(h, 7) XOR byte,
// seeded with the first byte; 0 for an empty string.
func rollingHash(data string) uint32 {
	if len(data) == 0 {
		return 0
	}
	h := uint32(data[0])
	for i := 1; i < len(data); i++ {
		h = rotl32(h, 7) ^ uint32(data[i])
	}
	return h
}

func rotl32(x uint32, k uint) uint32 {
	return (x << k) | (x >> (32 - k))
}

func (t *Table) index(nonce string) int {
	return int(rollingHash(nonce) % uint32(len(t.slots)))
}

// slotIsAvailable reports whether the slot at idx may be overwritten with
// candidate, given the current time nowMS. Must be called with t.mu held.
func (t *Table) slotIsAvailable(idx int, nowMS uint64, candidate string) bool {
	s := &t.slots[idx]

	if s.empty() {
		return true
	}
	if s.equals(candidate) {
		// Reinserting would reset the nc bitmask and enable replay.
		return false
	}
	if s.nc != 0 {
		// The stored nonce has already been used — safe to retire.
		return true
	}

	storedTS, err := ExtractTimestamp(string(s.nonce[:s.nlen]))
	if err != nil {
		// Should be impossible for a slot we populated ourselves; treat
		// a corrupt slot as available rather than wedging it forever.
		return true
	}
	age := TrimTimestamp(nowMS - storedTS)
	return age > ReuseTimeoutMS
}

// TryInsert attempts to record newNonce as freshly issued. It fails if the
// slot it hashes to is occupied by a nonce that is still within its quiet
// period, or already holds newNonce itself.
func (t *Table) TryInsert(newNonce string, nowMS uint64) bool {
	if len(t.slots) == 0 {
		return false
	}
	idx := t.index(newNonce)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.slotIsAvailable(idx, nowMS, newNonce) {
		return false
	}
	t.slots[idx].set(newNonce)
	return true
}

// Check validates a replayed (nonce, nc) pair against the table. The
// caller must have already parsed nonce into nonceTS and validated its
// MAC. nc must satisfy 1 <= nc < 2^64-64; Check enforces both bounds
// itself (the overflow guard below) and reports CheckStale outside them.
func (t *Table) Check(nonce string, nonceTS, nc uint64) CheckResult {
	if nc == 0 || nc > ^uint64(0)-windowSize {
		return CheckStale
	}
	if len(t.slots) == 0 {
		return CheckStale
	}

	idx := t.index(nonce)

	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.slots[idx]

	if !s.equals(nonce) {
		return t.checkMismatch(s, nonceTS)
	}
	return t.checkMatch(s, nc)
}

// checkMismatch handles the case where the slot's current nonce differs
// from the one the client submitted. Must be called with t.mu held.
func (t *Table) checkMismatch(s *slot, nonceTS uint64) CheckResult {
	if s.empty() {
		// The server never issued it, yet the MAC verified: a very old
		// nonce whose slot never held it. Flag as wrong to surface
		// client/clock anomalies.
		return CheckWrong
	}

	slotTS, err := ExtractTimestamp(string(s.nonce[:s.nlen]))
	if err != nil {
		return CheckStale
	}

	delta := TrimTimestamp(nonceTS - slotTS)
	const halfRange = uint64(1) << 47 // 2^47, per spec.md §4.C

	switch {
	case delta <= ReuseTimeoutMS:
		// Our nonce was squeezed out by a neighbour still inside its
		// quiet period, or arrived too late.
		return CheckStale
	case delta > halfRange:
		// nonceTS precedes slotTS: overwritten by a newer insertion.
		return CheckStale
	default:
		// The slot's nonce had expired before ours was issued, but ours
		// still isn't recorded: forgery or daemon restart.
		return CheckWrong
	}
}

// checkMatch handles the case where the slot's current nonce equals the
// one the client submitted, advancing or consulting the replay bitmask.
// Must be called with t.mu held.
func (t *Table) checkMatch(s *slot, nc uint64) CheckResult {
	switch {
	case nc > s.nc:
		jump := nc - s.nc
		switch {
		case jump < windowSize:
			s.mask <<= jump
			s.mask |= uint64(1) << (jump - 1)
		case jump == windowSize:
			s.mask = uint64(1) << 63
		default:
			s.mask = 0
		}
		s.nc = nc
		return CheckOK

	case nc < s.nc:
		k := s.nc - nc - 1
		if k < windowSize && s.mask&(uint64(1)<<k) == 0 {
			s.mask |= uint64(1) << k
			return CheckOK
		}
		return CheckStale

	default: // nc == s.nc
		return CheckStale
	}
}
