// Package digest implements the nonce lifecycle and replay-defense engine
// for HTTP Digest Access Authentication (RFC 2617 / RFC 7616), covering the
// MD5 and SHA-256 algorithms with qop=auth. Header parsing, connection
// lifecycle, and the hash block functions themselves are treated as
// external collaborators; this package consumes parsed header parameters
// and a random seed, and emits verdicts and challenge strings.
package digest

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// Algorithm identifies a supported digest hash algorithm.
type Algorithm int

const (
	// Auto selects SHA-256 at set-up time.
	Auto Algorithm = iota
	MD5
	SHA256
)

// String returns the RFC 7616 wire name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case MD5:
		return "MD5"
	case SHA256:
		return "SHA-256"
	case Auto:
		return "SHA-256"
	default:
		return "UNKNOWN"
	}
}

// Size returns the binary digest size in bytes for the algorithm.
func (a Algorithm) Size() int {
	switch a {
	case MD5:
		return 16
	case SHA256, Auto:
		return 32
	default:
		return 0
	}
}

// resolved normalizes Auto to SHA256; any other value is returned unchanged.
func (a Algorithm) resolved() Algorithm {
	if a == Auto {
		return SHA256
	}
	return a
}

// ParseAlgorithm parses the RFC 7616 wire token for a digest algorithm.
// An empty string and "AUTO" both resolve to Auto (SHA-256).
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "AUTO":
		return Auto, nil
	case "MD5":
		return MD5, nil
	case "SHA-256":
		return SHA256, nil
	default:
		return Auto, fmt.Errorf("digest: unsupported algorithm %q", name)
	}
}

// phase is the lifecycle state of a Context, enforced by assertion-only
// checks (never a runtime cost in a release build beyond a field compare).
type phase int

const (
	phaseFresh phase = iota
	phaseInited
	phaseFinalized
)

// Context is the scratch state for one hash computation. It is constructed
// per request and may be reused for multiple independent hashes in
// sequence by re-initialising between uses (Init resets phaseFresh/
// phaseFinalized back to phaseInited).
type Context struct {
	algo  Algorithm
	h     hash.Hash
	phase phase
	bin   [sha256.Size]byte
	hexb  [2 * sha256.Size]byte
	n     int // bytes of bin/hexb actually populated
}

// Setup configures the context for algo. It rejects anything other than
// MD5, SHA256, or Auto (Auto resolves to SHA256). Setup may be called
// again later to reuse the Context for a different algorithm; it resets
// the lifecycle back to phaseFresh.
func (c *Context) Setup(algo Algorithm) error {
	resolved := algo.resolved()
	switch resolved {
	case MD5, SHA256:
	default:
		return fmt.Errorf("digest: invalid algorithm tag %d", algo)
	}
	c.algo = resolved
	c.h = nil
	c.phase = phaseFresh
	c.n = 0
	return nil
}

// Init must be called before the first Update and again before any reuse.
func (c *Context) Init() {
	switch c.algo {
	case MD5:
		c.h = md5.New()
	case SHA256:
		c.h = sha256.New()
	default:
		panic("digest: Init called before Setup")
	}
	c.phase = phaseInited
	c.n = 0
}

// Update feeds additional bytes into the hash. Calling Update before Init,
// or after Finalize without an intervening Init, is a programmer error.
func (c *Context) Update(p []byte) {
	if c.phase != phaseInited {
		panic("digest: Update called outside an inited context")
	}
	c.h.Write(p)
}

// Finalize completes the hash computation. It must precede Bin/Hex and
// forbids further Update until the next Init.
func (c *Context) Finalize() {
	if c.phase != phaseInited {
		panic("digest: Finalize called outside an inited context")
	}
	size := c.algo.Size()
	sum := c.h.Sum(c.bin[:0:size])
	copy(c.bin[:size], sum)
	hex.Encode(c.hexb[:2*size], c.bin[:size])
	c.n = size
	c.phase = phaseFinalized
}

// Bin returns the raw binary digest. Must be called after Finalize.
func (c *Context) Bin() []byte {
	if c.phase != phaseFinalized {
		panic("digest: Bin called before Finalize")
	}
	return c.bin[:c.n]
}

// Hex returns 2*Size lowercase hex characters. Not NUL-terminated by
// contract; must be called after Finalize.
func (c *Context) Hex() []byte {
	if c.phase != phaseFinalized {
		panic("digest: Hex called before Finalize")
	}
	return c.hexb[:2*c.n]
}

// Size returns the digest size in bytes for the context's algorithm.
func (c *Context) Size() int {
	return c.algo.Size()
}

// Name returns the RFC 7616 wire name for the context's algorithm.
func (c *Context) Name() string {
	return c.algo.String()
}

// hashHex runs algo over data in one shot and returns the lowercase hex
// digest, without requiring callers to manage a Context lifecycle.
func hashHex(algo Algorithm, chunks ...[]byte) string {
	var ctx Context
	if err := ctx.Setup(algo); err != nil {
		panic(err) // algo is always a value we resolved ourselves
	}
	ctx.Init()
	for _, c := range chunks {
		ctx.Update(c)
	}
	ctx.Finalize()
	return string(ctx.Hex())
}
