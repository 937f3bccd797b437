package digest

import (
	"encoding/hex"
	"fmt"
)

// timestampBinSize is the size, in bytes, of the 48-bit millisecond
// timestamp embedded at the tail of every nonce.
const timestampBinSize = 6

// timestampCharsLen is the hex-encoded length of the embedded timestamp.
const timestampCharsLen = timestampBinSize * 2

// timestampMask trims a 64-bit value to the low 48 bits the nonce format
// actually carries.
const timestampMask = (uint64(1) << (timestampBinSize * 8)) - 1

// TrimTimestamp reduces ts to the 48-bit range the nonce wire format uses.
func TrimTimestamp(ts uint64) uint64 {
	return ts & timestampMask
}

// NonceLen returns the fixed nonce length for algo: 2*size(algo) hex
// characters of MAC plus 12 hex characters of embedded timestamp.
func NonceLen(algo Algorithm) int {
	return 2*algo.resolved().Size() + timestampCharsLen
}

// BuildNonce constructs a self-authenticating nonce string:
//
//	HEX(H(ts48 ':' method ':' rnd ':' uri ':' realm)) ‖ HEX(ts48)
//
// ts is trimmed to 48 bits before both the MAC input and the trailing
// encoding, which is what makes the nonce self-authenticating: recomputing
// the MAC from the same inputs reproduces the exact same nonce string.
func BuildNonce(ts uint64, method, rnd, uri, realm string, algo Algorithm) string {
	ts = TrimTimestamp(ts)

	var tsBin [timestampBinSize]byte
	for i := 0; i < timestampBinSize; i++ {
		shift := 8 * (timestampBinSize - 1 - i)
		tsBin[i] = byte(ts >> shift)
	}

	var ctx Context
	if err := ctx.Setup(algo); err != nil {
		panic(err)
	}
	ctx.Init()
	ctx.Update(tsBin[:])
	ctx.Update([]byte(":"))
	ctx.Update([]byte(method))
	ctx.Update([]byte(":"))
	ctx.Update([]byte(rnd))
	ctx.Update([]byte(":"))
	ctx.Update([]byte(uri))
	ctx.Update([]byte(":"))
	ctx.Update([]byte(realm))
	ctx.Finalize()

	out := make([]byte, 0, NonceLen(algo))
	out = append(out, ctx.Hex()...)

	var tsHex [timestampCharsLen]byte
	hex.Encode(tsHex[:], tsBin[:])
	out = append(out, tsHex[:]...)

	return string(out)
}

// ExtractTimestamp parses the embedded timestamp out of nonce. It succeeds
// iff nonce's length matches exactly one of the two supported algorithms'
// NonceLen, and the last 12 characters parse as exactly 12 hex digits.
func ExtractTimestamp(nonce string) (uint64, error) {
	n := len(nonce)
	if n != NonceLen(MD5) && n != NonceLen(SHA256) {
		return 0, fmt.Errorf("digest: nonce has unexpected length %d", n)
	}

	tail := nonce[n-timestampCharsLen:]
	raw, err := hex.DecodeString(tail)
	if err != nil || len(raw) != timestampBinSize {
		return 0, fmt.Errorf("digest: nonce timestamp suffix %q is not valid hex", tail)
	}

	var ts uint64
	for _, b := range raw {
		ts = (ts << 8) | uint64(b)
	}
	return ts, nil
}
