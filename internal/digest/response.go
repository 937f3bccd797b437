package digest

import "encoding/hex"

// ComputeHA1 returns HEX(H(username:realm:password)), or, when creds
// supplies a precomputed H(user:realm:password) digest, HEX(precomputed)
// directly. The -sess variant (HA1 = HEX(H(H(user:realm:password) ':'
// nonce ':' cnonce))) is preserved here for interface completeness but is
// unreachable from Verifier, which never sets sess.
func ComputeHA1(algo Algorithm, username, realm string, creds Credentials, sess bool, nonce, cnonce string) string {
	var base string
	if creds.PrecomputedHA1 != nil {
		base = hex.EncodeToString(creds.PrecomputedHA1)
	} else {
		base = hashHex(algo, []byte(username), []byte(":"), []byte(realm), []byte(":"), []byte(creds.Password))
	}

	if !sess {
		return base
	}
	return hashHex(algo, []byte(base), []byte(":"), []byte(nonce), []byte(":"), []byte(cnonce))
}

// ComputeHA2 returns HEX(H(method:uri)). auth-int is out of scope, so the
// entity-body hash branch of RFC 7616 is never taken.
func ComputeHA2(algo Algorithm, method, uri string) string {
	return hashHex(algo, []byte(method), []byte(":"), []byte(uri))
}

// ComputeResponse computes the RFC 2617/7616 response digest.
//
// qop == "auth":   HEX(H(HA1:nonce:nc:cnonce:qop:HA2))
// qop == ""    :   HEX(H(HA1:nonce:HA2))            (RFC 2069 compat)
func ComputeResponse(algo Algorithm, ha1, nonce, nc, cnonce, qop, ha2 string) string {
	if qop == "auth" {
		return hashHex(algo,
			[]byte(ha1), []byte(":"),
			[]byte(nonce), []byte(":"),
			[]byte(nc), []byte(":"),
			[]byte(cnonce), []byte(":"),
			[]byte(qop), []byte(":"),
			[]byte(ha2))
	}
	return hashHex(algo, []byte(ha1), []byte(":"), []byte(nonce), []byte(":"), []byte(ha2))
}
