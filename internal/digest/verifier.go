package digest

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// VerifyRequest bundles everything the Verifier needs for one submission.
// Everything here is supplied by the host: the core never parses header
// syntax, URLs, or form encoding itself.
type VerifyRequest struct {
	// Params is the parsed Digest Authorization header.
	Params ParamView

	// Method is the HTTP request method (e.g. "GET").
	Method string

	// Path is the request-target's path, already URL-decoded by the host.
	Path string

	// RawQuery is the request-target's raw (still-encoded) query string,
	// without the leading '?'.
	RawQuery string

	// ExpectedUsername is the username the host resolved credentials
	// for; the submitted username parameter must match it byte-exact.
	ExpectedUsername string

	// Credentials is the cleartext password or precomputed H(A1) for
	// ExpectedUsername.
	Credentials Credentials

	// UnescapeURI decodes a percent-escaped URI component; called
	// exactly once on the client's submitted uri parameter (sans query
	// string) before comparing it against Path.
	UnescapeURI func(string) (string, error)

	// NowMS is the current monotonic millisecond clock reading.
	NowMS uint64
}

// Verifier orchestrates the nonce codec, nonce-nc table, and response
// calculator for one client submission, returning a taxonomied Verdict.
type Verifier struct {
	Table          *Table
	RandomSeed     string
	Realm          string
	Algorithm      Algorithm
	NonceTimeoutMS uint64
}

// Verify runs the sequential pipeline of spec.md §4.F. The first failing
// check sets the verdict and returns; all comparisons are byte-exact
// unless noted.
func (v *Verifier) Verify(req VerifyRequest) Verdict {
	p := req.Params

	if !p.Present {
		return WrongHeader
	}

	var stack [stackBufSize]byte

	// 2. Username
	username, status, err := Unquote(p.Username, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil || len(username) > MaxUsernameLen {
		return ErrInternal
	}
	if username != req.ExpectedUsername {
		return WrongUsername
	}

	// 3. Realm
	realm, status, err := Unquote(p.Realm, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil || len(realm) > MaxRealmLen {
		return ErrInternal
	}
	if realm != v.Realm {
		return WrongRealm
	}

	// 4. Nonce
	nonce, status, err := Unquote(p.Nonce, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil || len(nonce) > MaxNonceLen {
		return ErrInternal
	}
	nonceTS, tsErr := ExtractTimestamp(nonce)
	if tsErr != nil {
		return NonceWrong
	}
	if TrimTimestamp(req.NowMS-nonceTS) > v.NonceTimeoutMS {
		return NonceStale
	}
	expectedNonce := BuildNonce(nonceTS, req.Method, v.RandomSeed, req.Path, v.Realm, v.Algorithm)
	if expectedNonce != nonce {
		return NonceWrong
	}

	// 5. Cnonce
	cnonce, status, err := Unquote(p.CNonce, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil || len(cnonce) > MaxCNonceLen {
		return ErrInternal
	}

	// 6. Qop
	qop, status, err := Unquote(p.QOP, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil || len(qop) > MaxQOPLen {
		return ErrInternal
	}
	if qop != "auth" && qop != "" {
		return WrongHeader
	}

	// 7. Nc
	ncStr, status, err := Unquote(p.NC, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil || len(ncStr) > MaxNCLen {
		return ErrInternal
	}
	nc, ncErr := strconv.ParseUint(ncStr, 16, 64)
	if ncErr != nil {
		return WrongHeader
	}
	if nc == 0 {
		return WrongHeader
	}

	// 8. Response
	response, status, err := Unquote(p.Response, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil || len(response) > MaxResponseLen {
		return ErrInternal
	}

	// 9. Nonce-nc table check
	switch v.Table.Check(nonce, nonceTS, nc) {
	case CheckStale:
		return NonceStale
	case CheckWrong:
		return NonceWrong
	}

	// 10. URI
	submittedURI, status, err := Unquote(p.URI, stack[:])
	if status == NoString {
		return WrongHeader
	}
	if err != nil {
		return ErrInternal
	}
	pathPart, queryPart := splitURI(submittedURI)
	decodedPath, uerr := req.UnescapeURI(pathPart)
	if uerr != nil {
		return WrongURI
	}
	if decodedPath != req.Path {
		return WrongURI
	}
	if !argumentsMatch(queryPart, req.RawQuery) {
		return WrongURI
	}

	// 11. Response compute & compare
	ha1 := ComputeHA1(v.Algorithm, username, realm, req.Credentials, false, "", "")
	ha2 := ComputeHA2(v.Algorithm, req.Method, submittedURI)
	expectedResponse := ComputeResponse(v.Algorithm, ha1, nonce, ncStr, cnonce, qop, ha2)

	if expectedResponse != response {
		return ResponseWrong
	}
	return OK
}

// splitURI splits a uri parameter on its first '?', as the spec requires
// comparing the path and query portions separately.
func splitURI(uri string) (path, query string) {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i], uri[i+1:]
	}
	return uri, ""
}

// argumentsMatch parses both query strings as form-encoded key/value
// pairs and reports whether every pair in submitted has a matching
// (key, value) in actual and the pair counts are equal.
func argumentsMatch(submitted, actual string) bool {
	sub := parseFormPairs(submitted)
	act := parseFormPairs(actual)
	if len(sub) != len(act) {
		return false
	}
	for k, vals := range sub {
		actVals, ok := act[k]
		if !ok || len(actVals) != len(vals) {
			return false
		}
		for i := range vals {
			if vals[i] != actVals[i] {
				return false
			}
		}
	}
	return true
}

// parseFormPairs parses a (possibly percent-encoded) query string into an
// ordered multimap of key -> values, preserving duplicate keys.
func parseFormPairs(raw string) map[string][]string {
	out := make(map[string][]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key := pair
		value := ""
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key, value = pair[:i], pair[i+1:]
		}
		key = queryUnescape(key)
		value = queryUnescape(value)
		out[key] = append(out[key], value)
	}
	return out
}

// queryUnescape decodes %XX and '+' in a form-encoded component. Invalid
// escapes are passed through verbatim rather than erroring, matching the
// tolerant parsing the corpus's HTTP stacks apply to query arguments.
func queryUnescape(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			b.WriteByte(' ')
		case '%':
			if i+2 < len(s) {
				if raw, err := hex.DecodeString(s[i+1 : i+3]); err == nil && len(raw) == 1 {
					b.WriteByte(raw[0])
					i += 2
					continue
				}
			}
			b.WriteByte('%')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
