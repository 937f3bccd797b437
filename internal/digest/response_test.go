package digest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"testing"
)

func TestComputeHA1MatchesRFC2617Reference(t *testing.T) {
	username, realm, password := "alice", "example.com", "secret123"
	want := fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%s:%s:%s", username, realm, password))))

	got := ComputeHA1(MD5, username, realm, Credentials{Password: password}, false, "", "")
	if got != want {
		t.Errorf("ComputeHA1 = %q, want %q", got, want)
	}
}

func TestComputeHA1WithPrecomputedDigest(t *testing.T) {
	raw, _ := hex.DecodeString("d8c5d67c0b0a4c46b5c4e27e0a39a6e1")
	got := ComputeHA1(MD5, "alice", "example.com", Credentials{PrecomputedHA1: raw}, false, "", "")
	want := hex.EncodeToString(raw)
	if got != want {
		t.Errorf("ComputeHA1 with precomputed digest = %q, want %q", got, want)
	}
}

func TestComputeHA2(t *testing.T) {
	method, uri := "GET", "/secure/page"
	want := fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%s:%s", method, uri))))
	got := ComputeHA2(MD5, method, uri)
	if got != want {
		t.Errorf("ComputeHA2 = %q, want %q", got, want)
	}
}

func TestComputeResponseWithQopAuth(t *testing.T) {
	ha1 := ComputeHA1(MD5, "alice", "example.com", Credentials{Password: "secret123"}, false, "", "")
	ha2 := ComputeHA2(MD5, "GET", "/secure")
	nonce, nc, cnonce, qop := "noncevalue", "00000001", "cnoncevalue", "auth"

	want := fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, nonce, nc, cnonce, qop, ha2))))
	got := ComputeResponse(MD5, ha1, nonce, nc, cnonce, qop, ha2)
	if got != want {
		t.Errorf("ComputeResponse(qop=auth) = %q, want %q", got, want)
	}
}

func TestComputeResponseWithoutQop(t *testing.T) {
	ha1 := ComputeHA1(MD5, "alice", "example.com", Credentials{Password: "secret123"}, false, "", "")
	ha2 := ComputeHA2(MD5, "GET", "/secure")
	nonce := "noncevalue"

	want := fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%s:%s:%s", ha1, nonce, ha2))))
	got := ComputeResponse(MD5, ha1, nonce, "", "", "", ha2)
	if got != want {
		t.Errorf("ComputeResponse(qop=\"\") = %q, want %q", got, want)
	}
}
