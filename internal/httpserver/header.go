package httpserver

import (
	"regexp"
	"strings"

	"github.com/zurustar/digestd/internal/digest"
)

// paramPattern matches one Digest parameter's quoted or unquoted form.
// The leading (?:^|[\s,]) requires a field boundary before the name, so
// "nonce" doesn't match inside "cnonce" when cnonce precedes nonce in the
// header. Group 1 is the quoted value (escapes intact, unstripped of
// backslashes); group 2 is the unquoted value.
func paramPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[\s,])` + name + `\s*=\s*(?:"((?:[^"\\]|\\.)*)"|([^,\s]*))`)
}

var digestParamPatterns = map[string]*regexp.Regexp{
	"username":  paramPattern("username"),
	"realm":     paramPattern("realm"),
	"nonce":     paramPattern("nonce"),
	"cnonce":    paramPattern("cnonce"),
	"qop":       paramPattern("qop"),
	"nc":        paramPattern("nc"),
	"uri":       paramPattern("uri"),
	"response":  paramPattern("response"),
	"algorithm": paramPattern("algorithm"),
	"opaque":    paramPattern("opaque"),
}

// ParseAuthorizationHeader turns a raw Authorization header value into a
// digest.ParamView. It reports false in the second return only when the
// header does not carry the Digest scheme at all; a Digest header missing
// individual parameters still reports true; missing fields simply leave
// their Param.Valid false, for the core to reject.
func ParseAuthorizationHeader(authHeader string) (digest.ParamView, bool) {
	if !strings.HasPrefix(authHeader, "Digest ") {
		return digest.ParamView{}, false
	}
	body := strings.TrimPrefix(authHeader, "Digest ")

	view := digest.ParamView{Present: true}
	view.Username = extractParam(body, "username")
	view.Realm = extractParam(body, "realm")
	view.Nonce = extractParam(body, "nonce")
	view.CNonce = extractParam(body, "cnonce")
	view.QOP = extractParam(body, "qop")
	view.NC = extractParam(body, "nc")
	view.URI = extractParam(body, "uri")
	view.Response = extractParam(body, "response")
	view.Algorithm = extractParam(body, "algorithm")
	view.Opaque = extractParam(body, "opaque")
	return view, true
}

func extractParam(body, name string) digest.Param {
	pattern := digestParamPatterns[name]
	matches := pattern.FindStringSubmatch(body)
	if matches == nil {
		return digest.Param{Valid: false}
	}
	if matches[1] != "" || strings.Contains(matches[0], `=""`) {
		return digest.Param{Value: matches[1], Quoted: true, Valid: true}
	}
	return digest.Param{Value: matches[2], Quoted: false, Valid: true}
}
