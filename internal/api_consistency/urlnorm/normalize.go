// Package urlnorm converts the raw call-target expressions the extractor
// collects (env-var markers, env access plus concatenation, template
// interpolation, absolute URLs, bare paths) into one canonical path form so
// different spellings of the same call converge before matching.
package urlnorm

import (
	"regexp"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

const envVarMarker = "ENV_VAR:"

var (
	interpRe  = regexp.MustCompile(`\$\{([^}]*)\}`)
	envNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Normalize classifies a raw call-site URL expression and reduces it to a
// canonical path. Total function: every input yields a usable result,
// malformed ones degrade to an unclassified plain path.
func Normalize(raw string, cfg classify.Config) domain.NormalizedURL {
	out := domain.NormalizedURL{Original: raw}
	s := trimQuotes(strings.TrimSpace(raw))

	accessIdx, accessTok := envAccessIndex(s, cfg)

	switch {
	case strings.HasPrefix(s, envVarMarker):
		normalizeMarker(&out, s, cfg)
	case accessIdx >= 0 && !strings.Contains(s[:accessIdx], "${"):
		normalizeEnvAccess(&out, s, accessIdx, accessTok, cfg)
	case strings.Contains(s, "${"):
		normalizeInterp(&out, s, cfg)
	case hasScheme(s):
		normalizeAbsolute(&out, s, cfg)
	default:
		out.Path = CleanPath(s)
		out.Internal = true
	}
	return out
}

// ENV_VAR:<NAME>:<path> marker emitted by the extractor when a request base
// comes from the environment. Fewer than two usable segments degrades to a
// plain unclassified path.
func normalizeMarker(out *domain.NormalizedURL, s string, cfg classify.Config) {
	parts := strings.SplitN(s, ":", 3)
	name := ""
	if len(parts) >= 2 {
		name = strings.TrimSpace(parts[1])
	}
	if name == "" {
		out.Path = CleanPath(s)
		return
	}
	rest := ""
	if len(parts) == 3 {
		rest = parts[2]
	}
	classifyEnvVar(out, name, cfg)
	out.Path = CleanPath(ConvertParams(rest))
}

// process.env.NAME ( + "/path" | /path ) style expressions.
func normalizeEnvAccess(out *domain.NormalizedURL, s string, idx int, tok string, cfg classify.Config) {
	tail := s[idx+len(tok):]
	n := 0
	for n < len(tail) && isEnvNameByte(tail[n]) {
		n++
	}
	if n == 0 {
		out.Path = CleanPath(s)
		return
	}
	classifyEnvVar(out, tail[:n], cfg)
	out.Path = CleanPath(ConvertParams(concatFragment(tail[n:])))
}

// ${...} interpolation. A leading interpolation is a base-URL variable: it is
// classified when it resolves to a known env var and stripped either way.
// Every other ${name} becomes a :name parameter token so interpolated ids
// line up with :id-style endpoint declarations.
func normalizeInterp(out *domain.NormalizedURL, s string, cfg classify.Config) {
	stripped := false
	if strings.HasPrefix(s, "${") {
		if end := strings.IndexByte(s, '}'); end >= 0 {
			content := strings.TrimSpace(s[2:end])
			s = s[end+1:]
			stripped = true
			if name, _, ok := cfg.EnvAccess(content); ok {
				classifyEnvVar(out, name, cfg)
			} else if envNameRe.MatchString(content) && (cfg.InternalEnvVar(content) || cfg.ExternalEnvVar(content)) {
				classifyEnvVar(out, content, cfg)
			}
		}
	}
	s = ConvertParams(s)
	if !stripped && hasScheme(s) {
		normalizeAbsolute(out, s, cfg)
		return
	}
	out.Path = CleanPath(s)
	if !stripped {
		out.Internal = true
	}
}

// http://, https://, or protocol-relative // targets.
func normalizeAbsolute(out *domain.NormalizedURL, s string, cfg classify.Config) {
	scheme, rest := "", s
	switch {
	case strings.HasPrefix(s, "http://"):
		scheme, rest = "http", s[len("http://"):]
	case strings.HasPrefix(s, "https://"):
		scheme, rest = "https", s[len("https://"):]
	case strings.HasPrefix(s, "//"):
		rest = s[2:]
	}

	host, path := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		host, path = rest[:i], rest[i:]
	}
	if i := strings.IndexAny(host, "?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	}
	if scheme != "" {
		out.Base = scheme + "://" + host
	} else {
		out.Base = "//" + host
	}

	bare := host
	if i := strings.IndexByte(bare, ':'); i >= 0 {
		bare = bare[:i]
	}
	out.Internal = cfg.InternalHost(bare)
	out.External = cfg.ExternalHost(bare)
	out.Path = CleanPath(path)
}

func classifyEnvVar(out *domain.NormalizedURL, name string, cfg classify.Config) {
	out.EnvVar = name
	out.Internal = cfg.InternalEnvVar(name)
	out.External = cfg.ExternalEnvVar(name)
}

// CleanPath strips query and fragment, forces a single leading slash,
// collapses duplicate slashes, and drops one trailing slash (keeping "/").
// Idempotent.
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if i := strings.IndexByte(p, '#'); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// ConvertParams rewrites every ${name} occurrence to a :name token.
func ConvertParams(s string) string {
	return interpRe.ReplaceAllString(s, ":$1")
}

// concatFragment pulls the path literal out of what follows the variable
// name: either a direct "/..." tail or the first string literal after a "+".
func concatFragment(rest string) string {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ""
	}
	if rest[0] == '/' {
		return rest
	}
	if rest[0] != '+' {
		return ""
	}
	rest = strings.TrimSpace(rest[1:])
	if rest == "" {
		return ""
	}
	if q := rest[0]; q == '"' || q == '\'' || q == '`' {
		if end := strings.IndexByte(rest[1:], q); end >= 0 {
			return rest[1 : 1+end]
		}
		return rest[1:]
	}
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		return strings.TrimSpace(rest[:i])
	}
	return rest
}

func envAccessIndex(s string, cfg classify.Config) (int, string) {
	best, bestTok := -1, ""
	for _, tok := range cfg.EnvAccessTokens {
		if tok == "" {
			continue
		}
		if i := strings.Index(s, tok); i >= 0 && (best < 0 || i < best) {
			best, bestTok = i, tok
		}
	}
	return best, bestTok
}

func isEnvNameByte(b byte) bool {
	return b == '_' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func hasScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "//")
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}
