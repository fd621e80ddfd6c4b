// Package classify holds the host and environment-variable classification
// rules the URL normalizer consults. Rules are explicit: nothing is inferred
// from naming conventions.
package classify

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Host lists. A host matches an entry exactly or as a dot-suffix
	// ("api.stripe.com" matches "stripe.com").
	InternalDomains []string `yaml:"internal_domains"`
	ExternalDomains []string `yaml:"external_domains"`

	// Environment variable names whose values are known to point at our own
	// services (internal) or at third parties (external).
	InternalEnvVars []string `yaml:"internal_env_vars"`
	ExternalEnvVars []string `yaml:"external_env_vars"`

	// Prefixes that mark an env access inside a URL expression, e.g.
	// "process.env.BILLING_URL" + "/invoices".
	EnvAccessTokens []string `yaml:"env_access_tokens"`
}

func Defaults() Config {
	return Config{
		EnvAccessTokens: []string{"process.env."},
	}
}

// Load reads a YAML rules file and merges it over Defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read classify config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML rules strictly: unknown keys are errors so a typo in a
// rules file cannot silently disable a list.
func Parse(b []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var in Config
	if err := dec.Decode(&in); err != nil {
		return Config{}, fmt.Errorf("parse classify config: %w", err)
	}
	if len(in.InternalDomains) > 0 {
		cfg.InternalDomains = in.InternalDomains
	}
	if len(in.ExternalDomains) > 0 {
		cfg.ExternalDomains = in.ExternalDomains
	}
	if len(in.InternalEnvVars) > 0 {
		cfg.InternalEnvVars = in.InternalEnvVars
	}
	if len(in.ExternalEnvVars) > 0 {
		cfg.ExternalEnvVars = in.ExternalEnvVars
	}
	if len(in.EnvAccessTokens) > 0 {
		cfg.EnvAccessTokens = in.EnvAccessTokens
	}
	return cfg, nil
}

func ParseString(s string) (Config, error) {
	return Parse([]byte(s))
}

// HostMatches reports whether host is covered by any entry in list: exactly,
// as a subdomain, or by containment ("stripe" covers "api.stripe.com").
func HostMatches(host string, list []string) bool {
	host = strings.ToLower(host)
	for _, d := range list {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) || strings.Contains(host, d) {
			return true
		}
	}
	return false
}

func (c Config) InternalHost(host string) bool { return HostMatches(host, c.InternalDomains) }
func (c Config) ExternalHost(host string) bool { return HostMatches(host, c.ExternalDomains) }

func envVarIn(name string, list []string) bool {
	for _, v := range list {
		if name == strings.TrimSpace(v) {
			return true
		}
	}
	return false
}

func (c Config) InternalEnvVar(name string) bool { return envVarIn(name, c.InternalEnvVars) }
func (c Config) ExternalEnvVar(name string) bool { return envVarIn(name, c.ExternalEnvVars) }

// EnvAccess matches expr against the configured env-access tokens and, on a
// hit, splits it into the variable name and the trailing remainder.
func (c Config) EnvAccess(expr string) (name, rest string, ok bool) {
	for _, tok := range c.EnvAccessTokens {
		if tok == "" || !strings.HasPrefix(expr, tok) {
			continue
		}
		tail := expr[len(tok):]
		i := 0
		for i < len(tail) {
			ch := tail[i]
			if ch == '_' || ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' {
				i++
				continue
			}
			break
		}
		if i == 0 {
			continue
		}
		return tail[:i], tail[i:], true
	}
	return "", "", false
}
