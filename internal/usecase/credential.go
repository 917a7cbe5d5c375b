package usecase

import (
	"os"
	"strings"
)

// CredentialSource tells where a resolved credential came from.
type CredentialSource string

const (
	CredentialNone CredentialSource = ""
	CredentialEnv  CredentialSource = "env"
	CredentialUser CredentialSource = "user"
)

// CredentialResolver picks the explanation API key. The environment variable
// wins over the value typed by the user.
type CredentialResolver struct {
	envVar string
	lookup func(string) (string, bool)
}

// NewCredentialResolver reads envVar from the process environment.
func NewCredentialResolver(envVar string) *CredentialResolver {
	return &CredentialResolver{envVar: envVar, lookup: os.LookupEnv}
}

// EnvVar returns the name of the environment variable consulted first.
func (r *CredentialResolver) EnvVar() string { return r.envVar }

// FromEnv reports whether the environment already provides a key.
func (r *CredentialResolver) FromEnv() bool {
	_, src := r.Resolve("")
	return src == CredentialEnv
}

// Resolve returns the key to use and its source. An empty key means none is
// available.
func (r *CredentialResolver) Resolve(userValue string) (string, CredentialSource) {
	if r.envVar != "" && r.lookup != nil {
		if v, ok := r.lookup(r.envVar); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), CredentialEnv
		}
	}
	if v := strings.TrimSpace(userValue); v != "" {
		return v, CredentialUser
	}
	return "", CredentialNone
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	const visible = 4
	r := []rune(s)
	if len(r) <= visible {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-visible) + string(r[len(r)-visible:])
}
