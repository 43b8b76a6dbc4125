package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// shortLen is the length of the display prefix printed by the CLI.
const shortLen = 8

// New returns a fresh random row identifier.
func New() string {
	return uuid.NewString()
}

// Derive returns a stable identifier for the given parts. Importing the same
// source row twice yields the same id, so the store rejects the duplicate.
func Derive(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "\x00"))).String()
}

// Parse validates an identifier and returns its canonical lowercase form.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}
	return u.String(), nil
}

// Short returns the display prefix of an identifier.
// "0b7e4c2a-..." -> "0b7e4c2a"
func Short(id string) string {
	if len(id) <= shortLen {
		return id
	}
	return id[:shortLen]
}

// Resolve finds the single id in candidates that equals or starts with prefix.
// It lets CLI users type the short form printed by Short.
func Resolve(prefix string, candidates []string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", fmt.Errorf("empty id")
	}

	var match string
	for _, c := range candidates {
		if c == prefix {
			return c, nil
		}
		if strings.HasPrefix(c, prefix) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = c
		}
	}
	if match == "" {
		return "", fmt.Errorf("no id matches %q", prefix)
	}
	return match, nil
}
