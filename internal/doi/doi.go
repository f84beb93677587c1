// Package doi normalizes Digital Object Identifiers to their bare form.
package doi

import (
	"fmt"
	"strings"

	"github.com/ppiankov/openalexbot/internal/model"
)

// resolverPrefixes are stripped case-insensitively, first match wins.
var resolverPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// Normalize strips a known resolver prefix, validates the residue and
// lowercases it, since DOIs are case-insensitive. Normalizing an already
// bare DOI returns it unchanged.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for _, prefix := range resolverPrefixes {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	// A protocol left after stripping means a doubly prefixed or corrupt value
	if strings.Contains(s, "://") {
		return "", fmt.Errorf("%w: %q still contains a protocol after stripping", model.ErrInvalidIdentifier, raw)
	}
	if !strings.HasPrefix(s, "10.") || !strings.Contains(s, "/") {
		return "", fmt.Errorf("%w: %q is not a DOI", model.ErrInvalidIdentifier, raw)
	}

	return strings.ToLower(s), nil
}

// URL returns the resolver URL for a bare DOI.
func URL(bare string) string {
	return "https://doi.org/" + bare
}
