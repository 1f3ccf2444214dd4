// Package repourl validates and normalizes repository URLs before any job
// is created for them.
package repourl

import (
	"fmt"
	"strings"
)

// ValidationError rejects a malformed or unsupported repository URL. It
// surfaces synchronously to the caller; no job is created for it.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid repository url %q: %s", e.URL, e.Reason)
}

// Validate checks that raw looks like a cloneable git URL. Accepted forms:
// https://, http://, git://, and scp-like git@host:owner/repo.
func Validate(raw string) error {
	url := strings.TrimSpace(raw)
	if url == "" {
		return &ValidationError{URL: raw, Reason: "empty"}
	}
	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
	case strings.HasPrefix(url, "git://"):
	case strings.HasPrefix(url, "git@") && strings.Contains(url, ":"):
	default:
		return &ValidationError{URL: raw, Reason: "unsupported scheme"}
	}
	if !strings.Contains(strings.TrimSuffix(url, ".git"), "/") && !strings.HasPrefix(url, "git@") {
		return &ValidationError{URL: raw, Reason: "missing repository path"}
	}
	return nil
}

// WebBaseURL converts a git URL into a browsable https base URL for file
// linking: strips the .git suffix and rewrites ssh/git schemes.
func WebBaseURL(raw string) string {
	url := strings.TrimSpace(raw)
	url = strings.TrimSuffix(url, ".git")

	if strings.HasPrefix(url, "git@") {
		url = strings.Replace(url, ":", "/", 1)
		url = strings.Replace(url, "git@", "https://", 1)
	}
	if strings.HasPrefix(url, "git://") {
		url = strings.Replace(url, "git://", "https://", 1)
	}
	if !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}
	return url
}

// OwnerRepo extracts the owner and repository name from a hosting URL, for
// providers that address repositories by slug rather than by clone URL.
func OwnerRepo(raw string) (owner, repo string, err error) {
	base := WebBaseURL(raw)
	trimmed := strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return "", "", &ValidationError{URL: raw, Reason: "expected host/owner/repo"}
	}
	return parts[1], parts[2], nil
}
