// Package bundle validates externally authored notification bundles against
// the trusted event they claim to describe. A bundle that fails any check is
// discarded and the default content path is used instead.
package bundle

import (
	"strings"
)

const repoHost = "github.com"

// NormalizeRepoURL canonicalizes a repository reference to a full https URL.
// It accepts full URLs, host-prefixed paths, and bare owner/repo references,
// stripping trailing slashes and a .git suffix. Unrecognized forms are
// returned as-is so equality comparisons still behave.
func NormalizeRepoURL(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	hostPrefix := repoHost + "/"
	switch {
	case strings.HasPrefix(value, "https://"+hostPrefix), strings.HasPrefix(value, "http://"+hostPrefix):
		value = strings.TrimSuffix(strings.TrimRight(value, "/"), ".git")
		return strings.Replace(value, "http://", "https://", 1)
	case strings.HasPrefix(value, hostPrefix):
		return "https://" + strings.TrimSuffix(strings.TrimRight(value, "/"), ".git")
	case strings.Count(value, "/") == 1 && !strings.Contains(value, " "):
		return "https://" + hostPrefix + strings.TrimSuffix(strings.TrimRight(value, "/"), ".git")
	}
	return value
}

// RepoShortName reduces a repository reference to its final path segment,
// the repo name. Used for source-repo comparison where fork owners differ.
func RepoShortName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	normalized := NormalizeRepoURL(raw)
	if normalized == "" {
		normalized = raw
	}
	trimmed := strings.TrimRight(normalized, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// RepoFromPRURL extracts the owner/repo repository URL embedded in a pull
// request URL, or "" when the URL does not contain the repo host marker.
func RepoFromPRURL(prURL string) string {
	marker := repoHost + "/"
	idx := strings.Index(prURL, marker)
	if strings.TrimSpace(prURL) == "" || idx < 0 {
		return ""
	}
	tail := prURL[idx+len(marker):]
	parts := strings.Split(tail, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return "https://" + repoHost + "/" + parts[0] + "/" + parts[1]
}
