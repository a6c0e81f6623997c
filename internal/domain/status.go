package domain

import "strings"

// NormalizeStatus coerces arbitrary status strings, typically sourced from
// front matter, into a known Status value. Unknown inputs fall back to draft.
func NormalizeStatus(input string) Status {
	status := Status(strings.ToLower(strings.TrimSpace(input)))
	switch status {
	case StatusDraft, StatusPublished, StatusArchived, StatusScheduled:
		return status
	case "":
		return StatusDraft
	default:
		return StatusDraft
	}
}

// IsKnownStatus reports whether the input maps onto a recognized lifecycle state.
func IsKnownStatus(input string) bool {
	switch Status(strings.ToLower(strings.TrimSpace(input))) {
	case StatusDraft, StatusPublished, StatusArchived, StatusScheduled:
		return true
	default:
		return false
	}
}

// NormalizeKind coerces arbitrary kind strings into a known Kind value.
// Unknown inputs fall back to post.
func NormalizeKind(input string) Kind {
	kind := Kind(strings.ToLower(strings.TrimSpace(input)))
	switch kind {
	case KindPost, KindPage:
		return kind
	default:
		return KindPost
	}
}
