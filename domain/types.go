package domain

// Status represents lifecycle states for press entities.
type Status string

const (
	// StatusDraft indicates a post still under preparation.
	StatusDraft Status = "draft"
	// StatusPublished identifies a post available to readers.
	StatusPublished Status = "published"
	// StatusArchived marks a post that is retained for history but not publicly visible.
	StatusArchived Status = "archived"
	// StatusScheduled marks a post that has a future publish time configured.
	StatusScheduled Status = "scheduled"
)

// Kind distinguishes dated posts from standalone pages.
type Kind string

const (
	// KindPost is a dated entry that participates in archives and feeds.
	KindPost Kind = "post"
	// KindPage is a standalone document outside the chronological stream.
	KindPage Kind = "page"
)
