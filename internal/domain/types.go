package domain

import pressdomain "github.com/goliatone/go-press/domain"

// The lifecycle vocabulary is defined in the public domain package so host
// facing models carry publicly named types; internal services share it
// through these aliases.

// Status represents lifecycle states for press entities.
type Status = pressdomain.Status

const (
	// StatusDraft indicates a post still under preparation.
	StatusDraft = pressdomain.StatusDraft
	// StatusPublished identifies a post available to readers.
	StatusPublished = pressdomain.StatusPublished
	// StatusArchived marks a post retained for history but no longer publicly visible.
	StatusArchived = pressdomain.StatusArchived
	// StatusScheduled marks a post with a future publish time configured.
	StatusScheduled = pressdomain.StatusScheduled
)

// Kind distinguishes the document shapes the engine builds.
type Kind = pressdomain.Kind

const (
	// KindPost is a dated entry that participates in archives and feeds.
	KindPost = pressdomain.KindPost
	// KindPage is a standalone document outside the chronological stream.
	KindPage = pressdomain.KindPage
)
