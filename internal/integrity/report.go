package integrity

import "time"

// Severity grades an issue. Errors should fail a strict check run; warnings
// flag content worth attention without blocking a publish.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue describes one finding against a post or a built file.
type Issue struct {
	// Check names the audit that produced the issue: front_matter, html, links.
	Check    string
	Severity Severity
	// Path is the post source path (front matter audit) or the output file.
	Path string
	// Locale carries the locale code when the finding is translation scoped.
	Locale string
	// Ref points at the offending element: a link target, a tag name, a
	// front matter field.
	Ref     string
	Message string
}

// Report aggregates the findings of one Check run.
type Report struct {
	CheckedPosts  int
	CheckedFiles  int
	CheckedLinks  int
	ExternalLinks int
	Issues        []Issue
	Duration      time.Duration
}

// ErrorCount returns the number of error severity issues.
func (r *Report) ErrorCount() int {
	return r.countBySeverity(SeverityError)
}

// WarningCount returns the number of warning severity issues.
func (r *Report) WarningCount() int {
	return r.countBySeverity(SeverityWarning)
}

// HasErrors reports whether any issue should fail a strict run.
func (r *Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

func (r *Report) countBySeverity(severity Severity) int {
	if r == nil {
		return 0
	}
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			count++
		}
	}
	return count
}
