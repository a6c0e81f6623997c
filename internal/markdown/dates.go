package markdown

import (
	"errors"
	"strings"
	"time"
)

// ErrDateUnparseable reports a front matter date that matches none of the
// accepted layouts.
var ErrDateUnparseable = errors.New("markdown: date is not parseable")

// dateLayouts are the accepted front matter date forms, tried in order.
// Day-only and minute-precision values are interpreted as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate converts a front matter date value into a time. An empty input
// returns the zero time without an error; callers decide whether a date is
// required for the document at hand.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, ErrDateUnparseable
}
