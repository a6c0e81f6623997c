package checkcmd

import (
	"github.com/goliatone/go-press/internal/integrity"
)

const checkSiteMessageType = "press.check.site"

// ReportCallback receives the integrity report produced by an audit run. The
// callback is optional and invoked synchronously from the handler.
type ReportCallback func(*integrity.Report)

// CheckSiteCommand runs the content and output audits with the provided scope.
type CheckSiteCommand struct {
	SkipFrontMatter bool `json:"skip_front_matter,omitempty"`
	SkipHTML        bool `json:"skip_html,omitempty"`
	SkipLinks       bool `json:"skip_links,omitempty"`
	CheckExternal   bool `json:"check_external,omitempty"`
	// Strict turns error severity issues into a command failure so CI runs
	// exit non-zero.
	Strict         bool           `json:"strict,omitempty"`
	ReportCallback ReportCallback `json:"-"`
}

// Type implements command.Message.
func (CheckSiteCommand) Type() string { return checkSiteMessageType }

// Validate satisfies command.Message; all fields are optional toggles.
func (CheckSiteCommand) Validate() error { return nil }

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	IntegrityEnabled func() bool
}

func (g FeatureGates) integrityEnabled() bool {
	if g.IntegrityEnabled == nil {
		return false
	}
	return g.IntegrityEnabled()
}
