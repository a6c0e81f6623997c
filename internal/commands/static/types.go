package staticcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-press/internal/generator"
)

const (
	buildSiteMessageType = "press.static.build"
	cleanSiteMessageType = "press.static.clean"
)

// ResultCallback receives the BuildResult once a static command finishes.
// Optional; handlers invoke it synchronously when set.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope pairs a build result with handler-supplied metadata.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a generator build using the provided filters.
type BuildSiteCommand struct {
	Locales        []string       `json:"locales,omitempty"`
	Slugs          []string       `json:"slugs,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures locale and slug filters are well-formed.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	if hasBlank(m.Locales) {
		errs["locales"] = validation.NewError("press.static.build.locale_invalid", "locales must not contain empty values")
	}
	if hasBlank(m.Slugs) {
		errs["slugs"] = validation.NewError("press.static.build.slug_invalid", "slugs must not contain empty values")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func hasBlank(values []string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			return true
		}
	}
	return false
}

// CleanSiteCommand clears generator artifacts from the configured storage backend.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// FeatureGates carries the runtime switches handlers consult before running.
type FeatureGates struct {
	GeneratorEnabled func() bool
}

func (g FeatureGates) generatorEnabled() bool {
	if g.GeneratorEnabled == nil {
		return false
	}
	return g.GeneratorEnabled()
}
