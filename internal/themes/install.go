package themes

import (
	"context"
	"errors"
	"path/filepath"
)

// Seed describes a theme and its templates for installation.
type Seed struct {
	Theme     RegisterThemeInput
	Templates []RegisterTemplateInput
}

// Install applies a seed to the service, tolerating re-runs. An existing
// theme with the same name is reused, duplicate template slugs are skipped,
// so installing the same directory twice is a no-op.
func Install(ctx context.Context, svc Service, seed Seed) (*Theme, error) {
	theme, err := svc.RegisterTheme(ctx, seed.Theme)
	if err != nil {
		if !errors.Is(err, ErrThemeExists) {
			return nil, err
		}
		theme, err = svc.GetThemeByName(ctx, seed.Theme.Name)
		if err != nil {
			return nil, err
		}
	}

	for _, templateInput := range seed.Templates {
		input := templateInput
		input.ThemeID = theme.ID
		if _, err := svc.RegisterTemplate(ctx, input); err != nil {
			if errors.Is(err, ErrTemplateSlugConflict) {
				continue
			}
			return nil, err
		}
	}

	if seed.Theme.Activate {
		activated, err := svc.ActivateTheme(ctx, theme.ID)
		if err != nil {
			return nil, err
		}
		return activated, nil
	}
	return svc.GetTheme(ctx, theme.ID)
}

// InstallDir loads the manifest from a theme directory and installs it.
func InstallDir(ctx context.Context, svc Service, dir string, activate bool) (*Theme, error) {
	manifest, err := LoadManifest(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, err
	}
	seed, err := ManifestToSeed(dir, manifest)
	if err != nil {
		return nil, err
	}
	seed.Theme.Activate = activate
	return Install(ctx, svc, seed)
}
