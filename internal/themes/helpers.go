package themes

import "strings"

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	cloned := strings.Clone(*value)
	return &cloned
}

func cloneStringSlice(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string{}, src...)
}

func cloneThemeConfig(cfg ThemeConfig) ThemeConfig {
	return ThemeConfig{
		Assets:   cloneAssets(cfg.Assets),
		Tokens:   cloneTokens(cfg.Tokens),
		Metadata: deepCloneMap(cfg.Metadata),
	}
}

func cloneTokens(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	cloned := make(map[string]string, len(src))
	for key, value := range src {
		cloned[key] = value
	}
	return cloned
}

func deepCloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	cloned := make(map[string]any, len(src))
	for key, value := range src {
		cloned[key] = value
	}
	return cloned
}

func cloneAssets(src *ThemeAssets) *ThemeAssets {
	if src == nil {
		return nil
	}
	cloned := *src
	cloned.Styles = cloneStringSlice(src.Styles)
	cloned.Scripts = cloneStringSlice(src.Scripts)
	cloned.Images = cloneStringSlice(src.Images)
	if src.BasePath != nil {
		cloned.BasePath = cloneString(src.BasePath)
	}
	return &cloned
}

func validateThemeConfig(cfg ThemeConfig) error {
	// Token keys become CSS custom property names in rendered layouts.
	for key := range cfg.Tokens {
		if strings.TrimSpace(key) == "" {
			return ErrThemeTokenInvalid
		}
	}
	if cfg.Assets != nil {
		for _, asset := range assetEntries(cfg.Assets) {
			if !validRelativePath(asset) {
				return ErrThemeAssetPathInvalid
			}
		}
	}
	return nil
}

func assetEntries(assets *ThemeAssets) []string {
	if assets == nil {
		return nil
	}
	out := make([]string, 0, len(assets.Styles)+len(assets.Scripts)+len(assets.Images))
	out = append(out, assets.Styles...)
	out = append(out, assets.Scripts...)
	out = append(out, assets.Images...)
	return out
}
