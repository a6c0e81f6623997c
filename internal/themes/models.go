package themes

import pressthemes "github.com/goliatone/go-press/themes"

type (
	Theme       = pressthemes.Theme
	Template    = pressthemes.Template
	ThemeConfig = pressthemes.ThemeConfig
	ThemeAssets = pressthemes.ThemeAssets
)
