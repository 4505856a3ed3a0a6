package state

import colorful "github.com/lucasb-eyer/go-colorful"

// Theme holds the UI palette. Colors are stored as hex strings so the theme
// serializes cleanly; Accent/Warn parse through go-colorful for blending in
// the views.
type Theme struct {
	Name       string `json:"name"`
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	Accent     string `json:"accent"`
	Warn       string `json:"warn"`
	Dim        string `json:"dim"`
}

func DarkTheme() Theme {
	return Theme{
		Name:       "Dark",
		Foreground: "#d8dee9",
		Background: "#1b1f27",
		Accent:     "#7aa2f7",
		Warn:       "#e0af68",
		Dim:        "#3b4261",
	}
}

func LightTheme() Theme {
	return Theme{
		Name:       "Light",
		Foreground: "#2e3440",
		Background: "#eceff4",
		Accent:     "#3b6ea5",
		Warn:       "#b4641e",
		Dim:        "#c2c9d6",
	}
}

func HighContrastTheme() Theme {
	return Theme{
		Name:       "HighContrast",
		Foreground: "#ffffff",
		Background: "#000000",
		Accent:     "#00ffff",
		Warn:       "#ffff00",
		Dim:        "#808080",
	}
}

// NextTheme cycles Dark -> Light -> HighContrast -> Dark.
func (t Theme) NextTheme() Theme {
	switch t.Name {
	case "Dark":
		return LightTheme()
	case "Light":
		return HighContrastTheme()
	default:
		return DarkTheme()
	}
}

// AccentColor parses the accent hex; falls back to white on a bad value.
func (t Theme) AccentColor() colorful.Color {
	c, err := colorful.Hex(t.Accent)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}

// MeterColor blends accent toward warn as level approaches 1.0.
func (t Theme) MeterColor(level float64) colorful.Color {
	a := t.AccentColor()
	w, err := colorful.Hex(t.Warn)
	if err != nil {
		return a
	}
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	return a.BlendLab(w, level)
}
