package story

import "fmt"

// Theme is the reading surface colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeSepia Theme = "sepia"
	ThemeDark  Theme = "dark"
)

const DefaultTheme = ThemeLight

func (t Theme) String() string {
	return string(t)
}

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeSepia, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q (light, sepia or dark)", s)
}
