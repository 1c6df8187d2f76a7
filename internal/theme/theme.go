// Package theme provides color schemes for the ContextMap terminal display
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines a color scheme for the map display
type Theme struct {
	Name        string
	Description string

	// Primary colors
	Primary       lipgloss.Color
	PrimaryBright lipgloss.Color
	Secondary     lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI elements
	Border    lipgloss.Color
	BorderDim lipgloss.Color
	Text      lipgloss.Color
	TextDim   lipgloss.Color

	// Map layers
	Land      lipgloss.Color
	Ring      lipgloss.Color
	Context   lipgloss.Color
	Connector lipgloss.Color
	Marker    lipgloss.Color
	Tooltip   lipgloss.Color

	// DataColors draws rings and markers in their record colors
	DataColors bool
}

var order = []string{"classic", "paper", "amber", "ice", "high_contrast"}

// themes contains all available theme definitions
var themes = map[string]*Theme{
	"classic": {
		Name:          "Classic",
		Description:   "Data colors on a dark terminal",
		Primary:       lipgloss.Color("37"),  // cyan
		PrimaryBright: lipgloss.Color("51"),  // bright_cyan
		Secondary:     lipgloss.Color("250"), // grey74
		Success:       lipgloss.Color("46"),  // bright_green
		Warning:       lipgloss.Color("226"), // bright_yellow
		Error:         lipgloss.Color("196"), // bright_red
		Info:          lipgloss.Color("51"),  // bright_cyan
		Border:        lipgloss.Color("37"),  // cyan
		BorderDim:     lipgloss.Color("23"),  // dark_cyan
		Text:          lipgloss.Color("252"), // grey82
		TextDim:       lipgloss.Color("244"), // grey50
		Land:          lipgloss.Color("250"), // grey74
		Ring:          lipgloss.Color("240"), // grey35
		Context:       lipgloss.Color("231"), // white
		Connector:     lipgloss.Color("245"), // grey54
		Marker:        lipgloss.Color("214"), // orange
		Tooltip:       lipgloss.Color("231"), // white
		DataColors:    true,
	},
	"paper": {
		Name:          "Paper",
		Description:   "Black ink on a light terminal, like the web map",
		Primary:       lipgloss.Color("#000000"),
		PrimaryBright: lipgloss.Color("#333333"),
		Secondary:     lipgloss.Color("#555555"),
		Success:       lipgloss.Color("#2e7d32"),
		Warning:       lipgloss.Color("#ef6c00"),
		Error:         lipgloss.Color("#c62828"),
		Info:          lipgloss.Color("#1565c0"),
		Border:        lipgloss.Color("#000000"),
		BorderDim:     lipgloss.Color("#9e9e9e"),
		Text:          lipgloss.Color("#000000"),
		TextDim:       lipgloss.Color("#616161"),
		Land:          lipgloss.Color("#000000"),
		Ring:          lipgloss.Color("#9e9e9e"),
		Context:       lipgloss.Color("#000000"),
		Connector:     lipgloss.Color("#000000"),
		Marker:        lipgloss.Color("#000000"),
		Tooltip:       lipgloss.Color("#000000"),
		DataColors:    true,
	},
	"amber": {
		Name:          "Amber",
		Description:   "Vintage amber monochrome display",
		Primary:       lipgloss.Color("178"), // yellow
		PrimaryBright: lipgloss.Color("226"), // bright_yellow
		Secondary:     lipgloss.Color("130"), // dark_orange
		Success:       lipgloss.Color("226"), // bright_yellow
		Warning:       lipgloss.Color("231"), // bright_white
		Error:         lipgloss.Color("196"), // bright_red
		Info:          lipgloss.Color("226"), // bright_yellow
		Border:        lipgloss.Color("178"), // yellow
		BorderDim:     lipgloss.Color("130"), // dark_orange
		Text:          lipgloss.Color("178"), // yellow
		TextDim:       lipgloss.Color("130"), // dark_orange
		Land:          lipgloss.Color("178"), // yellow
		Ring:          lipgloss.Color("130"), // dark_orange
		Context:       lipgloss.Color("226"), // bright_yellow
		Connector:     lipgloss.Color("178"), // yellow
		Marker:        lipgloss.Color("231"), // bright_white
		Tooltip:       lipgloss.Color("226"), // bright_yellow
	},
	"ice": {
		Name:          "Blue Ice",
		Description:   "Cold blue tactical display",
		Primary:       lipgloss.Color("21"),  // blue
		PrimaryBright: lipgloss.Color("33"),  // bright_blue
		Secondary:     lipgloss.Color("37"),  // cyan
		Success:       lipgloss.Color("51"),  // bright_cyan
		Warning:       lipgloss.Color("226"), // bright_yellow
		Error:         lipgloss.Color("196"), // bright_red
		Info:          lipgloss.Color("33"),  // bright_blue
		Border:        lipgloss.Color("21"),  // blue
		BorderDim:     lipgloss.Color("18"),  // dark_blue
		Text:          lipgloss.Color("33"),  // bright_blue
		TextDim:       lipgloss.Color("21"),  // blue
		Land:          lipgloss.Color("33"),  // bright_blue
		Ring:          lipgloss.Color("18"),  // dark_blue
		Context:       lipgloss.Color("231"), // white
		Connector:     lipgloss.Color("37"),  // cyan
		Marker:        lipgloss.Color("51"),  // bright_cyan
		Tooltip:       lipgloss.Color("51"),  // bright_cyan
	},
	"high_contrast": {
		Name:          "High Contrast",
		Description:   "Maximum visibility white display",
		Primary:       lipgloss.Color("231"), // white
		PrimaryBright: lipgloss.Color("231"), // bright_white
		Secondary:     lipgloss.Color("51"),  // bright_cyan
		Success:       lipgloss.Color("46"),  // bright_green
		Warning:       lipgloss.Color("226"), // bright_yellow
		Error:         lipgloss.Color("196"), // bright_red
		Info:          lipgloss.Color("51"),  // bright_cyan
		Border:        lipgloss.Color("231"), // white
		BorderDim:     lipgloss.Color("244"), // grey50
		Text:          lipgloss.Color("231"), // bright_white
		TextDim:       lipgloss.Color("249"), // grey70
		Land:          lipgloss.Color("231"), // white
		Ring:          lipgloss.Color("244"), // grey50
		Context:       lipgloss.Color("231"), // white
		Connector:     lipgloss.Color("249"), // grey70
		Marker:        lipgloss.Color("226"), // bright_yellow
		Tooltip:       lipgloss.Color("231"), // white
	},
}

// Get returns a theme by name, defaults to classic if not found
func Get(name string) *Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["classic"]
}

// Exists reports whether name is a known theme
func Exists(name string) bool {
	_, ok := themes[name]
	return ok
}

// List returns all available theme names
func List() []string {
	names := make([]string, 0, len(order))
	names = append(names, order...)
	return names
}

// ThemeInfo contains theme metadata for display
type ThemeInfo struct {
	Key         string
	Name        string
	Description string
}

// GetInfo returns information about all themes
func GetInfo() []ThemeInfo {
	info := make([]ThemeInfo, 0, len(order))
	for _, key := range order {
		t := themes[key]
		info = append(info, ThemeInfo{
			Key:         key,
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return info
}

// Pick returns the record color when the theme draws data colors and the
// record has one, otherwise the fallback.
func (t *Theme) Pick(record string, fallback lipgloss.Color) lipgloss.Color {
	if t.DataColors && isHex(record) {
		return lipgloss.Color(record)
	}
	return fallback
}

func isHex(s string) bool {
	if len(s) != 4 && len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Style helpers for creating lipgloss styles

// PrimaryStyle returns a style using the primary color
func (t *Theme) PrimaryStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Primary)
}

// BorderStyle returns a style using the border color
func (t *Theme) BorderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Border)
}

// TextStyle returns a style using the text color
func (t *Theme) TextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Text)
}

// TextDimStyle returns a style using the dim text color
func (t *Theme) TextDimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.TextDim)
}

// SuccessStyle returns a style using the success color
func (t *Theme) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success)
}

// WarningStyle returns a style using the warning color
func (t *Theme) WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

// ErrorStyle returns a style using the error color
func (t *Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

// InfoStyle returns a style using the info color
func (t *Theme) InfoStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Info)
}
