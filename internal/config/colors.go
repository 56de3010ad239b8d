package config

import (
	"fmt"

	"github.com/derailed/tcell/v2"
)

// Color represents a color in the application
type Color string

const (
	// DefaultColor represents a default color
	DefaultColor Color = "default"

	// TransparentColor represents the terminal bg color
	TransparentColor Color = "-"
)

// NewColor returns a new color
func NewColor(c string) Color {
	return Color(c)
}

// String returns color as string
func (c Color) String() string {
	if c.isHex() {
		return string(c)
	}
	if c == DefaultColor || c == TransparentColor || c == "" {
		return "-"
	}
	col := c.Color().TrueColor().Hex()
	if col < 0 {
		return "-"
	}
	return fmt.Sprintf("#%06x", col)
}

func (c Color) isHex() bool {
	return len(c) == 7 && c[0] == '#'
}

// Color returns a view color
func (c Color) Color() tcell.Color {
	if c == DefaultColor || c == TransparentColor || c == "" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(string(c)).TrueColor()
}

// FrameColors defines colors for borders and titles
type FrameColors struct {
	BorderColor Color `json:"border" yaml:"border"`
	FocusColor  Color `json:"focus" yaml:"focus"`
	TitleColor  Color `json:"title" yaml:"title"`
}

// ListColors defines colors for the result list
type ListColors struct {
	FgColor        Color `json:"fg" yaml:"fg"`
	SelectedFg     Color `json:"selected_fg" yaml:"selected_fg"`
	SelectedBg     Color `json:"selected_bg" yaml:"selected_bg"`
	SectionColor   Color `json:"section" yaml:"section"`
	AccessoryColor Color `json:"accessory" yaml:"accessory"`
	LoadMoreColor  Color `json:"load_more" yaml:"load_more"`
}

// ColorsConfig defines the colors of the search view
type ColorsConfig struct {
	BgColor Color       `json:"bg" yaml:"bg"`
	Frame   FrameColors `json:"frame" yaml:"frame"`
	List    ListColors  `json:"list" yaml:"list"`
}

// DefaultColors returns the default color configuration
func DefaultColors() *ColorsConfig {
	return &ColorsConfig{
		BgColor: DefaultColor,
		Frame: FrameColors{
			BorderColor: NewColor("#44475a"),
			FocusColor:  NewColor("#6272a4"),
			TitleColor:  NewColor("#f8f8f2"),
		},
		List: ListColors{
			FgColor:        NewColor("#f8f8f2"),
			SelectedFg:     NewColor("#282a36"),
			SelectedBg:     NewColor("#bd93f9"),
			SectionColor:   NewColor("#50fa7b"),
			AccessoryColor: NewColor("#8be9fd"),
			LoadMoreColor:  NewColor("#f1fa8c"),
		},
	}
}
