// Package style resolves user-facing style controls into a render configuration.
package style

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
	"textcards/internal/fonts"
	"textcards/internal/logger"
)

const (
	// DefaultFontSize applies when a size field is empty, invalid or above MaxFontSize.
	DefaultFontSize = 16
	// MaxFontSize is the largest accepted font size in px.
	MaxFontSize = 1024
	// Padding is the space kept between the card edge and its text.
	Padding = 20
	// MaxDimension is the largest accepted frame width or height in px.
	// Anything above it degrades to auto sizing.
	MaxDimension = 1 << 14
)

var (
	defaultText       = color.NRGBA{A: 0xff}
	defaultBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Align is the horizontal placement of each text line.
type Align string

const (
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
)

// ParseAlign maps a radio value to an Align, defaulting to left.
func ParseAlign(s string) Align {
	switch Align(strings.ToLower(strings.TrimSpace(s))) {
	case AlignRight:
		return AlignRight
	case AlignCenter:
		return AlignCenter
	default:
		return AlignLeft
	}
}

// BackgroundMode selects what fills the card behind its text.
type BackgroundMode int

const (
	BackgroundColor BackgroundMode = iota
	BackgroundImage
	BackgroundTransparent
)

func (m BackgroundMode) String() string {
	switch m {
	case BackgroundImage:
		return "image"
	case BackgroundTransparent:
		return "transparent"
	default:
		return "color"
	}
}

// Background is the resolved card background.
type Background struct {
	Mode  BackgroundMode
	Color color.NRGBA
	Image image.Image
}

// Frame holds optional fixed card dimensions; zero means auto.
// Fit is only set when both dimensions are given.
type Frame struct {
	Width  int
	Height int
	Fit    bool
}

// TextStyle is the look of one kind of line.
type TextStyle struct {
	Family fonts.Family
	Size   float64
	Color  color.NRGBA
	Bold   bool
}

// Controls are the raw values of the style inputs at the moment a render runs.
// Numeric fields are strings so that empty or invalid input degrades to auto.
type Controls struct {
	Font               string
	BoldFont           string
	FontSize           string
	BoldFontSize       string
	Color              string
	BoldColor          string
	BackgroundColor    string
	Transparent        bool
	Align              string
	CenterHorizontally bool
	CenterVertically   bool
	FrameWidth         string
	FrameHeight        string
	FitToFrame         bool
	EmphasizeBold      bool
}

// Assets are the uploaded resources that take part in resolution.
// A non-nil custom font overrides the corresponding built-in choice.
type Assets struct {
	RegularFont *fonts.Family
	BoldFont    *fonts.Family
	Background  image.Image
}

// Config is the render configuration snapshot for one render action.
type Config struct {
	Regular          TextStyle
	Emphasis         TextStyle
	Background       Background
	Align            Align
	CenterVertically bool
	// LineAnchor is where lines sit horizontally when CenterVertically is set.
	LineAnchor Align
	Frame      Frame
}

// Resolve builds a Config from the current controls and assets.
func Resolve(c Controls, a Assets) (Config, error) {
	regularFamily, err := resolveFamily(c.Font, a.RegularFont)
	if err != nil {
		return Config{}, fmt.Errorf("regular font: %w", err)
	}
	boldFamily, err := resolveFamily(c.BoldFont, a.BoldFont)
	if err != nil {
		return Config{}, fmt.Errorf("bold font: %w", err)
	}

	cfg := Config{
		Regular: TextStyle{
			Family: regularFamily,
			Size:   parseSize(c.FontSize),
			Color:  colorOr(c.Color, defaultText),
		},
		Emphasis: TextStyle{
			Family: boldFamily,
			Size:   parseSize(c.BoldFontSize),
			Color:  colorOr(c.BoldColor, defaultText),
			Bold:   c.EmphasizeBold,
		},
		Background:       resolveBackground(c, a),
		Align:            ParseAlign(c.Align),
		CenterVertically: c.CenterVertically,
		LineAnchor:       AlignLeft,
		Frame:            resolveFrame(c),
	}

	if c.CenterHorizontally {
		cfg.Align = AlignCenter
		cfg.LineAnchor = AlignCenter
	}

	logger.Debug("Resolved render configuration",
		"regular_font", cfg.Regular.Family.Name,
		"bold_font", cfg.Emphasis.Family.Name,
		"background", cfg.Background.Mode.String(),
		"align", string(cfg.Align),
		"center_vertically", cfg.CenterVertically,
		"frame_width", cfg.Frame.Width,
		"frame_height", cfg.Frame.Height,
		"fit", cfg.Frame.Fit)

	return cfg, nil
}

func resolveFamily(name string, custom *fonts.Family) (fonts.Family, error) {
	if custom != nil {
		return *custom, nil
	}
	return fonts.Lookup(name)
}

// resolveBackground applies the fixed precedence transparent > image > color.
func resolveBackground(c Controls, a Assets) Background {
	switch {
	case c.Transparent:
		return Background{Mode: BackgroundTransparent}
	case a.Background != nil:
		return Background{Mode: BackgroundImage, Image: a.Background}
	default:
		return Background{Mode: BackgroundColor, Color: colorOr(c.BackgroundColor, defaultBackground)}
	}
}

func resolveFrame(c Controls) Frame {
	frame := Frame{
		Width:  parseDimension(c.FrameWidth),
		Height: parseDimension(c.FrameHeight),
	}
	frame.Fit = c.FitToFrame && frame.Width > 0 && frame.Height > 0
	return frame
}

func parseSize(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil || v <= 0 || v > MaxFontSize {
		return DefaultFontSize
	}
	return v
}

// parseDimension reads a frame size, rounding fractional px. Empty, invalid
// and out-of-range values mean auto.
func parseDimension(s string) int {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v <= 0 || v > MaxDimension {
		return 0
	}
	return int(v)
}

func colorOr(s string, fallback color.NRGBA) color.NRGBA {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	c, err := ParseColor(s)
	if err != nil {
		logger.Warn("Ignoring invalid color", "value", s, "error", err)
		return fallback
	}
	return c
}
