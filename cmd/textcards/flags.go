package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"textcards/internal/card"
	"textcards/internal/config"
	"textcards/internal/logger"
	"textcards/internal/session"
	"textcards/internal/style"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// styleFlags mirrors the style controls. A flag only overrides the config
// value when it was set on the command line.
type styleFlags struct {
	font, boldFont         string
	fontFile, boldFontFile string
	size, boldSize         int
	color, boldColor       string
	background             string
	backgroundImage        string
	transparent            bool
	align                  string
	centerH, centerV       bool
	width, height          int
	fit                    bool
	emphasis               bool
	delimiter              string
}

func addStyleFlags(cmd *cobra.Command, f *styleFlags) {
	fs := cmd.Flags()
	fs.StringVar(&f.font, "font", config.DefaultFont, "regular font family")
	fs.StringVar(&f.boldFont, "bold-font", config.DefaultFont, "bold font family")
	fs.StringVar(&f.fontFile, "font-file", "", "custom regular font file (.ttf/.otf)")
	fs.StringVar(&f.boldFontFile, "bold-font-file", "", "custom bold font file (.ttf/.otf)")
	fs.IntVar(&f.size, "size", config.DefaultFontSize, "regular font size in px")
	fs.IntVar(&f.boldSize, "bold-size", config.DefaultFontSize, "bold font size in px")
	fs.StringVar(&f.color, "color", config.DefaultTextColor, "regular text color")
	fs.StringVar(&f.boldColor, "bold-color", config.DefaultTextColor, "bold text color")
	fs.StringVar(&f.background, "background", config.DefaultBackground, "background color")
	fs.StringVar(&f.backgroundImage, "background-image", "", "background image file")
	fs.BoolVar(&f.transparent, "transparent", false, "transparent background")
	fs.StringVar(&f.align, "align", config.DefaultAlign, "text alignment: left, center or right")
	fs.BoolVar(&f.centerH, "center-h", false, "center lines horizontally")
	fs.BoolVar(&f.centerV, "center-v", false, "center text vertically")
	fs.IntVar(&f.width, "width", 0, "frame width in px (0 = auto)")
	fs.IntVar(&f.height, "height", 0, "frame height in px (0 = auto)")
	fs.BoolVar(&f.fit, "fit", false, "clip cards to the frame size")
	fs.BoolVar(&f.emphasis, "emphasis", true, "draw delimited text in bold")
	fs.StringVar(&f.delimiter, "delimiter", config.DefaultDelimiter, "emphasis delimiter")
}

// apply copies changed flags over the loaded configuration.
func (f *styleFlags) apply(fs *pflag.FlagSet, c *config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}

	s := &c.Style
	set("font", func() { s.Font = f.font })
	set("bold-font", func() { s.BoldFont = f.boldFont })
	set("size", func() { s.FontSize = f.size })
	set("bold-size", func() { s.BoldFontSize = f.boldSize })
	set("color", func() { s.Color = f.color })
	set("bold-color", func() { s.BoldColor = f.boldColor })
	set("background", func() { s.BackgroundColor = f.background })
	set("transparent", func() { s.Transparent = f.transparent })
	set("align", func() { s.Align = f.align })
	set("center-h", func() { s.CenterHorizontally = f.centerH })
	set("center-v", func() { s.CenterVertically = f.centerV })
	set("width", func() { s.FrameWidth = f.width })
	set("height", func() { s.FrameHeight = f.height })
	set("fit", func() { s.FitToFrame = f.fit })
	set("emphasis", func() { s.EmphasizeBold = f.emphasis })
	set("delimiter", func() { s.Delimiter = f.delimiter })

	a := &c.Assets
	set("font-file", func() { a.FontFile = f.fontFile })
	set("bold-font-file", func() { a.BoldFontFile = f.boldFontFile })
	set("background-image", func() { a.BackgroundImage = f.backgroundImage })
}

// controls turns the style section into the raw control values a render reads.
func controls(s config.StyleConfig) style.Controls {
	return style.Controls{
		Font:               s.Font,
		BoldFont:           s.BoldFont,
		FontSize:           bounded(s.FontSize, style.MaxFontSize),
		BoldFontSize:       bounded(s.BoldFontSize, style.MaxFontSize),
		Color:              s.Color,
		BoldColor:          s.BoldColor,
		BackgroundColor:    s.BackgroundColor,
		Transparent:        s.Transparent,
		Align:              s.Align,
		CenterHorizontally: s.CenterHorizontally,
		CenterVertically:   s.CenterVertically,
		FrameWidth:         bounded(s.FrameWidth, style.MaxDimension),
		FrameHeight:        bounded(s.FrameHeight, style.MaxDimension),
		FitToFrame:         s.FitToFrame,
		EmphasizeBold:      s.EmphasizeBold,
	}
}

// bounded formats n, or "" when it is not within (0, limit].
func bounded(n, limit int) string {
	if n <= 0 || n > limit {
		return ""
	}
	return strconv.Itoa(n)
}

func delimiter(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return '*'
	}
	return r
}

// openSession loads the workbook and uploaded assets described by c.
func openSession(ctx context.Context, c *config.Config, workbook string) (*session.Session, error) {
	s := session.New(delimiter(c.Style.Delimiter))

	if err := s.LoadWorkbook(workbook); err != nil {
		return nil, fmt.Errorf("failed to load workbook: %w", err)
	}

	// Both font files load concurrently; a failed upload leaves the built-in font active.
	var pending []<-chan error
	if c.Assets.FontFile != "" {
		pending = append(pending, s.RegisterFont(ctx, session.Regular, c.Assets.FontFile))
	}
	if c.Assets.BoldFontFile != "" {
		pending = append(pending, s.RegisterFont(ctx, session.Bold, c.Assets.BoldFontFile))
	}
	for _, done := range pending {
		if err := <-done; err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}

	if err := s.SetBackgroundImage(c.Assets.BackgroundImage); err != nil {
		logger.Warn("Background image ignored", "path", c.Assets.BackgroundImage, "error", err)
		fmt.Printf("Warning: %v\n", err)
	}

	return s, nil
}

// renderCards builds the cards for the current configuration, reporting a
// missing workbook the way the upload form does.
func renderCards(s *session.Session, c *config.Config) ([]card.Card, error) {
	cards, err := s.Render(controls(c.Style))
	if errors.Is(err, session.ErrNoWorkbook) {
		return nil, errors.New("Please upload an Excel file first.")
	}
	if err != nil {
		return nil, err
	}
	return cards, nil
}
