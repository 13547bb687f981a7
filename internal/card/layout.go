package card

import (
	"image"
	"image/color"
	"strings"

	"textcards/internal/style"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// row is one visual row of text after wrapping.
type row struct {
	text      string
	face      font.Face
	color     color.NRGBA
	synthetic bool
	width     int
	height    int
	ascent    int
}

// placed is a row positioned inside the card box.
type placed struct {
	row
	x, y int
}

// layout is the geometry of a card ready to be painted.
type layout struct {
	size image.Point
	rows []placed
}

// faceFor returns the face used for a text style plus whether bold must be synthesized.
type faceFor func(ts style.TextStyle) (font.Face, bool, error)

func computeLayout(c Card, faces faceFor) (layout, error) {
	cfg := c.Config
	wrapWidth := 0
	if cfg.Frame.Width > 0 {
		wrapWidth = max(cfg.Frame.Width-2*style.Padding, 1)
	}

	var rows []row
	for _, line := range c.Lines {
		// Whitespace collapses as in normal text flow; an empty line takes no height.
		text := strings.Join(strings.Fields(line.Text), " ")
		if text == "" {
			continue
		}

		ts := c.Style(line)
		face, synthetic, err := faces(ts)
		if err != nil {
			return layout{}, err
		}

		metrics := face.Metrics()
		for _, segment := range wrap(face, text, wrapWidth, synthetic) {
			rows = append(rows, row{
				text:      segment,
				face:      face,
				color:     ts.Color,
				synthetic: synthetic,
				width:     textWidth(face, segment, synthetic),
				height:    metrics.Height.Ceil(),
				ascent:    metrics.Ascent.Ceil(),
			})
		}
	}

	contentW, contentH := 0, 0
	for _, r := range rows {
		contentW = max(contentW, r.width)
		contentH += r.height
	}

	size := image.Pt(contentW+2*style.Padding, contentH+2*style.Padding)
	if cfg.Frame.Fit {
		size = image.Pt(cfg.Frame.Width, cfg.Frame.Height)
	} else {
		size.X = max(size.X, cfg.Frame.Width)
		size.Y = max(size.Y, cfg.Frame.Height)
	}

	innerW := size.X - 2*style.Padding
	innerH := size.Y - 2*style.Padding

	y := style.Padding
	anchor := cfg.Align
	if cfg.CenterVertically {
		y += (innerH - contentH) / 2
		anchor = cfg.LineAnchor
	}

	out := layout{size: size, rows: make([]placed, 0, len(rows))}
	for _, r := range rows {
		x := style.Padding
		switch anchor {
		case style.AlignCenter:
			x += (innerW - r.width) / 2
		case style.AlignRight:
			x += innerW - r.width
		}
		out.rows = append(out.rows, placed{row: r, x: x, y: y})
		y += r.height
	}
	return out, nil
}

func textWidth(face font.Face, text string, synthetic bool) int {
	w := font.MeasureString(face, text).Ceil()
	if synthetic && w > 0 {
		w++
	}
	return w
}

// wrap breaks text on spaces so each row fits width. A width of zero disables
// wrapping; a single word wider than width stays on its own row.
func wrap(face font.Face, text string, width int, synthetic bool) []string {
	if width <= 0 || textWidth(face, text, synthetic) <= width {
		return []string{text}
	}

	words := strings.Fields(text)

	var (
		rows    []string
		current string
	)
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if textWidth(face, candidate, synthetic) <= width {
			current = candidate
			continue
		}
		rows = append(rows, current)
		current = word
	}
	return append(rows, current)
}

func baseline(p placed) fixed.Point26_6 {
	return fixed.P(p.x, p.y+p.ascent)
}
