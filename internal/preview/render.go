// Package preview shows rendered cards in the terminal.
package preview

import (
	"image/color"
	"strings"

	"textcards/internal/card"
	"textcards/internal/style"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
)

// Terminal cells are roughly 8x16 pixels.
const (
	cellWidth  = 8
	cellHeight = 16
)

// Render draws one card as a styled terminal block. maxWidth caps the block
// width in cells; zero means no cap.
func Render(c card.Card, maxWidth int) string {
	cfg := c.Config

	var lines []string
	for _, line := range c.Lines {
		text := strings.Join(strings.Fields(line.Text), " ")
		if text == "" {
			continue
		}
		lines = append(lines, lineStyle(c.Style(line)).Render(text))
	}

	box := lipgloss.NewStyle().Padding(1, 2)
	box = withBackground(box, cfg.Background)

	if cfg.CenterVertically {
		box = box.Align(position(cfg.LineAnchor)).AlignVertical(lipgloss.Center)
	} else {
		box = box.Align(position(cfg.Align))
	}

	if w := cfg.Frame.Width / cellWidth; w > 0 {
		box = box.Width(w)
	}
	if h := cfg.Frame.Height / cellHeight; h > 0 {
		box = box.Height(h)
	}
	if cfg.Frame.Fit {
		box = box.MaxWidth(max(cfg.Frame.Width/cellWidth, 1)).MaxHeight(max(cfg.Frame.Height/cellHeight, 1))
	}
	if maxWidth > 0 {
		box = box.MaxWidth(maxWidth)
	}

	return box.Render(lipgloss.JoinVertical(position(anchorFor(cfg)), lines...))
}

func anchorFor(cfg style.Config) style.Align {
	if cfg.CenterVertically {
		return cfg.LineAnchor
	}
	return cfg.Align
}

func lineStyle(ts style.TextStyle) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(style.Hex(ts.Color)))
	if ts.Bold {
		s = s.Bold(true)
	}
	return s
}

func withBackground(s lipgloss.Style, bg style.Background) lipgloss.Style {
	switch bg.Mode {
	case style.BackgroundTransparent:
		return s
	case style.BackgroundImage:
		if bg.Image == nil {
			return s
		}
		// A terminal cannot show the picture; use its average color instead.
		avg := imaging.Resize(bg.Image, 1, 1, imaging.Box).NRGBAAt(0, 0)
		return s.Background(lipgloss.Color(style.Hex(avg)))
	default:
		if bg.Color == (color.NRGBA{}) {
			return s
		}
		return s.Background(lipgloss.Color(style.Hex(bg.Color)))
	}
}

func position(a style.Align) lipgloss.Position {
	switch a {
	case style.AlignCenter:
		return lipgloss.Center
	case style.AlignRight:
		return lipgloss.Right
	default:
		return lipgloss.Left
	}
}

// RenderAll stacks every card with one blank line between cards.
func RenderAll(cards []card.Card, maxWidth int) string {
	blocks := make([]string, len(cards))
	for i, c := range cards {
		blocks[i] = Render(c, maxWidth)
	}
	return strings.Join(blocks, "\n\n")
}
