// Package card builds styled text cards from row templates and rasterizes them.
package card

import (
	"textcards/internal/markup"
	"textcards/internal/style"
)

// Line is one stacked text line of a card.
type Line struct {
	Text     string
	Emphasis bool
}

// Card is the visual unit produced for one row.
type Card struct {
	Index    int
	Template string
	Lines    []Line
	Config   style.Config
}

// Style returns the text style that applies to l.
func (c Card) Style(l Line) style.TextStyle {
	if l.Emphasis {
		return c.Config.Emphasis
	}
	return c.Config.Regular
}

// New builds the card for a single template.
func New(index int, template string, cfg style.Config, delim rune) Card {
	segments := markup.Split(template, delim)
	lines := make([]Line, len(segments))
	for i, segment := range segments {
		lines[i] = Line{Text: segment.Text, Emphasis: segment.Emphasis}
	}
	return Card{
		Index:    index,
		Template: template,
		Lines:    lines,
		Config:   cfg,
	}
}

// Build produces one card per template, in template order.
func Build(templates []string, cfg style.Config, delim rune) []Card {
	cards := make([]Card, len(templates))
	for i, template := range templates {
		cards[i] = New(i, template, cfg, delim)
	}
	return cards
}
