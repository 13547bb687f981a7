// Package session holds the state shared by render and export actions: the
// loaded rows, custom fonts per weight and the background image.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"textcards/internal/card"
	"textcards/internal/excel"
	"textcards/internal/fonts"
	"textcards/internal/logger"
	"textcards/internal/style"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoWorkbook is returned when a render is requested before any rows were loaded.
var ErrNoWorkbook = errors.New("please upload an Excel file first")

// Weight selects which custom font slot a font file goes into.
type Weight int

const (
	Regular Weight = iota
	Bold
)

func (w Weight) String() string {
	if w == Bold {
		return "bold"
	}
	return "regular"
}

// Session is the explicit replacement for process-wide mutable state. Every
// upload overwrites its slot; renders read a consistent snapshot.
type Session struct {
	mu         sync.RWMutex
	rows       []excel.Row
	loaded     bool
	fonts      [2]*fonts.Family
	background image.Image
	delimiter  rune
}

// New creates an empty session using delim as the emphasis delimiter.
func New(delim rune) *Session {
	if delim == 0 {
		delim = '*'
	}
	return &Session{delimiter: delim}
}

// LoadWorkbook replaces the current rows with the first sheet of path.
// An empty path is a no-op; a decode failure leaves the previous rows in place.
func (s *Session) LoadWorkbook(path string) error {
	if path == "" {
		return nil
	}

	rows, err := excel.LoadFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rows = rows
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// SetRows replaces the current rows.
func (s *Session) SetRows(rows []excel.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.loaded = true
}

// Rows returns the currently loaded rows.
func (s *Session) Rows() []excel.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

// RegisterFont loads a font file in the background and installs it into the
// weight slot once it has been decoded. Renders that run before installation
// completes keep using the previously active font. The returned channel
// receives the outcome and is then closed.
func (s *Session) RegisterFont(ctx context.Context, weight Weight, path string) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)

		family, err := fonts.LoadFile(path)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			logger.Warn("Font registration failed", "weight", weight.String(), "path", path, "error", err)
			done <- fmt.Errorf("register %s font: %w", weight, err)
			return
		}

		s.InstallFont(weight, family)
		logger.Info("Font loaded successfully", "weight", weight.String(), "name", family.Name)
		done <- nil
	}()

	return done
}

// InstallFont makes family the active custom font for weight.
func (s *Session) InstallFont(weight Weight, family fonts.Family) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fonts[weight] = &family
}

// SetBackgroundImage decodes path and makes it the background image.
func (s *Session) SetBackgroundImage(path string) error {
	if path == "" {
		return nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to load background image: %w", err)
	}

	s.mu.Lock()
	s.background = img
	s.mu.Unlock()

	logger.Info("Background image loaded successfully", "path", path)
	return nil
}

// Assets snapshots the uploaded resources.
func (s *Session) Assets() style.Assets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return style.Assets{
		RegularFont: s.fonts[Regular],
		BoldFont:    s.fonts[Bold],
		Background:  s.background,
	}
}

// Render resolves the current controls against the session and builds one
// card per row, in row order.
func (s *Session) Render(c style.Controls) ([]card.Card, error) {
	s.mu.RLock()
	rows, loaded := s.rows, s.loaded
	s.mu.RUnlock()

	if !loaded {
		return nil, ErrNoWorkbook
	}

	cfg, err := style.Resolve(c, s.Assets())
	if err != nil {
		return nil, err
	}

	cards := card.Build(excel.Templates(rows), cfg, s.delimiter)
	logger.Info("Rendered cards", "card_count", len(cards))
	return cards, nil
}
