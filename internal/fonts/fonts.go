// Package fonts provides the built-in font families and loads custom font files.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Family is a named font with a regular face and an optional bold face.
// A family without a bold face is emboldened synthetically.
type Family struct {
	Name    string
	Regular []byte
	Bold    []byte
}

// HasBold reports whether the family ships a real bold face.
func (f Family) HasBold() bool { return len(f.Bold) > 0 }

// Builtin maps config names to embedded families.
var Builtin = map[string]Family{
	"go":           {Name: "go", Regular: goregular.TTF, Bold: gobold.TTF},
	"go-medium":    {Name: "go-medium", Regular: gomedium.TTF, Bold: gobold.TTF},
	"go-mono":      {Name: "go-mono", Regular: gomono.TTF, Bold: gomonobold.TTF},
	"go-smallcaps": {Name: "go-smallcaps", Regular: gosmallcaps.TTF},
}

// aliases lets generic CSS family names resolve to a built-in family.
var aliases = map[string]string{
	"sans-serif": "go",
	"serif":      "go",
	"arial":      "go",
	"helvetica":  "go",
	"monospace":  "go-mono",
	"courier":    "go-mono",
}

// DefaultFamily is the config name of the default built-in family.
const DefaultFamily = "go"

// Names returns the sorted list of built-in family names.
func Names() []string {
	names := make([]string, 0, len(Builtin))
	for k := range Builtin {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a built-in family by name or alias, case-insensitively.
func Lookup(name string) (Family, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultFamily
	}
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	family, ok := Builtin[key]
	if !ok {
		return Family{}, fmt.Errorf("unknown built-in font %q (available: %v)", name, Names())
	}
	return family, nil
}

// Parse validates raw TTF/OTF bytes and wraps them as a single-face family.
func Parse(name string, data []byte) (Family, error) {
	if _, err := sfnt.Parse(data); err != nil {
		return Family{}, fmt.Errorf("parsing font %s: %w", name, err)
	}
	return Family{Name: name, Regular: data}, nil
}

// LoadFile loads a TTF/OTF from disk. The family name is the file name up to
// its first dot.
func LoadFile(path string) (Family, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Family{}, fmt.Errorf("reading font file %s: %w", path, err)
	}
	return Parse(NameFromFile(path), data)
}

// NameFromFile derives a family name from a font file path.
func NameFromFile(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// NewFace creates a face for data at sizePx pixels.
func NewFace(data []byte, sizePx float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return FaceFrom(f, sizePx)
}

// FaceFrom creates a face for an already parsed font. Parsed fonts may be
// shared between goroutines; the returned face may not.
func FaceFrom(f *opentype.Font, sizePx float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face: %w", err)
	}
	return face, nil
}
