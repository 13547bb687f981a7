package card

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"sync"

	"textcards/internal/fonts"
	"textcards/internal/style"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Renderer rasterizes cards. Parsed fonts are cached and shared; faces are
// created per rasterization because a face is not safe for concurrent use.
type Renderer struct {
	mu     sync.Mutex
	parsed map[*byte]*opentype.Font
}

// NewRenderer creates a renderer with an empty font cache.
func NewRenderer() *Renderer {
	return &Renderer{parsed: make(map[*byte]*opentype.Font)}
}

func (r *Renderer) parse(data []byte) (*opentype.Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty font data")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := &data[0]
	if f, ok := r.parsed[key]; ok {
		return f, nil
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	r.parsed[key] = f
	return f, nil
}

type faceKey struct {
	data *byte
	size float64
}

// faceSet hands out faces for a single rasterization and closes them afterwards.
type faceSet struct {
	renderer *Renderer
	faces    map[faceKey]font.Face
}

func (s *faceSet) get(ts style.TextStyle) (font.Face, bool, error) {
	data := ts.Family.Regular
	synthetic := false
	if ts.Bold {
		if ts.Family.HasBold() {
			data = ts.Family.Bold
		} else {
			synthetic = true
		}
	}
	if len(data) == 0 {
		return nil, false, fmt.Errorf("font %q has no face data", ts.Family.Name)
	}

	key := faceKey{data: &data[0], size: ts.Size}
	if face, ok := s.faces[key]; ok {
		return face, synthetic, nil
	}

	parsed, err := s.renderer.parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("font %q: %w", ts.Family.Name, err)
	}
	face, err := fonts.FaceFrom(parsed, ts.Size)
	if err != nil {
		return nil, false, fmt.Errorf("font %q: %w", ts.Family.Name, err)
	}
	s.faces[key] = face
	return face, synthetic, nil
}

func (s *faceSet) close() {
	for _, face := range s.faces {
		_ = face.Close()
	}
}

// Size returns the pixel dimensions c will rasterize to.
func (r *Renderer) Size(c Card) (image.Point, error) {
	faces := &faceSet{renderer: r, faces: make(map[faceKey]font.Face)}
	defer faces.close()

	l, err := computeLayout(c, faces.get)
	if err != nil {
		return image.Point{}, err
	}
	return l.size, nil
}

// Rasterize paints c, including its background, into a new image.
// A transparent background leaves untouched pixels fully transparent.
func (r *Renderer) Rasterize(ctx context.Context, c Card) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	faces := &faceSet{renderer: r, faces: make(map[faceKey]font.Face)}
	defer faces.close()

	l, err := computeLayout(c, faces.get)
	if err != nil {
		return nil, fmt.Errorf("layout card %d: %w", c.Index, err)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, l.size.X, l.size.Y))
	paintBackground(canvas, c.Config.Background)

	for _, p := range l.rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := image.NewUniform(p.color)
		d := &font.Drawer{
			Dst:  canvas,
			Src:  src,
			Face: p.face,
			Dot:  baseline(p),
		}
		d.DrawString(p.text)

		// Synthetic bold: redraw with a 1px horizontal offset.
		if p.synthetic {
			d2 := &font.Drawer{
				Dst:  canvas,
				Src:  src,
				Face: p.face,
				Dot:  baseline(placed{row: p.row, x: p.x + 1, y: p.y}),
			}
			d2.DrawString(p.text)
		}
	}

	return canvas, nil
}

func paintBackground(canvas *image.NRGBA, bg style.Background) {
	bounds := canvas.Bounds()
	switch bg.Mode {
	case style.BackgroundTransparent:
		return
	case style.BackgroundImage:
		if bg.Image == nil || bounds.Empty() {
			return
		}
		// Scale to cover the frame, centered, not repeated.
		cover := imaging.Fill(bg.Image, bounds.Dx(), bounds.Dy(), imaging.Center, imaging.Lanczos)
		draw.Draw(canvas, bounds, cover, image.Point{}, draw.Src)
	default:
		draw.Draw(canvas, bounds, image.NewUniform(bg.Color), image.Point{}, draw.Src)
	}
}

// EncodePNG writes img as PNG, keeping transparency.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
