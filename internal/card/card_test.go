package card

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"textcards/internal/fonts"
	"textcards/internal/style"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goitalic"
)

func testConfig(t *testing.T, mutate func(*style.Controls)) style.Config {
	t.Helper()
	controls := style.Controls{
		Font:            "go",
		BoldFont:        "go",
		FontSize:        "20",
		BoldFontSize:    "24",
		Color:           "black",
		BoldColor:       "black",
		BackgroundColor: "#ffffff",
		Align:           "left",
		EmphasizeBold:   true,
	}
	if mutate != nil {
		mutate(&controls)
	}
	cfg, err := style.Resolve(controls, style.Assets{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return cfg
}

func TestBuild_OneCardPerRowInOrder(t *testing.T) {
	cfg := testConfig(t, nil)
	templates := []string{"Hello *world* today", "No bold here", ""}

	cards := Build(templates, cfg, '*')
	if len(cards) != len(templates) {
		t.Fatalf("expected %d cards, got %d", len(templates), len(cards))
	}
	for i, c := range cards {
		if c.Index != i || c.Template != templates[i] {
			t.Fatalf("card %d out of order: %+v", i, c)
		}
	}

	first := cards[0].Lines
	if len(first) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(first))
	}
	if first[0].Text != "Hello " || first[1].Text != "world" || first[2].Text != " today" {
		t.Fatalf("unexpected lines %+v", first)
	}
	if !first[1].Emphasis || first[0].Emphasis || first[2].Emphasis {
		t.Fatalf("only the middle line should be emphasized: %+v", first)
	}
	if cards[0].Style(first[1]).Size != 24 || cards[0].Style(first[0]).Size != 20 {
		t.Fatalf("lines should carry their own style")
	}

	if len(cards[1].Lines) != 1 || cards[1].Lines[0].Text != "No bold here" {
		t.Fatalf("unexpected plain card %+v", cards[1].Lines)
	}
}

func TestRasterize_FitFrameIsExact(t *testing.T) {
	cfg := testConfig(t, func(c *style.Controls) {
		c.FrameWidth, c.FrameHeight, c.FitToFrame = "200", "100", true
	})
	long := "A very long sentence that would never fit inside a small frame *at all* no matter what"

	img, err := NewRenderer().Rasterize(context.Background(), New(0, long, cfg, '*'))
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(200, 100) {
		t.Fatalf("expected 200x100, got %v", got)
	}
}

func TestSize_FrameWithoutFitIsMinimum(t *testing.T) {
	cfg := testConfig(t, func(c *style.Controls) {
		c.FrameWidth, c.FrameHeight = "400", "300"
	})
	r := NewRenderer()

	size, err := r.Size(New(0, "short", cfg, '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != image.Pt(400, 300) {
		t.Fatalf("expected 400x300, got %v", size)
	}

	narrow := testConfig(t, func(c *style.Controls) {
		c.FrameWidth, c.FrameHeight = "10", "10"
	})
	size, err = r.Size(New(0, "word", narrow, '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size.X <= 10 || size.Y <= 10 {
		t.Fatalf("frame without fit should grow to content, got %v", size)
	}
}

func TestSize_AutoAndEmptyLines(t *testing.T) {
	cfg := testConfig(t, nil)
	r := NewRenderer()

	empty, err := r.Size(New(0, "", cfg, '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if empty != image.Pt(2*style.Padding, 2*style.Padding) {
		t.Fatalf("empty template should only hold padding, got %v", empty)
	}

	one, err := r.Size(New(0, "x", cfg, '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	two, err := r.Size(New(0, "x*x*", cfg, '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	three, err := r.Size(New(0, "x*x*x", cfg, '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if !(one.Y < two.Y && two.Y < three.Y) {
		t.Fatalf("empty post-text should not add height: %v %v %v", one, two, three)
	}
}

func TestSize_WrapsToFrameWidth(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	r := NewRenderer()

	auto, err := r.Size(New(0, text, testConfig(t, nil), '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	framed, err := r.Size(New(0, text, testConfig(t, func(c *style.Controls) {
		c.FrameWidth = "160"
	}), '*'))
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if framed.X != 160 {
		t.Fatalf("expected wrapped width 160, got %d", framed.X)
	}
	if framed.Y <= auto.Y {
		t.Fatalf("wrapping should add rows: auto %v framed %v", auto, framed)
	}
}

func TestRasterize_Backgrounds(t *testing.T) {
	ctx := context.Background()
	r := NewRenderer()

	solid := testConfig(t, func(c *style.Controls) { c.BackgroundColor = "#ff0000" })
	img, err := r.Rasterize(ctx, New(0, "hi", solid, '*'))
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("expected red corner, got %v", got)
	}

	clear := testConfig(t, func(c *style.Controls) { c.Transparent = true })
	img, err = r.Rasterize(ctx, New(0, "hi", clear, '*'))
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if got := img.NRGBAAt(0, 0); got.A != 0 {
		t.Fatalf("expected transparent corner, got %v", got)
	}

	bg := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			bg.SetNRGBA(x, y, color.NRGBA{G: 200, A: 255})
		}
	}
	withImage, err := style.Resolve(style.Controls{Font: "go", BoldFont: "go", BackgroundColor: "#ff0000"}, style.Assets{Background: bg})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	img, err = r.Rasterize(ctx, New(0, "hi", withImage, '*'))
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if got := img.NRGBAAt(1, 1); got.G < 150 || got.R > 50 {
		t.Fatalf("expected image background to cover the card, got %v", got)
	}
}

// inkBounds returns the bounding box of non-transparent pixels.
func inkBounds(img *image.NRGBA) image.Rectangle {
	var ink image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			ink = ink.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return ink
}

func TestRasterize_Alignment(t *testing.T) {
	ctx := context.Background()
	r := NewRenderer()
	render := func(mutate func(*style.Controls)) image.Rectangle {
		cfg := testConfig(t, func(c *style.Controls) {
			c.Transparent = true
			c.FrameWidth, c.FrameHeight = "600", "300"
			mutate(c)
		})
		img, err := r.Rasterize(ctx, New(0, "abc", cfg, '*'))
		if err != nil {
			t.Fatalf("rasterize: %v", err)
		}
		return inkBounds(img)
	}

	left := render(func(c *style.Controls) { c.Align = "left" })
	right := render(func(c *style.Controls) { c.Align = "right" })
	center := render(func(c *style.Controls) { c.Align = "left"; c.CenterHorizontally = true })
	middle := render(func(c *style.Controls) { c.CenterVertically = true })

	if left.Min.X > style.Padding+5 {
		t.Fatalf("left aligned text should start near the padding, got %v", left)
	}
	if right.Max.X < 600-style.Padding-5 {
		t.Fatalf("right aligned text should end near the padding, got %v", right)
	}
	if !(left.Min.X < center.Min.X && center.Min.X < right.Min.X) {
		t.Fatalf("expected left < center < right, got %v %v %v", left, center, right)
	}
	if left.Min.Y > style.Padding+30 {
		t.Fatalf("block flow should start at the top, got %v", left)
	}
	if middle.Min.Y < 100 || middle.Max.Y > 200 {
		t.Fatalf("vertical centering should place text mid-card, got %v", middle)
	}
	if middle.Min.X > style.Padding+5 {
		t.Fatalf("vertical centering without horizontal centering anchors lines left, got %v", middle)
	}
}

func TestFaceSet_BoldSelection(t *testing.T) {
	r := NewRenderer()
	faces := &faceSet{renderer: r, faces: make(map[faceKey]font.Face)}
	defer faces.close()

	builtin, _ := fonts.Lookup("go")
	if _, synthetic, err := faces.get(style.TextStyle{Family: builtin, Size: 20, Bold: true}); err != nil || synthetic {
		t.Fatalf("built-in family has a bold face: synthetic=%v err=%v", synthetic, err)
	}

	custom, err := fonts.Parse("Custom", goitalic.TTF)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, synthetic, err := faces.get(style.TextStyle{Family: custom, Size: 20, Bold: true}); err != nil || !synthetic {
		t.Fatalf("single-face family should be emboldened synthetically: synthetic=%v err=%v", synthetic, err)
	}
	if _, synthetic, err := faces.get(style.TextStyle{Family: custom, Size: 20}); err != nil || synthetic {
		t.Fatalf("regular weight should not be emboldened: synthetic=%v err=%v", synthetic, err)
	}
}

func TestRasterize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRenderer().Rasterize(ctx, New(0, "hi", testConfig(t, nil), '*')); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestEncodePNG(t *testing.T) {
	img, err := NewRenderer().Rasterize(context.Background(), New(0, "png", testConfig(t, func(c *style.Controls) {
		c.Transparent = true
	}), '*'))
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("expected bounds %v, got %v", img.Bounds(), decoded.Bounds())
	}
	if _, _, _, a := decoded.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("expected transparency to survive encoding")
	}
}

func TestRasterize_OversizedFrameFallsBackToAuto(t *testing.T) {
	cfg := testConfig(t, func(c *style.Controls) {
		c.FrameWidth, c.FrameHeight, c.FitToFrame = "3000000000", "3000000000", true
	})
	if cfg.Frame != (style.Frame{}) {
		t.Fatalf("expected auto frame, got %+v", cfg.Frame)
	}

	img, err := NewRenderer().Rasterize(context.Background(), New(0, "short", cfg, '*'))
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if got := img.Bounds().Dx(); got <= 2*style.Padding || got > 1000 {
		t.Fatalf("expected an auto-sized card, got width %d", got)
	}
}
