package export

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"textcards/internal/card"
	"textcards/internal/style"
)

type stubRasterizer struct {
	mu      sync.Mutex
	fail    map[int]error
	panics  map[int]bool
	empty   map[int]bool
	release chan struct{}
	started chan struct{}
	calls   int
}

func (s *stubRasterizer) Rasterize(ctx context.Context, c card.Card) (*image.NRGBA, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.fail[c.Index]; ok {
		return nil, err
	}
	if s.panics[c.Index] {
		panic("rasterizer blew up")
	}
	if s.empty[c.Index] {
		return nil, nil
	}
	return image.NewNRGBA(image.Rect(0, 0, 2, 2)), nil
}

func testCards(t *testing.T, templates ...string) []card.Card {
	t.Helper()
	cfg, err := style.Resolve(style.Controls{Font: "go", BoldFont: "go", EmphasizeBold: true}, style.Assets{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return card.Build(templates, cfg, '*')
}

func TestPipeline_ExportsEveryRow(t *testing.T) {
	p := NewPipeline(card.NewRenderer())

	result, err := p.Run(context.Background(), testCards(t, "Hello *world* today", "No bold here"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Entries != 2 || result.Archive == nil {
		t.Fatalf("expected 2 entries, got %+v", result)
	}

	files := readZip(t, result.Archive)
	for _, name := range []string{"Hello__world__today.png", "No_bold_here.png"} {
		if _, ok := files[name]; !ok {
			t.Fatalf("expected %s in archive, got %v", name, files)
		}
	}
	if p.State() != StateIdle {
		t.Fatalf("expected idle after run, got %s", p.State())
	}
}

func TestPipeline_EmptyRowSetProducesNoArchive(t *testing.T) {
	stub := &stubRasterizer{}
	p := NewPipeline(stub)

	result, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Archive != nil || result.Entries != 0 {
		t.Fatalf("expected no archive, got %+v", result)
	}

	dir := t.TempDir()
	path, err := result.Save(dir, ArchiveName)
	if err != nil || path != "" {
		t.Fatalf("save of empty result should be a no-op, got %q %v", path, err)
	}
	if _, err := os.Stat(filepath.Join(dir, ArchiveName)); !os.IsNotExist(err) {
		t.Fatalf("no archive file should be written")
	}
}

func TestPipeline_RejectsConcurrentExport(t *testing.T) {
	stub := &stubRasterizer{release: make(chan struct{}), started: make(chan struct{}, 1)}
	p := NewPipeline(stub)
	p.Concurrency = 1

	outcomes, err := p.Start(context.Background(), testCards(t, "a", "b"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	<-stub.started

	if p.State() != StateRasterizing {
		t.Fatalf("expected rasterizing, got %s", p.State())
	}
	if _, err := p.Start(context.Background(), testCards(t, "c")); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(stub.release)
	outcome := <-outcomes
	if outcome.Err != nil {
		t.Fatalf("first export failed: %v", outcome.Err)
	}
	if outcome.Result.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", outcome.Result.Entries)
	}

	// A new export is accepted once the first has settled.
	if _, err := p.Run(context.Background(), testCards(t, "d")); err != nil {
		t.Fatalf("second export: %v", err)
	}
}

func TestPipeline_FaultBudget(t *testing.T) {
	boom := errors.New("boom")
	cards := testCards(t, "first", "second", "last")

	strict := NewPipeline(&stubRasterizer{fail: map[int]error{2: boom}})
	result, err := strict.Run(context.Background(), cards)
	if !errors.Is(err, ErrFaultBudget) || !errors.Is(err, boom) {
		t.Fatalf("expected fault budget error wrapping the cause, got %v", err)
	}
	if result.Archive != nil {
		t.Fatalf("no archive should be produced when the budget is exceeded")
	}
	if len(result.Faults) != 1 {
		t.Fatalf("expected 1 fault, got %v", result.Faults)
	}

	lenient := NewPipeline(&stubRasterizer{fail: map[int]error{2: boom}})
	lenient.FaultBudget = 1
	result, err = lenient.Run(context.Background(), cards)
	if err != nil {
		t.Fatalf("expected export within budget to finish, got %v", err)
	}
	if result.Entries != 2 {
		t.Fatalf("expected the failed row to be absent, got %d entries", result.Entries)
	}
}

func TestPipeline_PanicIsRecordedAsFault(t *testing.T) {
	cards := testCards(t, "first", "second", "last")

	p := NewPipeline(&stubRasterizer{panics: map[int]bool{1: true}})
	result, err := p.Run(context.Background(), cards)
	if !errors.Is(err, ErrFaultBudget) {
		t.Fatalf("expected fault budget error, got %v", err)
	}
	if len(result.Faults) != 1 || result.Archive != nil {
		t.Fatalf("expected one fault and no archive, got %v", result.Faults)
	}
	if p.State() != StateIdle {
		t.Fatalf("pipeline should be idle after a panic, got %s", p.State())
	}

	lenient := NewPipeline(&stubRasterizer{panics: map[int]bool{1: true}, empty: map[int]bool{2: true}})
	lenient.FaultBudget = 2
	result, err = lenient.Run(context.Background(), cards)
	if err != nil {
		t.Fatalf("expected export within budget to finish, got %v", err)
	}
	if result.Entries != 1 || len(result.Faults) != 2 {
		t.Fatalf("expected 1 entry and 2 faults, got %d entries, faults %v", result.Entries, result.Faults)
	}
}

func TestPipeline_Canceled(t *testing.T) {
	stub := &stubRasterizer{release: make(chan struct{})}
	p := NewPipeline(stub)
	p.Concurrency = 1

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Run(ctx, testCards(t, "a", "b", "c"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if p.State() != StateIdle {
		t.Fatalf("expected idle after cancellation, got %s", p.State())
	}
}

func TestResult_Save(t *testing.T) {
	p := NewPipeline(&stubRasterizer{})
	result, err := p.Run(context.Background(), testCards(t, "only"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	path, err := result.Save(dir, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != ArchiveName {
		t.Fatalf("expected default archive name, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, ok := readZip(t, data)["only.png"]; !ok {
		t.Fatalf("expected only.png in saved archive")
	}
}
