// Package export rasterizes rendered cards and bundles them into a zip archive.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"textcards/internal/card"
	"textcards/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// State is the lifecycle of a pipeline.
type State int

const (
	StateIdle State = iota
	StateRasterizing
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateRasterizing:
		return "rasterizing"
	case StateFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// Rasterizer turns a card into an image.
type Rasterizer interface {
	Rasterize(ctx context.Context, c card.Card) (*image.NRGBA, error)
}

// Result is the outcome of one export run. Archive is nil when there was
// nothing to export.
type Result struct {
	ID       string
	Archive  []byte
	Entries  int
	Faults   []error
	Duration time.Duration
}

// Save writes the archive into dir under name and returns the written path.
// It does nothing for a result without an archive.
func (r Result) Save(dir, name string) (string, error) {
	if r.Archive == nil {
		return "", nil
	}
	if name == "" {
		name = ArchiveName
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, r.Archive, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}

	logger.Info("Saved archive", "export_id", r.ID, "path", path, "entries", r.Entries)
	return path, nil
}

// Outcome is delivered once an export started with Start has settled.
type Outcome struct {
	Result Result
	Err    error
}

// Pipeline exports cards as PNG images collected into one archive.
// At most one export runs at a time: idle -> rasterizing -> finalizing -> idle.
type Pipeline struct {
	Rasterizer  Rasterizer
	Concurrency int
	// FaultBudget is how many cards may fail before the export is abandoned.
	FaultBudget int
	Now         func() time.Time
	IDGenerator func() string

	mu    sync.Mutex
	state State
}

// NewPipeline creates a pipeline with default settings.
func NewPipeline(r Rasterizer) *Pipeline {
	return &Pipeline{
		Rasterizer:  r,
		Concurrency: runtime.NumCPU(),
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// acquire moves an idle pipeline to rasterizing, or reports ErrInFlight.
func (p *Pipeline) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return ErrInFlight
	}
	p.state = StateRasterizing
	return nil
}

// Run exports cards and blocks until the archive is finalized.
func (p *Pipeline) Run(ctx context.Context, cards []card.Card) (Result, error) {
	outcomes, err := p.Start(ctx, cards)
	if err != nil {
		return Result{}, err
	}
	outcome := <-outcomes
	return outcome.Result, outcome.Err
}

// Start begins an export and returns immediately. The outcome is delivered on
// the returned channel. A second Start while one is running fails with ErrInFlight.
func (p *Pipeline) Start(ctx context.Context, cards []card.Card) (<-chan Outcome, error) {
	if p.Rasterizer == nil {
		return nil, errors.New("export pipeline has no rasterizer")
	}
	if err := p.acquire(); err != nil {
		logger.Warn("Rejected export request", "state", p.State().String())
		return nil, err
	}

	outcomes := make(chan Outcome, 1)
	go func() {
		result, err := p.run(ctx, cards)
		// Back to idle before the outcome is observable.
		p.setState(StateIdle)
		outcomes <- Outcome{Result: result, Err: err}
		close(outcomes)
	}()
	return outcomes, nil
}

func (p *Pipeline) run(ctx context.Context, cards []card.Card) (Result, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	newID := p.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}

	started := now()
	result := Result{ID: newID()}

	if len(cards) == 0 {
		logger.Info("Nothing to export", "export_id", result.ID)
		return result, nil
	}

	ids := make([]string, len(cards))
	for i := range cards {
		ids[i] = newID()
	}

	tracker := NewTracker(ids)
	archive := NewArchive()

	logger.Info("Export started", "export_id", result.ID, "card_count", len(cards))

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup
	for i, c := range cards {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cards never issued still have to be accounted for.
			for _, id := range ids[i:] {
				tracker.Fail(id, err)
			}
			break
		}

		wg.Add(1)
		go func(id string, c card.Card) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Rasterizer panicked", "export_id", result.ID, "row", c.Index, "panic", r)
					tracker.Fail(id, fmt.Errorf("row %d: panic: %v", c.Index, r))
				}
			}()

			data, err := p.rasterize(ctx, c)
			if err != nil {
				logger.Error("Failed to rasterize card", "export_id", result.ID, "row", c.Index, "error", err)
				tracker.Fail(id, fmt.Errorf("row %d: %w", c.Index, err))
				return
			}
			archive.Put(c.Index, FileName(c.Template), data)
			tracker.Done(id)
		}(ids[i], c)
	}

	wg.Wait()
	<-tracker.Finished()

	result.Faults = tracker.Faults()
	result.Duration = now().Sub(started)

	if err := ctx.Err(); err != nil {
		logger.Warn("Export canceled", "export_id", result.ID, "error", err)
		return result, err
	}
	if len(result.Faults) > p.FaultBudget {
		logger.Error("Export abandoned", "export_id", result.ID, "faults", len(result.Faults), "budget", p.FaultBudget)
		return result, fmt.Errorf("%w: %d of %d cards failed: %w",
			ErrFaultBudget, len(result.Faults), len(cards), errors.Join(result.Faults...))
	}

	p.setState(StateFinalizing)
	data, err := archive.Bytes()
	if err != nil {
		return result, err
	}

	result.Archive = data
	result.Entries = archive.Len()
	result.Duration = now().Sub(started)

	logger.Info("Export finished",
		"export_id", result.ID,
		"entries", result.Entries,
		"faults", len(result.Faults),
		"duration", result.Duration)
	return result, nil
}

func (p *Pipeline) rasterize(ctx context.Context, c card.Card) ([]byte, error) {
	img, err := p.Rasterizer.Rasterize(ctx, c)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("rasterizer returned no image")
	}

	var buf bytes.Buffer
	if err := card.EncodePNG(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
