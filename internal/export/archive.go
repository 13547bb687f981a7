package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"sync"
)

type entry struct {
	index int
	data  []byte
}

// Archive collects export artifacts in memory until it is finalized.
// Entries are keyed by name; on a name collision the entry of the later row wins,
// regardless of the order in which rows finished.
type Archive struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewArchive creates an empty archive.
func NewArchive() *Archive {
	return &Archive{entries: make(map[string]entry)}
}

// Put stores data under name for the row at index.
func (a *Archive) Put(index int, name string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.entries[name]; ok && existing.index > index {
		return
	}
	a.entries[name] = entry{index: index, data: data}
}

// Len returns the number of distinct entries.
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Names returns entry names ordered by row index.
func (a *Archive) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sortedNames()
}

func (a *Archive) sortedNames() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return a.entries[names[i]].index < a.entries[names[j]].index
	})
	return names
}

// Bytes finalizes the archive into a zip file.
func (a *Archive) Bytes() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range a.sortedNames() {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := w.Write(a.entries[name].data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
