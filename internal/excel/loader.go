package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"textcards/internal/logger"
)

// ErrNoSheet is returned when a workbook has no sheets to read
var ErrNoSheet = errors.New("workbook has no sheets")

// Row is one spreadsheet line. Only the first cell is used as a text template.
type Row []string

// Template returns the first cell, or "" for a row without cells
func (r Row) Template() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Templates returns the text template of every row, in row order
func Templates(rows []Row) []string {
	templates := make([]string, len(rows))
	for i, row := range rows {
		templates[i] = row.Template()
	}
	return templates
}

// LoadFile reads the rows of the first sheet of the file at path.
// An empty path means nothing was selected and yields no rows and no error.
func LoadFile(path string) ([]Row, error) {
	if path == "" {
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return Load(file, filepath.Base(path))
}

// Load decodes the first sheet of a workbook stream into rows, header row included.
// Files named *.csv are read as a single comma separated sheet.
func Load(r io.Reader, name string) ([]Row, error) {
	var (
		grid [][]string
		err  error
	)

	if strings.EqualFold(filepath.Ext(name), ".csv") {
		grid, err = readCSV(r)
	} else {
		grid, err = readWorkbook(r)
	}
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(grid))
	for i, cells := range grid {
		rows[i] = Row(cells)
	}

	logger.Info("Loaded rows", "file", name, "row_count", len(rows))
	return rows, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	editor, err := OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer editor.Close()

	sheet, err := editor.FirstSheet()
	if err != nil {
		return nil, err
	}

	return editor.GetAllRows(sheet)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode csv: %w", err)
	}
	return records, nil
}
