package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Editor wraps a workbook opened for reading
type Editor struct {
	file *excelize.File
}

// OpenReader decodes a workbook from an in-memory stream
func OpenReader(r io.Reader) (*Editor, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workbook: %w", err)
	}
	return &Editor{file: file}, nil
}

// FirstSheet returns the name of the sheet at index 0
func (e *Editor) FirstSheet() (string, error) {
	sheets := e.file.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrNoSheet
	}
	return sheets[0], nil
}

// GetAllRows returns all rows from a sheet
func (e *Editor) GetAllRows(sheet string) ([][]string, error) {
	rows, err := e.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// Close closes the workbook
func (e *Editor) Close() error {
	return e.file.Close()
}
