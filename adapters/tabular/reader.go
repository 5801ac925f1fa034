package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"datachat/domain/table"
	"datachat/ports"

	"github.com/xuri/excelize/v2"
)

// FileKind selects the parse strategy for a stored file
type FileKind string

const (
	KindCSV   FileKind = "csv"
	KindExcel FileKind = "excel"
)

// KindForPath resolves the parse strategy from the file extension.
// Anything that is not .csv is handed to the spreadsheet reader, matching the
// validator's allow-set of csv and Excel formats.
func KindForPath(filePath string) FileKind {
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		return KindCSV
	}
	return KindExcel
}

// Reader parses CSV and Excel files into Frames
type Reader struct{}

// NewReader creates a file reader for both supported formats
func NewReader() *Reader {
	return &Reader{}
}

var _ ports.TableReader = (*Reader)(nil)

// Read parses the file at filePath into a Frame
func (r *Reader) Read(filePath string) (*table.Frame, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("data file not found: %s", filePath)
	}

	switch KindForPath(filePath) {
	case KindCSV:
		return r.readCSV(filePath)
	default:
		return r.readExcel(filePath)
	}
}

func (r *Reader) readCSV(filePath string) (*table.Frame, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are padded by the frame builder
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	return table.NewFrame(rows), nil
}

func (r *Reader) readExcel(filePath string) (*table.Frame, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	// First sheet only, matching the single-table ingestion model
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return table.NewFrame(rows), nil
}
