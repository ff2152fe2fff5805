package qrcatalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultLinkColumn = "link"
	DefaultNameColumn = "nombre_producto"
)

var (
	ErrMissingColumn    = errors.New("missing column")
	ErrUnsupportedSheet = errors.New("unsupported spreadsheet type")
	// Wraps every failure to load the input rows
	ErrReadSheet        = errors.New("failed to read spreadsheet")
)

// Row is one product line of the input spreadsheet. Index is the zero based
// position among data rows and decides where the label lands in the catalog.
type Row struct {
	Index int
	Link  string `validate:"required,url"`
	Name  string
}

type SheetColumns struct {
	Link string
	Name string
}

func DefaultSheetColumns() SheetColumns {
	return SheetColumns{Link: DefaultLinkColumn, Name: DefaultNameColumn}
}

// CheckSheetType reports whether ReadSheet can read a file with this name.
// Legacy .xls workbooks are binary BIFF files and must be saved as .xlsx first.
func CheckSheetType(name string) error {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm", ".csv":
		return nil
	case ".xls":
		return fmt.Errorf("%w: .xls, save the workbook as .xlsx", ErrUnsupportedSheet)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedSheet, ext)
	}
}

// ReadSheet loads every data row from an .xlsx or .csv file, in order.
func ReadSheet(path string, cols SheetColumns) ([]Row, error) {
	if err := CheckSheetType(path); err != nil {
		return nil, err
	}

	var (
		records [][]string
		err     error
	)

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		records, err = ReadCSV(path)
	} else {
		records, err = ReadXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	return RowsFromRecords(records, cols)
}

// ReadXLSX returns the cells of the first sheet of the workbook.
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return [][]string{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}

	return records, nil
}

func RowsFromRecords(records [][]string, cols SheetColumns) ([]Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no header row", ErrMissingColumn)
	}

	for i := range records[0] {
		records[0][i] = strings.TrimSpace(records[0][i])
	}

	for _, want := range []string{cols.Link, cols.Name} {
		found := false
		for _, header := range records[0] {
			if header == want {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, want)
		}
	}

	maps, err := ParseRecordsToMap(records)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(maps))
	for _, m := range maps {
		link := strings.TrimSpace(m[cols.Link])
		name := strings.TrimSpace(m[cols.Name])
		// Blank lines are not products
		if link == "" && name == "" {
			continue
		}
		rows = append(rows, Row{
			Index: len(rows),
			Link:  link,
			Name:  name,
		})
	}

	return rows, nil
}
