package qrcatalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadCSV reads and parses a CSV file, returning the data as a slice of string slices.
// Each inner slice represents a row of the CSV.
func ReadCSV(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	return ReadCSVFromReader(file)
}

func ReadCSVFromReader(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	// Spreadsheet exports do not always pad short rows
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return records, nil
}

// ParseRecordsToMap keys every data row by the header row. A header seen
// again gets a numeric suffix ("link", "link_2", "link_3") and cells past the
// end of a short row read as "".
//
//	records, err := ReadCSV(filename)
//	if err != nil {
//		return nil, err
//	}
//	rows, err := ParseRecordsToMap(records)
func ParseRecordsToMap(records [][]string) ([]map[string]string, error) {
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	keys := uniqueHeaders(records[0])
	rows := make([]map[string]string, 0, len(records)-1)

	for _, record := range records[1:] {
		row := make(map[string]string, len(keys))
		for j, key := range keys {
			var cell string
			if j < len(record) {
				cell = record[j]
			}
			row[key] = cell
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func uniqueHeaders(header []string) []string {
	seen := make(map[string]int, len(header))
	keys := make([]string, len(header))

	for i, name := range header {
		seen[name]++
		keys[i] = name
		if n := seen[name]; n > 1 {
			keys[i] = fmt.Sprintf("%s_%d", name, n)
		}
	}

	return keys
}
