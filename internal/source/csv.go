package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const bom = "\ufeff"

// table is a CSV file held in memory with its header index
type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(r io.Reader, key func(string) string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	t := &table{header: make(map[string]int, len(header))}
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, bom)
		}
		k := key(col)
		if _, dup := t.header[k]; !dup {
			t.header[k] = i
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

// missing returns the required columns absent from the header, in the given order
func (t *table) missing(required []string) []string {
	var out []string
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

// get returns the trimmed value of col in row, or "" when the column or cell is absent
func (t *table) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseNumber parses a figure written with thousands separators. Anything unparseable
// counts as zero.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
