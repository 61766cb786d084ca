package csvio

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/localrank/backend/internal/domain"
)

// SampleCSV is served to users who want a template upload
const SampleCSV = `Keywords,Brand,Branch
estate agents in belfast,Property People,Belfast
lawyers in london,Smith & Co,London
dentists in manchester,Bright Smile,Manchester
`

// Columns left out of the matches export, and the ones renamed in it
var (
	matchesExcluded = map[string]bool{
		"address":            true,
		"latitude":           true,
		"longitude":          true,
		"rating":             true,
		"ratingCount":        true,
		"category":           true,
		"phoneNumber":        true,
		"website":            true,
		"cid":                true,
		domain.KeyBrand:      true,
		domain.KeyBranch:     true,
		domain.KeyBrandMatch: true,
		"position":           true,
	}
	matchesRenamed = map[string]string{
		domain.KeyRank: "local_ranking",
	}
)

// WriteCSV writes every result as one CSV row.
// The header is the union of all keys in order of first appearance, so rows
// with different provider fields still line up.
func WriteCSV(w io.Writer, results []domain.PlaceResult) error {
	return writeTable(w, results, func(string) bool { return true }, nil)
}

// WriteMatchesCSV writes the reduced view with the display columns only.
func WriteMatchesCSV(w io.Writer, reduced []domain.PlaceResult) error {
	keep := func(key string) bool { return !matchesExcluded[key] }
	return writeTable(w, reduced, keep, matchesRenamed)
}

// WriteJSON writes the results as an indented JSON array
func WriteJSON(w io.Writer, results []domain.PlaceResult) error {
	if results == nil {
		results = []domain.PlaceResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, results []domain.PlaceResult, keep func(string) bool, rename map[string]string) error {
	rows := make([]map[string]json.RawMessage, 0, len(results))
	var columns []string
	seen := make(map[string]bool)

	for _, r := range results {
		fields := r.Fields()
		row := make(map[string]json.RawMessage, len(fields))
		for _, f := range fields {
			if !keep(f.Key) {
				continue
			}
			row[f.Key] = f.Value
			if !seen[f.Key] {
				seen[f.Key] = true
				columns = append(columns, f.Key)
			}
		}
		rows = append(rows, row)
	}

	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		if name, ok := rename[c]; ok {
			c = name
		}
		header[i] = c
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			record[i] = cell(row[c])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// cell renders a raw JSON value for a spreadsheet: strings unquoted,
// null and missing values empty, everything else as compact JSON.
func cell(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
