package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/localrank/backend/internal/domain"
)

const utf8BOM = "\ufeff"

// Required columns, matched case-insensitively after trimming
const (
	columnKeywords = "keywords"
	columnBrand    = "brand"
	columnBranch   = "branch"
)

// ParseQueries reads an uploaded CSV into query rows.
// Rows with an empty keyword, brand or branch are dropped. Every error wraps
// domain.ErrInvalidInput.
func ParseQueries(r io.Reader) ([]domain.QueryRow, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, inputError(domain.ErrEmptyInput)
	}
	if err != nil {
		return nil, inputError(fmt.Errorf("%w: %v", domain.ErrMalformedCSV, err))
	}

	idx := columnIndex(header)
	kw, okKw := idx[columnKeywords]
	brand, okBrand := idx[columnBrand]
	branch, okBranch := idx[columnBranch]

	var rows []domain.QueryRow
	dataRows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, inputError(fmt.Errorf("%w: %v", domain.ErrMalformedCSV, err))
		}
		dataRows++

		if !okKw || !okBrand || !okBranch {
			continue
		}
		row := domain.QueryRow{
			Keyword: field(record, kw),
			Brand:   field(record, brand),
			Branch:  field(record, branch),
		}
		if row.Keyword == "" || row.Brand == "" || row.Branch == "" {
			continue
		}
		rows = append(rows, row)
	}

	if dataRows == 0 {
		return nil, inputError(domain.ErrEmptyInput)
	}
	if !okKw || !okBrand || !okBranch {
		return nil, inputError(domain.ErrMissingColumns)
	}
	if len(rows) == 0 {
		return nil, inputError(domain.ErrNoValidRows)
	}
	return rows, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	return idx
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func inputError(err error) error {
	return domain.InputError(err)
}
