package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/billbot/internal/catalog"
	enc "github.com/MrJamesThe3rd/billbot/internal/encoding"
)

// Parser reads project catalog exports laid out as name;rate;active.
// The header row is optional; when present its column names may be English
// or Italian and in any order.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]catalog.CreateParams, error) {
	utf8r, charset, err := enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	slog.Debug("parsing project csv", "charset", charset)

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	cols, ok := detectHeader(rows[0])
	start := 1

	if !ok {
		cols = defaultColumns
		start = 0
	}

	return parseRows(cols, rows[start:], start)
}

type columns struct {
	name   int
	rate   int
	active int
}

var defaultColumns = columns{name: 0, rate: 1, active: 2}

var (
	nameHeaders   = []string{"name", "nome", "project", "progetto", "client", "cliente"}
	rateHeaders   = []string{"rate", "tariffa", "daily_rate", "default_rate"}
	activeHeaders = []string{"active", "attivo", "attiva"}
)

// detectHeader reports whether row names at least the name and rate columns.
func detectHeader(row []string) (columns, bool) {
	cols := columns{name: -1, rate: -1, active: -1}

	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))

		switch {
		case slices.Contains(nameHeaders, name):
			cols.name = i
		case slices.Contains(rateHeaders, name):
			cols.rate = i
		case slices.Contains(activeHeaders, name):
			cols.active = i
		}
	}

	return cols, cols.name >= 0 && cols.rate >= 0
}

// parseRows converts data rows into create params. offset is the 0-based
// index of the first data row in the file, used for error messages.
func parseRows(cols columns, rows [][]string, offset int) ([]catalog.CreateParams, error) {
	var params []catalog.CreateParams

	for i, row := range rows {
		rowNum := offset + i + 1

		if isBlank(row) {
			continue
		}

		name := cellValue(row, cols.name)
		if name == "" {
			return nil, fmt.Errorf("row %d: missing name", rowNum)
		}

		rate, err := parseRate(cellValue(row, cols.rate))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid rate %q", rowNum, cellValue(row, cols.rate))
		}

		active, ok := parseActive(cellValue(row, cols.active))
		if !ok {
			return nil, fmt.Errorf("row %d: invalid active flag %q", rowNum, cellValue(row, cols.active))
		}

		params = append(params, catalog.CreateParams{
			Name:   name,
			Rate:   rate,
			Active: active,
		})
	}

	return params, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
