package dataload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/rotation/internal/panel"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV parses a wide panel: the header row holds the symbols, the first
// column holds day-first dates. Blank and NA cells become NaN. Rows are
// sorted by date; a repeated date is an error.
func DecodeCSV(name string, data []byte) (*panel.Panel, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", name, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s: header has no symbol columns", name)
	}
	symbols := make([]string, len(header)-1)
	for j, h := range header[1:] {
		symbols[j] = strings.TrimSpace(h)
		if symbols[j] == "" {
			return nil, fmt.Errorf("%s: blank symbol in header column %d", name, j+2)
		}
	}

	type row struct {
		date   time.Time
		values []float64
	}
	var rows []row

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, line, err)
		}

		d, err := ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, line, err)
		}

		values := make([]float64, len(symbols))
		for j, cell := range rec[1:] {
			v, err := parseValue(cell)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d, column %s: %w", name, line, symbols[j], err)
			}
			values[j] = v
		}
		rows = append(rows, row{date: d, values: values})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no data rows", name)
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].date.Before(rows[b].date) })

	dates := make([]time.Time, len(rows))
	values := make([][]float64, len(rows))
	for i, rw := range rows {
		if i > 0 && rw.date.Equal(dates[i-1]) {
			return nil, fmt.Errorf("%s: duplicate date %s", name, rw.date.Format(time.DateOnly))
		}
		dates[i] = rw.date
		values[i] = rw.values
	}

	return panel.New(name, dates, symbols, values)
}

func parseValue(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "na", "nan", "n/a", "null", "#n/a", "-":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
}
