package dataload

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/newthinker/rotation/internal/panel"
)

// PanelRecord is the Parquet schema for long-format panels: one row per
// (date, symbol) cell.
type PanelRecord struct {
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms
	Symbol string  `parquet:"symbol"`
	Value  float64 `parquet:"value"`
}

// DecodeParquet pivots long-format records into a wide panel. Symbols keep
// their order of first appearance; cells absent from the file are NaN.
func DecodeParquet(name string, data []byte) (*panel.Panel, error) {
	records, err := parquet.Read[PanelRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: reading parquet: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no data rows", name)
	}

	var symbols []string
	symbolIdx := make(map[string]int)
	dayIdx := make(map[time.Time]struct{})
	for _, rec := range records {
		if rec.Symbol == "" {
			return nil, fmt.Errorf("%s: record with blank symbol", name)
		}
		if _, ok := symbolIdx[rec.Symbol]; !ok {
			symbolIdx[rec.Symbol] = len(symbols)
			symbols = append(symbols, rec.Symbol)
		}
		dayIdx[panel.Day(time.UnixMilli(rec.Date).UTC())] = struct{}{}
	}

	dates := make([]time.Time, 0, len(dayIdx))
	for d := range dayIdx {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	rowOf := make(map[time.Time]int, len(dates))
	values := make([][]float64, len(dates))
	for i, d := range dates {
		rowOf[d] = i
		values[i] = nanRow(len(symbols))
	}

	seen := make(map[[2]int]struct{}, len(records))
	for _, rec := range records {
		i := rowOf[panel.Day(time.UnixMilli(rec.Date).UTC())]
		j := symbolIdx[rec.Symbol]
		if _, dup := seen[[2]int{i, j}]; dup {
			return nil, fmt.Errorf("%s: duplicate cell %s/%s", name, dates[i].Format(time.DateOnly), rec.Symbol)
		}
		seen[[2]int{i, j}] = struct{}{}
		values[i][j] = rec.Value
	}

	return panel.New(name, dates, symbols, values)
}

// EncodeParquet writes p in the long format read by DecodeParquet, skipping
// NaN cells.
func EncodeParquet(p *panel.Panel) ([]byte, error) {
	var records []PanelRecord
	for i, d := range p.Dates {
		for j, s := range p.Symbols {
			v := p.Values[i][j]
			if math.IsNaN(v) {
				continue
			}
			records = append(records, PanelRecord{Date: d.UnixMilli(), Symbol: s, Value: v})
		}
	}

	var buf bytes.Buffer
	if err := parquet.Write(&buf, records); err != nil {
		return nil, fmt.Errorf("%s: writing parquet: %w", p.Name, err)
	}
	return buf.Bytes(), nil
}

func nanRow(n int) []float64 {
	row := make([]float64, n)
	for j := range row {
		row[j] = math.NaN()
	}
	return row
}
