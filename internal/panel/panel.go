// Package panel holds the dated (date, symbol) -> value table shared by the
// loader and the backtest engine.
package panel

import (
	"fmt"
	"math"
	"time"
)

// Panel is an immutable dated table. Values[i][j] is the value of Symbols[j]
// on Dates[i]; missing values are NaN. Dates are strictly increasing calendar
// days in UTC.
type Panel struct {
	Name    string
	Dates   []time.Time
	Symbols []string
	Values  [][]float64

	dateIdx   map[time.Time]int
	symbolIdx map[string]int
}

// New validates the shape of the table and builds its indexes. Dates are
// truncated to calendar days.
func New(name string, dates []time.Time, symbols []string, values [][]float64) (*Panel, error) {
	if len(values) != len(dates) {
		return nil, fmt.Errorf("panel %s: %d rows for %d dates", name, len(values), len(dates))
	}

	p := &Panel{
		Name:      name,
		Dates:     make([]time.Time, len(dates)),
		Symbols:   append([]string(nil), symbols...),
		Values:    values,
		dateIdx:   make(map[time.Time]int, len(dates)),
		symbolIdx: make(map[string]int, len(symbols)),
	}

	for j, s := range symbols {
		if _, dup := p.symbolIdx[s]; dup {
			return nil, fmt.Errorf("panel %s: duplicate symbol %q", name, s)
		}
		p.symbolIdx[s] = j
	}

	for i, d := range dates {
		day := Day(d)
		if i > 0 && !day.After(p.Dates[i-1]) {
			return nil, fmt.Errorf("panel %s: dates not strictly increasing at %s", name, day.Format(time.DateOnly))
		}
		if len(values[i]) != len(symbols) {
			return nil, fmt.Errorf("panel %s: row %s has %d values for %d symbols",
				name, day.Format(time.DateOnly), len(values[i]), len(symbols))
		}
		p.Dates[i] = day
		p.dateIdx[day] = i
	}

	return p, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Len returns the number of dates.
func (p *Panel) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Dates)
}

// Empty reports whether the panel has no dates or no symbols.
func (p *Panel) Empty() bool {
	return p.Len() == 0 || len(p.Symbols) == 0
}

// DateIndex returns the row of date d.
func (p *Panel) DateIndex(d time.Time) (int, bool) {
	i, ok := p.dateIdx[Day(d)]
	return i, ok
}

// SymbolIndex returns the column of symbol s.
func (p *Panel) SymbolIndex(s string) (int, bool) {
	j, ok := p.symbolIdx[s]
	return j, ok
}

// Has reports whether symbol s is a column.
func (p *Panel) Has(s string) bool {
	_, ok := p.symbolIdx[s]
	return ok
}

// At returns the value at row i for symbol s, NaN when s is not a column.
func (p *Panel) At(i int, s string) float64 {
	j, ok := p.symbolIdx[s]
	if !ok {
		return math.NaN()
	}
	return p.Values[i][j]
}

// Column returns a copy of the series for symbol s.
func (p *Panel) Column(s string) ([]float64, bool) {
	j, ok := p.symbolIdx[s]
	if !ok {
		return nil, false
	}
	col := make([]float64, len(p.Dates))
	for i := range p.Dates {
		col[i] = p.Values[i][j]
	}
	return col, true
}

// Reindex returns a panel laid out on the given dates and symbols. Cells with
// no counterpart in p are NaN.
func (p *Panel) Reindex(dates []time.Time, symbols []string) (*Panel, error) {
	values := make([][]float64, len(dates))
	for i, d := range dates {
		row := make([]float64, len(symbols))
		src, hasRow := p.DateIndex(d)
		for j, s := range symbols {
			row[j] = math.NaN()
			if !hasRow {
				continue
			}
			if k, ok := p.symbolIdx[s]; ok {
				row[j] = p.Values[src][k]
			}
		}
		values[i] = row
	}
	return New(p.Name, dates, symbols, values)
}

// Between returns the rows whose calendar date lies in [start, end].
func (p *Panel) Between(start, end time.Time) *Panel {
	lo, hi := Day(start), Day(end)

	out := &Panel{
		Name:      p.Name,
		Symbols:   p.Symbols,
		symbolIdx: p.symbolIdx,
		dateIdx:   make(map[time.Time]int),
	}
	for i, d := range p.Dates {
		if d.Before(lo) || d.After(hi) {
			continue
		}
		out.dateIdx[d] = len(out.Dates)
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, p.Values[i])
	}
	return out
}

// PctChange returns the fractional change of symbol s at row i against the
// closest earlier row holding a value. NaN when the value at i is missing,
// when no earlier observation exists, or when s is not a column.
func (p *Panel) PctChange(i int, s string) float64 {
	j, ok := p.symbolIdx[s]
	if !ok || i <= 0 || i >= len(p.Dates) {
		return math.NaN()
	}
	cur := p.Values[i][j]
	if math.IsNaN(cur) {
		return math.NaN()
	}
	for k := i - 1; k >= 0; k-- {
		prev := p.Values[k][j]
		if !math.IsNaN(prev) {
			return cur/prev - 1
		}
	}
	return math.NaN()
}
