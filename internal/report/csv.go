package report

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/rotation/internal/backtest"
)

// WriteCSV writes a return or cumulative series as date,portfolio,benchmark.
// NaN cells are left empty.
func WriteCSV(out io.Writer, rows []backtest.Row) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"date", "portfolio", "benchmark"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date.Format(time.DateOnly),
			fmtFloat(r.Portfolio),
			fmtFloat(r.Benchmark),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteBasketsCSV writes one line per rebalance date with the held symbols
// joined by semicolons.
func WriteBasketsCSV(out io.Writer, res *backtest.Result) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"date", "direction", "universe", "symbols"}); err != nil {
		return err
	}
	for _, b := range res.Baskets {
		held := b.Held(res.Config.Direction)
		record := []string{
			b.Date.Format(time.DateOnly),
			string(res.Config.Direction),
			strconv.Itoa(len(b.Universe)),
			strings.Join(held, ";"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
