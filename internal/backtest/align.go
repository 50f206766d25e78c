package backtest

import (
	"fmt"
	"time"

	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/panel"
)

// Aligned is the output of the alignment stage. Momentum, Alpha and Prices
// are restricted to the requested date range; FullPrices keeps every alpha
// date so the first rebalance date still has a prior observation.
type Aligned struct {
	Momentum   *panel.Panel
	Alpha      *panel.Panel
	Prices     *panel.Panel
	FullPrices *panel.Panel
}

// Align reindexes momentum onto the alpha dates and symbols and prices onto
// the alpha dates (alpha symbols plus the benchmark column), then filters all
// three to [start, end]. An alpha panel without dates yields empty panels.
func Align(set panel.Set, benchmark string, start, end time.Time) (*Aligned, error) {
	if set.Momentum == nil || set.Alpha == nil || set.Prices == nil {
		return nil, core.WrapError(core.ErrDataLoad, fmt.Errorf("momentum, alpha and prices panels are all required"))
	}

	alpha := set.Alpha
	symbols := alpha.Symbols

	momentum, err := set.Momentum.Reindex(alpha.Dates, symbols)
	if err != nil {
		return nil, core.WrapError(core.ErrDataLoad, err)
	}

	priceCols := symbols
	if !alpha.Has(benchmark) {
		priceCols = append(append([]string(nil), symbols...), benchmark)
	}
	prices, err := set.Prices.Reindex(alpha.Dates, priceCols)
	if err != nil {
		return nil, core.WrapError(core.ErrDataLoad, err)
	}

	if alpha.Len() == 0 {
		return &Aligned{Momentum: momentum, Alpha: alpha, Prices: prices, FullPrices: prices}, nil
	}

	return &Aligned{
		Momentum:   momentum.Between(start, end),
		Alpha:      alpha.Between(start, end),
		Prices:     prices.Between(start, end),
		FullPrices: prices,
	}, nil
}
