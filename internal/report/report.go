// Package report renders backtest results for terminals and spreadsheets.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/newthinker/rotation/internal/backtest"
	"github.com/newthinker/rotation/internal/core"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Renderer writes human-readable views of a Result.
type Renderer struct {
	w     io.Writer
	color bool
}

// NewRenderer creates a renderer. Color enables ANSI styling of headings and
// returns; leave it off for pipes and files.
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) signed(v float64) string {
	text := backtest.FormatPercent(v)
	switch {
	case !r.color || math.IsNaN(v):
		return text
	case v < 0:
		return lossStyle.Render(text)
	default:
		return gainStyle.Render(text)
	}
}

// Summary writes the run parameters, the total returns and any warnings.
func (r *Renderer) Summary(res *backtest.Result) error {
	cfg := res.Config
	var b strings.Builder

	fmt.Fprintln(&b, r.style(headerStyle, "Strategy Parameters"))
	fmt.Fprintf(&b, "  Period            : %s .. %s\n", fmtDate(cfg.StartDate), fmtDate(cfg.EndDate))
	fmt.Fprintf(&b, "  Trade Frequency   : %d\n", cfg.TradeFreq)
	if cfg.UseAlphaFilter {
		fmt.Fprintf(&b, "  Alpha Exclusion   : top %d\n", cfg.TopNAlphaExclude)
	} else {
		fmt.Fprintln(&b, "  Alpha Exclusion   : off")
	}
	fmt.Fprintf(&b, "  Top N Momentum    : %d\n", cfg.TopNMomentum)
	fmt.Fprintf(&b, "  Direction         : %s\n", cfg.Direction)
	fmt.Fprintf(&b, "  Benchmark         : %s (%s)\n", cfg.BenchmarkSymbol, cfg.BenchmarkMode)
	fmt.Fprintf(&b, "  Rebalance Dates   : %d\n", len(res.RebalanceDates))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Benchmark Return : %s\n", r.signed(res.BenchmarkReturn))
	fmt.Fprintf(&b, "Portfolio Return : %s\n", r.signed(res.PortfolioReturn))

	if len(res.Warnings) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, r.style(warnStyle, fmt.Sprintf("Warnings (%d)", len(res.Warnings))))
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "  %s  %-15s %s\n", fmtDate(w.Date), w.Code, w.Message)
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Cumulative writes the cumulative performance series as an aligned table.
func (r *Renderer) Cumulative(res *backtest.Result) error {
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPORTFOLIO\tBENCHMARK\t")
	fmt.Fprintln(tw, "----\t---------\t---------\t")
	for _, row := range res.Cumulative {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", fmtDate(row.Date), fmtLevel(row.Portfolio), fmtLevel(row.Benchmark))
	}
	return tw.Flush()
}

// Basket writes the basket held on date d for the run's direction. d must be
// a rebalance date of the result.
func (r *Renderer) Basket(res *backtest.Result, d time.Time) error {
	basket, ok := res.Basket(d)
	if !ok {
		return core.WrapError(core.ErrNotFound, fmt.Errorf("%s is not a rebalance date", fmtDate(d)))
	}

	label := "Long Basket:"
	if res.Config.Direction == core.DirectionShort {
		label = "Short Basket:"
	}
	held := basket.Held(res.Config.Direction)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.style(headerStyle, fmtDate(d)), fmt.Sprintf("(%d eligible)", len(basket.Universe)))
	fmt.Fprintf(&b, "%s [%s]\n", label, strings.Join(held, ", "))
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Dates writes the selectable rebalance dates, one per line.
func (r *Renderer) Dates(res *backtest.Result) error {
	var b strings.Builder
	for _, d := range res.RebalanceDates {
		fmt.Fprintln(&b, fmtDate(d))
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func fmtLevel(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}
