package backtest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/panel"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultStrategyConfig mirrors the dashboard defaults.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		TradeFreq:        5,
		TopNAlphaExclude: 5,
		UseAlphaFilter:   false,
		TopNMomentum:     10,
		Direction:        core.DirectionLong,
		BenchmarkMode:    core.BenchmarkRebalance,
		BenchmarkSymbol:  DefaultBenchmark,
	}
}

// Validate checks the parameter bundle. All failures wrap core.ErrConfigInvalid.
func (c StrategyConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describe(fe))
			}
			return core.WrapError(core.ErrConfigInvalid, errors.New(strings.Join(msgs, "; ")))
		}
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && panel.Day(c.StartDate).After(panel.Day(c.EndDate)) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("start_date %s is after end_date %s",
				c.StartDate.Format(time.DateOnly), c.EndDate.Format(time.DateOnly)))
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// withDefaults fills the benchmark settings and the open ends of the date
// range from the alpha index.
func (c StrategyConfig) withDefaults(alpha *panel.Panel) StrategyConfig {
	if c.BenchmarkSymbol == "" {
		c.BenchmarkSymbol = DefaultBenchmark
	}
	if c.BenchmarkMode == "" {
		c.BenchmarkMode = core.BenchmarkRebalance
	}
	if alpha.Len() > 0 {
		if c.StartDate.IsZero() {
			c.StartDate = alpha.Dates[0]
		}
		if c.EndDate.IsZero() {
			c.EndDate = alpha.Dates[alpha.Len()-1]
		}
	}
	return c
}
