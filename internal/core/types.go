package core

import (
	"fmt"
	"strings"
)

// Direction selects which basket the portfolio return tracks.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// ParseDirection accepts "long"/"short" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionLong, DirectionShort:
		return d, nil
	default:
		return "", WrapError(ErrConfigInvalid, fmt.Errorf("unknown direction %q", s))
	}
}

// Sign returns +1 for long and -1 for short.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// BenchmarkMode controls the granularity of the benchmark return.
type BenchmarkMode string

const (
	// BenchmarkRebalance compounds the benchmark between consecutive rebalance dates.
	BenchmarkRebalance BenchmarkMode = "rebalance"
	// BenchmarkDaily takes the single-period change at each rebalance date.
	BenchmarkDaily BenchmarkMode = "daily"
)

// ParseBenchmarkMode accepts "rebalance"/"daily"; empty means rebalance.
func ParseBenchmarkMode(s string) (BenchmarkMode, error) {
	switch m := BenchmarkMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return BenchmarkRebalance, nil
	case BenchmarkRebalance, BenchmarkDaily:
		return m, nil
	default:
		return "", WrapError(ErrConfigInvalid, fmt.Errorf("unknown benchmark mode %q", s))
	}
}
