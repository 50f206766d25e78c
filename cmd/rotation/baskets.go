package main

import (
	"fmt"
	"os"

	"github.com/newthinker/rotation/internal/dataload"
	"github.com/newthinker/rotation/internal/report"
	"github.com/spf13/cobra"
)

var (
	basketFlags strategyFlags
	basketDate  string
)

var basketsCmd = &cobra.Command{
	Use:   "baskets",
	Short: "Show the stock basket held on a rebalance date",
	Long: `Run the backtest and print the basket held on --date. Without --date the
selectable rebalance dates are listed.`,
	Args: cobra.NoArgs,
	RunE: runBaskets,
}

func init() {
	basketFlags.bind(basketsCmd)
	basketsCmd.Flags().StringVar(&basketDate, "date", "", "rebalance date to show")

	rootCmd.AddCommand(basketsCmd)
}

func runBaskets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	strategy, err := basketFlags.apply(cmd, cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	result, err := runStrategy(cmd.Context(), cfg, strategy, log)
	if err != nil {
		return err
	}

	r := report.NewRenderer(os.Stdout, colorOutput(false))
	if basketDate == "" {
		return r.Dates(result)
	}

	d, err := dataload.ParseDate(basketDate)
	if err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}
	return r.Basket(result, d)
}
