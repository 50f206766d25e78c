package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/newthinker/rotation/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backtestFlags        strategyFlags
	backtestFormat       string
	backtestTable        bool
	backtestExport       string
	backtestBasketExport string
	backtestNoColor      bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the basket-rotation backtest",
	Long: `Align the momentum, alpha and price panels, select baskets on every
rebalance date and report portfolio and benchmark returns.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	backtestFlags.bind(backtestCmd)
	backtestCmd.Flags().StringVar(&backtestFormat, "format", "text", "output format: text or json")
	backtestCmd.Flags().BoolVar(&backtestTable, "table", false, "print the cumulative series")
	backtestCmd.Flags().StringVar(&backtestExport, "export", "", "write the cumulative series to this CSV file")
	backtestCmd.Flags().StringVar(&backtestBasketExport, "export-baskets", "", "write the held baskets to this CSV file")
	backtestCmd.Flags().BoolVar(&backtestNoColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if backtestFormat != "text" && backtestFormat != "json" {
		return fmt.Errorf("invalid --format %q (expected text or json)", backtestFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	strategy, err := backtestFlags.apply(cmd, cfg)
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

	if backtestExport != "" {
		if err := writeFile(backtestExport, func(f *os.File) error { return report.WriteCSV(f, result.Cumulative) }); err != nil {
			return err
		}
		log.Info("cumulative series exported", zap.String("path", backtestExport))
	}
	if backtestBasketExport != "" {
		if err := writeFile(backtestBasketExport, func(f *os.File) error { return report.WriteBasketsCSV(f, result) }); err != nil {
			return err
		}
		log.Info("baskets exported", zap.String("path", backtestBasketExport))
	}

	if backtestFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	r := report.NewRenderer(os.Stdout, colorOutput(backtestNoColor))
	if err := r.Summary(result); err != nil {
		return err
	}
	if backtestTable {
		fmt.Println()
		return r.Cumulative(result)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
