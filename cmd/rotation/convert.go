package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/rotation/internal/dataload"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <panel.csv> [panel.parquet]",
	Short: "Convert a wide CSV panel into long-format Parquet",
	Long: `Convert a wide CSV panel (date column followed by one column per symbol)
into a Parquet file of (date, symbol, value) rows. Missing cells are dropped.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	in := args[0]
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".parquet"
	if len(args) == 2 {
		out = args[1]
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	p, err := dataload.DecodeCSV(name, data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", in, err)
	}

	encoded, err := dataload.EncodeParquet(p)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", out, err)
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return err
	}

	fmt.Printf("%s: %d dates x %d symbols -> %s\n", in, p.Len(), len(p.Symbols), out)
	return nil
}
