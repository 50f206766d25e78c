package panel

// Set bundles the three input panels of a backtest run.
type Set struct {
	Momentum *Panel
	Alpha    *Panel
	Prices   *Panel
}
