package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/rotation/internal/backtest"
	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/dataload"
	"github.com/spf13/viper"
)

type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DataConfig locates the three panel files.
type DataConfig struct {
	Source    string   `mapstructure:"source"` // "localfs" or "s3"
	Dir       string   `mapstructure:"dir"`    // For localfs
	S3        S3Config `mapstructure:"s3"`     // For S3
	Momentum  string   `mapstructure:"momentum"`
	Alpha     string   `mapstructure:"alpha"`
	Prices    string   `mapstructure:"prices"`
	CacheSize int      `mapstructure:"cache_size"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// StrategyConfig holds the default strategy parameters. Dates are
// YYYY-MM-DD; empty means the first or last available date.
type StrategyConfig struct {
	StartDate        string `mapstructure:"start_date"`
	EndDate          string `mapstructure:"end_date"`
	TradeFreq        int    `mapstructure:"trade_freq"`
	TopNAlphaExclude int    `mapstructure:"top_n_alpha_exclude"`
	UseAlphaFilter   bool   `mapstructure:"use_alpha_filter"`
	TopNMomentum     int    `mapstructure:"top_n_momentum"`
	Direction        string `mapstructure:"direction"`
	BenchmarkMode    string `mapstructure:"benchmark_mode"`
	Benchmark        string `mapstructure:"benchmark"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides, e.g. ROTATION_DATA_DIR
	v.SetEnvPrefix("ROTATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	files := dataload.DefaultFiles()
	strategy := backtest.DefaultStrategyConfig()

	return &Config{
		Data: DataConfig{
			Source:    "localfs",
			Dir:       ".",
			Momentum:  files.Momentum,
			Alpha:     files.Alpha,
			Prices:    files.Prices,
			CacheSize: 16,
		},
		Strategy: StrategyConfig{
			TradeFreq:        strategy.TradeFreq,
			TopNAlphaExclude: strategy.TopNAlphaExclude,
			UseAlphaFilter:   strategy.UseAlphaFilter,
			TopNMomentum:     strategy.TopNMomentum,
			Direction:        string(strategy.Direction),
			BenchmarkMode:    string(strategy.BenchmarkMode),
			Benchmark:        strategy.BenchmarkSymbol,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Files returns the panel file names for the loader.
func (d DataConfig) Files() dataload.Files {
	return dataload.Files{
		Momentum: d.Momentum,
		Alpha:    d.Alpha,
		Prices:   d.Prices,
	}
}

// Backtest converts the defaults into an engine parameter bundle.
func (s StrategyConfig) Backtest() (backtest.StrategyConfig, error) {
	direction, err := core.ParseDirection(s.Direction)
	if err != nil {
		return backtest.StrategyConfig{}, err
	}
	mode, err := core.ParseBenchmarkMode(s.BenchmarkMode)
	if err != nil {
		return backtest.StrategyConfig{}, err
	}
	start, err := parseOptionalDate("start_date", s.StartDate)
	if err != nil {
		return backtest.StrategyConfig{}, err
	}
	end, err := parseOptionalDate("end_date", s.EndDate)
	if err != nil {
		return backtest.StrategyConfig{}, err
	}

	return backtest.StrategyConfig{
		StartDate:        start,
		EndDate:          end,
		TradeFreq:        s.TradeFreq,
		TopNAlphaExclude: s.TopNAlphaExclude,
		UseAlphaFilter:   s.UseAlphaFilter,
		TopNMomentum:     s.TopNMomentum,
		Direction:        direction,
		BenchmarkMode:    mode,
		BenchmarkSymbol:  s.Benchmark,
	}, nil
}

func parseOptionalDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s must be YYYY-MM-DD, got %q", field, s))
	}
	return t, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Data validation
	switch c.Data.Source {
	case "localfs":
		if c.Data.Dir == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("data.dir required when source is localfs"))
		}
	case "s3":
		if c.Data.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("data.s3.bucket required when source is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("data.source must be localfs or s3, got %q", c.Data.Source))
	}
	if c.Data.Momentum == "" || c.Data.Alpha == "" || c.Data.Prices == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("data.momentum, data.alpha and data.prices are required"))
	}
	if c.Data.CacheSize < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache_size cannot be negative, got %d", c.Data.CacheSize))
	}

	// Log validation
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	// Strategy defaults must form a valid run
	strategy, err := c.Strategy.Backtest()
	if err != nil {
		return err
	}
	return strategy.Validate()
}
