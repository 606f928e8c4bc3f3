// Package config loads the application configuration from config.yaml and
// the environment, and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Sched   SchedConfig   `yaml:"sched" mapstructure:"sched"`
	Records RecordsConfig `yaml:"records" mapstructure:"records"`
	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SearchConfig describes the candidate space for a sweep.
type SearchConfig struct {
	Origins      []string `yaml:"origins" mapstructure:"origins"`           // IATA codes
	Destinations []string `yaml:"destinations" mapstructure:"destinations"` // IATA codes
	WindowStart  string   `yaml:"window_start" mapstructure:"window_start"` // YYYY-MM-DD
	WindowEnd    string   `yaml:"window_end" mapstructure:"window_end"`     // YYYY-MM-DD
	TripLengths  []int    `yaml:"trip_lengths" mapstructure:"trip_lengths"` // days
	MaxFlightHrs float64  `yaml:"max_flight_hours" mapstructure:"max_flight_hours"`
}

// SchedConfig tunes the adaptive scheduler.
type SchedConfig struct {
	ArchivePath     string  `yaml:"archive_path" mapstructure:"archive_path"`
	SamplesPerSweep int     `yaml:"samples_per_sweep" mapstructure:"samples_per_sweep"`
	RandomFloorFrac float64 `yaml:"random_floor_frac" mapstructure:"random_floor_frac"`
	BeamK           int     `yaml:"beam_k" mapstructure:"beam_k"`
	PenaltyFactor   float64 `yaml:"penalty_factor" mapstructure:"penalty_factor"`
}

// RecordsConfig locates the historical fare log.
type RecordsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ProbeConfig tunes the probe executor and the sweep pacing around it.
type ProbeConfig struct {
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SettleSecs      int     `yaml:"settle_secs" mapstructure:"settle_secs"`
	ProbesPerMinute float64 `yaml:"probes_per_minute" mapstructure:"probes_per_minute"`
	OfflineWaitSecs int     `yaml:"offline_wait_secs" mapstructure:"offline_wait_secs"`
	SweepPauseSecs  int     `yaml:"sweep_pause_secs" mapstructure:"sweep_pause_secs"`
	Headless        bool    `yaml:"headless" mapstructure:"headless"`
}

// Timeout returns the per-probe deadline.
func (p ProbeConfig) Timeout() time.Duration { return time.Duration(p.TimeoutSecs) * time.Second }

// Settle returns how long to let search results accumulate before scraping.
func (p ProbeConfig) Settle() time.Duration { return time.Duration(p.SettleSecs) * time.Second }

// OfflineWait returns the pause after the source is unreachable.
func (p ProbeConfig) OfflineWait() time.Duration {
	return time.Duration(p.OfflineWaitSecs) * time.Second
}

// SweepPause returns the idle time between full sweeps.
func (p ProbeConfig) SweepPause() time.Duration {
	return time.Duration(p.SweepPauseSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FAREWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("sched.archive_path", "ts_archive.json")
	v.SetDefault("sched.samples_per_sweep", 10)
	v.SetDefault("sched.random_floor_frac", 0.10)
	v.SetDefault("sched.beam_k", 20)
	v.SetDefault("sched.penalty_factor", 1.10)
	v.SetDefault("records.path", "fare_records.jsonl")
	v.SetDefault("probe.timeout_secs", 90)
	v.SetDefault("probe.settle_secs", 30)
	v.SetDefault("probe.probes_per_minute", 2)
	v.SetDefault("probe.offline_wait_secs", 60)
	v.SetDefault("probe.sweep_pause_secs", 1800)
	v.SetDefault("probe.headless", true)
	v.SetDefault("search.trip_lengths", []int{7})
	v.SetDefault("search.max_flight_hours", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
