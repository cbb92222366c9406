package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline.
type Config struct {
	Sink     SinkConfig     `mapstructure:"sink"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Preview  PreviewConfig  `mapstructure:"preview"`
}

// SinkConfig holds the embedded store connection configuration.
type SinkConfig struct {
	Dialect string `mapstructure:"dialect"`
	Path    string `mapstructure:"path"`
	Schema  string `mapstructure:"schema"`
}

// SourcesConfig holds the locations of the raw input files.
type SourcesConfig struct {
	KPI    KPISource    `mapstructure:"kpi"`
	Center CenterSource `mapstructure:"center"`
}

// KPISource locates the KPI evaluation spreadsheet and its data sheet.
type KPISource struct {
	Path  string `mapstructure:"path"`
	Sheet string `mapstructure:"sheet"`
}

// CenterSource locates the center master CSV file.
type CenterSource struct {
	Path string `mapstructure:"path"`
}

// ScheduleConfig holds the periodic trigger settings.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
	Enabled  bool   `mapstructure:"enabled"`
}

// PreviewConfig controls how many rows table previews return.
type PreviewConfig struct {
	Rows int `mapstructure:"rows"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sink.dialect", "duckdb")
	v.SetDefault("sink.path", "db/plan.db")
	v.SetDefault("sink.schema", "plan")
	v.SetDefault("sources.kpi.path", "data/KPI_FY.xlsm")
	v.SetDefault("sources.kpi.sheet", "Data to DB")
	v.SetDefault("sources.center.path", "data/M_Center.csv")
	v.SetDefault("schedule.cron", "0 0 3,21 * *")
	v.SetDefault("schedule.timezone", "Asia/Bangkok")
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("preview.rows", 5)
}

// Load reads configuration from an optional YAML file and KPIETL_* environment
// variables on top of the built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KPIETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("kpi-etl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// The config file is optional; only a malformed file is fatal.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Preview.Rows <= 0 {
		cfg.Preview.Rows = 5
	}
	return &cfg, nil
}
