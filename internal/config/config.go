package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/damsweep/internal/model"
	"github.com/sells-group/damsweep/internal/resilience"
	"github.com/sells-group/damsweep/internal/shapefile"
	"github.com/sells-group/damsweep/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Sweep  SweepConfig  `yaml:"sweep" mapstructure:"sweep"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the input layers.
type InputConfig struct {
	Dir          string                 `yaml:"dir" mapstructure:"dir"`
	DamsFile     string                 `yaml:"dams_file" mapstructure:"dams_file"`
	CensusFile   string                 `yaml:"census_file" mapstructure:"census_file"`
	SlopeFile    string                 `yaml:"slope_file" mapstructure:"slope_file"`
	DamFields    shapefile.DamFields    `yaml:"dam_fields" mapstructure:"dam_fields"`
	CensusFields shapefile.CensusFields `yaml:"census_fields" mapstructure:"census_fields"`
	// SourceURL is the ftp:// or http(s):// directory `stage` downloads from.
	SourceURL string `yaml:"source_url" mapstructure:"source_url"`
}

// Path resolves an input file name against Dir.
func (c InputConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// OutputConfig locates the outputs.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the result store backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// DSN returns the database location: DatabaseURL when set, else the SQLite
// file in the output directory.
func (c StoreConfig) DSN(outputDir string) string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return filepath.Join(outputDir, "spatial_feats.db")
}

// SweepConfig configures the parameter grid and worker pool.
type SweepConfig struct {
	Length      string                 `yaml:"length" mapstructure:"length"`
	Width       string                 `yaml:"width" mapstructure:"width"`
	Concurrency int                    `yaml:"concurrency" mapstructure:"concurrency"`
	FailFast    bool                   `yaml:"fail_fast" mapstructure:"fail_fast"`
	Retry       resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// Ranges parses the length and width ranges.
func (c SweepConfig) Ranges() (lengths, widths model.Range, err error) {
	if lengths, err = model.ParseRange(c.Length); err != nil {
		return model.Range{}, model.Range{}, eris.Wrap(err, "config: sweep.length")
	}
	if widths, err = model.ParseRange(c.Width); err != nil {
		return model.Range{}, model.Range{}, eris.Wrap(err, "config: sweep.width")
	}
	return lengths, widths, nil
}

// FetchConfig configures input staging downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the download timeout.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
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
	v.SetEnvPrefix("DAMSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults mirror the containerised layout <io>/spatial_features_model/{input,output}.
	v.SetDefault("input.dir", "/app_io/spatial_features_model/input")
	v.SetDefault("input.dams_file", "drains_w_daminfo.shp")
	v.SetDefault("input.census_file", "census.shp")
	v.SetDefault("input.slope_file", "slope.tiff")
	v.SetDefault("input.dam_fields.height", "DAM_HEIGHT")
	v.SetDefault("input.dam_fields.id", "")
	v.SetDefault("input.census_fields.id", "")
	v.SetDefault("input.census_fields.households", "hous")
	v.SetDefault("input.census_fields.population", "pop")
	v.SetDefault("input.census_fields.footprint", "foot")
	v.SetDefault("input.census_fields.contact", "cont")
	v.SetDefault("input.census_fields.buildings", "buil")
	v.SetDefault("input.source_url", "")
	v.SetDefault("output.dir", "/app_io/spatial_features_model/output")
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.database_url", "")
	v.SetDefault("sweep.length", model.DefaultRange.String())
	v.SetDefault("sweep.width", model.DefaultRange.String())
	v.SetDefault("sweep.concurrency", 4)
	v.SetDefault("sweep.fail_fast", false)
	v.SetDefault("sweep.retry.max_attempts", 4)
	v.SetDefault("sweep.retry.initial_backoff", "100ms")
	v.SetDefault("sweep.retry.max_backoff", "5s")
	v.SetDefault("sweep.retry.multiplier", 2.0)
	v.SetDefault("sweep.retry.jitter_fraction", 0.25)
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.user_agent", "damsweep/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a sweep depends on.
func (c *Config) Validate() error {
	var errs []string
	if c.Sweep.Concurrency < 1 || c.Sweep.Concurrency > 256 {
		errs = append(errs, fmt.Sprintf("sweep.concurrency must be between 1 and 256, got %d", c.Sweep.Concurrency))
	}
	if _, _, err := c.Sweep.Ranges(); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.Store.Driver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Input.DamFields.Height == "" {
		errs = append(errs, "input.dam_fields.height is required")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
