package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// StoreConfig configures the PostGIS database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnalysisConfig configures site analysis requests.
type AnalysisConfig struct {
	RadiusMeters    float64           `yaml:"radius_meters" mapstructure:"radius_meters"`
	MaxRadiusMeters float64           `yaml:"max_radius_meters" mapstructure:"max_radius_meters"`
	DefaultBusiness string            `yaml:"default_business" mapstructure:"default_business"`
	ProfilesFile    string            `yaml:"profiles_file" mapstructure:"profiles_file"`
	ServiceArea     ServiceAreaConfig `yaml:"service_area" mapstructure:"service_area"`
}

// ServiceAreaConfig is the bounding box the site data covers.
type ServiceAreaConfig struct {
	MinLat float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MinLng float64 `yaml:"min_lng" mapstructure:"min_lng"`
	MaxLat float64 `yaml:"max_lat" mapstructure:"max_lat"`
	MaxLng float64 `yaml:"max_lng" mapstructure:"max_lng"`
}

// Contains reports whether lat/lng lies inside the box, edges included.
func (a ServiceAreaConfig) Contains(lat, lng float64) bool {
	return lat >= a.MinLat && lat <= a.MaxLat && lng >= a.MinLng && lng <= a.MaxLng
}

// RetryConfig configures retries of transient database errors.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// MetricsConfig configures the Prometheus textfile export. An empty
// Textfile disables the export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITESCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("analysis.radius_meters", 500)
	v.SetDefault("analysis.max_radius_meters", 2000)
	v.SetDefault("analysis.default_business", "")
	v.SetDefault("analysis.profiles_file", "")
	v.SetDefault("analysis.service_area.min_lat", 37.436)
	v.SetDefault("analysis.service_area.min_lng", 126.886)
	v.SetDefault("analysis.service_area.max_lat", 37.491)
	v.SetDefault("analysis.service_area.max_lng", 126.918)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 200)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("metrics.textfile", "")

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

// Validate checks the settings a command mode depends on. Modes are
// "analyze", "migrate" and "profiles".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "analyze":
		errs = append(errs, c.requireDatabase()...)
		errs = append(errs, c.validateAnalysis()...)
		errs = append(errs, c.validateRetry()...)
	case "migrate", "import":
		errs = append(errs, c.requireDatabase()...)
	case "profiles":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) requireDatabase() []string {
	if c.Store.DatabaseURL == "" {
		return []string{"store.database_url is required"}
	}
	return nil
}

func (c *Config) validateAnalysis() []string {
	var errs []string
	a := c.Analysis
	if a.RadiusMeters <= 0 {
		errs = append(errs, "analysis.radius_meters must be > 0")
	}
	if a.MaxRadiusMeters < a.RadiusMeters {
		errs = append(errs, "analysis.max_radius_meters must be >= analysis.radius_meters")
	}
	sa := a.ServiceArea
	if sa.MinLat >= sa.MaxLat || sa.MinLng >= sa.MaxLng {
		errs = append(errs, "analysis.service_area min must be below max")
	}
	if sa.MinLat < -90 || sa.MaxLat > 90 || sa.MinLng < -180 || sa.MaxLng > 180 {
		errs = append(errs, fmt.Sprintf("analysis.service_area out of range: %+v", sa))
	}
	return errs
}

func (c *Config) validateRetry() []string {
	var errs []string
	r := c.Retry
	if r.MaxAttempts < 1 || r.MaxAttempts > 10 {
		errs = append(errs, "retry.max_attempts must be between 1 and 10")
	}
	if r.InitialBackoffMs < 0 || r.MaxBackoffMs < 0 {
		errs = append(errs, "retry backoff values must be >= 0")
	}
	return errs
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
