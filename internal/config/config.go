// Package config loads and validates harvester configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultIndexURL is the page enumerating every FIX field in tag-number order.
const DefaultIndexURL = "https://fiximate.fixtrading.org/en/FIX.Latest/fields_sorted_by_tagnum.html"

const (
	workerFloor = 2
	workerCap   = 10
)

// Config captures all harvester configuration knobs loaded via Viper.
type Config struct {
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Output   OutputConfig   `mapstructure:"output"`
	Server   ServerConfig   `mapstructure:"server"`
	Progress ProgressConfig `mapstructure:"progress"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// HarvestConfig identifies the index page and the document metadata.
type HarvestConfig struct {
	IndexURL    string `mapstructure:"index_url"`
	VersionName string `mapstructure:"version_name"`
	Author      string `mapstructure:"author"`
	MaxWorkers  int    `mapstructure:"max_workers"`
}

// HTTPConfig bounds individual requests and the whole detail batch.
type HTTPConfig struct {
	PerRequestTimeoutSeconds int    `mapstructure:"per_request_timeout_seconds"`
	TotalTimeoutSeconds      int    `mapstructure:"total_timeout_seconds"`
	UserAgent                string `mapstructure:"user_agent"`
	RespectRobots            bool   `mapstructure:"respect_robots"`
}

// OutputConfig selects the document store backend and target path.
type OutputConfig struct {
	Backend  string `mapstructure:"backend"`
	Dir      string `mapstructure:"dir"`
	Filename string `mapstructure:"filename"`
}

// ServerConfig controls the optional status HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ProgressConfig tunes the progress hub and its sinks.
type ProgressConfig struct {
	Enabled        bool                `mapstructure:"enabled"`
	ConsoleEnabled bool                `mapstructure:"console_enabled"`
	LogEnabled     bool                `mapstructure:"log_enabled"`
	BufferSize     int                 `mapstructure:"buffer_size"`
	Batch          ProgressBatchConfig `mapstructure:"batch"`
	SinkTimeoutMs  int                 `mapstructure:"sink_timeout_ms"`
}

// ProgressBatchConfig bounds how events are grouped before sinks see them.
type ProgressBatchConfig struct {
	MaxEvents int `mapstructure:"max_events"`
	MaxWaitMs int `mapstructure:"max_wait_ms"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// legacyKeys maps the flat variable names the original .env files used to
// their nested equivalents, so existing deployments keep working.
var legacyKeys = map[string]string{
	"version_name":        "harvest.version_name",
	"author":              "harvest.author",
	"max_workers":         "harvest.max_workers",
	"per_request_timeout": "http.per_request_timeout_seconds",
	"total_timeout":       "http.total_timeout_seconds",
}

// Load builds a Config from defaults, an optional dotenv-style file, and the
// environment. A missing file is not an error.
func Load(envFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FIXHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)
	setDefaults(v)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read env file: %w", err)
			}
		} else {
			promoteLegacyFileKeys(v)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func bindLegacyEnv(v *viper.Viper) {
	for flat, nested := range legacyKeys {
		_ = v.BindEnv(nested, strings.ToUpper(flat))
	}
}

// promoteLegacyFileKeys copies flat keys found in the env file onto their
// nested counterparts before unmarshalling.
func promoteLegacyFileKeys(v *viper.Viper) {
	for flat, nested := range legacyKeys {
		if v.InConfig(flat) {
			v.Set(nested, v.Get(flat))
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.index_url", DefaultIndexURL)
	v.SetDefault("harvest.version_name", "")
	v.SetDefault("harvest.author", "")
	v.SetDefault("harvest.max_workers", 0)
	v.SetDefault("http.per_request_timeout_seconds", 15)
	v.SetDefault("http.total_timeout_seconds", 400)
	v.SetDefault("http.user_agent", "fixharvest/1.0 (+https://github.com/fixwire/fixharvest)")
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("output.backend", "local")
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.filename", "fix_code_sets.json")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.console_enabled", true)
	v.SetDefault("progress.log_enabled", false)
	v.SetDefault("progress.buffer_size", 4096)
	v.SetDefault("progress.batch.max_events", 256)
	v.SetDefault("progress.batch.max_wait_ms", 250)
	v.SetDefault("progress.sink_timeout_ms", 2000)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Harvest.IndexURL)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("harvest.index_url must be a valid http(s) URL")
	}
	if c.Harvest.MaxWorkers < 0 {
		return fmt.Errorf("harvest.max_workers must be >= 0")
	}
	if c.HTTP.PerRequestTimeoutSeconds <= 0 {
		return fmt.Errorf("http.per_request_timeout_seconds must be > 0")
	}
	if c.HTTP.TotalTimeoutSeconds <= 0 {
		return fmt.Errorf("http.total_timeout_seconds must be > 0")
	}
	if c.HTTP.TotalTimeoutSeconds < c.HTTP.PerRequestTimeoutSeconds {
		return fmt.Errorf("http.total_timeout_seconds must be >= http.per_request_timeout_seconds")
	}
	switch c.Output.Backend {
	case "local", "memory", "noop":
	default:
		return fmt.Errorf("output.backend must be one of local, memory, noop")
	}
	if c.Output.Backend == "local" && c.Output.Filename == "" {
		return fmt.Errorf("output.filename must be set for the local backend")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port must be within 1-65535 when the server is enabled")
	}
	if c.Progress.Enabled {
		if c.Progress.BufferSize <= 0 {
			return fmt.Errorf("progress.buffer_size must be > 0")
		}
		if c.Progress.Batch.MaxEvents <= 0 {
			return fmt.Errorf("progress.batch.max_events must be > 0")
		}
	}
	return nil
}

// EffectiveWorkers resolves the detail-fetch parallelism: configured values
// are capped, unset values derive from the host CPU count with a small floor.
func (c Config) EffectiveWorkers() int {
	w := c.Harvest.MaxWorkers
	if w <= 0 {
		w = runtime.NumCPU()
		if w < workerFloor {
			w = workerFloor
		}
	}
	if w > workerCap {
		w = workerCap
	}
	return w
}

// PerRequestTimeout returns the single-fetch budget as a duration.
func (c Config) PerRequestTimeout() time.Duration {
	return time.Duration(c.HTTP.PerRequestTimeoutSeconds) * time.Second
}

// TotalTimeout returns the whole-batch budget as a duration.
func (c Config) TotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutSeconds) * time.Second
}
