package config

import (
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	SampleUniform  = "uniform"
	SampleExpDecay = "exp_decay"

	ExecutorDedicated = "dedicated"
	ExecutorPool      = "pool"
)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type EngineConfig struct {
	SegmentSize   int     `mapstructure:"segment_size"`
	ReservoirSize int     `mapstructure:"reservoir_size"`
	Sample        string  `mapstructure:"sample"`
	Alpha         float64 `mapstructure:"alpha"`
	Executor      string  `mapstructure:"executor"`
	PoolSize      int     `mapstructure:"pool_size"`
	Throughput    int     `mapstructure:"throughput"`
	TickInterval  string  `mapstructure:"tick_interval"`
}

// Tick returns the parsed tick interval. Call it on validated config only.
func (e EngineConfig) Tick() time.Duration {
	d, _ := time.ParseDuration(e.TickInterval)
	return d
}

type ReporterConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

func (r ReporterConfig) Every() time.Duration {
	d, _ := time.ParseDuration(r.Interval)
	return d
}

type ExporterConfig struct {
	Prometheus   bool   `mapstructure:"prometheus"`
	OTel         bool   `mapstructure:"otel"`
	Namespace    string `mapstructure:"namespace"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTelInterval string `mapstructure:"otel_interval"`
}

// OTelEvery returns the parsed OTel export interval. Call it on validated
// config only.
func (x ExporterConfig) OTelEvery() time.Duration {
	d, _ := time.ParseDuration(x.OTelInterval)
	return d
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Reporter ReporterConfig `mapstructure:"reporter"`
	Exporter ExporterConfig `mapstructure:"exporter"`
}

func setDefaults() {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("engine.segment_size", 32)
	viper.SetDefault("engine.reservoir_size", 1028)
	viper.SetDefault("engine.sample", SampleExpDecay)
	viper.SetDefault("engine.alpha", 0.015)
	viper.SetDefault("engine.executor", ExecutorPool)
	viper.SetDefault("engine.pool_size", 4)
	viper.SetDefault("engine.throughput", 64)
	viper.SetDefault("engine.tick_interval", "5s")
	viper.SetDefault("reporter.enabled", false)
	viper.SetDefault("reporter.interval", "1m")
	viper.SetDefault("exporter.prometheus", true)
	viper.SetDefault("exporter.otel", false)
	viper.SetDefault("exporter.namespace", "asyncmetrics")
	viper.SetDefault("exporter.otlp_endpoint", "")
	viper.SetDefault("exporter.otel_interval", "30s")
}

// Load reads configuration from path, or from config.yaml in ./config or
// the working directory when path is empty, then applies environment
// overrides (ENGINE_POOL_SIZE overrides engine.pool_size) and validates.
func Load(path string) (*Config, error) {
	setDefaults()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Engine,
			validation.Required,
			validation.By(func(value interface{}) error {
				ec, ok := value.(EngineConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an EngineConfig")
				}
				return validation.ValidateStruct(&ec,
					validation.Field(&ec.SegmentSize, validation.Required, validation.Min(1)),
					validation.Field(&ec.ReservoirSize, validation.Required, validation.Min(1)),
					validation.Field(&ec.Sample,
						validation.Required,
						validation.In(SampleUniform, SampleExpDecay),
					),
					validation.Field(&ec.Alpha,
						validation.When(ec.Sample == SampleExpDecay,
							validation.Required,
							validation.Min(0.0).Exclusive(),
						),
					),
					validation.Field(&ec.Executor,
						validation.Required,
						validation.In(ExecutorDedicated, ExecutorPool),
					),
					validation.Field(&ec.PoolSize,
						validation.When(ec.Executor == ExecutorPool,
							validation.Required,
							validation.Min(1),
						),
					),
					validation.Field(&ec.Throughput, validation.Min(0)),
					validation.Field(&ec.TickInterval,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Reporter,
			validation.By(func(value interface{}) error {
				rc, ok := value.(ReporterConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ReporterConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Interval,
						validation.When(rc.Enabled, validation.Required),
						validation.When(rc.Interval != "", validation.By(validateDuration)),
					),
				)
			}),
		),
		validation.Field(&c.Exporter,
			validation.By(func(value interface{}) error {
				xc, ok := value.(ExporterConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an ExporterConfig")
				}
				return validation.ValidateStruct(&xc,
					validation.Field(&xc.Namespace,
						validation.When(xc.Prometheus || xc.OTel, validation.Required),
						validation.Match(namespacePattern),
					),
					validation.Field(&xc.OTLPEndpoint,
						validation.When(xc.OTLPEndpoint != "", validation.By(validateHostPort)),
					),
					validation.Field(&xc.OTelInterval,
						validation.When(xc.OTel, validation.Required),
						validation.When(xc.OTelInterval != "", validation.By(validateDuration)),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}
	if d <= 0 {
		return validation.NewError("validation_nonpositive_duration", "must be positive")
	}

	return nil
}
