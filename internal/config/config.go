package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultKafkaGroupID          = "spreadstat-default-group"
	defaultHandlerName           = "SimpleSpreadStatHandler"
	defaultHandlerWindow         = 3 * time.Minute
	defaultHandlerPrecision      = 3
	defaultHandlerSigmaMultipler = 2.0
	defaultMetricsListenAddr     = ":2112"
	defaultLogLevel              = "info"
	defaultLogFormat             = "console"
	defaultLogFileEnabled        = false
	defaultLogDirectory          = "log"
	defaultLogFilename           = "spreadstat.log"
	defaultLogMaxSizeMB          = 100
	defaultLogMaxBackups         = 3
	defaultLogMaxAgeDays         = 7
	defaultLogCompress           = false

	// Environment variable prefix
	envPrefix = "SPREADSTAT"
)

type Config struct {
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Handler HandlerConfig `mapstructure:"handler"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// KafkaConfig names the spread stat topic consumed and the topic config
// fragments are published on.
type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	GroupID     string   `mapstructure:"groupID"`
	ConfigTopic string   `mapstructure:"configTopic"`
}

// HandlerConfig tunes the spread stat handler. Defaults reproduce the
// stock handler: a 3 minute window, mean + 2σ, rounded to 3 decimals.
type HandlerConfig struct {
	Name            string        `mapstructure:"name"`
	Window          time.Duration `mapstructure:"window"`
	Precision       int32         `mapstructure:"precision"`
	SigmaMultiplier float64       `mapstructure:"sigmaMultiplier"`
	HistoryFile     string        `mapstructure:"historyFile"` // optional snapshot, JSON lines
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listenAddr"` // empty disables the endpoint
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("handler.name", defaultHandlerName)
	v.SetDefault("handler.window", defaultHandlerWindow)
	v.SetDefault("handler.precision", defaultHandlerPrecision)
	v.SetDefault("handler.sigmaMultiplier", defaultHandlerSigmaMultipler)
	v.SetDefault("handler.historyFile", "")
	v.SetDefault("metrics.listenAddr", defaultMetricsListenAddr)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if cfg.Kafka.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	if cfg.Kafka.ConfigTopic == "" {
		return ErrEmptyKafkaConfigTopic
	}
	if cfg.Handler.Window <= 0 {
		return ErrInvalidHandlerWindow
	}
	if cfg.Handler.Precision < 0 || cfg.Handler.Precision > 10 {
		return ErrInvalidHandlerPrecision
	}
	if cfg.Handler.SigmaMultiplier < 0 {
		return ErrInvalidSigmaMultiplier
	}
	return nil
}
