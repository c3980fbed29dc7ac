package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config конфигурация сервиса мониторинга
type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	Stream struct {
		Enabled  bool  `mapstructure:"enabled"`
		Interval int   `mapstructure:"interval_seconds"`
		Seed     int64 `mapstructure:"seed"`
	} `mapstructure:"stream"`

	Anomaly struct {
		MinWindow       int     `mapstructure:"min_window"`
		RetrainInterval int     `mapstructure:"retrain_interval"`
		Contamination   float64 `mapstructure:"contamination"`
	} `mapstructure:"anomaly"`

	History struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"history"`

	Forecast struct {
		SequenceLength   int `mapstructure:"sequence_length"`
		PredictionLength int `mapstructure:"prediction_length"`
	} `mapstructure:"forecast"`

	Artifacts struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"artifacts"`
}

// Load читает config.yaml (если есть) и переменные окружения.
// Отсутствие файла не ошибка, действуют значения по умолчанию.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("monitor")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)
	v.SetDefault("stream.enabled", true)
	v.SetDefault("stream.interval_seconds", 2)
	v.SetDefault("stream.seed", 42)
	v.SetDefault("anomaly.min_window", 10)
	v.SetDefault("anomaly.retrain_interval", 10)
	v.SetDefault("anomaly.contamination", 0.1)
	v.SetDefault("history.capacity", 0)
	v.SetDefault("forecast.sequence_length", 24)
	v.SetDefault("forecast.prediction_length", 24)
	v.SetDefault("artifacts.dir", "artifacts")
}

func (c *Config) validate() error {
	if c.Stream.Interval < 1 || c.Stream.Interval > 10 {
		return fmt.Errorf("stream.interval_seconds must be within [1, 10], got %d", c.Stream.Interval)
	}
	if c.Anomaly.Contamination <= 0 || c.Anomaly.Contamination >= 1 {
		return fmt.Errorf("anomaly.contamination must be within (0, 1), got %f", c.Anomaly.Contamination)
	}
	if c.Anomaly.MinWindow < 2 {
		return fmt.Errorf("anomaly.min_window must be at least 2, got %d", c.Anomaly.MinWindow)
	}
	if c.Anomaly.RetrainInterval < 1 {
		return fmt.Errorf("anomaly.retrain_interval must be positive, got %d", c.Anomaly.RetrainInterval)
	}
	if c.History.Capacity < 0 {
		return fmt.Errorf("history.capacity must be non-negative, got %d", c.History.Capacity)
	}
	return nil
}

// StreamInterval интервал генерации показаний как Duration
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.Stream.Interval) * time.Second
}
