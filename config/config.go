package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger    `mapstructure:"logger"`
	DB        Database  `mapstructure:"database"`
	API       API       `mapstructure:"api"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	Mining    Mining    `mapstructure:"mining"`
	Cache     Cache     `mapstructure:"cache"`
	Alert     Alert     `mapstructure:"alert"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type Scheduler struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
	MaxAttempts    int `mapstructure:"max_attempts"`
}

type Mining struct {
	// TriggerPath is joined with each data source's invocation endpoint
	// when dispatching a mining run.
	TriggerPath    string `mapstructure:"trigger_path"`
	ProtocolHeader string `mapstructure:"protocol_header"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Alert struct {
	Enabled          bool   `mapstructure:"enabled"`
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
	MinLevel         string `mapstructure:"min_level"`
}

func Load() (*Config, error) {
	// .env is optional; deployments usually set env vars directly.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("scheduler.max_concurrency", 10)
	viper.SetDefault("scheduler.max_attempts", 3)
	viper.SetDefault("mining.trigger_path", "/companies/trigger")
	viper.SetDefault("mining.protocol_header", "X-Mining-Protocol-Version")
	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)
	viper.SetDefault("alert.min_level", "error")
}
