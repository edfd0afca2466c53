package config

import (
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppName string `mapstructure:"APP_NAME"`
	Server  struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Otel struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"OTEL"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Platform struct {
		BaseURL string        `mapstructure:"BASE_URL"`
		Token   string        `mapstructure:"TOKEN"`
		Timeout time.Duration `mapstructure:"TIMEOUT"`
	} `mapstructure:"PLATFORM"`
	Reward struct {
		Amount         string        `mapstructure:"AMOUNT"`
		CardCode       string        `mapstructure:"CARD_CODE"`
		PaymentURL     string        `mapstructure:"PAYMENT_URL"`
		PaymentTimeout time.Duration `mapstructure:"PAYMENT_TIMEOUT"`
		PassInterval   time.Duration `mapstructure:"PASS_INTERVAL"`
		BatchSize      int           `mapstructure:"BATCH_SIZE"`
		SnapshotStore  string        `mapstructure:"SNAPSHOT_STORE"`
	} `mapstructure:"REWARD"`
}

// RewardAmount parses the configured fixed reward into a decimal value.
func (c *Config) RewardAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(c.Reward.Amount)
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func LoadConfig() *Config {
	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	config.SetDefault("APP_ENV", "development")
	config.SetDefault("APP_NAME", "invitebounty")
	config.SetDefault("HTTP_SERVER.ADDR", ":8080")
	config.SetDefault("HTTP_SERVER.READ_TIMEOUT", "15s")
	config.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", "15s")
	config.SetDefault("PLATFORM.TIMEOUT", "10s")
	config.SetDefault("REWARD.AMOUNT", "0.00001000")
	config.SetDefault("REWARD.PAYMENT_TIMEOUT", "15s")
	config.SetDefault("REWARD.PASS_INTERVAL", "10m")
	config.SetDefault("REWARD.BATCH_SIZE", 2000)
	config.SetDefault("REWARD.SNAPSHOT_STORE", "memory")

	if err := config.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			zap.L().Error("failed to read config file", zap.Error(err))
			os.Exit(1)
		}
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	if _, err := cfg.RewardAmount(); err != nil {
		zap.L().Error("invalid reward amount", zap.String("amount", cfg.Reward.Amount), zap.Error(err))
		os.Exit(1)
	}

	return &cfg
}
