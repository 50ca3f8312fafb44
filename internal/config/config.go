package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBUrl    string `mapstructure:"DB_URL"`
	DBName   string `mapstructure:"DB_NAME"`
	RedisUrl string `mapstructure:"REDIS_URL"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// TelemetryKey is the base64 of the pre-shared 32-byte AES key used to
	// decrypt device envelopes. Key provisioning is external.
	TelemetryKey string `mapstructure:"TELEMETRY_KEY"`

	// ModelUrl points at the inference service that turns a feature vector
	// into a (dLat, dLon) correction offset.
	ModelUrl string `mapstructure:"MODEL_URL"`

	PushUrl       string `mapstructure:"PUSH_URL"`
	PushServerKey string `mapstructure:"PUSH_SERVER_KEY"`

	RouteSnapEnabled   bool `mapstructure:"ROUTE_SNAP_ENABLED"`
	GroundTruthCompare bool `mapstructure:"GROUND_TRUTH_COMPARE"`

	NotifCooldownSec  int `mapstructure:"NOTIF_COOLDOWN_SEC"`
	SweepIntervalSec  int `mapstructure:"SWEEP_INTERVAL_SEC"`
	CountsIntervalSec int `mapstructure:"COUNTS_INTERVAL_SEC"`
}

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Set default values
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("DB_NAME", "ridealert")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ROUTE_SNAP_ENABLED", false)
	viper.SetDefault("GROUND_TRUTH_COMPARE", false)
	viper.SetDefault("NOTIF_COOLDOWN_SEC", 300)
	viper.SetDefault("SWEEP_INTERVAL_SEC", 10)
	viper.SetDefault("COUNTS_INTERVAL_SEC", 30)

	// Load environment file
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	err = viper.Unmarshal(&c)
	return
}

// TelemetryKeyBytes decodes the pre-shared key and enforces the AES-256 length.
func (c Config) TelemetryKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.TelemetryKey)
	if err != nil {
		return nil, fmt.Errorf("TELEMETRY_KEY is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("TELEMETRY_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// NotifCooldown is the dedup window between two alerts for the same
// (rider, vehicle) pair.
func (c Config) NotifCooldown() time.Duration {
	return time.Duration(c.NotifCooldownSec) * time.Second
}

// SweepInterval is the delay between proximity sweep iterations.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// CountsInterval is the period of the count snapshot broadcast.
func (c Config) CountsInterval() time.Duration {
	return time.Duration(c.CountsIntervalSec) * time.Second
}
