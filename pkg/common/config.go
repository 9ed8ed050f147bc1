package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHttpHostPort = ":1080"
	DefaultTickInterval = 5 * time.Second
	DefaultWsSendBuffer = 64
)

type Config struct {
	DBType string
	DBPath string

	HttpHostPort string
	GrpcHostPort string

	DefaultRate  float64
	DefaultBurst int

	TickInterval time.Duration
	WsSendBuffer int
	ApiToken     string

	MqttBroker   string
	MqttClientID string
	MqttUser     string
	MqttPassword string
}

// LoadConfig reads the service configuration from the environment. Callers
// are expected to have loaded .env (godotenv) beforehand.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBType:       strings.TrimSpace(os.Getenv(EnvKeyFleetDBType)),
		DBPath:       strings.TrimSpace(os.Getenv(EnvKeyFleetDbPath)),
		HttpHostPort: strings.TrimSpace(os.Getenv(EnvKeyFleetHttpHostPort)),
		GrpcHostPort: strings.TrimSpace(os.Getenv(EnvKeyFleetGrpcHostPort)),
		TickInterval: DefaultTickInterval,
		WsSendBuffer: DefaultWsSendBuffer,
		ApiToken:     strings.TrimSpace(os.Getenv(EnvKeyFleetApiToken)),
		MqttBroker:   strings.TrimSpace(os.Getenv(EnvKeyFleetMqttBroker)),
		MqttClientID: strings.TrimSpace(os.Getenv(EnvKeyFleetMqttClientID)),
		MqttUser:     os.Getenv(EnvKeyFleetMqttUser),
		MqttPassword: os.Getenv(EnvKeyFleetMqttPassword),
	}

	switch cfg.DBType {
	case "file", "memory":
	default:
		return nil, fmt.Errorf("unknown %s: %q", EnvKeyFleetDBType, cfg.DBType)
	}

	if cfg.HttpHostPort == "" {
		cfg.HttpHostPort = DefaultHttpHostPort
	}

	var err error
	if cfg.DefaultRate, err = strconv.ParseFloat(os.Getenv(EnvKeyFleetDefaultRate), 64); err != nil {
		return nil, fmt.Errorf("invalid %s, should be a float64 value: %w", EnvKeyFleetDefaultRate, err)
	}

	var burst int64
	if burst, err = strconv.ParseInt(os.Getenv(EnvKeyFleetDefaultBurst), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid %s, should be an int value: %w", EnvKeyFleetDefaultBurst, err)
	}
	cfg.DefaultBurst = int(burst)

	if v := strings.TrimSpace(os.Getenv(EnvKeyFleetTickInterval)); v != "" {
		if cfg.TickInterval, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvKeyFleetTickInterval, err)
		}
		if cfg.TickInterval <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", EnvKeyFleetTickInterval)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvKeyFleetWsSendBuffer)); v != "" {
		if cfg.WsSendBuffer, err = strconv.Atoi(v); err != nil || cfg.WsSendBuffer < 1 {
			return nil, fmt.Errorf("invalid %s: should be a positive int", EnvKeyFleetWsSendBuffer)
		}
	}

	return cfg, nil
}
