package config

import (
	"os"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string

	// Optional YAML file with extra protocol definitions
	ProtocolFile string

	// Calibration alert window in days
	CalibrationAlertDays string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		ProtocolFile:         getEnv("PROTOCOL_FILE", ""),
		CalibrationAlertDays: getEnv("CALIBRATION_ALERT_DAYS", "30"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
