package configuration

import (
	"encoding/json"
	"os"
	"strconv"
)

type MongoConfig struct {
	Uri                    string `json:"uri"`
	Database               string `json:"database"`
	ParticipantsCollection string `json:"participantsCollection"`
	MessagesCollection     string `json:"messagesCollection"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type PresenceConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
	SweepSeconds   int `json:"sweep_seconds"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

type Config struct {
	ChatDatabase MongoConfig     `json:"mongo"`
	Server       ServerConfig    `json:"server"`
	Presence     PresenceConfig  `json:"presence"`
	RateLimit    RateLimitConfig `json:"rate_limit"`
}

// LoadConfig reads the JSON config file and applies environment
// overrides: DATABASE_URL replaces the Mongo URI and PORT replaces the
// app port. Missing presence durations fall back in the sweeper.
func LoadConfig(configPath string) (*Config, error) {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if uri := os.Getenv("DATABASE_URL"); uri != "" {
		config.ChatDatabase.Uri = uri
	}
	if port := os.Getenv("PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			config.Server.AppPort = parsed
		}
	}

	return &config, nil
}
