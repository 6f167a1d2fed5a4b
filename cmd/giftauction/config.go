package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/streamstack/giftauction/internal/auction"
)

// Config is the process configuration, loaded from YAML with environment
// overrides for the deployment-specific values.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
	Auction         auction.Config `yaml:"auction"`
	AllowedChannels []string       `yaml:"allowed_channels"`
	LogLevel        string         `yaml:"log_level"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)

	// Fallbacks for an empty file
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.NATS.URL == "" {
		config.NATS.URL = "nats://localhost:4222"
	}
	if config.Auction.InitialTime == 0 {
		config.Auction = auction.DefaultConfig()
	}
	if err := config.Auction.Validate(); err != nil {
		return nil, fmt.Errorf("default auction config: %w", err)
	}

	return &config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
