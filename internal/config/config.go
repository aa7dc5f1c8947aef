package config

import (
	"encoding/json"
	"os"
)

// Config represents the configuration file structure. All fields are
// optional defaults; command-line flags override them.
type Config struct {
	// Threads is the default worker count (0 = all hardware threads).
	Threads int `json:"threads"`
	// LogLevel is the default logging level: debug, info, warn, error.
	LogLevel string `json:"log_level"`
}

// Load loads configuration from a config.json file in the working
// directory. A missing file is not an error: defaults are returned.
func Load() (*Config, error) {
	configPath := "config.json"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
