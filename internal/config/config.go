package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Game simulation configuration
	Game GameConfig `json:"game"`

	// Save slot configuration
	Storage StorageConfig `json:"storage"`

	// HTTP server configuration
	Server ServerConfig `json:"server"`
}

// GameConfig holds simulation specific configuration
type GameConfig struct {
	// Directory holding the catalog JSON files
	DataDir string `json:"data_dir"`

	// Frames per second of the simulation loop
	TickRate int `json:"tick_rate"`

	// Game seconds that pass per real second
	TimeScale float64 `json:"time_scale"`
}

// StorageConfig holds save slot configuration
type StorageConfig struct {
	// Storage driver (file or sqlite)
	Driver string `json:"driver"`

	// Directory for the file driver, database file for sqlite
	Path string `json:"path"`

	// Slot used by autosave and when no slot is given
	Slot string `json:"slot"`

	// Seconds between autosaves, 0 disables autosave
	AutosaveSeconds int `json:"autosave_seconds"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level"`

	// Requests per second allowed per client
	RateLimit float64 `json:"rate_limit"`

	// Burst size of the per client limiter
	RateBurst int `json:"rate_burst"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Game: GameConfig{
			DataDir:   "./data",
			TickRate:  10,
			TimeScale: 1,
		},
		Storage: StorageConfig{
			Driver:          "file",
			Path:            "./saves",
			Slot:            "autosave",
			AutosaveSeconds: 30,
		},
		Server: ServerConfig{
			Port:      "8080",
			LogLevel:  "info",
			RateLimit: 10,
			RateBurst: 20,
		},
	}
}

// LoadConfig loads configuration from a file, writing the defaults there on
// first run
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return config, config.Validate()
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(config)
}

// Validate rejects values the binaries cannot run with
func (c Config) Validate() error {
	var problems []error
	if c.Game.DataDir == "" {
		problems = append(problems, errors.New("game.data_dir is empty"))
	}
	if c.Game.TickRate <= 0 {
		problems = append(problems, fmt.Errorf("game.tick_rate must be positive, got %d", c.Game.TickRate))
	}
	if c.Game.TimeScale <= 0 {
		problems = append(problems, fmt.Errorf("game.time_scale must be positive, got %g", c.Game.TimeScale))
	}
	if c.Storage.Driver != "file" && c.Storage.Driver != "sqlite" {
		problems = append(problems, fmt.Errorf("storage.driver must be file or sqlite, got %q", c.Storage.Driver))
	}
	if c.Storage.AutosaveSeconds < 0 {
		problems = append(problems, errors.New("storage.autosave_seconds is negative"))
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		problems = append(problems, errors.New("server.rate_limit and server.rate_burst must be positive"))
	}
	if _, err := ParseLevel(c.Server.LogLevel); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

// TickInterval is the real time between two simulation frames
func (g GameConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(g.TickRate)
}

// AutosaveInterval returns the autosave period, 0 when disabled
func (s StorageConfig) AutosaveInterval() time.Duration {
	return time.Duration(s.AutosaveSeconds) * time.Second
}
