package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/holdemroom/internal/game"
)

// Config is the full server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Room   RoomDefaults   `hcl:"room,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address    string `hcl:"address,optional"`
	Port       int    `hcl:"port,optional"`
	LogLevel   string `hcl:"log_level,optional"`
	LogFile    string `hcl:"log_file,optional"`
	Database   string `hcl:"database,optional"`
	ArchiveDir string `hcl:"archive_dir,optional"`
}

// RoomDefaults is the game configuration applied to rooms that do not
// override it at creation time.
type RoomDefaults struct {
	SmallBlind    int `hcl:"small_blind,optional"`
	BigBlind      int `hcl:"big_blind,optional"`
	StartingChips int `hcl:"starting_chips,optional"`
}

// GameConfig converts the room defaults to a game configuration.
func (r RoomDefaults) GameConfig() game.Config {
	return game.Config{
		SmallBlind:    r.SmallBlind,
		BigBlind:      r.BigBlind,
		StartingChips: r.StartingChips,
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:    "localhost",
			Port:       8080,
			LogLevel:   "info",
			ArchiveDir: "hands",
		},
		Room: RoomDefaults{
			SmallBlind:    5,
			BigBlind:      10,
			StartingChips: 1000,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode config: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.ArchiveDir == "" {
		config.Server.ArchiveDir = defaults.Server.ArchiveDir
	}
	if config.Room.SmallBlind == 0 {
		config.Room.SmallBlind = defaults.Room.SmallBlind
	}
	if config.Room.BigBlind == 0 {
		config.Room.BigBlind = defaults.Room.BigBlind
	}
	if config.Room.StartingChips == 0 {
		config.Room.StartingChips = defaults.Room.StartingChips
	}

	return &config, nil
}

// Validate checks the configuration for values the server cannot run
// with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Room.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Room.BigBlind <= c.Room.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if c.Room.StartingChips < c.Room.BigBlind {
		return fmt.Errorf("starting chips must cover the big blind")
	}
	return nil
}

// ListenAddress returns the address:port the server binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
