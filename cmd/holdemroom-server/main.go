package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemroom/internal/server"
	"github.com/lox/holdemroom/internal/store"
)

var CLI struct {
	Config     string `short:"c" default:"holdemroom.hcl" help:"Path to HCL configuration file"`
	Addr       string `short:"a" help:"Listen address (overrides config)"`
	LogLevel   string `short:"l" help:"Log level (overrides config)"`
	Database   string `short:"d" help:"SQLite database path, empty for in-memory (overrides config)"`
	ArchiveDir string `help:"PHH hand archive directory (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Database != "" {
		cfg.Server.Database = CLI.Database
	}
	if CLI.ArchiveDir != "" {
		cfg.Server.ArchiveDir = CLI.ArchiveDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	if cfg.Server.LogFile != "" {
		f, ferr := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if ferr != nil {
			fmt.Printf("Error opening log file: %v\n", ferr)
			kctx.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	clock := quartz.NewReal()

	var st store.Store
	if cfg.Server.Database != "" {
		st, err = store.OpenSQLite(cfg.Server.Database)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.Server.Database, "error", err)
			kctx.Exit(1)
		}
		logger.Info("using sqlite store", "path", cfg.Server.Database)
	} else {
		st = store.NewMemStore(clock)
		logger.Info("using in-memory store")
	}
	defer st.Close()

	service := server.NewService(st, clock, logger, cfg.Room.GameConfig(), cfg.Server.ArchiveDir)
	srv := server.NewServer(cfg.ListenAddress(), service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting holdemroom server",
		"addr", cfg.ListenAddress(),
		"smallBlind", cfg.Room.SmallBlind,
		"bigBlind", cfg.Room.BigBlind)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server failed", "error", err)
		kctx.Exit(1)
	}
}
