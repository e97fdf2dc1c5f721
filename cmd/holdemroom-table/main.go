package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/holdemroom/internal/tui"
)

var CLI struct {
	Room    string `arg:"" help:"Room code to watch"`
	URL     string `short:"u" default:"ws://localhost:8080/ws" help:"Server WebSocket URL"`
	LogFile string `help:"Debug log file"`
}

func main() {
	kctx := kong.Parse(&CLI)

	lipgloss.SetColorProfile(termenv.ColorProfile())

	logger := log.New(io.Discard)
	if CLI.LogFile != "" {
		f, err := os.OpenFile(CLI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			kctx.Exit(1)
		}
		defer f.Close()
		logger = log.New(f)
		logger.SetLevel(log.DebugLevel)
	}

	model := tui.NewModel(CLI.Room)
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := tui.NewClient(CLI.URL, CLI.Room, logger)
	go func() {
		if err := client.Run(ctx, program); err != nil {
			logger.Error("stream ended", "error", err)
		}
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running display: %v\n", err)
		kctx.Exit(1)
	}
}
