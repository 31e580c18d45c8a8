// Command pulse is the terminal dashboard: it walks the user through
// workspace creation, then keeps the opportunities board in sync.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xavierca1/clientpulse/internal/config"
	"github.com/xavierca1/clientpulse/internal/infra/integration/pulseapi"
	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/tui"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The dashboard owns the terminal; logs are only written in debug mode,
	// which also keeps the normal screen so they scroll past the board.
	logger := logging.NoOp()
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.Log.Level == "debug" {
		l, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: "console"}, "pulse")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
		logger = l
		programOpts = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		creator usecase.WorkspaceCreator
		actions usecase.OpportunityActions
		feed    *usecase.OpportunityFeed
	)
	if cfg.Pulse.MockAPI() {
		creator = usecase.NewMockWorkspaceCreator()
	} else {
		client := pulseapi.NewClient(cfg.Pulse.APIURL, cfg.Pulse.Token)
		creator = client
		actions = client
		feed = usecase.NewOpportunityFeed(client, nil, cfg.Pulse.PollInterval, logger)
		feed.Start(ctx)
		defer feed.Stop()
	}

	p := tea.NewProgram(
		tui.NewApp(ctx, creator, actions, feed, tui.WithLogger(logger), tui.WithExportDir(cfg.Pulse.ExportDir)),
		programOpts...,
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
