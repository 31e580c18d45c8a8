// Package tui is the ClientPulse terminal dashboard: the workspace wizard
// followed by the opportunities board.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

type appState int

const (
	stateWizard appState = iota
	stateBoard
)

type navigateMsg struct {
	path string
}

// navigator hands wizard redirects to the bubbletea loop. Navigate is
// called from the wizard's timer goroutine.
type navigator struct {
	paths chan string
}

func (n *navigator) Navigate(path string) {
	select {
	case n.paths <- path:
	default:
	}
}

func (n *navigator) wait() tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{path: <-n.paths}
	}
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithWizardOptions passes options to every wizard the app opens.
func WithWizardOptions(opts ...usecase.WizardOption) AppOption {
	return func(a *App) { a.wizardOpts = append(a.wizardOpts, opts...) }
}

// WithExportDir sets where exported opportunity PDFs are written.
func WithExportDir(dir string) AppOption {
	return func(a *App) { a.exportDir = dir }
}

func WithLogger(l logging.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// App is the root bubbletea model.
type App struct {
	ctx        context.Context
	cancel     context.CancelFunc
	creator    usecase.WorkspaceCreator
	nav        *navigator
	logger     logging.Logger
	wizardOpts []usecase.WizardOption
	exportDir  string

	state       appState
	wizard      *usecase.WorkspaceWizard
	wizardView  *wizardView
	board       *boardView
	workspaceID string

	width  int
	height int
}

// NewApp wires the wizard to creator and the board to actions and feed.
// actions and feed may be nil when no API is configured.
func NewApp(ctx context.Context, creator usecase.WorkspaceCreator, actions usecase.OpportunityActions, feed *usecase.OpportunityFeed, opts ...AppOption) *App {
	ctx, cancel := context.WithCancel(ctx)
	a := &App{
		ctx:     ctx,
		cancel:  cancel,
		creator: creator,
		nav:     &navigator{paths: make(chan string, 1)},
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.board = newBoardView(ctx, actions, feed, a.exportDir)
	a.openWizard()
	return a
}

func (a *App) openWizard() {
	if a.wizard != nil {
		a.wizard.Close()
	}
	opts := append([]usecase.WizardOption{usecase.WithWizardLogger(a.logger)}, a.wizardOpts...)
	a.wizard = usecase.NewWorkspaceWizard(a.creator, a.nav, opts...)
	a.wizardView = newWizardView(a.ctx, a.wizard)
	a.state = stateWizard
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.nav.wait(), a.board.Init())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.height = m.Height
		return a, a.wizardView.Update(m)

	case navigateMsg:
		a.logger.Info("navigating", "path", m.path)
		a.workspaceID = workspaceFromPath(m.path)
		a.state = stateBoard
		return a, tea.Batch(a.nav.wait(), a.board.refresh())

	case wizardTickMsg, submitFinishedMsg:
		return a, a.wizardView.Update(m)

	case feedMsg, actionDoneMsg:
		return a, a.board.Update(m)

	case tea.KeyMsg:
		switch m.String() {
		case "ctrl+c":
			return a, a.quit()
		case "q":
			if a.state == stateBoard && a.board.prompt == promptNone {
				return a, a.quit()
			}
		case "n":
			if a.state == stateBoard && a.board.prompt == promptNone {
				a.openWizard()
				return a, nil
			}
		}
		if a.state == stateWizard {
			return a, a.wizardView.Update(m)
		}
		return a, a.board.Update(m)
	}
	return a, nil
}

func (a *App) quit() tea.Cmd {
	a.wizard.Close()
	a.cancel()
	return tea.Quit
}

func (a *App) View() string {
	header := titleStyle.Render("ClientPulse")
	if a.workspaceID != "" {
		header += "  " + hintStyle.Render(a.workspaceID)
	}
	var body string
	switch a.state {
	case stateWizard:
		body = a.wizardView.View()
	case stateBoard:
		body = a.board.View()
	}
	return header + "\n" + body + "\n"
}

// workspaceFromPath extracts the id from "/workspaces/{id}/dashboard".
func workspaceFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "workspaces" {
		return parts[1]
	}
	return ""
}
