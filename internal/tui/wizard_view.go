package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xavierca1/clientpulse/internal/usecase"
)

const wizardPollInterval = 100 * time.Millisecond

type wizardTickMsg struct{}

type submitFinishedMsg struct {
	created bool
}

// wizardView renders a usecase.WorkspaceWizard. The wizard owns all state;
// the view only forwards input and repaints snapshots.
type wizardView struct {
	ctx    context.Context
	wizard *usecase.WorkspaceWizard
	name   textinput.Model
	url    textinput.Model
	bar    progress.Model
	focus  int
	state  usecase.WizardState
}

func newWizardView(ctx context.Context, wizard *usecase.WorkspaceWizard) *wizardView {
	name := textinput.New()
	name.Placeholder = "Acme Corp"
	name.CharLimit = 120
	name.Focus()

	url := textinput.New()
	url.Placeholder = "acme.com"
	url.CharLimit = 2048

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 48

	return &wizardView{
		ctx:    ctx,
		wizard: wizard,
		name:   name,
		url:    url,
		bar:    bar,
		state:  wizard.Snapshot(),
	}
}

func (v *wizardView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case wizardTickMsg:
		v.refresh()
		if v.state.IsProcessing || v.state.Phase == usecase.PhaseSucceeded {
			return pollWizard()
		}
		return nil
	case submitFinishedMsg:
		v.refresh()
		if !m.created {
			v.focusField(0)
			if _, bad := v.state.Errors[usecase.FieldURL]; bad {
				if _, nameBad := v.state.Errors[usecase.FieldName]; !nameBad {
					v.focusField(1)
				}
			}
		}
		return nil
	case tea.WindowSizeMsg:
		v.bar.Width = max(20, min(60, m.Width-10))
		return nil
	case tea.KeyMsg:
		return v.handleKey(m)
	}
	return nil
}

func (v *wizardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.state.IsProcessing || v.state.Phase != usecase.PhaseEditing {
		return nil
	}
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		v.focusField((v.focus + 1) % 2)
		return nil
	case "esc":
		v.wizard.Back()
		v.refresh()
		return nil
	case "enter":
		return v.submit()
	}

	var cmd tea.Cmd
	if v.focus == 0 {
		v.name, cmd = v.name.Update(msg)
		if v.name.Value() != v.state.CompanyName {
			v.wizard.SetCompanyName(v.name.Value())
		}
	} else {
		v.url, cmd = v.url.Update(msg)
		if v.url.Value() != v.state.CompanyURL {
			v.wizard.SetCompanyURL(v.url.Value())
		}
	}
	v.refresh()
	return cmd
}

// submit runs the blocking wizard submission off the UI loop and starts
// polling snapshots for the progress animation.
func (v *wizardView) submit() tea.Cmd {
	ctx, wizard := v.ctx, v.wizard
	run := func() tea.Msg {
		return submitFinishedMsg{created: wizard.Submit(ctx)}
	}
	return tea.Batch(run, pollWizard())
}

func pollWizard() tea.Cmd {
	return tea.Tick(wizardPollInterval, func(time.Time) tea.Msg {
		return wizardTickMsg{}
	})
}

func (v *wizardView) refresh() {
	state := v.wizard.Snapshot()
	if state.Version < v.state.Version {
		return
	}
	v.state = state
}

func (v *wizardView) focusField(i int) {
	v.focus = i
	if i == 0 {
		v.name.Focus()
		v.url.Blur()
		return
	}
	v.url.Focus()
	v.name.Blur()
}

func (v *wizardView) View() string {
	s := v.state
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create your workspace"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("Step %d of 2", s.Step)))
	b.WriteString("\n\n")

	if s.Step == usecase.StepAIAnalysis {
		b.WriteString(labelStyle.Render(s.CompanyName))
		b.WriteString("\n\n")
		b.WriteString(v.bar.ViewAs(s.Progress / 100))
		b.WriteString("\n")
		if s.Phase == usecase.PhaseSucceeded || s.Phase == usecase.PhaseRedirecting {
			b.WriteString(successStyle.Render(s.Caption))
		} else {
			b.WriteString(captionStyle.Render(s.Caption))
		}
		return panelStyle.Render(b.String())
	}

	if msg, ok := s.Errors[usecase.FieldGeneral]; ok {
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n\n")
	}
	b.WriteString(field("Company name", v.name.View(), s.Errors[usecase.FieldName]))
	b.WriteString(field("Website", v.url.View(), s.Errors[usecase.FieldURL]))
	b.WriteString(hintStyle.Render("tab switch field · enter continue · esc reset · ctrl+c quit"))
	return panelStyle.Render(b.String())
}

func field(label, input, errMsg string) string {
	lines := []string{labelStyle.Render(label), input}
	if errMsg != "" {
		lines = append(lines, errorStyle.Render(errMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n\n"
}
