package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

type feedMsg usecase.FeedEvent

type actionDoneMsg struct {
	label   string
	message string
	err     error
}

// promptKind is the free-text decision currently being typed.
type promptKind int

const (
	promptNone promptKind = iota
	promptReject
	promptRefine
	promptEvidence
	promptDraftRecipient
	promptDraftSubject
	promptDraftBody
)

var promptLabels = map[promptKind]string{
	promptReject:         "Reason for rejecting",
	promptRefine:         "What should be refined?",
	promptEvidence:       "What evidence is missing?",
	promptDraftRecipient: "Outreach recipient email",
	promptDraftSubject:   "Outreach subject",
	promptDraftBody:      "Outreach message",
}

type boardView struct {
	ctx     context.Context
	actions usecase.OpportunityActions
	feed    *usecase.OpportunityFeed
	snoozes *usecase.SnoozeRegistry
	events  chan usecase.FeedEvent
	// exportDir receives exported PDFs.
	exportDir string

	cards    []usecase.OpportunityCard
	last     usecase.FeedEvent
	selected int
	status   string
	err      error
	detail   string
	// pendingDelete is the id waiting for a second "d".
	pendingDelete string

	prompt      promptKind
	promptInput textinput.Model
	draft       usecase.DraftOutreachInput
}

func newBoardView(ctx context.Context, actions usecase.OpportunityActions, feed *usecase.OpportunityFeed, exportDir string) *boardView {
	input := textinput.New()
	input.CharLimit = 2000

	if exportDir == "" {
		exportDir = "."
	}
	v := &boardView{
		ctx:         ctx,
		actions:     actions,
		feed:        feed,
		snoozes:     usecase.NewSnoozeRegistry(),
		events:      make(chan usecase.FeedEvent, 1),
		exportDir:   exportDir,
		promptInput: input,
	}
	if feed != nil {
		v.last = feed.Last()
		v.rebuild()
		feed.Subscribe(v.publish)
	}
	return v
}

// publish keeps only the newest event when the UI falls behind.
func (v *boardView) publish(e usecase.FeedEvent) {
	for {
		select {
		case v.events <- e:
			return
		default:
		}
		select {
		case <-v.events:
		default:
		}
	}
}

func (v *boardView) Init() tea.Cmd {
	if v.feed == nil {
		return nil
	}
	return v.waitForFeed()
}

func (v *boardView) waitForFeed() tea.Cmd {
	events := v.events
	return func() tea.Msg {
		return feedMsg(<-events)
	}
}

func (v *boardView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case feedMsg:
		v.last = usecase.FeedEvent(m)
		keep := make(map[string]bool, len(m.Opportunities))
		for _, opp := range m.Opportunities {
			keep[opp.ID] = true
		}
		v.snoozes.Forget(keep)
		v.rebuild()
		return v.waitForFeed()
	case actionDoneMsg:
		if m.err != nil {
			v.err = m.err
			v.status = ""
			return nil
		}
		v.err = nil
		v.status = m.label
		if m.message != "" {
			v.status += ": " + m.message
		}
		return v.refresh()
	case tea.KeyMsg:
		if v.prompt != promptNone {
			return v.handlePromptKey(m)
		}
		return v.handleKey(m)
	}
	return nil
}

func (v *boardView) rebuild() {
	v.cards = usecase.BuildBoard(v.last.Opportunities, v.snoozes)
	if v.selected >= len(v.cards) {
		v.selected = max(0, len(v.cards)-1)
	}
}

func (v *boardView) current() (usecase.OpportunityCard, bool) {
	if len(v.cards) == 0 {
		return usecase.OpportunityCard{}, false
	}
	return v.cards[v.selected], true
}

func (v *boardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	confirming := v.pendingDelete
	v.pendingDelete = ""

	switch key {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.detail = ""
		}
		return nil
	case "down", "j":
		if v.selected < len(v.cards)-1 {
			v.selected++
			v.detail = ""
		}
		return nil
	case "esc":
		v.detail = ""
		return nil
	case "r":
		v.status = "Refreshing..."
		return v.refresh()
	}

	card, ok := v.current()
	if !ok {
		return nil
	}
	opp := card.Opportunity
	id := opp.ID
	switch key {
	case "v":
		if v.allowed(card, entity.ActionReview) {
			return v.run("Submitted for review", func(ctx context.Context) (string, error) {
				out, err := v.actions.Review(ctx, id)
				return decisionMessage(out), err
			})
		}
	case "a":
		if v.allowed(card, entity.ActionApprove) {
			return v.run("Approved", func(ctx context.Context) (string, error) {
				out, err := v.actions.Approve(ctx, id, "")
				return decisionMessage(out), err
			})
		}
	case "x":
		if v.allowed(card, entity.ActionReject) {
			v.openPrompt(promptReject, "")
		}
	case "f":
		if v.allowed(card, entity.ActionRefine) {
			v.openPrompt(promptRefine, "")
		}
	case "e":
		// asked from the same review state as a refinement
		if v.allowed(card, entity.ActionRefine) {
			v.openPrompt(promptEvidence, "")
		}
	case "o":
		if v.allowed(card, entity.ActionDraftOutreach) {
			v.draft = usecase.DraftOutreachInput{}
			if opp.DraftOutreach != nil {
				v.draft = usecase.DraftOutreachInput{
					Subject:   opp.DraftOutreach.Subject,
					Body:      opp.DraftOutreach.Body,
					Recipient: opp.DraftOutreach.Recipient,
				}
			}
			v.openPrompt(promptDraftRecipient, v.draft.Recipient)
		}
	case "s":
		if v.allowed(card, entity.ActionSend) {
			return v.run("Sent", func(ctx context.Context) (string, error) {
				out, err := v.actions.Send(ctx, id)
				return activationMessage(out), err
			})
		}
	case "t":
		if v.allowed(card, entity.ActionResend) {
			return v.run("Resent", func(ctx context.Context) (string, error) {
				out, err := v.actions.Resend(ctx, id)
				return activationMessage(out), err
			})
		}
	case "p":
		if v.allowed(card, entity.ActionExport) {
			path := filepath.Join(v.exportDir, "opportunity-"+id+".pdf")
			return v.run("Exported", func(ctx context.Context) (string, error) {
				return path, v.exportTo(ctx, id, path)
			})
		}
	case "w":
		if v.allowed(card, entity.ActionViewSent) {
			v.detail = sentDetail(opp)
		}
	case "d":
		if !v.allowed(card, entity.ActionDelete) {
			return nil
		}
		if confirming != id {
			v.pendingDelete = id
			v.status = "Press d again to delete " + opp.Title
			return nil
		}
		return v.run("Deleted", func(ctx context.Context) (string, error) {
			return opp.Title, v.actions.Delete(ctx, id)
		})
	case "z":
		switch {
		case v.allowed(card, entity.ActionUnsnooze):
			v.snoozes.Unsnooze(id)
			v.status = "Unsnoozed " + opp.Title
		case v.allowed(card, entity.ActionSnooze):
			v.snoozes.Snooze(id)
			v.status = "Snoozed " + opp.Title
		}
		v.rebuild()
	}
	return nil
}

// exportTo writes the PDF to path, leaving nothing behind on failure.
func (v *boardView) exportTo(ctx context.Context, id, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = v.actions.Export(ctx, id, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}

func sentDetail(opp *entity.Opportunity) string {
	d := opp.DraftOutreach
	if d == nil {
		return "No outreach recorded for this opportunity."
	}
	return fmt.Sprintf("To: %s\nSubject: %s\n\n%s", d.Recipient, d.Subject, d.Body)
}

func decisionMessage(out *usecase.ReviewDecisionOutput) string {
	if out == nil {
		return ""
	}
	return out.Message
}

func activationMessage(out *usecase.ActivateCRMOutput) string {
	if out == nil {
		return ""
	}
	return out.Message
}

func (v *boardView) allowed(card usecase.OpportunityCard, action entity.OpportunityAction) bool {
	if entity.IsActionAllowed(card.Status, action) {
		return true
	}
	v.status = fmt.Sprintf("%s is not available for %s opportunities", entity.ActionPresentationFor(action).Label, card.Chip.Label)
	return false
}

func (v *boardView) openPrompt(kind promptKind, value string) {
	v.prompt = kind
	v.promptInput.SetValue(value)
	v.promptInput.CursorEnd()
	v.promptInput.Placeholder = promptLabels[kind]
	v.promptInput.Focus()
}

func (v *boardView) closePrompt() {
	v.prompt = promptNone
	v.promptInput.Blur()
}

func (v *boardView) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.closePrompt()
		return nil
	case "enter":
		card, ok := v.current()
		kind := v.prompt
		text := strings.TrimSpace(v.promptInput.Value())
		switch kind {
		case promptDraftRecipient:
			v.draft.Recipient = text
			v.openPrompt(promptDraftSubject, v.draft.Subject)
			return nil
		case promptDraftSubject:
			v.draft.Subject = text
			v.openPrompt(promptDraftBody, v.draft.Body)
			return nil
		}
		v.closePrompt()
		if !ok {
			return nil
		}
		return v.decide(kind, card.Opportunity.ID, text)
	}
	var cmd tea.Cmd
	v.promptInput, cmd = v.promptInput.Update(msg)
	return cmd
}

func (v *boardView) decide(kind promptKind, id, text string) tea.Cmd {
	var label string
	var call func(context.Context) (*usecase.ReviewDecisionOutput, error)
	switch kind {
	case promptReject:
		label = "Rejected"
		call = func(ctx context.Context) (*usecase.ReviewDecisionOutput, error) {
			return v.actions.Reject(ctx, id, usecase.RejectInput{Reason: text})
		}
	case promptRefine:
		label = "Refinement requested"
		call = func(ctx context.Context) (*usecase.ReviewDecisionOutput, error) {
			return v.actions.Refine(ctx, id, usecase.RefineInput{Feedback: text})
		}
	case promptEvidence:
		label = "Evidence requested"
		call = func(ctx context.Context) (*usecase.ReviewDecisionOutput, error) {
			return v.actions.NeedsMoreEvidence(ctx, id, usecase.NeedsMoreEvidenceInput{Question: text})
		}
	case promptDraftBody:
		v.draft.Body = text
		draft := v.draft
		label = "Outreach drafted"
		call = func(ctx context.Context) (*usecase.ReviewDecisionOutput, error) {
			return v.actions.DraftOutreach(ctx, id, draft)
		}
	default:
		return nil
	}
	return v.run(label, func(ctx context.Context) (string, error) {
		out, err := call(ctx)
		return decisionMessage(out), err
	})
}

func (v *boardView) run(label string, fn func(context.Context) (string, error)) tea.Cmd {
	if v.actions == nil {
		v.status = "No opportunity API configured"
		return nil
	}
	ctx := v.ctx
	return func() tea.Msg {
		message, err := fn(ctx)
		return actionDoneMsg{label: label, message: message, err: err}
	}
}

func (v *boardView) refresh() tea.Cmd {
	if v.feed == nil {
		return nil
	}
	feed, ctx := v.feed, v.ctx
	return func() tea.Msg {
		feed.Refresh(ctx)
		return nil
	}
}

func (v *boardView) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Opportunities"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(v.syncLine()))
	b.WriteString("\n\n")

	if v.feed == nil {
		b.WriteString(hintStyle.Render("No opportunity API configured. Set PULSE_USE_MOCK_API=false to connect."))
		return b.String()
	}
	if len(v.cards) == 0 {
		b.WriteString(hintStyle.Render("No opportunities yet."))
	}
	for i, card := range v.cards {
		opp := card.Opportunity
		cursor := "  "
		title := opp.Title
		if i == v.selected {
			cursor = "> "
			title = selectedRow.Render(title)
		}
		fmt.Fprintf(&b, "%s%s %s  %s\n", cursor, chip(card.Chip), title, hintStyle.Render(fmt.Sprintf("%.0f", opp.Score*100)))
		if i == v.selected {
			buttons := make([]string, 0, len(card.Actions))
			for _, a := range card.Actions {
				buttons = append(buttons, button(a.Presentation))
			}
			fmt.Fprintf(&b, "    %s\n", strings.Join(buttons, " "))
			if opp.Summary != "" {
				fmt.Fprintf(&b, "    %s\n", hintStyle.Render(opp.Summary))
			}
			if v.detail != "" {
				b.WriteString(panelStyle.Render(v.detail))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	if v.prompt != promptNone {
		b.WriteString(labelStyle.Render(promptLabels[v.prompt]))
		b.WriteString("\n")
		b.WriteString(v.promptInput.View())
		b.WriteString("\n")
	}
	if v.err != nil {
		b.WriteString(errorStyle.Render(v.err.Error()))
		b.WriteString("\n")
	} else if v.status != "" {
		b.WriteString(captionStyle.Render(v.status))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("j/k move · v review · a approve · x reject · f refine · e evidence · o draft · s send · p export · w view sent · t resend · d delete · z snooze · r refresh · n new · q quit"))
	return b.String()
}

func (v *boardView) syncLine() string {
	switch v.last.Status {
	case usecase.SyncSynced:
		return fmt.Sprintf("%d total · synced %s", v.last.Total, v.last.At.Format("15:04:05"))
	case usecase.SyncOffline:
		return "offline · showing last known board"
	default:
		return "syncing..."
	}
}
