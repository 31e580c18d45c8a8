package usecase

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const (
	ProgressInterval     = 200 * time.Millisecond
	SuccessRedirectDelay = time.Second
	ProgressThreshold    = 90.0
	ProgressIncrementMax = 2.5

	InitialCaption  = "Initiating..."
	SuccessCaption  = "Workspace created successfully!"
	FallbackCaption = "Processing..."
)

// ProcessingCaptions are shown in order as the simulated progress advances.
var ProcessingCaptions = []string{
	"Resolving DNS...",
	"Connecting to secure server...",
	"Scraping public metadata...",
	"Analyzing brand identity...",
	"Generating workspace config...",
}

type WizardStep int

const (
	StepCompanyInfo WizardStep = 1
	StepAIAnalysis  WizardStep = 2
)

type WizardPhase string

const (
	PhaseEditing     WizardPhase = "editing"
	PhaseValidating  WizardPhase = "validating"
	PhaseSubmitting  WizardPhase = "submitting"
	PhaseSucceeded   WizardPhase = "succeeded"
	PhaseRedirecting WizardPhase = "redirecting"
	PhaseClosed      WizardPhase = "closed"
)

// WizardState is an immutable snapshot of the wizard. Version grows with
// every change so late observers can drop stale snapshots.
type WizardState struct {
	Version      uint64
	Phase        WizardPhase
	Step         WizardStep
	CompanyName  string
	CompanyURL   string
	Errors       ValidationErrors
	IsProcessing bool
	Progress     float64
	Caption      string
	WorkspaceID  string
}

// DashboardPath is where a created workspace lands.
func DashboardPath(workspaceID string) string {
	return fmt.Sprintf("/workspaces/%s/dashboard", workspaceID)
}

type WizardOption func(*WorkspaceWizard)

func WithScheduler(s Scheduler) WizardOption {
	return func(w *WorkspaceWizard) { w.scheduler = s }
}

// WithRandom replaces the [0,1) source used for progress increments.
func WithRandom(fn func() float64) WizardOption {
	return func(w *WorkspaceWizard) { w.random = fn }
}

func WithWizardLogger(l logging.Logger) WizardOption {
	return func(w *WorkspaceWizard) { w.logger = l }
}

// OnChange registers an observer called after every state change. It runs
// outside the wizard lock and may see snapshots out of order; compare
// Version.
func OnChange(fn func(WizardState)) WizardOption {
	return func(w *WorkspaceWizard) { w.observers = append(w.observers, fn) }
}

// WorkspaceWizard drives the two-step workspace creation flow: validate the
// company identity, submit it, animate progress while the request is in
// flight, then redirect or fall back to editing.
type WorkspaceWizard struct {
	creator   WorkspaceCreator
	navigator Navigator
	scheduler Scheduler
	random    func() float64
	logger    logging.Logger
	observers []func(WizardState)

	mu          sync.Mutex
	version     uint64
	phase       WizardPhase
	step        WizardStep
	companyName string
	companyURL  string
	errors      ValidationErrors
	processing  bool
	progress    float64
	caption     string
	workspaceID string

	simulating   bool
	progressTask Task
	redirectTask Task
	cancelReq    context.CancelFunc
	closed       bool
}

func NewWorkspaceWizard(creator WorkspaceCreator, navigator Navigator, opts ...WizardOption) *WorkspaceWizard {
	w := &WorkspaceWizard{
		creator:   creator,
		navigator: navigator,
		scheduler: NewScheduler(),
		random:    rand.Float64,
		logger:    logging.NoOp(),
		phase:     PhaseEditing,
		step:      StepCompanyInfo,
		errors:    ValidationErrors{},
		caption:   InitialCaption,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WorkspaceWizard) Snapshot() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *WorkspaceWizard) snapshotLocked() WizardState {
	return WizardState{
		Version:      w.version,
		Phase:        w.phase,
		Step:         w.step,
		CompanyName:  w.companyName,
		CompanyURL:   w.companyURL,
		Errors:       w.errors.Clone(),
		IsProcessing: w.processing,
		Progress:     w.progress,
		Caption:      w.caption,
		WorkspaceID:  w.workspaceID,
	}
}

// changedLocked bumps the version and returns the snapshot to publish.
func (w *WorkspaceWizard) changedLocked() WizardState {
	w.version++
	return w.snapshotLocked()
}

func (w *WorkspaceWizard) notify(state WizardState) {
	for _, fn := range w.observers {
		fn(state)
	}
}

func (w *WorkspaceWizard) editable() bool {
	return !w.closed && w.phase == PhaseEditing && !w.processing
}

func (w *WorkspaceWizard) SetCompanyName(name string) {
	w.mu.Lock()
	if !w.editable() {
		w.mu.Unlock()
		return
	}
	w.companyName = name
	delete(w.errors, FieldName)
	state := w.changedLocked()
	w.mu.Unlock()
	w.notify(state)
}

func (w *WorkspaceWizard) SetCompanyURL(url string) {
	w.mu.Lock()
	if !w.editable() {
		w.mu.Unlock()
		return
	}
	w.companyURL = url
	delete(w.errors, FieldURL)
	state := w.changedLocked()
	w.mu.Unlock()
	w.notify(state)
}

// Back returns to the first step and clears errors. Ignored while a
// submission is in flight.
func (w *WorkspaceWizard) Back() {
	w.mu.Lock()
	if !w.editable() {
		w.mu.Unlock()
		return
	}
	w.step = StepCompanyInfo
	w.errors = ValidationErrors{}
	state := w.changedLocked()
	w.mu.Unlock()
	w.notify(state)
}

// Submit validates the form and, when it passes, runs the creation request.
// It blocks until the request resolves and reports whether the workspace
// was created. Calls made while a submission is in flight, outside the
// first step, or after Close are ignored.
func (w *WorkspaceWizard) Submit(ctx context.Context) bool {
	w.mu.Lock()
	if !w.editable() || w.step != StepCompanyInfo {
		w.mu.Unlock()
		return false
	}

	w.phase = PhaseValidating
	errs := ValidateWorkspace(w.companyName, w.companyURL)
	if len(errs) > 0 {
		w.phase = PhaseEditing
		w.errors = errs
		state := w.changedLocked()
		w.mu.Unlock()
		w.notify(state)
		return false
	}

	data := entity.WorkspaceData{
		CompanyName: strings.TrimSpace(w.companyName),
		CompanyURL:  NormalizeURL(strings.TrimSpace(w.companyURL)),
	}

	reqCtx, cancel := context.WithCancel(ctx)
	w.cancelReq = cancel
	w.phase = PhaseSubmitting
	w.errors = ValidationErrors{}
	w.step = StepAIAnalysis
	w.processing = true
	w.progress = 0
	w.caption = InitialCaption
	w.simulating = true
	w.progressTask = w.scheduler.Every(ProgressInterval, w.tick)
	state := w.changedLocked()
	w.mu.Unlock()
	w.notify(state)

	result, err := w.request(reqCtx, data)
	cancel()
	return w.finish(data, result, err)
}

func (w *WorkspaceWizard) request(ctx context.Context, data entity.WorkspaceData) (result WorkspaceResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workspace creator panicked: %v", r)
		}
	}()
	result, err = w.creator.Create(ctx, data)
	if err != nil {
		return result, err
	}
	err = result.Validate()
	return result, err
}

func (w *WorkspaceWizard) finish(data entity.WorkspaceData, result WorkspaceResult, err error) bool {
	w.mu.Lock()
	w.stopProgressLocked()
	w.cancelReq = nil
	if w.closed {
		w.mu.Unlock()
		return false
	}

	if err != nil || !result.Success {
		message := MsgGeneralError
		if err != nil {
			w.logger.Error("workspace creation failed", "company", data.CompanyName, "error", err)
		} else {
			message = result.Error
			w.logger.Warn("workspace creation rejected", "company", data.CompanyName, "reason", message)
		}
		w.phase = PhaseEditing
		w.step = StepCompanyInfo
		w.processing = false
		w.errors = ValidationErrors{FieldGeneral: message}
		state := w.changedLocked()
		w.mu.Unlock()
		w.notify(state)
		return false
	}

	w.phase = PhaseSucceeded
	w.progress = 100
	w.caption = SuccessCaption
	w.workspaceID = result.WorkspaceID
	path := DashboardPath(result.WorkspaceID)
	w.redirectTask = w.scheduler.After(SuccessRedirectDelay, func() { w.redirect(path) })
	state := w.changedLocked()
	w.mu.Unlock()
	w.notify(state)
	w.logger.Info("workspace created", "workspace_id", result.WorkspaceID)
	return true
}

func (w *WorkspaceWizard) redirect(path string) {
	w.mu.Lock()
	if w.closed || w.phase != PhaseSucceeded {
		w.mu.Unlock()
		return
	}
	w.phase = PhaseRedirecting
	w.redirectTask = nil
	state := w.changedLocked()
	w.mu.Unlock()
	w.notify(state)

	// an observer may have closed the wizard; Close holds the lock, so the
	// check and the navigation cannot interleave with it
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.navigator.Navigate(path)
}

func (w *WorkspaceWizard) tick() {
	w.mu.Lock()
	if !w.simulating || w.closed || w.progress >= ProgressThreshold {
		w.mu.Unlock()
		return
	}
	idx := int(math.Floor(w.progress / ProgressThreshold * float64(len(ProcessingCaptions))))
	if idx >= 0 && idx < len(ProcessingCaptions) {
		w.caption = ProcessingCaptions[idx]
	} else {
		w.caption = FallbackCaption
	}
	w.progress = math.Min(w.progress+w.random()*ProgressIncrementMax, ProgressThreshold)
	state := w.changedLocked()
	w.mu.Unlock()
	w.notify(state)
}

func (w *WorkspaceWizard) stopProgressLocked() {
	w.simulating = false
	if w.progressTask != nil {
		w.progressTask.Cancel()
		w.progressTask = nil
	}
}

// Close tears the wizard down: timers are cancelled, an in-flight request
// is abandoned, and no state change or navigation happens afterwards.
func (w *WorkspaceWizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.phase = PhaseClosed
	w.stopProgressLocked()
	if w.redirectTask != nil {
		w.redirectTask.Cancel()
		w.redirectTask = nil
	}
	if w.cancelReq != nil {
		w.cancelReq()
		w.cancelReq = nil
	}
}
