package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/domain"
)

// State is the position of a consultation session in the report workflow.
type State string

const (
	StateWriting          State = "WRITING"
	StateAwaitingFollowUp State = "AWAITING_FOLLOWUP_DECISION"
	StatePreviewing       State = "PREVIEWING"
)

// Preview is the outcome of a report generation: the assembled payload and the
// markup the renderer produced from it.
type Preview struct {
	Payload *domain.ReportPayload `json:"payload"`
	Markup  string                `json:"markup"`
}

// Workflow orchestrates one consultation session: collecting items, deciding
// whether a follow-up date is prompted for before assembly, and producing
// previews. It is a strict linear state machine with no reentrancy; the session
// follow-up date and section config are owned exclusively by this workflow and
// mutated only through its transitions.
type Workflow struct {
	logger    *logrus.Logger
	assembler *Assembler
	settings  domain.SettingsStore
	timer     Timer

	mu       sync.Mutex
	state    State
	patient  *domain.Patient
	doctor   *domain.Doctor
	items    domain.ItemsByCategory
	config   domain.SectionConfig
	options  domain.RenderOptions
	followUp domain.FollowUpDate // stored decision: absent or set, never omitted
}

// NewWorkflow starts a consultation session in the WRITING state. The section
// config and default render options are read from the settings store once, here;
// the assembler never reaches into the store itself.
func NewWorkflow(
	ctx context.Context,
	logger *logrus.Logger,
	assembler *Assembler,
	settings domain.SettingsStore,
	patient *domain.Patient,
	doctor *domain.Doctor,
) (*Workflow, error) {
	w := &Workflow{
		logger:    logger,
		assembler: assembler,
		settings:  settings,
		timer:     NewTimer(),
		state:     StateWriting,
		patient:   patient,
		doctor:    doctor,
		items:     make(domain.ItemsByCategory),
		config:    domain.DefaultSectionConfig(),
		options:   domain.DefaultRenderOptions(),
		followUp:  domain.NoFollowUp(),
	}

	if doctor != nil {
		cfg, err := settings.LoadSectionConfig(ctx, doctor.ID)
		if err != nil {
			return nil, fmt.Errorf("loading section config: %w", err)
		}
		w.config = cfg.Normalize()

		opts, err := settings.LoadRenderOptions(ctx, doctor.ID)
		if err != nil {
			return nil, fmt.Errorf("loading render options: %w", err)
		}
		w.options = opts
	}

	return w, nil
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// FollowUp returns the session's stored follow-up decision.
func (w *Workflow) FollowUp() domain.FollowUpDate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.followUp
}

// SectionConfig returns a copy of the session's section config.
func (w *Workflow) SectionConfig() domain.SectionConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(domain.SectionConfig, len(w.config))
	for k, v := range w.config {
		out[k] = v
	}
	return out
}

// AddItem records a consultation entry. Items can only be added while writing.
func (w *Workflow) AddItem(cat domain.Category, text string) (*domain.ConsultationItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateWriting {
		return nil, domain.NewNormalizedError(domain.KindValidation,
			fmt.Sprintf("cannot add items in state %s", w.state))
	}

	item := domain.ConsultationItem{ID: uuid.NewString(), Text: text}
	if err := w.items.Add(cat, item); err != nil {
		return nil, domain.NewNormalizedError(domain.KindValidation, err.Error())
	}
	return &item, nil
}

// Finish moves the session from WRITING to AWAITING_FOLLOWUP_DECISION and stops
// the consultation timer. A second finish while already awaiting is a no-op, so
// the user is never prompted twice. The timer never restarts automatically.
func (w *Workflow) Finish() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateWriting:
		w.timer.Stop()
		w.state = StateAwaitingFollowUp
		w.logger.WithFields(logrus.Fields{
			"items":   w.items.Count(),
			"elapsed": w.timer.Elapsed(),
		}).Info("Consultation finished, awaiting follow-up decision")
		return w.state, nil
	case StateAwaitingFollowUp:
		// Re-entering the same state, not a duplicate prompt.
		return w.state, nil
	default:
		return w.state, domain.NewNormalizedError(domain.KindValidation,
			fmt.Sprintf("cannot finish in state %s", w.state))
	}
}

// Confirm stores the chosen follow-up date and generates the report preview.
// Only valid while awaiting the follow-up decision.
func (w *Workflow) Confirm(ctx context.Context, date time.Time) (*Preview, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateAwaitingFollowUp {
		return nil, domain.NewNormalizedError(domain.KindValidation,
			fmt.Sprintf("confirm is only valid while awaiting a follow-up decision, state is %s", w.state))
	}

	w.followUp = domain.FollowUpOn(date)
	w.timer.Stop() // idempotent
	return w.generateLocked(ctx, nil, w.followUp)
}

// Skip clears the session's follow-up date and generates the report preview with
// an explicitly absent date. Only valid while awaiting the follow-up decision.
func (w *Workflow) Skip(ctx context.Context) (*Preview, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateAwaitingFollowUp {
		return nil, domain.NewNormalizedError(domain.KindValidation,
			fmt.Sprintf("skip is only valid while awaiting a follow-up decision, state is %s", w.state))
	}

	w.followUp = domain.NoFollowUp()
	w.timer.Stop()
	return w.generateLocked(ctx, nil, w.followUp)
}

// Generate is the shortcut path used when regenerating from an already-open
// preview, for example after changing which sections are visible. It works from
// any state and reuses the previously decided follow-up date without
// re-prompting. Supplied render options become the doctor's stored default,
// written through the settings store so they outlive the session.
func (w *Workflow) Generate(ctx context.Context, enabledIDs []domain.Category, options *domain.RenderOptions) (*Preview, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if options != nil {
		w.options = *options
		if w.doctor != nil {
			if err := w.settings.SaveRenderOptions(ctx, w.doctor.ID, w.options); err != nil {
				return nil, fmt.Errorf("persisting render options: %w", err)
			}
		}
	}
	return w.generateLocked(ctx, enabledIDs, domain.FollowUpOmitted().Or(w.followUp))
}

// Edit returns a previewing session to the writing state for further entries.
// The consultation timer stays stopped.
func (w *Workflow) Edit() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StatePreviewing {
		w.state = StateWriting
	}
	return w.state
}

// SetSectionOrder replaces the session's section visibility/order config and
// writes it back to the settings store. This is the only path that persists the
// config.
func (w *Workflow) SetSectionOrder(ctx context.Context, cfg domain.SectionConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.config = cfg.Normalize()
	if w.doctor == nil {
		return nil
	}
	if err := w.settings.SaveSectionConfig(ctx, w.doctor.ID, w.config); err != nil {
		return fmt.Errorf("persisting section config: %w", err)
	}
	return nil
}

// generateLocked builds sections, assembles the payload, renders it, and moves
// the session to PREVIEWING. Callers hold the mutex. Assembly is synchronous and
// cannot be interrupted once started.
func (w *Workflow) generateLocked(ctx context.Context, enabledIDs []domain.Category, date domain.FollowUpDate) (*Preview, error) {
	sections := BuildSections(w.items)

	payload, err := w.assembler.Assemble(AssembleParams{
		Sections:   sections,
		EnabledIDs: enabledIDs,
		Config:     w.config,
		FollowUp:   date,
		Options:    w.options,
		Patient:    w.patient,
		Doctor:     w.doctor,
	})
	if err != nil {
		return nil, err
	}

	markup, err := w.assembler.Render(ctx, payload)
	if err != nil {
		return nil, err
	}

	w.state = StatePreviewing
	return &Preview{Payload: payload, Markup: markup}, nil
}
