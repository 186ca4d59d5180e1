package service

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/domain"
)

// Assembler combines identity, follow-up date, render options, and the filtered
// section list into a renderer-ready report payload. It never reads ambient
// state: the section config arrives as an explicit parameter and the workflow
// owns fetching it.
type Assembler struct {
	logger   *logrus.Logger
	renderer domain.Renderer
}

// NewAssembler creates a new report assembler.
func NewAssembler(logger *logrus.Logger, renderer domain.Renderer) *Assembler {
	return &Assembler{
		logger:   logger,
		renderer: renderer,
	}
}

// AssembleParams carries everything a payload is built from.
type AssembleParams struct {
	Sections   []domain.ReportSection
	EnabledIDs []domain.Category    // optional filter+order; empty means use Config
	Config     domain.SectionConfig // persisted visibility/order, applied when EnabledIDs is empty
	FollowUp   domain.FollowUpDate  // resolved by the caller; omitted is treated as absent here
	Options    domain.RenderOptions
	Patient    *domain.Patient
	Doctor     *domain.Doctor
}

// Assemble builds a fresh ReportPayload. It fails with MISSING_CONTEXT when
// either party identity is absent: a report cannot be generated without both
// patient and doctor identified, and that is a state error, not a transient one.
func (a *Assembler) Assemble(params AssembleParams) (*domain.ReportPayload, error) {
	if params.Patient == nil {
		return nil, domain.NewNormalizedError(domain.KindMissingContext, "patient identity is required to generate a report")
	}
	if params.Doctor == nil {
		return nil, domain.NewNormalizedError(domain.KindMissingContext, "doctor identity is required to generate a report")
	}

	sections := a.selectSections(params)

	payload := &domain.ReportPayload{
		Patient:     params.Patient,
		Doctor:      params.Doctor,
		GeneratedAt: time.Now().UTC(),
		Sections:    sections,
		FollowUp:    params.FollowUp.Format(),
		Options:     params.Options,
	}

	a.logger.WithFields(logrus.Fields{
		"patient_id":    params.Patient.ID,
		"doctor_id":     params.Doctor.ID,
		"sections":      len(sections),
		"has_follow_up": params.FollowUp.IsSet(),
	}).Info("Report payload assembled")

	return payload, nil
}

// Render delegates to the external renderer and normalizes any failure at this
// boundary.
func (a *Assembler) Render(ctx context.Context, payload *domain.ReportPayload) (string, error) {
	markup, err := a.renderer.Render(ctx, payload)
	if err != nil {
		ne := domain.Normalize(err)
		a.logger.WithFields(logrus.Fields{
			"code":      ne.Kind,
			"retryable": ne.Retryable,
		}).Error("Report rendering failed")
		return "", ne
	}
	return markup, nil
}

// selectSections applies the visibility policy: an explicit EnabledIDs list is
// an order-preserving projection over the built sections; otherwise the
// persisted config decides, excluding only sections explicitly disabled and
// ordering by the persisted positions. The result is never re-sorted into
// canonical order.
func (a *Assembler) selectSections(params AssembleParams) []domain.ReportSection {
	byID := make(map[domain.Category]domain.ReportSection, len(params.Sections))
	for _, s := range params.Sections {
		byID[s.ID] = s
	}

	if len(params.EnabledIDs) > 0 {
		out := make([]domain.ReportSection, 0, len(params.EnabledIDs))
		for _, id := range params.EnabledIDs {
			if s, ok := byID[id]; ok {
				out = append(out, s)
			}
		}
		return out
	}

	// Fall back to the persisted order. Sections absent from the config are
	// included at their canonical position: the filter fails open.
	ordered := make([]domain.ReportSection, 0, len(params.Sections))
	for _, s := range params.Sections {
		if !params.Config.Excluded(s.ID) {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return a.positionOf(params.Config, ordered[i].ID) < a.positionOf(params.Config, ordered[j].ID)
	})
	return ordered
}

func (a *Assembler) positionOf(cfg domain.SectionConfig, id domain.Category) int {
	if s, ok := cfg[id]; ok {
		return s.Order
	}
	return id.CanonicalIndex()
}
