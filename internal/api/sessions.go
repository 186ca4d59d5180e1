package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/domain"
	"github.com/clinic-visit-server/internal/service"
)

// Session binds one consultation workflow to its HTTP-visible identity.
type Session struct {
	ID        string
	PatientID string
	DoctorID  string
	CreatedAt time.Time
	Workflow  *service.Workflow
}

// SessionManager owns the live consultation sessions of this server instance.
// Sessions are in-memory; a restart ends them, which matches how a consultation
// is used: opened, worked, previewed, closed.
type SessionManager struct {
	logger    *logrus.Logger
	assembler *service.Assembler
	settings  domain.SettingsStore
	identity  domain.IdentitySource

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a session manager.
func NewSessionManager(
	logger *logrus.Logger,
	assembler *service.Assembler,
	settings domain.SettingsStore,
	identity domain.IdentitySource,
) *SessionManager {
	return &SessionManager{
		logger:    logger,
		assembler: assembler,
		settings:  settings,
		identity:  identity,
		sessions:  make(map[string]*Session),
	}
}

// Create opens a consultation session for a patient/doctor pair. Identity is
// resolved up front so a session can never exist without its context.
func (sm *SessionManager) Create(ctx context.Context, patientID, doctorID string) (*Session, error) {
	patient, err := sm.identity.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("resolving patient: %w", err)
	}
	doctor, err := sm.identity.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("resolving doctor: %w", err)
	}

	workflow, err := service.NewWorkflow(ctx, sm.logger, sm.assembler, sm.settings, patient, doctor)
	if err != nil {
		return nil, fmt.Errorf("starting workflow: %w", err)
	}

	session := &Session{
		ID:        uuid.NewString(),
		PatientID: patientID,
		DoctorID:  doctorID,
		CreatedAt: time.Now(),
		Workflow:  workflow,
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	sm.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"patient_id": patientID,
		"doctor_id":  doctorID,
	}).Info("Consultation session created")

	return session, nil
}

// Get returns a session by ID.
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[id]
	if !ok {
		return nil, domain.NewNormalizedError(domain.KindNotFound,
			fmt.Sprintf("session %s not found", id))
	}
	return session, nil
}

// Close removes a session.
func (sm *SessionManager) Close(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.sessions[id]; !ok {
		return domain.NewNormalizedError(domain.KindNotFound,
			fmt.Sprintf("session %s not found", id))
	}
	delete(sm.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
