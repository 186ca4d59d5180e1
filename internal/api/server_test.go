package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-visit-server/internal/domain"
	"github.com/clinic-visit-server/internal/repository"
	"github.com/clinic-visit-server/internal/service"
)

type stubConfigManager struct {
	config *domain.Config
}

func (m *stubConfigManager) GetConfig() *domain.Config { return m.config }

func (m *stubConfigManager) GetServerConfig() *domain.ServerConfig { return &m.config.Server }

func (m *stubConfigManager) GetDatabaseConfig() *domain.DatabaseConfig { return &m.config.Database }

func (m *stubConfigManager) Validate() error { return nil }

type stubIdentity struct{}

func (stubIdentity) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	if id != "pat-1" {
		return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
	}
	return &domain.Patient{ID: "pat-1", MRN: "MRN-0042", Name: "Asha Rahman"}, nil
}

func (stubIdentity) GetDoctor(ctx context.Context, id string) (*domain.Doctor, error) {
	if id != "doc-1" {
		return nil, fmt.Errorf("doctor not found: %w", domain.ErrNotFound)
	}
	return &domain.Doctor{ID: "doc-1", Name: "Dr. T. Chowdhury"}, nil
}

func (stubIdentity) ListAppointments(ctx context.Context, doctorID string, day time.Time) ([]*domain.Appointment, error) {
	return []*domain.Appointment{
		{ID: "appt-1", PatientID: "pat-1", DoctorID: doctorID, ScheduledAt: day, Status: "scheduled"},
	}, nil
}

type stubSettings struct{}

func (stubSettings) LoadSectionConfig(ctx context.Context, doctorID string) (domain.SectionConfig, error) {
	return domain.DefaultSectionConfig(), nil
}
func (stubSettings) SaveSectionConfig(ctx context.Context, doctorID string, cfg domain.SectionConfig) error {
	return nil
}
func (stubSettings) LoadRenderOptions(ctx context.Context, doctorID string) (domain.RenderOptions, error) {
	return domain.DefaultRenderOptions(), nil
}
func (stubSettings) SaveRenderOptions(ctx context.Context, doctorID string, opts domain.RenderOptions) error {
	return nil
}
func (stubSettings) Close() error { return nil }

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, payload *domain.ReportPayload) (string, error) {
	return "<html/>", nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	config := &domain.Config{
		Server:  domain.ServerConfig{Host: "127.0.0.1", Port: 8080, RateLimit: 1000, RateBurst: 1000},
		Logging: domain.LoggingConfig{Level: "info"},
	}

	assembler := service.NewAssembler(logger, stubRenderer{})
	sessions := NewSessionManager(logger, assembler, stubSettings{}, stubIdentity{})
	return NewServer(&stubConfigManager{config: config}, logger, sessions, stubIdentity{})
}

// newAdminTestServer backs the server with an identity source that owns its
// records, so the record-management routes are registered.
func newAdminTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	config := &domain.Config{
		Server:  domain.ServerConfig{Host: "127.0.0.1", Port: 8080, RateLimit: 1000, RateBurst: 1000},
		Logging: domain.LoggingConfig{Level: "info"},
	}

	identity := repository.NewMemoryIdentitySource()
	identity.AddDoctor(&domain.Doctor{ID: "doc-1", Name: "Dr. T. Chowdhury"})
	identity.AddPatient(&domain.Patient{ID: "pat-1", MRN: "MRN-0042", Name: "Asha Rahman"})
	identity.AddAppointment(&domain.Appointment{
		ID:          "appt-1",
		PatientID:   "pat-1",
		DoctorID:    "doc-1",
		ScheduledAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Status:      "scheduled",
	})

	assembler := service.NewAssembler(logger, stubRenderer{})
	sessions := NewSessionManager(logger, assembler, stubSettings{}, identity)
	return NewServer(&stubConfigManager{config: config}, logger, sessions, identity)
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, server *Server) string {
	t.Helper()

	rec := doJSON(t, server, http.MethodPost, "/api/v1/sessions",
		map[string]string{"patient_id": "pat-1", "doctor_id": "doc-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSessionLifecycle(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.StateWriting, resp.State)

	rec = doJSON(t, server, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionUnknownPatient(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/sessions",
		map[string]string{"patient_id": "ghost", "doctor_id": "doc-1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestConsultationFlow(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/items",
		map[string]string{"category": "complaints", "text": "Fever for 3 days"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AWAITING_FOLLOWUP_DECISION")

	rec = doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/confirm",
		map[string]string{"date": "2024-06-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview service.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, "01 Jun 2024", preview.Payload.FollowUp)
	assert.Equal(t, "<html/>", preview.Markup)
}

func TestConfirmOutsideAwaitingStateIsRejected(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/confirm",
		map[string]string{"date": "2024-06-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestConfirmRejectsMalformedDate(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/confirm",
		map[string]string{"date": "01/06/2024"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkipFlow(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/skip", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var preview service.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Empty(t, preview.Payload.FollowUp)
}

func TestGenerateWithSectionSelection(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/items",
		map[string]string{"category": "prescriptions", "text": "Paracetamol 500mg"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/sessions/"+id+"/generate",
		map[string]any{"enabled_ids": []string{"prescriptions"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview service.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	require.Len(t, preview.Payload.Sections, 1)
	assert.Equal(t, domain.CategoryPrescriptions, preview.Payload.Sections[0].ID)
}

func TestSetSections(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	cfg := domain.DefaultSectionConfig()
	cfg.Toggle(domain.CategoryNotes, false)

	rec := doJSON(t, server, http.MethodPut, "/api/v1/sessions/"+id+"/sections", cfg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved domain.SectionConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.Excluded(domain.CategoryNotes))
}

func TestCreatePatientThenStartSession(t *testing.T) {
	server := newAdminTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/patients",
		map[string]string{"mrn": "MRN-0100", "name": "Nazia Karim"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var patient domain.Patient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patient))
	require.NotEmpty(t, patient.ID)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/sessions",
		map[string]string{"patient_id": patient.ID, "doctor_id": "doc-1"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreatePatientRequiresName(t *testing.T) {
	server := newAdminTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/patients",
		map[string]string{"mrn": "MRN-0100"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestCreateDoctor(t *testing.T) {
	server := newAdminTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/doctors",
		map[string]string{"name": "Dr. S. Ahmed", "specialty": "Cardiology"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doctor domain.Doctor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doctor))
	assert.NotEmpty(t, doctor.ID)
	assert.Equal(t, "Cardiology", doctor.Specialty)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	server := newAdminTestServer(t)

	rec := doJSON(t, server, http.MethodPatch, "/api/v1/appointments/appt-1/status",
		map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, server, http.MethodGet, "/api/v1/doctors/doc-1/appointments?day=2024-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "completed")

	rec = doJSON(t, server, http.MethodPatch, "/api/v1/appointments/ghost/status",
		map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodPatch, "/api/v1/appointments/appt-1/status",
		map[string]string{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordRoutesAbsentForReadOnlyIdentity(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/patients",
		map[string]string{"mrn": "MRN-0100", "name": "Nazia Karim"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAppointments(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/doctors/doc-1/appointments?day=2024-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "appt-1")

	rec = doJSON(t, server, http.MethodGet, "/api/v1/doctors/doc-1/appointments?day=junk", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
