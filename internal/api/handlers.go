package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinic-visit-server/internal/domain"
	"github.com/clinic-visit-server/internal/service"
)

type createSessionRequest struct {
	PatientID string `json:"patient_id" binding:"required"`
	DoctorID  string `json:"doctor_id" binding:"required"`
}

type addItemRequest struct {
	Category string `json:"category" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

type confirmRequest struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
}

type generateRequest struct {
	EnabledIDs []string              `json:"enabled_ids,omitempty"`
	Options    *domain.RenderOptions `json:"options,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// appointmentStatuses is the appointment lifecycle; other values are rejected.
var appointmentStatuses = map[string]bool{
	"scheduled":   true,
	"in_progress": true,
	"completed":   true,
	"cancelled":   true,
}

type sessionResponse struct {
	ID        string        `json:"id"`
	PatientID string        `json:"patient_id"`
	DoctorID  string        `json:"doctor_id"`
	State     service.State `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
}

// respondError maps a failure onto its normalized shape and HTTP status. Every
// handler funnels errors through here, so clients always see the same envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	ne := domain.Normalize(err)
	if ne.Kind == domain.KindUnknown && errors.Is(err, domain.ErrNotFound) {
		ne = domain.NewNormalizedError(domain.KindNotFound, ne.Message)
	}
	c.JSON(ne.Kind.HTTPStatus(), gin.H{
		"code":      ne.Kind,
		"message":   ne.Message,
		"retryable": ne.Retryable,
	})
}

func sessionView(session *Session) sessionResponse {
	return sessionResponse{
		ID:        session.ID,
		PatientID: session.PatientID,
		DoctorID:  session.DoctorID,
		State:     session.Workflow.State(),
		CreatedAt: session.CreatedAt,
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
		return
	}

	session, err := s.sessions.Create(c.Request.Context(), req.PatientID, req.DoctorID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionView(session))
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionView(session))
}

func (s *Server) handleCloseSession(c *gin.Context) {
	if err := s.sessions.Close(c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddItem(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
		return
	}

	item, err := session.Workflow.AddItem(domain.Category(req.Category), req.Text)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (s *Server) handleFinish(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	state, err := session.Workflow.Finish()
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *Server) handleConfirm(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation,
			"date must be formatted YYYY-MM-DD"))
		return
	}

	preview, err := session.Workflow.Confirm(c.Request.Context(), date)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.hub.Broadcast(session.ID, preview)
	c.JSON(http.StatusOK, preview)
}

func (s *Server) handleSkip(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	preview, err := session.Workflow.Skip(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.hub.Broadcast(session.ID, preview)
	c.JSON(http.StatusOK, preview)
}

func (s *Server) handleGenerate(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
			return
		}
	}

	var enabledIDs []domain.Category
	for _, id := range req.EnabledIDs {
		enabledIDs = append(enabledIDs, domain.Category(id))
	}

	preview, err := session.Workflow.Generate(c.Request.Context(), enabledIDs, req.Options)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.hub.Broadcast(session.ID, preview)
	c.JSON(http.StatusOK, preview)
}

func (s *Server) handleEdit(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	state := session.Workflow.Edit()
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *Server) handleSetSections(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var cfg domain.SectionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
		return
	}

	if err := session.Workflow.SetSectionOrder(c.Request.Context(), cfg); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.Workflow.SectionConfig())
}

func (s *Server) handlePreviewSocket(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.hub.Subscribe(c.Writer, c.Request, session.ID); err != nil {
		s.logger.WithError(err).Warn("Preview socket upgrade failed")
	}
}

func (s *Server) handleCreatePatient(c *gin.Context) {
	var patient domain.Patient
	if err := c.ShouldBindJSON(&patient); err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
		return
	}
	if patient.Name == "" {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, "patient name is required"))
		return
	}
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}

	if err := s.admin.CreatePatient(c.Request.Context(), &patient); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, patient)
}

func (s *Server) handleCreateDoctor(c *gin.Context) {
	var doctor domain.Doctor
	if err := c.ShouldBindJSON(&doctor); err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
		return
	}
	if doctor.Name == "" {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, "doctor name is required"))
		return
	}
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}

	if err := s.admin.CreateDoctor(c.Request.Context(), &doctor); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doctor)
}

func (s *Server) handleUpdateAppointmentStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation, err.Error()))
		return
	}
	if !appointmentStatuses[req.Status] {
		s.respondError(c, domain.NewNormalizedError(domain.KindValidation,
			"status must be one of scheduled, in_progress, completed, cancelled"))
		return
	}

	id := c.Param("id")
	if err := s.admin.UpdateAppointmentStatus(c.Request.Context(), id, req.Status); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

func (s *Server) handleListAppointments(c *gin.Context) {
	day := time.Now()
	if v := c.Query("day"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.respondError(c, domain.NewNormalizedError(domain.KindValidation,
				"day must be formatted YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	appointments, err := s.identity.ListAppointments(c.Request.Context(), c.Param("id"), day)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appointments": appointments,
		"count":        len(appointments),
	})
}
