package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clinic-visit-server/internal/domain"
)

// MemoryIdentitySource is an in-memory identity source for standalone
// deployments and tests. It implements domain.IdentitySource.
type MemoryIdentitySource struct {
	mu           sync.RWMutex
	patients     map[string]*domain.Patient
	doctors      map[string]*domain.Doctor
	appointments []*domain.Appointment
}

// NewMemoryIdentitySource creates an empty in-memory identity source.
func NewMemoryIdentitySource() *MemoryIdentitySource {
	return &MemoryIdentitySource{
		patients: make(map[string]*domain.Patient),
		doctors:  make(map[string]*domain.Doctor),
	}
}

// AddPatient registers a patient.
func (m *MemoryIdentitySource) AddPatient(p *domain.Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
}

// AddDoctor registers a doctor.
func (m *MemoryIdentitySource) AddDoctor(d *domain.Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[d.ID] = d
}

// AddAppointment registers an appointment.
func (m *MemoryIdentitySource) AddAppointment(a *domain.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments = append(m.appointments, a)
}

// CreatePatient stores a new patient record.
func (m *MemoryIdentitySource) CreatePatient(ctx context.Context, p *domain.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
	return nil
}

// CreateDoctor stores a new doctor record.
func (m *MemoryIdentitySource) CreateDoctor(ctx context.Context, d *domain.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[d.ID] = d
	return nil
}

// UpdateAppointmentStatus moves an appointment through its lifecycle.
func (m *MemoryIdentitySource) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.appointments {
		if a.ID == id {
			a.Status = status
			return nil
		}
	}
	return fmt.Errorf("appointment not found: %w", domain.ErrNotFound)
}

// GetPatient retrieves a patient by ID.
func (m *MemoryIdentitySource) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
	}
	return p, nil
}

// GetDoctor retrieves a doctor by ID.
func (m *MemoryIdentitySource) GetDoctor(ctx context.Context, id string) (*domain.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("doctor not found: %w", domain.ErrNotFound)
	}
	return d, nil
}

// ListAppointments returns a doctor's appointments for one calendar day,
// ordered by scheduled time.
func (m *MemoryIdentitySource) ListAppointments(ctx context.Context, doctorID string, day time.Time) ([]*domain.Appointment, error) {
	from := day.Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Appointment
	for _, a := range m.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		if a.ScheduledAt.Before(from) || !a.ScheduledAt.Before(to) {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out, nil
}
