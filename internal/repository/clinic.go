// Package repository provides PostgreSQL persistence for clinic identity data:
// patients, doctors, and appointments.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/domain"
)

// ClinicRepository handles patient, doctor and appointment persistence. It
// implements domain.IdentitySource.
type ClinicRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewClinicRepository creates a new clinic repository.
func NewClinicRepository(db *pgxpool.Pool, logger *logrus.Logger) *ClinicRepository {
	return &ClinicRepository{
		db:  db,
		log: logger,
	}
}

// GetPatient retrieves a patient by ID.
func (r *ClinicRepository) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	query := `
		SELECT id, mrn, name, sex, date_of_birth, phone
		FROM patients
		WHERE id = $1`

	var patient domain.Patient

	err := r.db.QueryRow(ctx, query, id).Scan(
		&patient.ID,
		&patient.MRN,
		&patient.Name,
		&patient.Sex,
		&patient.DateOfBirth,
		&patient.Phone,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"patient_id": id,
			"error":      err,
		}).Error("Failed to get patient")
		return nil, fmt.Errorf("getting patient: %w", err)
	}

	return &patient, nil
}

// GetDoctor retrieves a doctor by ID.
func (r *ClinicRepository) GetDoctor(ctx context.Context, id string) (*domain.Doctor, error) {
	query := `
		SELECT id, name, specialty, registration_no, clinic_name
		FROM doctors
		WHERE id = $1`

	var doctor domain.Doctor

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Specialty,
		&doctor.RegistrationNo,
		&doctor.ClinicName,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("doctor not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"doctor_id": id,
			"error":     err,
		}).Error("Failed to get doctor")
		return nil, fmt.Errorf("getting doctor: %w", err)
	}

	return &doctor, nil
}

// ListAppointments retrieves a doctor's appointments for one calendar day,
// ordered by scheduled time.
func (r *ClinicRepository) ListAppointments(ctx context.Context, doctorID string, day time.Time) ([]*domain.Appointment, error) {
	from := day.Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	query := `
		SELECT id, patient_id, doctor_id, scheduled_at, status, reason
		FROM appointments
		WHERE doctor_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at ASC`

	rows, err := r.db.Query(ctx, query, doctorID, from, to)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"doctor_id": doctorID,
			"day":       from.Format("2006-01-02"),
			"error":     err,
		}).Error("Failed to list appointments")
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*domain.Appointment
	for rows.Next() {
		var appt domain.Appointment

		err := rows.Scan(
			&appt.ID,
			&appt.PatientID,
			&appt.DoctorID,
			&appt.ScheduledAt,
			&appt.Status,
			&appt.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment row: %w", err)
		}

		appointments = append(appointments, &appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appointment rows: %w", err)
	}

	return appointments, nil
}

// CreatePatient inserts a new patient record.
func (r *ClinicRepository) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	query := `
		INSERT INTO patients (id, mrn, name, sex, date_of_birth, phone)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		patient.ID,
		patient.MRN,
		patient.Name,
		patient.Sex,
		patient.DateOfBirth,
		patient.Phone,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"mrn":        patient.MRN,
			"error":      err,
		}).Error("Failed to create patient")
		return fmt.Errorf("creating patient: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"patient_id": patient.ID,
		"mrn":        patient.MRN,
	}).Info("Patient created successfully")

	return nil
}

// CreateDoctor inserts a new doctor record.
func (r *ClinicRepository) CreateDoctor(ctx context.Context, doctor *domain.Doctor) error {
	query := `
		INSERT INTO doctors (id, name, specialty, registration_no, clinic_name)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Specialty,
		doctor.RegistrationNo,
		doctor.ClinicName,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"doctor_id": doctor.ID,
			"error":     err,
		}).Error("Failed to create doctor")
		return fmt.Errorf("creating doctor: %w", err)
	}

	return nil
}

// UpdateAppointmentStatus moves an appointment through its lifecycle
// (scheduled, in_progress, completed, cancelled).
func (r *ClinicRepository) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	query := `UPDATE appointments SET status = $2 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"appointment_id": id,
			"status":         status,
			"error":          err,
		}).Error("Failed to update appointment status")
		return fmt.Errorf("updating appointment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("appointment not found: %w", domain.ErrNotFound)
	}

	return nil
}
