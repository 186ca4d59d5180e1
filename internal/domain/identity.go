package domain

import "time"

// Patient is an immutable identity record supplied by the clinic data layer and
// consumed read-only by the report assembler.
type Patient struct {
	ID          string    `json:"id"`
	MRN         string    `json:"mrn"`
	Name        string    `json:"name"`
	Sex         string    `json:"sex,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth,omitempty"`
	Phone       string    `json:"phone,omitempty"`
}

// Doctor is the identity of the treating clinician.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty,omitempty"`
	RegistrationNo string `json:"registration_no,omitempty"`
	ClinicName     string `json:"clinic_name,omitempty"`
}

// Appointment links a patient to a scheduled visit slot. Persistence is owned by
// the repository layer; the workflow only reads these records.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
}
