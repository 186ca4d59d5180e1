package domain

import (
	"context"
	"time"
)

// Renderer turns an assembled payload into printable markup. The core treats it
// as an opaque collaborator and never inspects the markup it returns.
type Renderer interface {
	Render(ctx context.Context, payload *ReportPayload) (string, error)
}

// SettingsStore supplies and persists per-doctor report settings. The workflow
// reads it once at session start and writes back only through an explicit
// set-order operation, never implicitly.
type SettingsStore interface {
	LoadSectionConfig(ctx context.Context, doctorID string) (SectionConfig, error)
	SaveSectionConfig(ctx context.Context, doctorID string, cfg SectionConfig) error
	LoadRenderOptions(ctx context.Context, doctorID string) (RenderOptions, error)
	SaveRenderOptions(ctx context.Context, doctorID string, opts RenderOptions) error
	Close() error
}

// IdentitySource supplies immutable patient and doctor identity records.
type IdentitySource interface {
	GetPatient(ctx context.Context, id string) (*Patient, error)
	GetDoctor(ctx context.Context, id string) (*Doctor, error)
	ListAppointments(ctx context.Context, doctorID string, day time.Time) ([]*Appointment, error)
}

// IdentityAdmin manages the clinic records an identity source reads. Sources
// backed by an external system of record may not implement it; the API layer
// only exposes write routes when it does.
type IdentityAdmin interface {
	CreatePatient(ctx context.Context, patient *Patient) error
	CreateDoctor(ctx context.Context, doctor *Doctor) error
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
}

// ConfigManager provides access to application configuration.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	Validate() error
}
