package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrMedicineNotFound     = errors.New("medicine not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrInsufficientStock    = errors.New("insufficient medicine stock")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context, limit, offset int) ([]Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error

	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	// CreatePatientWithAppointment inserts both rows in one transaction so a
	// failed appointment insert never leaves an orphaned patient behind.
	CreatePatientWithAppointment(ctx context.Context, p *Patient, a *Appointment) (*Patient, *Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsByDate(ctx context.Context, day time.Time) ([]Appointment, error)
	UpdateTreatmentStatus(ctx context.Context, id uuid.UUID, from, to TreatmentStatus) (*Appointment, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, paidStatus bool, paid float64) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	BulkDeleteAppointments(ctx context.Context, ids []uuid.UUID) (int64, error)

	CreateMedicine(ctx context.Context, m *Medicine) (*Medicine, error)
	GetMedicineByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	ListMedicines(ctx context.Context, limit, offset int) ([]Medicine, error)
	AdjustMedicineStock(ctx context.Context, id uuid.UUID, delta int) (*Medicine, error)
	DeleteMedicine(ctx context.Context, id uuid.UUID) error

	// CreatePrescription inserts the prescription and its lines and decrements
	// medicine stock, all in one transaction.
	CreatePrescription(ctx context.Context, p *Prescription) (*Prescription, error)
	GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]Prescription, error)
}
