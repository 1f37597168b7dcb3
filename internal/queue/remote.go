package queue

import "context"

type CreateAppointmentInput struct {
	PatientID  string
	PaidStatus bool
	Paid       float64
}

type NewPatientInput struct {
	Name    string
	Age     int
	Gender  string
	Phone   string
	Address string
}

// Remote is the boundary to the clinic backend. The queue core treats it as a
// black box: appointments live there, queue metadata lives here.
type Remote interface {
	// FetchToday returns the appointment records for the given calendar day
	// (YYYY-MM-DD).
	FetchToday(ctx context.Context, day string) ([]Appointment, error)
	CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, error)
	// CreateAppointmentWithPatient registers the patient and books the visit
	// in one backend call, so a failed booking never strands a new patient.
	CreateAppointmentWithPatient(ctx context.Context, patient NewPatientInput, paidStatus bool, paid float64) (*Appointment, error)
	SetTreatmentStatus(ctx context.Context, id, status string) error
	DeleteAppointment(ctx context.Context, id string) error
	BulkDeleteAppointments(ctx context.Context, ids []string) (int64, error)
	ListPatients(ctx context.Context, limit, offset int) ([]Patient, error)
}
