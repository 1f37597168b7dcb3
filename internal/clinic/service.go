package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid treatment status transition")
	ErrInvalidPatient          = errors.New("patient name is required")
	ErrEmptyPrescription       = errors.New("prescription needs at least one line")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Patients

func (s *Service) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	if p.Name == "" {
		return nil, ErrInvalidPatient
	}
	created, err := s.repo.CreatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]Patient, error) {
	limit, offset = clampPage(limit, offset)
	patients, err := s.repo.ListPatients(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	if p.Name == "" {
		return nil, ErrInvalidPatient
	}
	updated, err := s.repo.UpdatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePatient(ctx, id)
}

// Appointments

// CreateAppointment books a visit for an existing patient. The patient
// snapshot is taken here so later patient edits do not rewrite history.
func (s *Service) CreateAppointment(ctx context.Context, patientID uuid.UUID, paidStatus bool, paid float64, day time.Time) (*Appointment, error) {
	patient, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	appt := &Appointment{
		PatientID:  patient.ID,
		Name:       patient.Name,
		Age:        patient.Age,
		Gender:     patient.Gender,
		Phone:      patient.Phone,
		Address:    patient.Address,
		PaidStatus: paidStatus,
		Paid:       paid,
		Date:       truncateToDay(day),
	}

	created, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return created, nil
}

// CreateAppointmentWithPatient registers a walk-in patient and books the visit
// in a single transaction.
func (s *Service) CreateAppointmentWithPatient(ctx context.Context, p *Patient, paidStatus bool, paid float64, day time.Time) (*Patient, *Appointment, error) {
	if p.Name == "" {
		return nil, nil, ErrInvalidPatient
	}

	appt := &Appointment{
		PaidStatus: paidStatus,
		Paid:       paid,
		Date:       truncateToDay(day),
	}

	patient, created, err := s.repo.CreatePatientWithAppointment(ctx, p, appt)
	if err != nil {
		return nil, nil, fmt.Errorf("create patient with appointment: %w", err)
	}
	return patient, created, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointmentsByDate(ctx context.Context, day time.Time) ([]Appointment, error) {
	appts, err := s.repo.ListAppointmentsByDate(ctx, truncateToDay(day))
	if err != nil {
		return nil, fmt.Errorf("list appointments by date: %w", err)
	}
	return appts, nil
}

// CompleteTreatment moves an appointment from pending to complete. Complete is
// terminal, so a second call reports an invalid transition.
func (s *Service) CompleteTreatment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.repo.UpdateTreatmentStatus(ctx, id, TreatmentPending, TreatmentComplete)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Distinguish a missing row from one already completed.
			appt, getErr := s.repo.GetAppointmentByID(ctx, id)
			if getErr == nil && appt.TreatmentStatus == TreatmentComplete {
				return nil, ErrInvalidStatusTransition
			}
			return nil, err
		}
		return nil, fmt.Errorf("complete treatment: %w", err)
	}
	return updated, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, paidStatus bool, paid float64) (*Appointment, error) {
	updated, err := s.repo.UpdatePayment(ctx, id, paidStatus, paid)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAppointment(ctx, id)
}

func (s *Service) BulkDeleteAppointments(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := s.repo.BulkDeleteAppointments(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete appointments: %w", err)
	}
	if deleted < int64(len(ids)) {
		log.Warn().
			Int("requested", len(ids)).
			Int64("deleted", deleted).
			Msg("bulk delete removed fewer appointments than requested")
	}
	return deleted, nil
}

// Medicines

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) (*Medicine, error) {
	created, err := s.repo.CreateMedicine(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("create medicine: %w", err)
	}
	return created, nil
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.repo.GetMedicineByID(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]Medicine, error) {
	limit, offset = clampPage(limit, offset)
	medicines, err := s.repo.ListMedicines(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

func (s *Service) AdjustMedicineStock(ctx context.Context, id uuid.UUID, delta int) (*Medicine, error) {
	return s.repo.AdjustMedicineStock(ctx, id, delta)
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteMedicine(ctx, id)
}

// Prescriptions

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) (*Prescription, error) {
	if len(p.Lines) == 0 {
		return nil, ErrEmptyPrescription
	}

	if _, err := s.repo.GetAppointmentByID(ctx, p.AppointmentID); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	created, err := s.repo.CreatePrescription(ctx, p)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			return nil, err
		}
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return created, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetPrescriptionByID(ctx, id)
}

func (s *Service) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]Prescription, error) {
	prescriptions, err := s.repo.ListPrescriptionsByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func truncateToDay(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
