package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/clinic"
)

type CreatePatientRequest struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type PatientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateAppointmentRequest struct {
	PatientID  string  `json:"patient_id"`
	PaidStatus bool    `json:"paid_status"`
	Paid       float64 `json:"paid"`
	Date       string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type CreateAppointmentWithPatientRequest struct {
	Patient    CreatePatientRequest `json:"patient"`
	PaidStatus bool                 `json:"paid_status"`
	Paid       float64              `json:"paid"`
	Date       string               `json:"date,omitempty"`
}

type UpdateTreatmentRequest struct {
	TreatmentStatus string `json:"treatment_status"`
}

type UpdatePaymentRequest struct {
	PaidStatus bool    `json:"paid_status"`
	Paid       float64 `json:"paid"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Name            string    `json:"name"`
	Age             int       `json:"age"`
	Gender          string    `json:"gender"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	PaidStatus      bool      `json:"paid_status"`
	Paid            float64   `json:"paid"`
	TreatmentStatus string    `json:"treatment_status"`
	Date            string    `json:"date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppointmentWithPatientResponse struct {
	Patient     PatientResponse     `json:"patient"`
	Appointment AppointmentResponse `json:"appointment"`
}

type CreateMedicineRequest struct {
	Name      string  `json:"name"`
	Batch     string  `json:"batch"`
	ExpiresAt string  `json:"expires_at"` // YYYY-MM-DD
	Stock     int     `json:"stock"`
	UnitPrice float64 `json:"unit_price"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

type MedicineResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Batch     string    `json:"batch"`
	ExpiresAt string    `json:"expires_at"`
	Stock     int       `json:"stock"`
	UnitPrice float64   `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PrescriptionLineRequest struct {
	MedicineID string `json:"medicine_id"`
	Dosage     string `json:"dosage"`
	Duration   string `json:"duration"`
	Quantity   int    `json:"quantity"`
}

type CreatePrescriptionRequest struct {
	AppointmentID string                    `json:"appointment_id"`
	PatientID     string                    `json:"patient_id"`
	Advice        string                    `json:"advice"`
	Lines         []PrescriptionLineRequest `json:"lines"`
}

type PrescriptionLineResponse struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Dosage     string    `json:"dosage"`
	Duration   string    `json:"duration"`
	Quantity   int       `json:"quantity"`
}

type PrescriptionResponse struct {
	ID            uuid.UUID                  `json:"id"`
	AppointmentID uuid.UUID                  `json:"appointment_id"`
	PatientID     uuid.UUID                  `json:"patient_id"`
	Advice        string                     `json:"advice"`
	Lines         []PrescriptionLineResponse `json:"lines"`
	CreatedAt     time.Time                  `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Mapping helpers

func toPatientResponse(p *clinic.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Phone:     p.Phone,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAppointmentResponse(a *clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		Name:            a.Name,
		Age:             a.Age,
		Gender:          a.Gender,
		Phone:           a.Phone,
		Address:         a.Address,
		PaidStatus:      a.PaidStatus,
		Paid:            a.Paid,
		TreatmentStatus: string(a.TreatmentStatus),
		Date:            a.Date.Format("2006-01-02"),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toMedicineResponse(m *clinic.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:        m.ID,
		Name:      m.Name,
		Batch:     m.Batch,
		ExpiresAt: m.ExpiresAt.Format("2006-01-02"),
		Stock:     m.Stock,
		UnitPrice: m.UnitPrice,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toPrescriptionResponse(p *clinic.Prescription) PrescriptionResponse {
	lines := make([]PrescriptionLineResponse, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, PrescriptionLineResponse{
			MedicineID: l.MedicineID,
			Dosage:     l.Dosage,
			Duration:   l.Duration,
			Quantity:   l.Quantity,
		})
	}
	return PrescriptionResponse{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		PatientID:     p.PatientID,
		Advice:        p.Advice,
		Lines:         lines,
		CreatedAt:     p.CreatedAt,
	}
}
