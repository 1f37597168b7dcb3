package clinic

import (
	"time"

	"github.com/google/uuid"
)

type TreatmentStatus string

const (
	TreatmentPending  TreatmentStatus = "pending"
	TreatmentComplete TreatmentStatus = "complete"
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	Age       int
	Gender    string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment carries a denormalized snapshot of the patient taken at
// creation time, so the day view renders without a join.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	Name            string
	Age             int
	Gender          string
	Phone           string
	Address         string
	PaidStatus      bool
	Paid            float64
	TreatmentStatus TreatmentStatus
	Date            time.Time // calendar day the visit belongs to
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Medicine struct {
	ID        uuid.UUID
	Name      string
	Batch     string
	ExpiresAt time.Time
	Stock     int
	UnitPrice float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Prescription struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Advice        string
	Lines         []PrescriptionLine
	CreatedAt     time.Time
}

type PrescriptionLine struct {
	MedicineID uuid.UUID
	Dosage     string
	Duration   string
	Quantity   int
}
