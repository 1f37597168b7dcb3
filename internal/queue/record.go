package queue

import "time"

// Treatment status values echoed by the clinic backend.
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
)

// Appointment is the backend's appointment record as seen over the wire.
// The queue core never mutates it directly; status changes go back through
// the Remote interface.
type Appointment struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
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

// Patient is the backend's patient record, used by the existing-patient
// search in the front-desk UI.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Extended is an appointment merged with its queue metadata. This is what the
// front desk renders and acts on.
type Extended struct {
	Appointment
	Arrived     bool      `json:"arrived"`
	QueueNumber int       `json:"queue_number"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}
