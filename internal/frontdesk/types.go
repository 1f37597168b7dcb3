package frontdesk

import "github.com/hackgods/clinic-queue/internal/queue"

type QueueResponse struct {
	Day       string           `json:"day"`
	Pending   []queue.Extended `json:"pending"`
	Completed []queue.Extended `json:"completed"`
}

type CreateAppointmentRequest struct {
	PatientID  string  `json:"patient_id"`
	PaidStatus bool    `json:"paid_status"`
	Paid       float64 `json:"paid"`
}

type NewPatientRequest struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CreateWithPatientRequest struct {
	Patient    NewPatientRequest `json:"patient"`
	PaidStatus bool              `json:"paid_status"`
	Paid       float64           `json:"paid"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
