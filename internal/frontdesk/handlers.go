package frontdesk

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-queue/internal/queue"
	redisclient "github.com/hackgods/clinic-queue/internal/redis"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write json response")
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func getQueueHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, completed, day := m.Snapshot()
		writeJSON(w, http.StatusOK, QueueResponse{
			Day:       day,
			Pending:   pending,
			Completed: completed,
		})
	}
}

func refreshHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.Reconcile(r.Context()); err != nil {
			handleQueueError(w, err)
			return
		}

		pending, completed, day := m.Snapshot()
		writeJSON(w, http.StatusOK, QueueResponse{
			Day:       day,
			Pending:   pending,
			Completed: completed,
		})
	}
}

func createHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.PatientID == "" {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id is required")
			return
		}

		ext, err := m.Create(r.Context(), queue.CreateAppointmentInput{
			PatientID:  req.PatientID,
			PaidStatus: req.PaidStatus,
			Paid:       req.Paid,
		})
		if err != nil {
			handleQueueError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ext)
	}
}

func createWithPatientHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateWithPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Patient.Name == "" {
			writeError(w, http.StatusBadRequest, "invalid_patient", "patient name is required")
			return
		}

		ext, err := m.CreateWithNewPatient(r.Context(), queue.NewPatientInput{
			Name:    req.Patient.Name,
			Age:     req.Patient.Age,
			Gender:  req.Patient.Gender,
			Phone:   req.Patient.Phone,
			Address: req.Patient.Address,
		}, req.PaidStatus, req.Paid)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ext)
	}
}

func arriveHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.ToggleArrived(r.Context(), chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func completeHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ext, err := m.MarkCompleted(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			// Local state moved, only the backend write failed.
			writeError(w, http.StatusBadGateway, "remote_update_failed", err.Error())
			return
		}
		if ext == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, ext)
	}
}

func deleteHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleQueueError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func bulkDeleteHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		deleted, err := m.BulkDelete(r.Context(), req.IDs)
		if err != nil {
			handleQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, BulkDeleteResponse{Deleted: deleted})
	}
}

func selectHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !m.Select(id) {
			writeError(w, http.StatusNotFound, "appointment_not_found", "id is in neither queue view")
			return
		}
		writeJSON(w, http.StatusOK, m.Selected())
	}
}

func selectedHandler(m *queue.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ext := m.Selected()
		if ext == nil {
			writeError(w, http.StatusNotFound, "no_selection", "no appointment selected")
			return
		}
		writeJSON(w, http.StatusOK, ext)
	}
}

func listPatientsHandler(remote queue.Remote) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 {
			limit = 50
		}

		patients, err := remote.ListPatients(r.Context(), limit, offset)
		if err != nil {
			handleQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, patients)
	}
}

func handleQueueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrRemote):
		writeError(w, http.StatusBadGateway, "remote_unavailable", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "queue_busy", "another front desk holds the queue, retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
