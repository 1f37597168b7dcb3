package queue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchToday(t *testing.T) {
	var gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/appointments", r.URL.Path)
		gotDate = r.URL.Query().Get("date")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Appointment{
			{ID: "appt-1", Name: "Asha Rahman", TreatmentStatus: StatusPending},
		})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL)
	appts, err := remote.FetchToday(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", gotDate)
	require.Len(t, appts, 1)
	assert.Equal(t, "appt-1", appts[0].ID)
}

func TestFetchTodayBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal_error"})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL)
	_, err := remote.FetchToday(context.Background(), "2024-01-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "internal_error")
}

func TestFetchTodayConnectionRefused(t *testing.T) {
	remote := NewHTTPRemote("http://127.0.0.1:1")
	_, err := remote.FetchToday(context.Background(), "2024-01-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
}

func TestSetTreatmentStatus(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/appointments/appt-1/treatment", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Appointment{ID: "appt-1", TreatmentStatus: StatusComplete})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL)
	err := remote.SetTreatmentStatus(context.Background(), "appt-1", StatusComplete)
	require.NoError(t, err)
	assert.Equal(t, "complete", gotBody["treatment_status"])
}

func TestCreateAppointmentWithPatientUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/appointments/with-patient", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"patient":     Patient{ID: "patient-1", Name: "Walk-in"},
			"appointment": Appointment{ID: "appt-1", PatientID: "patient-1", Name: "Walk-in"},
		})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL)
	appt, err := remote.CreateAppointmentWithPatient(context.Background(), NewPatientInput{Name: "Walk-in"}, false, 0)
	require.NoError(t, err)
	assert.Equal(t, "appt-1", appt.ID)
	assert.Equal(t, "patient-1", appt.PatientID)
}

func TestBulkDeleteAppointmentsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/appointments/bulk-delete", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int64{"deleted": 3})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL)
	deleted, err := remote.BulkDeleteAppointments(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
