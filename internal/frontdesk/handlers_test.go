package frontdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-queue/internal/queue"
)

type fakeBackend struct {
	appointments []queue.Appointment
	patients     []queue.Patient
	nextID       int
	fetchErr     error
	statusErr    error
}

func (f *fakeBackend) add(status string) queue.Appointment {
	f.nextID++
	appt := queue.Appointment{
		ID:              fmt.Sprintf("appt-%d", f.nextID),
		PatientID:       fmt.Sprintf("patient-%d", f.nextID),
		Name:            fmt.Sprintf("Patient %d", f.nextID),
		TreatmentStatus: status,
	}
	f.appointments = append(f.appointments, appt)
	return appt
}

func (f *fakeBackend) FetchToday(context.Context, string) ([]queue.Appointment, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]queue.Appointment, len(f.appointments))
	copy(out, f.appointments)
	return out, nil
}

func (f *fakeBackend) CreateAppointment(_ context.Context, in queue.CreateAppointmentInput) (*queue.Appointment, error) {
	f.nextID++
	appt := queue.Appointment{
		ID:              fmt.Sprintf("appt-%d", f.nextID),
		PatientID:       in.PatientID,
		PaidStatus:      in.PaidStatus,
		Paid:            in.Paid,
		TreatmentStatus: queue.StatusPending,
	}
	f.appointments = append(f.appointments, appt)
	return &appt, nil
}

func (f *fakeBackend) CreateAppointmentWithPatient(_ context.Context, patient queue.NewPatientInput, paidStatus bool, paid float64) (*queue.Appointment, error) {
	f.nextID++
	appt := queue.Appointment{
		ID:              fmt.Sprintf("appt-%d", f.nextID),
		PatientID:       fmt.Sprintf("patient-%d", f.nextID),
		Name:            patient.Name,
		Age:             patient.Age,
		PaidStatus:      paidStatus,
		Paid:            paid,
		TreatmentStatus: queue.StatusPending,
	}
	f.appointments = append(f.appointments, appt)
	return &appt, nil
}

func (f *fakeBackend) SetTreatmentStatus(_ context.Context, id, status string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	for i := range f.appointments {
		if f.appointments[i].ID == id {
			f.appointments[i].TreatmentStatus = status
		}
	}
	return nil
}

func (f *fakeBackend) DeleteAppointment(_ context.Context, id string) error {
	for i := range f.appointments {
		if f.appointments[i].ID == id {
			f.appointments = append(f.appointments[:i], f.appointments[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeBackend) BulkDeleteAppointments(ctx context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		before := len(f.appointments)
		_ = f.DeleteAppointment(ctx, id)
		if len(f.appointments) < before {
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeBackend) ListPatients(context.Context, int, int) ([]queue.Patient, error) {
	return f.patients, nil
}

func newTestDesk(t *testing.T, backend *fakeBackend) (*httptest.Server, *queue.Manager) {
	t.Helper()
	m := queue.NewManager(queue.NewMemoryMetaStore(), backend, nil, time.UTC)
	srv := httptest.NewServer(NewRouter(RouterConfig{
		Manager: m,
		Remote:  backend,
		Env:     "test",
		Version: "test",
	}))
	t.Cleanup(srv.Close)
	return srv, m
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRefreshAndGetQueue(t *testing.T) {
	backend := &fakeBackend{}
	backend.add(queue.StatusPending)
	backend.add(queue.StatusComplete)
	srv, _ := newTestDesk(t, backend)

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[QueueResponse](t, resp)
	assert.Len(t, body.Pending, 1)
	assert.Len(t, body.Completed, 1)
	assert.NotEmpty(t, body.Day)

	resp = doJSON(t, http.MethodGet, srv.URL+"/queue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	again := decodeBody[QueueResponse](t, resp)
	assert.Equal(t, body.Pending, again.Pending)
}

func TestRefreshBackendDown(t *testing.T) {
	backend := &fakeBackend{fetchErr: fmt.Errorf("fetch today: %w: connection refused", queue.ErrRemote)}
	srv, _ := newTestDesk(t, backend)

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/refresh", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "remote_unavailable", body.Error)
}

func TestCreateAppointmentEnqueues(t *testing.T) {
	backend := &fakeBackend{}
	srv, _ := newTestDesk(t, backend)

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/appointments", CreateAppointmentRequest{
		PatientID: "patient-9",
		Paid:      200,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ext := decodeBody[queue.Extended](t, resp)
	assert.Equal(t, 1, ext.QueueNumber)
	assert.Equal(t, "patient-9", ext.PatientID)
}

func TestCreateAppointmentRequiresPatientID(t *testing.T) {
	srv, _ := newTestDesk(t, &fakeBackend{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/appointments", CreateAppointmentRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "invalid_patient_id", body.Error)
}

func TestCreateWithPatient(t *testing.T) {
	srv, _ := newTestDesk(t, &fakeBackend{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/appointments/with-patient", CreateWithPatientRequest{
		Patient: NewPatientRequest{Name: "Walk-in", Age: 45},
		Paid:    300,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ext := decodeBody[queue.Extended](t, resp)
	assert.Equal(t, "Walk-in", ext.Name)
	assert.Equal(t, 1, ext.QueueNumber)
}

func TestArriveAndComplete(t *testing.T) {
	backend := &fakeBackend{}
	a := backend.add(queue.StatusPending)
	backend.add(queue.StatusPending)
	srv, _ := newTestDesk(t, backend)

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/queue/appointments/"+a.ID+"/arrive", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/queue/appointments/"+a.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ext := decodeBody[queue.Extended](t, resp)
	assert.Equal(t, queue.StatusComplete, ext.TreatmentStatus)
	assert.False(t, ext.CompletedAt.IsZero())
}

func TestCompleteUnknownIDIsNoContent(t *testing.T) {
	srv, _ := newTestDesk(t, &fakeBackend{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/appointments/no-such-id/complete", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestCompleteBackendFailure(t *testing.T) {
	backend := &fakeBackend{}
	a := backend.add(queue.StatusPending)
	srv, m := newTestDesk(t, backend)
	require.NoError(t, m.Reconcile(context.Background()))

	backend.statusErr = fmt.Errorf("patch treatment: %w: gateway timeout", queue.ErrRemote)

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/appointments/"+a.ID+"/complete", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "remote_update_failed", body.Error)

	// The desk still shows it completed.
	_, completed, _ := m.Snapshot()
	assert.Len(t, completed, 1)
}

func TestDeleteAppointment(t *testing.T) {
	backend := &fakeBackend{}
	a := backend.add(queue.StatusPending)
	srv, m := newTestDesk(t, backend)
	require.NoError(t, m.Reconcile(context.Background()))

	resp := doJSON(t, http.MethodDelete, srv.URL+"/queue/appointments/"+a.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	pending, _, _ := m.Snapshot()
	assert.Empty(t, pending)
}

func TestBulkDelete(t *testing.T) {
	backend := &fakeBackend{}
	a := backend.add(queue.StatusPending)
	b := backend.add(queue.StatusPending)
	srv, m := newTestDesk(t, backend)
	require.NoError(t, m.Reconcile(context.Background()))

	resp := doJSON(t, http.MethodPost, srv.URL+"/queue/appointments/bulk-delete", BulkDeleteRequest{
		IDs: []string{a.ID, b.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[BulkDeleteResponse](t, resp)
	assert.Equal(t, int64(2), body.Deleted)
}

func TestSelection(t *testing.T) {
	backend := &fakeBackend{}
	a := backend.add(queue.StatusPending)
	srv, m := newTestDesk(t, backend)
	require.NoError(t, m.Reconcile(context.Background()))

	resp := doJSON(t, http.MethodGet, srv.URL+"/queue/selected", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, srv.URL+"/queue/selected/no-such-id", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, srv.URL+"/queue/selected/"+a.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/queue/selected", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ext := decodeBody[queue.Extended](t, resp)
	assert.Equal(t, a.ID, ext.ID)
}

func TestListPatientsPassthrough(t *testing.T) {
	backend := &fakeBackend{
		patients: []queue.Patient{{ID: "patient-1", Name: "Asha Rahman"}},
	}
	srv, _ := newTestDesk(t, backend)

	resp := doJSON(t, http.MethodGet, srv.URL+"/patients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	patients := decodeBody[[]queue.Patient](t, resp)
	require.Len(t, patients, 1)
	assert.Equal(t, "Asha Rahman", patients[0].Name)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestDesk(t, &fakeBackend{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/health/live", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/health/ready", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", health["status"])
}
