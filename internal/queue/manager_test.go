package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is an in-memory clinic backend.
type fakeRemote struct {
	appointments []Appointment
	patients     []Patient
	nextID       int

	fetchErr  error
	statusErr error

	statusCalls []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{}
}

func (f *fakeRemote) add(status string) Appointment {
	f.nextID++
	appt := Appointment{
		ID:              fmt.Sprintf("appt-%d", f.nextID),
		PatientID:       fmt.Sprintf("patient-%d", f.nextID),
		Name:            fmt.Sprintf("Patient %d", f.nextID),
		TreatmentStatus: status,
	}
	f.appointments = append(f.appointments, appt)
	return appt
}

func (f *fakeRemote) FetchToday(_ context.Context, _ string) ([]Appointment, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]Appointment, len(f.appointments))
	copy(out, f.appointments)
	return out, nil
}

func (f *fakeRemote) CreateAppointment(_ context.Context, in CreateAppointmentInput) (*Appointment, error) {
	f.nextID++
	appt := Appointment{
		ID:              fmt.Sprintf("appt-%d", f.nextID),
		PatientID:       in.PatientID,
		PaidStatus:      in.PaidStatus,
		Paid:            in.Paid,
		TreatmentStatus: StatusPending,
	}
	f.appointments = append(f.appointments, appt)
	return &appt, nil
}

func (f *fakeRemote) CreateAppointmentWithPatient(_ context.Context, patient NewPatientInput, paidStatus bool, paid float64) (*Appointment, error) {
	f.nextID++
	appt := Appointment{
		ID:              fmt.Sprintf("appt-%d", f.nextID),
		PatientID:       fmt.Sprintf("patient-%d", f.nextID),
		Name:            patient.Name,
		Age:             patient.Age,
		PaidStatus:      paidStatus,
		Paid:            paid,
		TreatmentStatus: StatusPending,
	}
	f.appointments = append(f.appointments, appt)
	return &appt, nil
}

func (f *fakeRemote) SetTreatmentStatus(_ context.Context, id, status string) error {
	f.statusCalls = append(f.statusCalls, id)
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

func (f *fakeRemote) DeleteAppointment(_ context.Context, id string) error {
	for i := range f.appointments {
		if f.appointments[i].ID == id {
			f.appointments = append(f.appointments[:i], f.appointments[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRemote) BulkDeleteAppointments(ctx context.Context, ids []string) (int64, error) {
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

func (f *fakeRemote) ListPatients(_ context.Context, _, _ int) ([]Patient, error) {
	return f.patients, nil
}

func newTestManager(t *testing.T, remote *fakeRemote) *Manager {
	t.Helper()
	m := NewManager(NewMemoryMetaStore(), remote, nil, time.UTC)
	m.now = func() time.Time {
		return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	return m
}

func TestReconcileAssignsContiguousQueueNumbers(t *testing.T) {
	remote := newFakeRemote()
	for i := 0; i < 5; i++ {
		remote.add(StatusPending)
	}

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	pending, _, day := m.Snapshot()
	assert.Equal(t, "2024-01-01", day)
	require.Len(t, pending, 5)

	seen := make(map[int]bool)
	for i, ext := range pending {
		assert.Equal(t, i+1, ext.QueueNumber, "first-seen order assigns 1..n")
		assert.False(t, seen[ext.QueueNumber], "queue numbers must be unique")
		seen[ext.QueueNumber] = true
	}
}

func TestReconcileIsIdempotentWithinADay(t *testing.T) {
	remote := newFakeRemote()
	remote.add(StatusPending)
	remote.add(StatusComplete)
	remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))
	firstPending, firstCompleted, _ := m.Snapshot()

	require.NoError(t, m.Reconcile(context.Background()))
	secondPending, secondCompleted, _ := m.Snapshot()

	assert.Equal(t, firstPending, secondPending)
	assert.Equal(t, firstCompleted, secondCompleted)
}

func TestDayBoundaryResetsQueueNumbers(t *testing.T) {
	remote := newFakeRemote()
	remote.add(StatusPending)
	remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	pending, _, _ := m.Snapshot()
	require.Len(t, pending, 2)
	assert.Equal(t, 2, pending[1].QueueNumber)

	// Next day: fresh appointments, numbering restarts at 1.
	remote.appointments = nil
	remote.add(StatusPending)
	m.now = func() time.Time {
		return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	}

	require.NoError(t, m.Reconcile(context.Background()))

	pending, _, day := m.Snapshot()
	assert.Equal(t, "2024-01-02", day)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].QueueNumber)

	stored, err := m.store.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1, "previous day's metadata is wiped")
}

func TestArrivedSortsBeforeNotArrived(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	b := remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	// B (queue 2) checks in, A (queue 1) has not.
	m.ToggleArrived(context.Background(), b.ID)

	pending, _, _ := m.Snapshot()
	require.Len(t, pending, 2)
	assert.Equal(t, b.ID, pending[0].ID)
	assert.Equal(t, a.ID, pending[1].ID)

	// Survives a reconcile too.
	require.NoError(t, m.Reconcile(context.Background()))
	pending, _, _ = m.Snapshot()
	assert.Equal(t, b.ID, pending[0].ID)
	assert.Equal(t, a.ID, pending[1].ID)
}

func TestToggleArrivedIsReversible(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	b := remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))
	before, _, _ := m.Snapshot()

	m.ToggleArrived(context.Background(), b.ID)
	m.ToggleArrived(context.Background(), b.ID)

	after, _, _ := m.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, a.ID, after[0].ID)
}

func TestToggleArrivedUnknownIDIsNoop(t *testing.T) {
	remote := newFakeRemote()
	remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	assert.NotPanics(t, func() {
		m.ToggleArrived(context.Background(), "no-such-id")
	})

	pending, _, _ := m.Snapshot()
	assert.Len(t, pending, 1)
}

func TestMarkCompletedMovesToCompleted(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	ext, err := m.MarkCompleted(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, StatusComplete, ext.TreatmentStatus)
	assert.False(t, ext.CompletedAt.IsZero())

	pending, completed, _ := m.Snapshot()
	assert.Len(t, pending, 1)
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID, completed[0].ID)

	// The backend was told, so the next fetch keeps it completed.
	require.NoError(t, m.Reconcile(context.Background()))
	pending, completed, _ = m.Snapshot()
	assert.Len(t, pending, 1)
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID, completed[0].ID)
	assert.Equal(t, []string{a.ID}, remote.statusCalls)
}

func TestMarkCompletedRemoteFailureKeepsLocalState(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	remote.statusErr = errors.New("backend down")

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	ext, err := m.MarkCompleted(context.Background(), a.ID)
	require.Error(t, err)
	require.NotNil(t, ext, "local completion applies even when the backend call fails")

	pending, completed, _ := m.Snapshot()
	assert.Empty(t, pending)
	require.Len(t, completed, 1)

	// A stale fetch still says pending; the local completion wins the
	// partition until the backend echoes it.
	require.NoError(t, m.Reconcile(context.Background()))
	pending, completed, _ = m.Snapshot()
	assert.Empty(t, pending)
	require.Len(t, completed, 1)
	assert.Equal(t, StatusComplete, completed[0].TreatmentStatus)

	// Backend recovers and echoes the completion.
	remote.statusErr = nil
	require.NoError(t, remote.SetTreatmentStatus(context.Background(), a.ID, StatusComplete))
	require.NoError(t, m.Reconcile(context.Background()))

	_, completed, _ = m.Snapshot()
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID, completed[0].ID)
}

func TestMarkCompletedUnknownIDIsNoop(t *testing.T) {
	remote := newFakeRemote()
	m := newTestManager(t, remote)

	ext, err := m.MarkCompleted(context.Background(), "no-such-id")
	assert.NoError(t, err)
	assert.Nil(t, ext)
	assert.Empty(t, remote.statusCalls)
}

func TestCompletedSortedByCompletionTime(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	b := remote.add(StatusPending)
	c := remote.add(StatusComplete) // completed elsewhere, no local timestamp

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	clock := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	_, err := m.MarkCompleted(context.Background(), b.ID)
	require.NoError(t, err)
	_, err = m.MarkCompleted(context.Background(), a.ID)
	require.NoError(t, err)

	require.NoError(t, m.Reconcile(context.Background()))
	_, completed, _ := m.Snapshot()
	require.Len(t, completed, 3)
	assert.Equal(t, c.ID, completed[0].ID, "no completion time sorts first")
	assert.Equal(t, b.ID, completed[1].ID)
	assert.Equal(t, a.ID, completed[2].ID)
}

func TestCreateAppendsToPending(t *testing.T) {
	remote := newFakeRemote()
	remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	ext, err := m.Create(context.Background(), CreateAppointmentInput{
		PatientID: "patient-77",
		Paid:      150,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ext.QueueNumber)
	assert.False(t, ext.Arrived)

	pending, _, _ := m.Snapshot()
	require.Len(t, pending, 2)
	assert.Equal(t, ext.ID, pending[1].ID)
}

func TestCreateWithNewPatient(t *testing.T) {
	remote := newFakeRemote()
	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	ext, err := m.CreateWithNewPatient(context.Background(), NewPatientInput{
		Name: "Walk-in",
		Age:  30,
	}, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, ext.QueueNumber)
	assert.Equal(t, "Walk-in", ext.Name)
	assert.NotEmpty(t, ext.PatientID)
}

func TestDeleteForgetsQueueNumber(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	require.NoError(t, m.Delete(context.Background(), a.ID))

	pending, _, _ := m.Snapshot()
	require.Len(t, pending, 1)

	md, err := m.store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Nil(t, md, "metadata is deleted with the appointment")

	// The backend somehow returns the id again: it counts as unseen and gets
	// a fresh, different number.
	remote.appointments = append(remote.appointments, Appointment{
		ID:              a.ID,
		TreatmentStatus: StatusPending,
	})
	require.NoError(t, m.Reconcile(context.Background()))

	pending, _, _ = m.Snapshot()
	require.Len(t, pending, 2)
	for _, ext := range pending {
		if ext.ID == a.ID {
			assert.Equal(t, 3, ext.QueueNumber, "reused ids start over, numbers never get recycled")
		}
	}
}

func TestBulkDelete(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	b := remote.add(StatusPending)
	c := remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	deleted, err := m.BulkDelete(context.Background(), []string{a.ID, c.ID, "no-such-id"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	pending, _, _ := m.Snapshot()
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	remote := newFakeRemote()
	remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))
	before, _, beforeDay := m.Snapshot()

	remote.fetchErr = errors.New("network unreachable")
	// Even across a day boundary: no reset happens on a failed fetch.
	m.now = func() time.Time {
		return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	}

	err := m.Reconcile(context.Background())
	require.Error(t, err)

	after, _, afterDay := m.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, beforeDay, afterDay)
}

func TestManagerRestoresFromStore(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)
	remote.add(StatusPending)

	store := NewMemoryMetaStore()
	m := NewManager(store, remote, nil, time.UTC)
	m.now = func() time.Time {
		return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	require.NoError(t, m.Reconcile(context.Background()))
	m.ToggleArrived(context.Background(), a.ID)

	// Same store, fresh process.
	m2 := NewManager(store, remote, nil, time.UTC)
	m2.now = m.now
	require.NoError(t, m2.Reconcile(context.Background()))

	pending, _, _ := m2.Snapshot()
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID, "arrival flag survived the restart")
	assert.True(t, pending[0].Arrived)
	assert.Equal(t, 1, pending[0].QueueNumber)
}

func TestSelectAndSelected(t *testing.T) {
	remote := newFakeRemote()
	a := remote.add(StatusPending)

	m := newTestManager(t, remote)
	require.NoError(t, m.Reconcile(context.Background()))

	assert.Nil(t, m.Selected())
	assert.False(t, m.Select("no-such-id"))
	assert.True(t, m.Select(a.ID))

	sel := m.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, a.ID, sel.ID)

	// Deleting the selection clears it.
	require.NoError(t, m.Delete(context.Background(), a.ID))
	assert.Nil(t, m.Selected())
}
