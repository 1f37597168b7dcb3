package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/hackgods/clinic-queue/internal/redis"
)

// Manager owns the day queue: it reconciles the backend's appointment records
// with locally persisted queue metadata and serves the two ordered views the
// front desk works from. All mutations serialize on one mutex, so the
// queue-number sequence cannot be read and reserved concurrently. In-memory
// state is authoritative for the running session; the MetaStore is a best
// effort mirror that survives restarts.
type Manager struct {
	mu     sync.Mutex
	store  MetaStore
	remote Remote
	locker redisclient.Locker
	loc    *time.Location

	now func() time.Time

	meta      map[string]*Metadata
	day       string
	maxQueue  int
	pending   []Extended
	completed []Extended
	selected  *Extended
}

// NewManager restores whatever metadata the store holds; a restore failure is
// logged and the manager starts empty, letting the next reconcile rebuild.
func NewManager(store MetaStore, remote Remote, locker redisclient.Locker, loc *time.Location) *Manager {
	if locker == nil {
		locker = redisclient.NewNopLocker()
	}
	if loc == nil {
		loc = time.Local
	}

	m := &Manager{
		store:  store,
		remote: remote,
		locker: locker,
		loc:    loc,
		now:    time.Now,
		meta:   make(map[string]*Metadata),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.restore(ctx)

	return m
}

func (m *Manager) restore(ctx context.Context) {
	day, err := m.store.Day(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("restore day marker failed, starting empty")
		return
	}

	entries, err := m.store.All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("restore queue metadata failed, starting empty")
		return
	}

	m.day = day
	for i := range entries {
		md := entries[i]
		m.meta[md.ID] = &md
		if md.QueueNumber > m.maxQueue {
			m.maxQueue = md.QueueNumber
		}
	}
}

// today returns the local calendar date. The timezone offset is applied
// before truncating, so appointments near midnight land on the right day.
func (m *Manager) today() string {
	return m.now().In(m.loc).Format("2006-01-02")
}

// Reconcile fetches the day's appointments and rebuilds both views. A fetch
// failure leaves every bit of state untouched.
func (m *Manager) Reconcile(ctx context.Context) error {
	today := m.today()

	records, err := m.remote.FetchToday(ctx, today)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.day != today {
		m.resetDay(ctx, today)
	}

	return m.locker.WithLock(ctx, "queue:"+today, func(ctx context.Context) error {
		m.adoptStoredMetadata(ctx)

		pending := make([]Extended, 0, len(records))
		completed := make([]Extended, 0)

		for _, rec := range records {
			md, ok := m.meta[rec.ID]
			if !ok {
				m.maxQueue++
				md = &Metadata{ID: rec.ID, QueueNumber: m.maxQueue}
				m.meta[rec.ID] = md
				m.putMeta(ctx, md)
			}

			ext := Extended{
				Appointment: rec,
				Arrived:     md.Arrived,
				QueueNumber: md.QueueNumber,
				CompletedAt: md.CompletedAt,
			}

			switch {
			case rec.TreatmentStatus == StatusComplete:
				if !md.CompletedAt.IsZero() && !md.CompleteSynced {
					md.CompleteSynced = true
					m.putMeta(ctx, md)
				}
				completed = append(completed, ext)
			case !md.CompletedAt.IsZero() && !md.CompleteSynced:
				// Completed here but the backend update has not landed yet;
				// the local completion wins until the backend echoes it.
				ext.TreatmentStatus = StatusComplete
				completed = append(completed, ext)
			default:
				pending = append(pending, ext)
			}
		}

		sortPending(pending)
		sortCompleted(completed)

		m.pending = pending
		m.completed = completed
		return nil
	})
}

// adoptStoredMetadata folds in entries another front-desk instance may have
// written since our last pass, keeping the queue-number sequence shared.
func (m *Manager) adoptStoredMetadata(ctx context.Context) {
	entries, err := m.store.All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("read queue metadata store")
		return
	}
	for i := range entries {
		md := entries[i]
		if _, ok := m.meta[md.ID]; !ok {
			m.meta[md.ID] = &md
		}
		if md.QueueNumber > m.maxQueue {
			m.maxQueue = md.QueueNumber
		}
	}
}

// resetDay is the one-shot daily reset: all metadata and both views are
// dropped and numbering restarts at 1. Callers hold m.mu.
func (m *Manager) resetDay(ctx context.Context, today string) {
	log.Info().Str("from", m.day).Str("to", today).Msg("day boundary crossed, resetting queue")

	if err := m.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("clear queue metadata store")
	}
	if err := m.store.SetDay(ctx, today); err != nil {
		log.Warn().Err(err).Msg("persist day marker")
	}

	m.meta = make(map[string]*Metadata)
	m.maxQueue = 0
	m.pending = nil
	m.completed = nil
	m.selected = nil
	m.day = today
}

// Snapshot returns copies of both views so callers never see a half-applied
// mutation.
func (m *Manager) Snapshot() (pending, completed []Extended, day string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending = make([]Extended, len(m.pending))
	copy(pending, m.pending)
	completed = make([]Extended, len(m.completed))
	copy(completed, m.completed)
	return pending, completed, m.day
}

// ToggleArrived flips the arrival flag on a pending appointment and re-sorts.
// Unknown ids are a silent no-op.
func (m *Manager) ToggleArrived(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := findByID(m.pending, id)
	if idx < 0 {
		return
	}

	md := m.meta[id]
	md.Arrived = !md.Arrived
	m.putMeta(ctx, md)

	m.pending[idx].Arrived = md.Arrived
	sortPending(m.pending)
}

// MarkCompleted moves a pending appointment to the completed list, stamps its
// completion time, and pushes the status change to the backend. The remote
// failure mode is deliberate: local state is not rolled back, the error is
// surfaced, and the next reconcile squares the two sides. Unknown ids are a
// silent no-op.
func (m *Manager) MarkCompleted(ctx context.Context, id string) (*Extended, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := findByID(m.pending, id)
	if idx < 0 {
		return nil, nil
	}

	md := m.meta[id]
	md.CompletedAt = m.now()
	md.CompleteSynced = false
	m.putMeta(ctx, md)

	ext := m.pending[idx]
	ext.TreatmentStatus = StatusComplete
	ext.CompletedAt = md.CompletedAt

	m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
	// Completion times are monotonic within a session, append keeps order.
	m.completed = append(m.completed, ext)

	if err := m.remote.SetTreatmentStatus(ctx, id, StatusComplete); err != nil {
		log.Warn().Err(err).Str("appointment_id", id).
			Msg("backend completion update failed, reconciling on next fetch")
		return &ext, err
	}

	md.CompleteSynced = true
	m.putMeta(ctx, md)

	return &ext, nil
}

// Create books an appointment for an existing patient and enqueues it.
func (m *Manager) Create(ctx context.Context, in CreateAppointmentInput) (*Extended, error) {
	rec, err := m.remote.CreateAppointment(ctx, in)
	if err != nil {
		return nil, err
	}
	return m.enqueue(ctx, rec)
}

// CreateWithNewPatient registers a walk-in and enqueues the booked visit.
func (m *Manager) CreateWithNewPatient(ctx context.Context, patient NewPatientInput, paidStatus bool, paid float64) (*Extended, error) {
	rec, err := m.remote.CreateAppointmentWithPatient(ctx, patient, paidStatus, paid)
	if err != nil {
		return nil, err
	}
	return m.enqueue(ctx, rec)
}

func (m *Manager) enqueue(ctx context.Context, rec *Appointment) (*Extended, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if today := m.today(); m.day != today {
		m.resetDay(ctx, today)
	}

	var ext Extended
	err := m.locker.WithLock(ctx, "queue:"+m.day, func(ctx context.Context) error {
		m.adoptStoredMetadata(ctx)

		md, ok := m.meta[rec.ID]
		if !ok {
			m.maxQueue++
			md = &Metadata{ID: rec.ID, QueueNumber: m.maxQueue}
			m.meta[rec.ID] = md
			m.putMeta(ctx, md)
		}

		ext = Extended{
			Appointment: *rec,
			Arrived:     md.Arrived,
			QueueNumber: md.QueueNumber,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reserve queue number: %w", err)
	}

	m.pending = append(m.pending, ext)
	sortPending(m.pending)

	return &ext, nil
}

// Delete removes a pending appointment and its metadata. The completed list
// is never searched. The backend delete happens first; on failure nothing
// changes locally.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.remote.DeleteAppointment(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocal(ctx, id)
	return nil
}

// BulkDelete removes all matching pending appointments; whole-batch only, the
// backend models no partial application.
func (m *Manager) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	deleted, err := m.remote.BulkDeleteAppointments(ctx, ids)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.removeLocal(ctx, id)
	}
	return deleted, nil
}

func (m *Manager) removeLocal(ctx context.Context, id string) {
	if idx := findByID(m.pending, id); idx >= 0 {
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
	}
	delete(m.meta, id)
	if err := m.store.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Str("appointment_id", id).Msg("delete queue metadata")
	}
	if m.selected != nil && m.selected.ID == id {
		m.selected = nil
	}
}

// Select remembers an appointment for downstream flows (prescription
// writing). Returns false when the id is in neither view.
func (m *Manager) Select(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx := findByID(m.pending, id); idx >= 0 {
		ext := m.pending[idx]
		m.selected = &ext
		return true
	}
	if idx := findByID(m.completed, id); idx >= 0 {
		ext := m.completed[idx]
		m.selected = &ext
		return true
	}
	return false
}

func (m *Manager) Selected() *Extended {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == nil {
		return nil
	}
	ext := *m.selected
	return &ext
}

// putMeta mirrors an entry to the store. Failures are logged, never fatal:
// the session keeps its in-memory state and only risks losing queue positions
// on restart.
func (m *Manager) putMeta(ctx context.Context, md *Metadata) {
	if err := m.store.Put(ctx, md); err != nil {
		log.Warn().Err(err).Str("appointment_id", md.ID).Msg("persist queue metadata")
	}
}

func findByID(list []Extended, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Arrived patients are served before the rest; within a group the queue
// number decides.
func sortPending(list []Extended) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Arrived != list[j].Arrived {
			return list[i].Arrived
		}
		return list[i].QueueNumber < list[j].QueueNumber
	})
}

// Completed sorts by completion time; entries with no recorded time sort
// first, as if stamped at the epoch.
func sortCompleted(list []Extended) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CompletedAt.Before(list[j].CompletedAt)
	})
}
