package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-queue/internal/logging"
	"github.com/hackgods/clinic-queue/internal/queue"
)

// simulate drives a clinic day through the frontdesk API: walk-ins register,
// patients check in, treatments complete, the odd booking gets cancelled.

type simConfig struct {
	FrontdeskURL string
	Rounds       int
	WalkinRatio  float64
	CancelRatio  float64
	Pause        time.Duration
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		FrontdeskURL: getenv("FRONTDESK_URL", "http://127.0.0.1:8090"),
		Rounds:       getenvInt("SIM_ROUNDS", 50),
		WalkinRatio:  getenvFloat("SIM_WALKIN_RATIO", 0.3),
		CancelRatio:  getenvFloat("SIM_CANCEL_RATIO", 0.05),
		Pause:        time.Duration(getenvInt("SIM_PAUSE_MS", 200)) * time.Millisecond,
	}
	return cfg
}

type opMetrics struct {
	mu        sync.Mutex
	total     int
	success   int
	failed    int
	latencies []time.Duration
}

func (om *opMetrics) record(latency time.Duration, ok bool) {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.total++
	if ok {
		om.success++
	} else {
		om.failed++
	}
	om.latencies = append(om.latencies, latency)
}

func (om *opMetrics) report(name string) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if om.total == 0 {
		return
	}

	sorted := make([]time.Duration, len(om.latencies))
	copy(sorted, om.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[min(len(sorted)*95/100, len(sorted)-1)]

	fmt.Printf("%-12s total=%d success=%d failed=%d p50=%s p95=%s\n",
		name, om.total, om.success, om.failed, p50, p95)
}

type simulator struct {
	client   *resty.Client
	cfg      simConfig
	arrive   opMetrics
	complete opMetrics
	walkin   opMetrics
	cancel   opMetrics
	refresh  opMetrics
}

func main() {
	logging.Init("simulate", "dev")
	cfg := loadSimConfig()
	log.Info().Str("frontdesk_url", cfg.FrontdeskURL).Int("rounds", cfg.Rounds).Msg("simulate starting")

	sim := &simulator{
		client: resty.New().
			SetBaseURL(cfg.FrontdeskURL).
			SetTimeout(10 * time.Second).
			SetHeader("Content-Type", "application/json"),
		cfg: cfg,
	}

	for round := 0; round < cfg.Rounds; round++ {
		sim.step()
		time.Sleep(cfg.Pause)
	}

	fmt.Println("--- simulation results ---")
	sim.refresh.report("refresh")
	sim.walkin.report("walkin")
	sim.arrive.report("arrive")
	sim.complete.report("complete")
	sim.cancel.report("cancel")
}

func (s *simulator) step() {
	state, ok := s.fetchQueue()
	if !ok {
		return
	}

	// Register a walk-in some of the time, more often when the queue is dry.
	if rand.Float64() < s.cfg.WalkinRatio || len(state.Pending) == 0 {
		s.registerWalkin()
		return
	}

	target := state.Pending[rand.Intn(len(state.Pending))]

	switch {
	case rand.Float64() < s.cfg.CancelRatio:
		s.cancelAppointment(target.ID)
	case !target.Arrived:
		s.markArrived(target.ID)
	default:
		s.markComplete(target.ID)
	}
}

type queueState struct {
	Day       string           `json:"day"`
	Pending   []queue.Extended `json:"pending"`
	Completed []queue.Extended `json:"completed"`
}

func (s *simulator) fetchQueue() (*queueState, bool) {
	var state queueState

	start := time.Now()
	resp, err := s.client.R().SetResult(&state).Post("/queue/refresh")
	ok := err == nil && resp.IsSuccess()
	s.refresh.record(time.Since(start), ok)

	if !ok {
		log.Warn().Err(err).Msg("queue refresh failed")
		return nil, false
	}
	return &state, true
}

func (s *simulator) registerWalkin() {
	body := map[string]any{
		"patient": map[string]any{
			"name":    fmt.Sprintf("Walk-in %d", rand.Intn(100000)),
			"age":     rand.Intn(80) + 1,
			"gender":  []string{"male", "female"}[rand.Intn(2)],
			"phone":   fmt.Sprintf("01%09d", rand.Intn(1000000000)),
			"address": "simulated",
		},
		"paid_status": rand.Intn(2) == 0,
		"paid":        float64(rand.Intn(200)),
	}

	start := time.Now()
	resp, err := s.client.R().SetBody(body).Post("/queue/appointments/with-patient")
	s.walkin.record(time.Since(start), err == nil && resp.IsSuccess())
}

func (s *simulator) markArrived(id string) {
	start := time.Now()
	resp, err := s.client.R().Post("/queue/appointments/" + id + "/arrive")
	s.arrive.record(time.Since(start), err == nil && resp.IsSuccess())
}

func (s *simulator) markComplete(id string) {
	start := time.Now()
	resp, err := s.client.R().Post("/queue/appointments/" + id + "/complete")
	s.complete.record(time.Since(start), err == nil && resp.IsSuccess())
}

func (s *simulator) cancelAppointment(id string) {
	start := time.Now()
	resp, err := s.client.R().Delete("/queue/appointments/" + id)
	s.cancel.record(time.Since(start), err == nil && resp.IsSuccess())
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
