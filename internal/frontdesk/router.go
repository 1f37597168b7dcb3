package frontdesk

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-queue/internal/api"
	"github.com/hackgods/clinic-queue/internal/queue"
)

type RouterConfig struct {
	Manager *queue.Manager
	Remote  queue.Remote
	Redis   *redis.Client // nil when metadata is memory-only
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(api.RequestIDMiddleware)
	r.Use(api.LoggingMiddleware)

	r.Get("/health/live", livenessHandler(cfg.Env, cfg.Version))
	r.Get("/health/ready", readinessHandler(cfg.Redis, cfg.Env, cfg.Version))

	r.Route("/queue", func(r chi.Router) {
		r.Get("/", getQueueHandler(cfg.Manager))
		r.Post("/refresh", refreshHandler(cfg.Manager))

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createHandler(cfg.Manager))
			r.Post("/with-patient", createWithPatientHandler(cfg.Manager))
			r.Post("/bulk-delete", bulkDeleteHandler(cfg.Manager))
			r.Post("/{id}/arrive", arriveHandler(cfg.Manager))
			r.Post("/{id}/complete", completeHandler(cfg.Manager))
			r.Delete("/{id}", deleteHandler(cfg.Manager))
		})

		r.Put("/selected/{id}", selectHandler(cfg.Manager))
		r.Get("/selected", selectedHandler(cfg.Manager))
	})

	r.Get("/patients", listPatientsHandler(cfg.Remote))

	return r
}

type healthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func livenessHandler(env, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version, Env: env})
	}
}

func readinessHandler(rdb *redis.Client, env, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps := make(map[string]string)
		status := "ok"

		if rdb != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			err := rdb.Ping(ctx).Err()
			cancel()
			if err != nil {
				// Queue metadata falls back to memory, so Redis being down
				// degrades persistence without taking the desk offline.
				deps["redis"] = "down"
				status = "degraded"
			} else {
				deps["redis"] = "ok"
			}
		} else {
			deps["redis"] = "not configured"
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Status:       status,
			Version:      version,
			Env:          env,
			Dependencies: deps,
		})
	}
}
