package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-queue/internal/clinic"
)

type RouterConfig struct {
	Service *clinic.Service
	PgPool  *pgxpool.Pool
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	if cfg.PgPool != nil {
		health := NewHealthHandler(cfg.PgPool, cfg.Env, cfg.Version)
		r.Get("/health/live", health.Liveness)
		r.Get("/health/ready", health.Readiness)
	}

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", createPatientHandler(cfg.Service))
		r.Get("/", listPatientsHandler(cfg.Service))
		r.Get("/{id}", getPatientHandler(cfg.Service))
		r.Put("/{id}", updatePatientHandler(cfg.Service))
		r.Delete("/{id}", deletePatientHandler(cfg.Service))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Post("/with-patient", createAppointmentWithPatientHandler(cfg.Service))
		r.Post("/bulk-delete", bulkDeleteAppointmentsHandler(cfg.Service))
		r.Get("/", listAppointmentsHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/{id}/treatment", updateTreatmentHandler(cfg.Service))
		r.Patch("/{id}/payment", updatePaymentHandler(cfg.Service))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Service))
	})

	r.Route("/medicines", func(r chi.Router) {
		r.Post("/", createMedicineHandler(cfg.Service))
		r.Get("/", listMedicinesHandler(cfg.Service))
		r.Get("/{id}", getMedicineHandler(cfg.Service))
		r.Patch("/{id}/stock", adjustStockHandler(cfg.Service))
		r.Delete("/{id}", deleteMedicineHandler(cfg.Service))
	})

	r.Route("/prescriptions", func(r chi.Router) {
		r.Post("/", createPrescriptionHandler(cfg.Service))
		r.Get("/", listPrescriptionsHandler(cfg.Service))
		r.Get("/{id}", getPrescriptionHandler(cfg.Service))
	})

	return r
}
