package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-queue/internal/clinic"
)

func createMedicineHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateMedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		expiresAt, err := time.Parse("2006-01-02", req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_expiry", "expires_at must be YYYY-MM-DD")
			return
		}

		medicine, err := svc.CreateMedicine(r.Context(), &clinic.Medicine{
			Name:      req.Name,
			Batch:     req.Batch,
			ExpiresAt: expiresAt,
			Stock:     req.Stock,
			UnitPrice: req.UnitPrice,
		})
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicineResponse(medicine))
	}
}

func getMedicineHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_medicine_id")
		if !ok {
			return
		}

		medicine, err := svc.GetMedicine(r.Context(), id)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toMedicineResponse(medicine))
	}
}

func listMedicinesHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		medicines, err := svc.ListMedicines(r.Context(), limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]MedicineResponse, 0, len(medicines))
		for i := range medicines {
			resp = append(resp, toMedicineResponse(&medicines[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func adjustStockHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_medicine_id")
		if !ok {
			return
		}

		var req AdjustStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		medicine, err := svc.AdjustMedicineStock(r.Context(), id, req.Delta)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toMedicineResponse(medicine))
	}
}

func deleteMedicineHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_medicine_id")
		if !ok {
			return
		}

		if err := svc.DeleteMedicine(r.Context(), id); err != nil {
			handleMedicineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func createPrescriptionHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
			return
		}
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		lines := make([]clinic.PrescriptionLine, 0, len(req.Lines))
		for _, l := range req.Lines {
			medicineID, err := uuid.Parse(l.MedicineID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_medicine_id", "medicine_id must be a valid UUID")
				return
			}
			lines = append(lines, clinic.PrescriptionLine{
				MedicineID: medicineID,
				Dosage:     l.Dosage,
				Duration:   l.Duration,
				Quantity:   l.Quantity,
			})
		}

		prescription, err := svc.CreatePrescription(r.Context(), &clinic.Prescription{
			AppointmentID: appointmentID,
			PatientID:     patientID,
			Advice:        req.Advice,
			Lines:         lines,
		})
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPrescriptionResponse(prescription))
	}
}

func getPrescriptionHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_prescription_id")
		if !ok {
			return
		}

		prescription, err := svc.GetPrescription(r.Context(), id)
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(prescription))
	}
}

func listPrescriptionsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("patient_id")
		patientID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		prescriptions, err := svc.ListPrescriptionsByPatient(r.Context(), patientID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]PrescriptionResponse, 0, len(prescriptions))
		for i := range prescriptions {
			resp = append(resp, toPrescriptionResponse(&prescriptions[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleMedicineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrMedicineNotFound):
		writeError(w, http.StatusNotFound, "medicine_not_found", err.Error())
	case errors.Is(err, clinic.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient_stock", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handlePrescriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrPrescriptionNotFound):
		writeError(w, http.StatusNotFound, "prescription_not_found", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, clinic.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, clinic.ErrEmptyPrescription):
		writeError(w, http.StatusBadRequest, "empty_prescription", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
