package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrRemote marks failures of the clinic backend (network or HTTP error).
var ErrRemote = errors.New("clinic backend request failed")

// HTTPRemote talks to the api-server's REST API.
type HTTPRemote struct {
	client *resty.Client
}

func NewHTTPRemote(baseURL string) *HTTPRemote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPRemote{client: client}
}

type remoteError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (r *HTTPRemote) wrap(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrRemote, err)
	}
	if resp.IsError() {
		if re, ok := resp.Error().(*remoteError); ok && re.Error != "" {
			return fmt.Errorf("%s: %w: %s (%s)", op, ErrRemote, re.Error, re.Details)
		}
		return fmt.Errorf("%s: %w: status %d", op, ErrRemote, resp.StatusCode())
	}
	return nil
}

func (r *HTTPRemote) FetchToday(ctx context.Context, day string) ([]Appointment, error) {
	var result []Appointment

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("date", day).
		SetResult(&result).
		SetError(&remoteError{}).
		Get("/appointments")
	if err := r.wrap(resp, err, "fetch appointments"); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *HTTPRemote) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, error) {
	var result Appointment

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"patient_id":  in.PatientID,
			"paid_status": in.PaidStatus,
			"paid":        in.Paid,
		}).
		SetResult(&result).
		SetError(&remoteError{}).
		Post("/appointments")
	if err := r.wrap(resp, err, "create appointment"); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *HTTPRemote) CreateAppointmentWithPatient(ctx context.Context, patient NewPatientInput, paidStatus bool, paid float64) (*Appointment, error) {
	var result struct {
		Patient     Patient     `json:"patient"`
		Appointment Appointment `json:"appointment"`
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"patient": map[string]any{
				"name":    patient.Name,
				"age":     patient.Age,
				"gender":  patient.Gender,
				"phone":   patient.Phone,
				"address": patient.Address,
			},
			"paid_status": paidStatus,
			"paid":        paid,
		}).
		SetResult(&result).
		SetError(&remoteError{}).
		Post("/appointments/with-patient")
	if err := r.wrap(resp, err, "create appointment with patient"); err != nil {
		return nil, err
	}

	return &result.Appointment, nil
}

func (r *HTTPRemote) SetTreatmentStatus(ctx context.Context, id, status string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"treatment_status": status}).
		SetError(&remoteError{}).
		Patch(fmt.Sprintf("/appointments/%s/treatment", id))
	return r.wrap(resp, err, "set treatment status")
}

func (r *HTTPRemote) DeleteAppointment(ctx context.Context, id string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetError(&remoteError{}).
		Delete(fmt.Sprintf("/appointments/%s", id))
	return r.wrap(resp, err, "delete appointment")
}

func (r *HTTPRemote) BulkDeleteAppointments(ctx context.Context, ids []string) (int64, error) {
	var result struct {
		Deleted int64 `json:"deleted"`
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"ids": ids}).
		SetResult(&result).
		SetError(&remoteError{}).
		Post("/appointments/bulk-delete")
	if err := r.wrap(resp, err, "bulk delete appointments"); err != nil {
		return 0, err
	}

	return result.Deleted, nil
}

func (r *HTTPRemote) ListPatients(ctx context.Context, limit, offset int) ([]Patient, error) {
	var result []Patient

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("offset", strconv.Itoa(offset)).
		SetResult(&result).
		SetError(&remoteError{}).
		Get("/patients")
	if err := r.wrap(resp, err, "list patients"); err != nil {
		return nil, err
	}

	return result, nil
}
