package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Gender,
		&p.Phone,
		&p.Address,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Name,
		&a.Age,
		&a.Gender,
		&a.Phone,
		&a.Address,
		&a.PaidStatus,
		&a.Paid,
		&a.TreatmentStatus,
		&a.Date,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Batch,
		&m.ExpiresAt,
		&m.Stock,
		&m.UnitPrice,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}

	return &m, nil
}

const appointmentColumns = `id, patient_id, name, age, gender, phone, address,
	paid_status, paid, treatment_status, date, created_at, updated_at`

// Patients

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, age, gender, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, age, gender, phone, address, created_at, updated_at
	`, id, p.Name, p.Age, p.Gender, p.Phone, p.Address)

	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, age, gender, phone, address, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context, limit, offset int) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, age, gender, phone, address, created_at, updated_at
		FROM patients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET name = $2, age = $3, gender = $4, phone = $5, address = $6, updated_at = now()
		WHERE id = $1
		RETURNING id, name, age, gender, phone, address, created_at, updated_at
	`, p.ID, p.Name, p.Age, p.Gender, p.Phone, p.Address)

	return scanPatient(row)
}

func (r *PgRepository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// Appointments

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, name, age, gender, phone, address,
			 paid_status, paid, treatment_status, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.Name, a.Age, a.Gender, a.Phone, a.Address,
		a.PaidStatus, a.Paid, a.Date)

	return scanAppointment(row)
}

func (r *PgRepository) CreatePatientWithAppointment(ctx context.Context, p *Patient, a *Appointment) (*Patient, *Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	patientID := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO patients (id, name, age, gender, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, age, gender, phone, address, created_at, updated_at
	`, patientID, p.Name, p.Age, p.Gender, p.Phone, p.Address)

	createdPatient, err := scanPatient(row)
	if err != nil {
		return nil, nil, fmt.Errorf("insert patient: %w", err)
	}

	apptID := uuid.New()
	row = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, name, age, gender, phone, address,
			 paid_status, paid, treatment_status, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, apptID, createdPatient.ID, createdPatient.Name, createdPatient.Age,
		createdPatient.Gender, createdPatient.Phone, createdPatient.Address,
		a.PaidStatus, a.Paid, a.Date)

	createdAppt, err := scanAppointment(row)
	if err != nil {
		return nil, nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return createdPatient, createdAppt, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByDate(ctx context.Context, day time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1
		ORDER BY created_at ASC
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateTreatmentStatus(ctx context.Context, id uuid.UUID, from, to TreatmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET treatment_status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND treatment_status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) UpdatePayment(ctx context.Context, id uuid.UUID, paidStatus bool, paid float64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET paid_status = $2,
		    paid = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, paidStatus, paid)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) BulkDeleteAppointments(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Medicines

func (r *PgRepository) CreateMedicine(ctx context.Context, m *Medicine) (*Medicine, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO medicines (id, name, batch, expires_at, stock, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, batch, expires_at, stock, unit_price, created_at, updated_at
	`, id, m.Name, m.Batch, m.ExpiresAt, m.Stock, m.UnitPrice)

	return scanMedicine(row)
}

func (r *PgRepository) GetMedicineByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, batch, expires_at, stock, unit_price, created_at, updated_at
		FROM medicines
		WHERE id = $1
	`, id)
	return scanMedicine(row)
}

func (r *PgRepository) ListMedicines(ctx context.Context, limit, offset int) ([]Medicine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, batch, expires_at, stock, unit_price, created_at, updated_at
		FROM medicines
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}

	return result, rows.Err()
}

func (r *PgRepository) AdjustMedicineStock(ctx context.Context, id uuid.UUID, delta int) (*Medicine, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE medicines
		SET stock = stock + $2,
		    updated_at = now()
		WHERE id = $1
		  AND stock + $2 >= 0
		RETURNING id, name, batch, expires_at, stock, unit_price, created_at, updated_at
	`, id, delta)

	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, ErrMedicineNotFound) {
			// Either the row is missing or the guard rejected the delta.
			if _, getErr := r.GetMedicineByID(ctx, id); getErr == nil {
				return nil, ErrInsufficientStock
			}
		}
		return nil, err
	}
	return m, nil
}

func (r *PgRepository) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMedicineNotFound
	}
	return nil
}

// Prescriptions

func (r *PgRepository) CreatePrescription(ctx context.Context, p *Prescription) (*Prescription, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	var created Prescription
	err = tx.QueryRow(ctx, `
		INSERT INTO prescriptions (id, appointment_id, patient_id, advice, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, appointment_id, patient_id, advice, created_at
	`, id, p.AppointmentID, p.PatientID, p.Advice).Scan(
		&created.ID, &created.AppointmentID, &created.PatientID, &created.Advice, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert prescription: %w", err)
	}

	for _, line := range p.Lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO prescription_lines (prescription_id, medicine_id, dosage, duration, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, created.ID, line.MedicineID, line.Dosage, line.Duration, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("insert prescription line: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE medicines
			SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock - $2 >= 0
		`, line.MedicineID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrInsufficientStock
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	created.Lines = p.Lines
	return &created, nil
}

func (r *PgRepository) GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, patient_id, advice, created_at
		FROM prescriptions
		WHERE id = $1
	`, id).Scan(&p.ID, &p.AppointmentID, &p.PatientID, &p.Advice, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}

	lines, err := r.prescriptionLines(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Lines = lines

	return &p, nil
}

func (r *PgRepository) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, patient_id, advice, created_at
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.AppointmentID, &p.PatientID, &p.Advice, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		lines, err := r.prescriptionLines(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Lines = lines
	}

	return result, nil
}

func (r *PgRepository) prescriptionLines(ctx context.Context, prescriptionID uuid.UUID) ([]PrescriptionLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT medicine_id, dosage, duration, quantity
		FROM prescription_lines
		WHERE prescription_id = $1
	`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []PrescriptionLine
	for rows.Next() {
		var l PrescriptionLine
		if err := rows.Scan(&l.MedicineID, &l.Dosage, &l.Duration, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	return lines, rows.Err()
}
