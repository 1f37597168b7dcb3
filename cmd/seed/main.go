package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-queue/internal/db"
	"github.com/hackgods/clinic-queue/internal/logging"
)

func main() {
	logging.Init("seed", "dev")
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	patientIDs, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedMedicines(context.Background(), pool, 120); err != nil {
		log.Fatal().Err(err).Msg("seed medicines")
	}
	if err := seedTodaysAppointments(context.Background(), pool, patientIDs, 25); err != nil {
		log.Fatal().Err(err).Msg("seed appointments")
	}

	log.Info().Msg("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 100
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, age, gender, phone, address, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			`, id, gofakeit.Name(), gofakeit.Number(1, 90), gofakeit.Gender(),
				gofakeit.Phone(), gofakeit.Address().Address)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Info().Int("seeded", end).Int("total", count).Msg("patients progress")
	}

	return ids, nil
}

func seedMedicines(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Info().Int("count", count).Msg("seeding medicines")

	forms := []string{"Tablet", "Syrup", "Capsule", "Injection", "Drops", "Ointment"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Word() + " " + forms[gofakeit.Number(0, len(forms)-1)]
		expiry := time.Now().AddDate(0, gofakeit.Number(3, 36), 0)

		_, err := tx.Exec(ctx, `
			INSERT INTO medicines (id, name, batch, expires_at, stock, unit_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, uuid.New(), name, gofakeit.LetterN(2)+gofakeit.DigitN(4), expiry,
			gofakeit.Number(10, 500), gofakeit.Price(1, 80))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedTodaysAppointments(ctx context.Context, pool *pgxpool.Pool, patientIDs []uuid.UUID, count int) error {
	log.Info().Int("count", count).Msg("seeding today's appointments")

	if count > len(patientIDs) {
		count = len(patientIDs)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		patientID := patientIDs[i]

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments
				(id, patient_id, name, age, gender, phone, address,
				 paid_status, paid, treatment_status, date, created_at, updated_at)
			SELECT $1, p.id, p.name, p.age, p.gender, p.phone, p.address,
			       $2, $3, 'pending', current_date, now(), now()
			FROM patients p
			WHERE p.id = $4
		`, uuid.New(), gofakeit.Bool(), gofakeit.Price(10, 200), patientID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
