package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/scheduling/internal/appointment"
	"github.com/bookline/scheduling/internal/calendar"
	"github.com/bookline/scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	professionals := fakeNames(12)
	services := []string{
		"Haircut",
		"Color Treatment",
		"Deep Tissue Massage",
		"Facial",
		"Manicure",
		"Consultation",
		"Physiotherapy Session",
		"Dental Cleaning",
		"Eye Exam",
		"Nutrition Review",
	}

	if err := seedAppointments(context.Background(), pool, 800, professionals, services); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func fakeNames(count int) []string {
	names := make([]string, count)
	for i := range names {
		names[i] = gofakeit.Name()
	}
	return names
}

// seedAppointments spreads bookings across the current week's visible
// window so the calendar grid has something to show immediately.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, count int, professionals, services []string) error {
	log.Printf("seeding %d appointments", count)

	const batchSize = 200

	week := calendar.WeekOf(time.Now().UTC())
	durations := []int{30, 45, 60, 90}

	professionalIDs := make([]uuid.UUID, len(professionals))
	for i := range professionalIDs {
		professionalIDs[i] = uuid.New()
	}
	serviceIDs := make([]uuid.UUID, len(services))
	for i := range serviceIDs {
		serviceIDs[i] = uuid.New()
	}

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			day := week[gofakeit.Number(0, len(week)-1)]
			hour := gofakeit.Number(calendar.DefaultDayStartHour, calendar.DefaultDayEndHour-1)
			minute := []int{0, 15, 30, 45}[gofakeit.Number(0, 3)]
			duration := durations[gofakeit.Number(0, len(durations)-1)]

			profIdx := gofakeit.Number(0, len(professionals)-1)
			svcIdx := gofakeit.Number(0, len(services)-1)

			start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)

			status := appointment.StatusPending
			if gofakeit.Bool() {
				status = appointment.StatusConfirmed
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (
					id, start_time, end_time, duration_minutes,
					client_id, professional_id, service_id,
					client_name, professional_name, service_name,
					status, is_walk_in, requires_confirmation,
					cancelled_at, cancelled_by, cancellation_reason,
					notes, internal_notes, created_at, updated_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL, '', '', $14, '', now(), now())
			`,
				uuid.New(), start, start.Add(time.Duration(duration)*time.Minute), duration,
				uuid.New(), professionalIDs[profIdx], serviceIDs[svcIdx],
				gofakeit.Name(), professionals[profIdx], services[svcIdx],
				status, gofakeit.Number(0, 9) == 0, gofakeit.Bool(),
				gofakeit.Sentence(6),
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}
