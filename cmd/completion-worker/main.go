package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookline/scheduling/internal/appointment"
	"github.com/bookline/scheduling/internal/availability"
	"github.com/bookline/scheduling/internal/config"
	"github.com/bookline/scheduling/internal/db"
	redisclient "github.com/bookline/scheduling/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("completion-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running completion worker in env=%s interval=%s grace=%s",
		cfg.Env, cfg.WorkerInterval, cfg.CompletionGrace)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisAppointmentLocker(rdb, cfg.LockTTL)
	conflicts := availability.NewHTTPClient(cfg.AvailabilityBaseURL, cfg.AvailabilityTimeout)
	svc := appointment.NewService(repo, locker, conflicts)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.CompletionGrace)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping completion worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.CompletionGrace)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, grace time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.CompleteOverdue(runCtx, time.Now().UTC(), grace); err != nil {
		log.Printf("completion run error: %v", err)
		return
	}
	log.Printf("completion run complete in %s", time.Since(start))
}
