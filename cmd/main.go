// campushire placement-service
//
// Backend for the placement-portal admin dashboard:
//   - eligibility checks and reasons for a student/job pair
//   - round-decision batches (shortlist/select/waitlist/reject) with
//     atomic commit and per-candidate notification events
//   - derived applicant counts, cached in Redis and refreshed on a schedule
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campushire/placement-service/internal/config"
	"campushire/placement-service/internal/db"
	"campushire/placement-service/internal/placement"
	"campushire/placement-service/internal/stats"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[placement-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[placement-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[placement-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[placement-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[placement-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[placement-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[placement-service] Redis connected ✓")

	// ── Service + counts refresher ───────────────────────────────────────────
	svc := placement.NewService(pool, rdb)

	refresher := stats.New(svc, cfg.CountsRefreshHours)
	if err := refresher.Start(ctx); err != nil {
		log.Fatalf("[placement-service] Refresher: %v", err)
	}
	defer refresher.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := placement.NewHandler(svc)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[placement-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[placement-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[placement-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[placement-service] Shutdown error: %v", err)
	}
	log.Println("[placement-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "placement-service",
		"version": version,
	})
}
