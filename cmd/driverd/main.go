// driverd is the driver terminal's background agent. It owns the offline
// mutation queue: it watches API connectivity and replays captured requests
// in order whenever the server becomes reachable again.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/parceltrack/parcel-api-server/internal/driverclient"
	"github.com/parceltrack/parcel-api-server/internal/driverclient/queue"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	baseURL := envDefault("API_BASE_URL", "http://localhost:8080")
	driverID := strings.TrimSpace(os.Getenv("DRIVER_ID"))
	if driverID == "" {
		log.Fatal("DRIVER_ID is required")
	}
	dbPath := envDefault("QUEUE_DB_PATH", "driverd-queue.db")
	probeInterval := envDurationSeconds("PROBE_INTERVAL_SECONDS", 15*time.Second)

	store, err := queue.OpenSqliteStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open queue store: %v", err)
	}
	defer store.Close()

	client := driverclient.New(baseURL, driverID)
	q := queue.New(store, queue.MutatorSender{Client: client},
		queue.WithLogger(logger),
		queue.WithRejectionHandler(func(entry queue.Entry, err error) {
			logger.Error("queued request needs driver attention",
				slog.String("entry.id", entry.ID),
				slog.String("path", entry.Path),
				slog.String("error", err.Error()))
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchConnectivity(ctx, client, q, probeInterval, logger)

	logger.Info("driverd started",
		slog.String("api", baseURL),
		slog.String("driver.id", driverID),
		slog.String("queue.db", dbPath))
	if err := q.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("queue consumer exited: %v", err)
	}
}

// watchConnectivity polls the API liveness endpoint and kicks the queue each
// time the server is reachable, so pending entries drain promptly after an
// outage.
func watchConnectivity(ctx context.Context, client *driverclient.Client, q *queue.Queue, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	online := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := client.Healthz(ctx)
			switch {
			case err == nil && !online:
				online = true
				logger.Info("connectivity restored, draining queue")
				q.Kick()
			case err == nil:
				q.Kick()
			case online:
				online = false
				logger.Warn("connectivity lost", slog.String("error", err.Error()))
			}
		}
	}
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envDurationSeconds(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
