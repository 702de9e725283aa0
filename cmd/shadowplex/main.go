package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shadowplex/shadowplex/internal/api"
	"github.com/shadowplex/shadowplex/internal/auth"
	"github.com/shadowplex/shadowplex/internal/catalog"
	"github.com/shadowplex/shadowplex/internal/config"
	"github.com/shadowplex/shadowplex/internal/db"
	"github.com/shadowplex/shadowplex/internal/jobs"
	"github.com/shadowplex/shadowplex/internal/metadata"
	"github.com/shadowplex/shadowplex/internal/notifications"
	"github.com/shadowplex/shadowplex/internal/repository"
	"github.com/shadowplex/shadowplex/internal/scheduler"
	"github.com/shadowplex/shadowplex/internal/version"
)

func main() {
	ver := version.Load()
	log.Printf("ShadowPlex %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)
	log.Printf("metadata provider enabled=%v, smtp enabled=%v", cfg.TMDBEnabled(), cfg.SMTPEnabled())

	movieRepo := repository.NewMovieRepository(database.DB)
	seriesRepo := repository.NewSeriesRepository(database.DB)
	episodeRepo := repository.NewEpisodeRepository(database.DB)
	settingsRepo := repository.NewSettingsRepository(database.DB)

	enricher := metadata.NewClient(cfg.TMDBAPIKey, cfg.TMDBBaseURL, cfg.TMDBImageBaseURL)
	mailer := notifications.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser,
		cfg.SMTPPassword, cfg.SMTPFrom, cfg.AdminEmail)

	queue := jobs.NewQueue(cfg.RedisAddr)
	defer queue.Stop()

	pipeline := catalog.NewPipeline(movieRepo, seriesRepo, enricher, jobs.NewUploadNotifier(queue))
	gate := auth.NewGate(cfg.SessionSecret, cfg.AdminEmail, cfg.AdminPassword)

	srv := api.NewServer(cfg, movieRepo, seriesRepo, episodeRepo, settingsRepo, pipeline, gate)

	queue.RegisterHandler(jobs.TaskNotifyUpload, jobs.NewNotifyUploadHandler(
		settingsRepo, mailer, notifications.UploadSubject, notifications.UploadMessage, srv.WSHub()))
	queue.RegisterHandler(jobs.TaskMetadataRefresh, jobs.NewMetadataRefreshHandler(
		movieRepo, seriesRepo, enricher))
	if err := queue.Start(); err != nil {
		log.Printf("job queue unavailable, notifications and refresh disabled: %v", err)
	}

	sched := scheduler.New(movieRepo, seriesRepo, queue)
	if err := sched.Start(); err != nil {
		log.Printf("scheduler failed to start: %v", err)
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
