package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/auth"
	"coursegram.app/internal/config"
	"coursegram.app/internal/course"
	"coursegram.app/internal/expert"
	"coursegram.app/internal/httpapi"
	"coursegram.app/internal/obs"
	"coursegram.app/internal/store/pg"
	"coursegram.app/internal/telegram"
	"coursegram.app/internal/user"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	verifier, err := telegram.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.InitDataMaxAge)
	if err != nil {
		log.Fatalf("telegram verifier: %v", err)
	}
	tokens, err := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	if cfg.DatabaseURL == "" {
		log.Fatalf("COURSEGRAM_PG_DSN is required")
	}
	pgStore, err := pg.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer pgStore.Close()
	probe := httpapi.ReadyProbe{DB: pgStore.DB()}

	userSvc, err := user.NewService(pgStore)
	if err != nil {
		log.Fatalf("user service: %v", err)
	}
	expertSvc, err := expert.NewService(pgStore)
	if err != nil {
		log.Fatalf("expert service: %v", err)
	}
	courseSvc, err := course.NewService(pgStore)
	if err != nil {
		log.Fatalf("course service: %v", err)
	}
	recorder, err := audit.NewRecorder(pgStore.Audit(), cfg.Audit.Strict)
	if err != nil {
		log.Fatalf("audit recorder: %v", err)
	}
	auditQuery, err := audit.NewQuery(pgStore.Audit())
	if err != nil {
		log.Fatalf("audit query: %v", err)
	}

	api := httpapi.New(httpapi.Deps{
		Verifier:   verifier,
		Tokens:     tokens,
		Users:      userSvc,
		Experts:    expertSvc,
		Courses:    courseSvc,
		Recorder:   recorder,
		AuditQuery: auditQuery,
		Mode:       cfg.Mode,
		Probe:      probe,
		Version:    version,
		RateLimit:  cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	log.Printf("Starting coursegram-api %s (%s mode) on %s", version, cfg.Mode, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
