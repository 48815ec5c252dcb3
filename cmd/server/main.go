package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmcnador-art/cmc-timetable/internal/analysis"
	"github.com/cmcnador-art/cmc-timetable/internal/api"
	"github.com/cmcnador-art/cmc-timetable/internal/config"
	"github.com/cmcnador-art/cmc-timetable/internal/layout"
	"github.com/cmcnador-art/cmc-timetable/internal/pdftext"
	"github.com/cmcnador-art/cmc-timetable/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.FilesDir, 0o755); err != nil {
		log.Error("create files directory", "error", err, "dir", cfg.FilesDir)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer st.Close()

	extractor := layout.NewExtractor(layout.Tolerances{
		Row:    cfg.RowTolerance,
		ColMin: cfg.ColMin,
		ColMax: cfg.ColMax,
	})
	reader := pdftext.NewReader(cfg.FilesDir, cfg.FetchTimeout)
	cache := store.NewScheduleCache(st.DB(), log)
	pipeline := analysis.New(reader, extractor, cache, log, analysis.Options{
		SessionLength: cfg.SessionLength,
		Period:        cfg.Period,
	})

	srv := api.NewServer(st, pipeline, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting cmc-timetable", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
