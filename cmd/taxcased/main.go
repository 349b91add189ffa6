// Command taxcased serves the tax case tracker HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taxdesk/taxcase-tracker/internal/common"
	"github.com/taxdesk/taxcase-tracker/internal/export"
	"github.com/taxdesk/taxcase-tracker/internal/extract"
	"github.com/taxdesk/taxcase-tracker/internal/filing"
	"github.com/taxdesk/taxcase-tracker/internal/llm/gemini"
	"github.com/taxdesk/taxcase-tracker/internal/metrics"
	"github.com/taxdesk/taxcase-tracker/internal/pipeline"
	"github.com/taxdesk/taxcase-tracker/internal/repository"
	"github.com/taxdesk/taxcase-tracker/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}
	common.SetupLogging(cfg.Logging.Level, cfg.Logging.Format)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database.Path, slog.Default())
	if err != nil {
		slog.Error("open database failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("close database failed", "error", err)
		}
	}()

	notices := repository.NewNoticeRepository(db, slog.Default())
	replies := repository.NewReplyRepository(db, slog.Default())

	extractor := extract.NewExtractor(cfg.Pipeline.Pdftotext)
	generator := gemini.NewClient(gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, slog.Default())
	organizer := filing.NewOrganizer(cfg.Upload.BaseDir)

	m := metrics.New()
	pipe := pipeline.NewService(extractor, generator, notices, replies, organizer,
		pipeline.Config{UseRegexPrepass: cfg.Pipeline.UseRegexPrepass}, m, slog.Default())
	exporter := export.NewService(notices, replies, slog.Default())

	srv := server.New(pipe, notices, replies, exporter, cfg.Upload.TempDir, slog.Default())

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(m),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	slog.Info("stopped")
}
