package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	assistantimpl "github.com/minutier/minutier/external/assistant"
	audioimpl "github.com/minutier/minutier/external/audio"
	configloader "github.com/minutier/minutier/external/config"
	exportimpl "github.com/minutier/minutier/external/export"
	repositoryimpl "github.com/minutier/minutier/external/repository"
	transcriberimpl "github.com/minutier/minutier/external/transcriber"
	"github.com/minutier/minutier/internal/config"
	"github.com/minutier/minutier/internal/repository"
	"github.com/minutier/minutier/internal/session"
	"github.com/samber/do/v2"
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching recording core")
	run(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	assistantimpl.RegisterDI(injector)
	exportimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func run(injector do.Injector) {
	orch, err := do.Invoke[*session.Orchestrator](injector)
	if err != nil {
		slog.Error("failed to resolve orchestrator", "error", err)
		os.Exit(1)
	}

	events, unsubscribe := orch.Events().Subscribe(64)
	defer unsubscribe()
	go logEvents(events)

	if resumed, err := orch.ResumeProcessing(context.Background()); err != nil {
		slog.Error("failed to resume stranded sessions", "error", err)
	} else if resumed > 0 {
		slog.Info("resumed post-processing", "sessions", resumed)
	}

	slog.Info("recording core ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	// Stop whatever session is still recording so its audio is persisted;
	// the interrupted batch leg is picked up by ResumeProcessing on the
	// next start.
	for _, s := range activeSessionIDs(orch) {
		if err := orch.Stop(context.Background(), s); err != nil {
			slog.Error("stop on shutdown failed", "session_id", s, "error", err)
		}
	}
}

func activeSessionIDs(orch *session.Orchestrator) []string {
	sessions, err := orch.GetSessions(context.Background())
	if err != nil {
		return nil
	}
	var ids []string
	for _, s := range sessions {
		if s.Status == repository.SessionStatusRecording {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func logEvents(events <-chan session.Event) {
	for ev := range events {
		switch ev.Kind {
		case session.EventTranscriptionSegment:
			slog.Info("segment", "session_id", ev.SessionID, "text", ev.Segment.Text,
				"start", ev.Segment.StartTime, "end", ev.Segment.EndTime)
		case session.EventSessionComplete:
			slog.Info("session complete", "session_id", ev.SessionID)
		case session.EventSessionError:
			slog.Error("session error", "session_id", ev.SessionID, "message", ev.Message)
		case session.EventTranscriptionDelta, session.EventAudioLevel:
			slog.Debug("event", "kind", ev.Kind, "session_id", ev.SessionID)
		}
	}
}
