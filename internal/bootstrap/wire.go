// Package bootstrap assembles the daemon from configuration: capture,
// transcription, decision client, store, orchestrator, interception, and
// the HTTP/WebSocket bridge.
package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/probewise/interview/internal/capture"
	"github.com/probewise/interview/internal/config"
	"github.com/probewise/interview/internal/decision"
	"github.com/probewise/interview/internal/intercept"
	"github.com/probewise/interview/internal/orchestrator"
	"github.com/probewise/interview/internal/registry"
	"github.com/probewise/interview/internal/server"
	"github.com/probewise/interview/internal/session"
	"github.com/probewise/interview/internal/state"
	"github.com/probewise/interview/internal/store"
	"github.com/probewise/interview/internal/transcribe"
	"github.com/probewise/interview/internal/transcribe/deepgram"
)

// App is the fully wired daemon.
type App struct {
	Config   *config.Config
	Registry *registry.Registry
	Machine  *state.Machine
	Orch     *orchestrator.Orchestrator
	Server   *server.Server
	Capture  *capture.Guarded

	ctx    context.Context
	cancel context.CancelFunc
}

// New wires the daemon. The server is created first so it can serve as the
// orchestrator's display sink; capture callbacks close over the app so the
// component's lifecycle signals reach the orchestrator created after it.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Registry: registry.New()}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	srv := server.New()
	machine := state.NewMachine()

	mic, err := capture.NewMicrophone(cfg.Audio.SampleRate, os.TempDir(), capture.Callbacks{
		OnStarted: func() {
			if app.Orch != nil {
				app.Orch.StartConversation(app.ctx)
			}
		},
		OnUploadComplete: func(artifactLocation string, duration time.Duration) {
			slog.Info("recording artifact ready", "location", artifactLocation, "duration", duration)
			if app.Orch != nil {
				app.Orch.SetArtifactLocation(artifactLocation)
			}
		},
	})
	if err != nil {
		return nil, err
	}

	provider := deepgram.NewProvider(deepgram.Config{
		APIKey:     cfg.Streaming.APIKey,
		APIBaseURL: cfg.Streaming.APIBaseURL,
		Model:      cfg.Streaming.Model,
		Language:   cfg.Streaming.Language,
	})

	decider := decision.NewClient(cfg.Decision)

	records, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return nil, err
	}

	orchCfg := orchestrator.Config{
		Session: session.Config{
			QuestionID:          cfg.Interview.QuestionID,
			QuestionText:        cfg.Interview.QuestionText,
			ProbingInstructions: cfg.Interview.ProbingInstructions,
			Intensity:           session.ProbingIntensity(cfg.Interview.ProbingIntensity),
			MinTurn:             cfg.Interview.MinTurn,
			GraceWindow:         cfg.Interview.GraceWindow,
		},
		Stream: transcribe.StreamConfig{
			SampleRate:     cfg.Audio.SampleRate,
			Channels:       cfg.Audio.Channels,
			InterimResults: true,
		},
		Pump: transcribe.PumpConfig{
			ChunkInterval: cfg.Audio.ChunkInterval,
			KeepAlive:     cfg.Audio.KeepAlive,
		},
	}

	guarded := capture.NewGuarded(mic, func() bool {
		return app.Orch != nil && app.Orch.ConversationActive()
	})

	orch := orchestrator.New(orchCfg, machine, guarded, provider, decider, srv, records)
	interceptor := intercept.New(intercept.DefaultRecognizer(), orch.ConversationActive, orch)

	srv.Bind(orch, interceptor, records, guarded)

	app.Machine = machine
	app.Orch = orch
	app.Server = srv
	app.Capture = guarded

	app.Registry.Register(registry.CapCapture, guarded)
	app.Registry.Register(registry.CapTranscription, provider)
	app.Registry.Register(registry.CapDecision, decider)
	app.Registry.Register(registry.CapUISink, srv)
	app.Registry.Register(registry.CapRecordStore, records)

	orch.Ready()
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down cleanly.
func (a *App) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         a.Config.HTTPAddr,
		Handler:      a.Server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("interview daemon starting", "http", a.Config.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	a.Registry.Close()
	slog.Info("shutdown complete")
	return nil
}
