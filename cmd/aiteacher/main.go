package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amritansh005/Ai-Teacher/internal/affect"
	"github.com/amritansh005/Ai-Teacher/internal/brain"
	"github.com/amritansh005/Ai-Teacher/internal/config"
	"github.com/amritansh005/Ai-Teacher/internal/convlog"
	"github.com/amritansh005/Ai-Teacher/internal/convo"
	"github.com/amritansh005/Ai-Teacher/internal/httpapi"
	"github.com/amritansh005/Ai-Teacher/internal/interrupt"
	"github.com/amritansh005/Ai-Teacher/internal/observability"
	"github.com/amritansh005/Ai-Teacher/internal/session"
	"github.com/amritansh005/Ai-Teacher/internal/vad"
	"github.com/amritansh005/Ai-Teacher/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := convo.NewStore(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("conversation store init failed: %v", err)
	}
	defer store.Close()
	if cfg.RedisURL != "" {
		log.Printf("conversation store: redis")
	} else {
		log.Printf("conversation store: in-memory")
	}

	sink, err := convlog.NewSink(ctx, cfg.DatabaseURL, cfg.LogDir)
	if err != nil {
		log.Fatalf("conversation log sink init failed: %v", err)
	}
	defer sink.Close()

	adapter, err := brain.NewAdapter(cfg.BrainAdapterMode, cfg.BrainHTTPURL)
	if err != nil {
		log.Fatalf("brain adapter init failed: %v", err)
	}

	providers, err := voice.NewProviders(cfg)
	if err != nil {
		log.Fatalf("voice provider init failed: %v", err)
	}

	var scorer affect.Scorer
	if cfg.SentimentServiceURL != "" {
		scorer = affect.NewHTTPScorer(cfg.SentimentServiceURL)
		log.Printf("sentiment scorer: http")
	} else {
		scorer = affect.MockScorer{}
		log.Printf("sentiment scorer: mock")
	}

	var classifier vad.Classifier
	if cfg.VADServiceURL != "" {
		classifier = vad.NewHTTPClassifier(cfg.VADServiceURL, cfg.SampleRate)
		log.Printf("vad classifier: http")
	} else {
		classifier = vad.NewEnergyClassifier()
		log.Printf("vad classifier: energy")
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	interrupts := interrupt.NewController(providers.Synthesizer, sessions, store, cfg.ContinuationMinChars)
	coordinator := voice.NewCoordinator(
		store,
		adapter,
		affect.NewClassifier(scorer),
		providers.Synthesizer,
		interrupts,
		sessions,
		metrics,
		sink,
		cfg.HistoryWindow,
		cfg.SentimentWindow,
	)
	orchestrator := voice.NewOrchestrator(cfg, sessions, coordinator, providers.Transcriber, classifier, metrics)

	api := httpapi.New(cfg, sessions, orchestrator, store, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
