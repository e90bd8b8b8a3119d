package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/namansh70747/quantum-brain/internal/analyzer"
	"github.com/namansh70747/quantum-brain/internal/api"
	"github.com/namansh70747/quantum-brain/internal/broadcast"
	"github.com/namansh70747/quantum-brain/internal/cognition"
	"github.com/namansh70747/quantum-brain/internal/core"
	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/observer"
	"github.com/namansh70747/quantum-brain/internal/optimizer"
	"github.com/namansh70747/quantum-brain/internal/pipeline"
	"github.com/namansh70747/quantum-brain/internal/remediation"
	"github.com/namansh70747/quantum-brain/internal/storage"
	"github.com/namansh70747/quantum-brain/internal/telemetry"
	"github.com/namansh70747/quantum-brain/pkg/logger"
)

func main() {
	// Get config path from environment variable, default to configs/quantum-brain.yaml
	configPath := os.Getenv("QB_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/quantum-brain.yaml"
	}

	config, err := core.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(config.App.LogLevel); err != nil {
		fmt.Printf("Logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := telemetry.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Telemetry registration failed", zap.Error(err))
	}

	// Storage is optional; every consumer takes a nil interface when disabled.
	var (
		db               *storage.PostgresClient
		history          api.History
		analysisRecorder pipeline.Recorder
		actionRecorder   remediation.Recorder
		sampleStore      observer.SampleStore
	)
	if config.Database.Enabled {
		db, err = storage.NewPostgresClient(config.GetDatabaseURL(),
			config.Database.MaxConnections, logger.Named("storage"))
		if err != nil {
			logger.Fatal("Database connection failed", zap.Error(err))
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Health(ctx); err != nil {
			cancel()
			logger.Fatal("Database health check failed", zap.Error(err))
		}
		if err := db.Migrate(ctx); err != nil {
			cancel()
			logger.Fatal("Database migration failed", zap.Error(err))
		}
		cancel()

		history, analysisRecorder, actionRecorder, sampleStore = db, db, db, db
	}

	hub := broadcast.NewHub(broadcast.Config{
		BufferSize:     config.WebSocket.BufferSize,
		WriteTimeout:   core.Duration(config.WebSocket.WriteTimeout, 0),
		PingInterval:   core.Duration(config.WebSocket.PingInterval, 0),
		AllowedOrigins: config.WebSocket.AllowedOrigins,
	}, logger.Named("broadcast"))

	actions := remediation.DefaultActions()
	if config.Kubernetes.Enabled {
		client, err := remediation.NewKubernetesClient(config.Kubernetes.Kubeconfig)
		if err != nil {
			logger.Warn("Kubernetes not available, using simulated actions", zap.Error(err))
		} else {
			k8s := remediation.NewKubernetesActions(client, config.Kubernetes.Namespace,
				config.Remediation.DryRun, logger.Named("kubernetes"))
			actions = k8s.Overlay(actions)
			logger.Info("Kubernetes actions enabled", zap.String("namespace", config.Kubernetes.Namespace))
		}
	}
	dispatcher := remediation.NewDispatcher(actions, actionRecorder, logger.Named("remediation"))

	model := optimizer.NewModel(optimizer.DefaultCatalogue(), logger.Named("optimizer"))
	brain := pipeline.New(pipeline.Deps{
		Map:       entanglement.DefaultMap(),
		Analyzer:  analyzer.NewDefault(),
		Engine:    cognition.NewEngine(cognition.DefaultProbes(), logger.Named("cognition")),
		Model:     model,
		Publisher: hub,
		Recorder:  analysisRecorder,
		Logger:    logger.Named("pipeline"),
	})

	observerCtx, observerCancel := context.WithCancel(context.Background())
	defer observerCancel()

	if config.Observer.Enabled {
		source, err := newSource(config)
		if err != nil {
			logger.Fatal("Metric source init failed", zap.Error(err))
		}

		loop := observer.NewLoop(source, brain, sampleStore, observer.LoopConfig{
			Interval:    core.Duration(config.Observer.Interval, 5*time.Second),
			ServiceName: config.Observer.ServiceName,
			Retention:   core.Duration(config.Observer.RetentionPeriod, 0),
		}, logger.Named("observer"))

		// new clients get a fresh analysis right away
		hub.OnConnect(func() {
			if _, err := loop.Tick(observerCtx); err != nil {
				logger.Warn("On-connect cycle failed", zap.Error(err))
			}
		})

		go func() {
			if err := loop.Start(observerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Observer error", zap.Error(err))
			}
		}()
	}

	if config.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Deps{
		Config:     config,
		Hub:        hub,
		Pipeline:   brain,
		Model:      model,
		Dispatcher: dispatcher,
		History:    history,
		Logger:     logger.Named("http"),
	})

	srv := &http.Server{
		Addr:           config.Server.Addr,
		Handler:        router,
		ReadTimeout:    core.Duration(config.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:   core.Duration(config.Server.WriteTimeout, 30*time.Second),
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("HTTP server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	if config.Remediation.DryRun {
		logger.Warn("DRY-RUN MODE")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		core.Duration(config.Server.ShutdownTimeout, 30*time.Second))
	defer shutdownCancel()

	observerCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Quantum Brain stopped")
}

func newSource(config *core.Config) (observer.Source, error) {
	switch config.Observer.Source {
	case core.SourcePrometheus:
		return observer.NewPrometheusSource(config.Prometheus.URL, config.Prometheus.Queries, logger.Named("prometheus"))
	default:
		return observer.NewSimulatedSource(), nil
	}
}
