package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	grpcapi "ecodefill-backend/internal/api/grpc"
	httpapi "ecodefill-backend/internal/api/http"
	"ecodefill-backend/internal/bootstrap"
	"ecodefill-backend/internal/config"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/metrics"
	"ecodefill-backend/internal/roster"
	"ecodefill-backend/internal/security"
	"ecodefill-backend/internal/seed"
	"ecodefill-backend/internal/service"
	"ecodefill-backend/internal/telemetry"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	seedPath := flag.String("seed", "", "Seed data applied at startup (memory store only)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting EcoDefill Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Backend configuration", "store", cfg.Store.Type, "identity", cfg.Identity.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store and identity
	backend, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	provider, err := backend.IdentityProvider(ctx)
	if err != nil {
		logger.Error("Failed to create identity provider", "error", err)
		log.Fatalf("Failed to create identity provider: %v", err)
	}

	if *seedPath != "" {
		if cfg.Store.Type != config.StoreMemory {
			log.Fatalf("-seed is only for the memory store; use cmd/seed for %s", cfg.Store.Type)
		}
		data, err := seed.Load(*seedPath)
		if err != nil {
			log.Fatalf("Failed to read seed data: %v", err)
		}
		res, err := seed.Apply(ctx, backend.Store, provider, backend.Machines, data, time.Now())
		if err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		logger.Info("Seed data applied", "accounts", res.Accounts, "machines", res.Machines)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsRegistry := metrics.NewRegistry(reg)

	// Initialize Security
	sessionTTL := time.Duration(cfg.JWT.SessionTTLMinutes) * time.Minute
	sessions := security.NewSessionManager(security.NewTokenManager(cfg.JWT.Secret, sessionTTL), sessionTTL)

	// Live views
	var rosterOpts []roster.Option
	if cfg.Registration.StrictTransitions {
		rosterOpts = append(rosterOpts, roster.WithStrictTransitions())
	}
	members := roster.NewViewModel(backend.Store.Profiles, backend.Store.Registrations, metricsRegistry, rosterOpts...)
	if err := members.Start(ctx); err != nil {
		logger.Error("Failed to start roster", "error", err)
		log.Fatalf("Failed to start roster: %v", err)
	}
	defer members.Close()

	machines := telemetry.NewViewModel(backend.Store.Machines, metricsRegistry)
	if err := machines.Start(ctx); err != nil {
		logger.Error("Failed to start telemetry", "error", err)
		log.Fatalf("Failed to start telemetry: %v", err)
	}
	defer machines.Close()

	// Initialize Services
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.From, cfg.SendGrid.FromName)
	authSvc := service.NewAuthService(backend.Store.Profiles, backend.Store.Registrations, provider, sessions, cfg.Registration)
	studentSvc := service.NewStudentService(backend.Store.Profiles, backend.Store.Registrations)
	adminSvc := service.NewAdminService(members, machines, emailSvc)

	// HTTP API
	api := httpapi.NewServer(authSvc, studentSvc, adminSvc, sessions, metricsRegistry, cfg.Server)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Requests inherit the signal context so open member streams end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// gRPC health
	healthServer := grpcapi.NewServer()
	healthServer.TrackRoster(members)
	healthServer.TrackTelemetry(machines)
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC health server listening", "address", lis.Addr().String())
		return healthServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		healthServer.Stop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped. Goodbye!")
}
