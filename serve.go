package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferreirogomes/tijolo/config"
	"github.com/ferreirogomes/tijolo/handlers"
	"github.com/ferreirogomes/tijolo/ledger_listener"
	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/notifications"
	"github.com/ferreirogomes/tijolo/services"
	"github.com/ferreirogomes/tijolo/storage"
	"github.com/ferreirogomes/tijolo/vault"

	"github.com/google/subcommands"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type serveCmd struct {
	resetMirror bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "inicia a API HTTP, o health gRPC e o listener do espelho" }
func (*serveCmd) Usage() string {
	return `tijolo [-config <arquivo>] serve [-reset-mirror]

  Sobe o núcleo contábil em memória e a API HTTP. Com database.url configurado,
  mantém o espelho PostgreSQL; com kafka.brokers, reenvia as notificações.

  O ledger em memória começa vazio a cada execução. Se o espelho ainda tiver
  dados de uma execução anterior, serve recusa iniciar, a menos que
  -reset-mirror seja informado para limpá-lo.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.resetMirror, "reset-mirror", false, "Limpa o espelho PostgreSQL de uma execução anterior")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("%v", err)
		return subcommands.ExitUsageError
	}
	logging.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	custody := vault.NewCustody(cfg.FaucetEnabled)
	log := notifications.NewLog()
	tokenizationService := services.NewTokenizationService(custody, log)

	// sem espelho, as listagens saem direto do núcleo
	var queries handlers.Queries = tokenizationService
	var publishers []ledger_listener.Publisher
	if cfg.KafkaEnabled() {
		forwarder, err := ledger_listener.NewKafkaForwarder(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logging.Error("%v", err)
			return subcommands.ExitFailure
		}
		defer forwarder.Close()
		publishers = append(publishers, forwarder)
	}

	listenerDone := make(chan error, 1)
	if cfg.MirrorEnabled() {
		db, err := storage.NewDB(cfg.DatabaseURL, cfg.MigrationsDir)
		if err != nil {
			logging.Error("Falha fatal ao conectar ao banco de dados e aplicar migrações: %v", err)
			return subcommands.ExitFailure
		}
		defer db.Close()
		queries = db

		// o ledger em memória recomeça vazio; o espelho não pode servir dados antigos
		if err := db.PrepareForLedger(ctx, c.resetMirror); err != nil {
			if errors.Is(err, storage.ErrMirrorNotEmpty) {
				logging.Error("%v: rode com -reset-mirror para descartá-los", err)
				return subcommands.ExitUsageError
			}
			logging.Error("%v", err)
			return subcommands.ExitFailure
		}
		listener := ledger_listener.NewLedgerListener(log, tokenizationService, db, publishers...)
		listener.CursorEvery = cfg.ListenerBatch
		go func() { listenerDone <- listener.StartListening(ctx) }()
		logging.Info("Listener do espelho iniciado.")
	} else if len(publishers) > 0 {
		// só Kafka: o cursor fica em memória e o reenvio recomeça do início a cada execução
		listener := ledger_listener.NewLedgerListener(log, tokenizationService, &ledger_listener.CursorOnlyMirror{}, publishers...)
		go func() { listenerDone <- listener.StartListening(ctx) }()
	} else {
		listenerDone <- nil
	}

	router := handlers.NewRouter(handlers.Handlers{
		Properties:    handlers.NewPropertyHandler(tokenizationService, queries, custody, cfg.Currency),
		Investments:   handlers.NewInvestmentHandler(tokenizationService, custody, cfg.Currency),
		Users:         handlers.NewUserHandler(queries, custody, cfg.Currency),
		Notifications: handlers.NewNotificationHandler(log, cfg.ListenerBatch),
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logging.Error("falha ao abrir %s: %v", cfg.GRPCAddr, err)
			return subcommands.ExitFailure
		}
		grpcServer = grpc.NewServer()
		healthSrv := health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthSrv)
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		logging.Info("Health gRPC em %s", cfg.GRPCAddr)
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logging.Info("Servidor backend rodando em %s...", cfg.HTTPAddr)

	status := subcommands.ExitSuccess
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logging.Error("servidor encerrado: %v", err)
		status = subcommands.ExitFailure
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn("falha ao encerrar HTTP: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := <-listenerDone; err != nil {
		logging.Warn("listener encerrado com erro: %v", err)
	}
	return status
}
