package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/assistant"
	"github.com/mmynk/splitledger/internal/bus"
	"github.com/mmynk/splitledger/internal/bus/wsbus"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/replica"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// config.Load only allows an empty origin for stores not keyed by it.
	if cfg.Origin == "" {
		cfg.Origin = uuid.NewString()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.StoreDriver, "origin", cfg.Origin)

	mux := http.NewServeMux()

	var hub *wsbus.Hub
	if cfg.HubEmbedded {
		hub = wsbus.NewHub(bus.WithDropHandler(func(bus.Envelope) { m.EnvelopeDropped() }))
		defer hub.Close()
		mux.Handle("/ws", hub)
		slog.Info("Embedded hub mounted", "path", "/ws")
	}

	// Listen before dialing so an embedded hub can be reached by this replica.
	addr := fmt.Sprintf(":%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	var holder handlerHolder
	mux.Handle("/", &holder)
	server := &http.Server{
		Handler:           h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		serveErr <- server.Serve(ln)
	}()

	if cfg.HubEmbedded && cfg.BusDriver == config.BusWebSocket {
		cfg.HubURL = fmt.Sprintf("ws://localhost:%d/ws", cfg.Port)
	}
	cmdBus, err := openBus(ctx, cfg, m)
	if err != nil {
		server.Close()
		return err
	}
	defer cmdBus.Close()
	slog.Info("Command bus connected", "driver", cfg.BusDriver, "session", cfg.Session)

	opts := replica.Options{
		Store:   store,
		Bus:     cmdBus,
		Session: cfg.Session,
		Origin:  cfg.Origin,
		Metrics: m,
	}
	if cfg.SeedSample {
		sample := ledger.SampleState(time.Now())
		opts.Initial = &sample
	}
	r, err := replica.New(ctx, opts)
	if err != nil {
		server.Close()
		return fmt.Errorf("failed to create replica: %w", err)
	}

	replicaErr := make(chan error, 1)
	go func() { replicaErr <- r.Run(ctx) }()

	holder.set(newAPI(cfg, r, m, reg))

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
	case err := <-replicaErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			server.Close()
			return fmt.Errorf("replica stopped: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newAPI builds the RPC and metrics routes.
func newAPI(cfg *config.Config, r *replica.Replica, m *metrics.Metrics, reg *prometheus.Registry) http.Handler {
	var completer assistant.Completer
	if cfg.AnthropicAPIKey != "" {
		completer = assistant.NewClaude(cfg.AnthropicAPIKey, assistant.WithModel(cfg.AnthropicModel))
	}

	svc := service.NewLedger(r,
		service.WithAdvisor(assistant.NewAdvisor(completer)),
		service.WithReceiptReader(assistant.NewReceiptReader(completer, nil)),
		service.WithNotifier(notify.NewResend(cfg.ResendAPIKey, cfg.ResendFrom)),
	)

	mux := http.NewServeMux()
	path, handler := ledgerrpc.NewLedgerServiceHandler(svc, connect.WithInterceptors(
		middleware.LoggingInterceptor(m),
		middleware.ValidationInterceptor(middleware.NewValidator()),
	))
	mux.Handle(path, handler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
