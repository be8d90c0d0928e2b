// Entry point of the docuchain API server. Loads configuration, wires the
// registry backend (in-memory or Fabric), the IPFS pinner, and the HTTP
// API, then serves until interrupted.
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
	"time"

	"github.com/anushankari123/docuchain/internal/api"
	"github.com/anushankari123/docuchain/internal/config"
	"github.com/anushankari123/docuchain/internal/fabric"
	"github.com/anushankari123/docuchain/internal/ipfs"
	"github.com/anushankari123/docuchain/internal/registry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := config.SetupLogger(cfg)
	logger.Info("docuchain server starting",
		slog.String("listen_addr", cfg.Server.ListenAddr),
		slog.String("backend", cfg.Registry.Backend),
	)

	svc, cleanup, err := buildRegistry(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize registry backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	var pinner api.Pinner
	if cfg.IPFS.Enabled {
		pinner = ipfs.New(cfg.IPFS.APIURL, cfg.IPFS.GatewayURL, cfg.IPFSTimeoutDuration())
		logger.Info("document pinning enabled", slog.String("api_url", cfg.IPFS.APIURL))
	}

	issuers := make(map[string]string, len(cfg.Issuers))
	for _, issuer := range cfg.Issuers {
		issuers[issuer.Token] = issuer.Name
	}

	server := api.NewServer(api.Options{
		Service:        svc,
		Pinner:         pinner,
		Logger:         logger,
		Issuers:        issuers,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}

// buildRegistry picks the configured backend. The memory backend enforces
// the full record lifecycle in-process; the fabric backend delegates it to
// the docucert chaincode.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (registry.Service, func(), error) {
	switch cfg.Registry.Backend {
	case config.BackendFabric:
		client, err := fabric.Connect(fabric.Config{
			MSPID:        cfg.Fabric.MSPID,
			CertPath:     cfg.Fabric.CertPath,
			KeyDir:       cfg.Fabric.KeyDir,
			TLSCertPath:  cfg.Fabric.TLSCertPath,
			PeerEndpoint: cfg.Fabric.PeerEndpoint,
			GatewayPeer:  cfg.Fabric.GatewayPeer,
			Channel:      cfg.Fabric.Channel,
			Chaincode:    cfg.Fabric.Chaincode,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to fabric gateway",
			slog.String("peer", cfg.Fabric.PeerEndpoint),
			slog.String("channel", cfg.Fabric.Channel),
			slog.String("chaincode", cfg.Fabric.Chaincode),
		)
		return fabric.NewRegistry(client.Contract()), func() { client.Close() }, nil

	default:
		var opts []registry.Option
		if cfg.Registry.RequireLocator {
			opts = append(opts, registry.WithRequiredLocator())
		}
		core := registry.NewCore(registry.NewMemoryLedger(), opts...)
		core.Subscribe(func(ev registry.Event) {
			logger.Info("certificate event",
				slog.String("type", string(ev.Type)),
				slog.String("key", ev.Key.Hex()),
				slog.String("owner", ev.Owner),
			)
		})
		logger.Warn("using in-memory registry backend; records are not durable")
		return core, func() {}, nil
	}
}
