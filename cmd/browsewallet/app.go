package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/client"
	"github.com/AlexZinkM/browse-wallet/internal/config"
	"github.com/AlexZinkM/browse-wallet/internal/identity"
	"github.com/AlexZinkM/browse-wallet/internal/storage"
	"github.com/AlexZinkM/browse-wallet/internal/viewport"
	"github.com/AlexZinkM/browse-wallet/wallet"
)

// app wires the components of one process
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	wallet   *wallet.Controller
	viewport *viewport.Viewport
	closers  []func()
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		s, err := storage.NewRedisStore(ctx, cfg.RedisURL, cfg.StorageNamespace)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.StorageMemory:
		return storage.NewMemoryStore(), func() {}, nil
	default:
		s, err := storage.NewFileStore(cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	keys, err := client.KeysFor(cfg.Chain)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Prompted on first use, so viewport-only commands never ask
	var password func() ([]byte, error)
	if cfg.SealIdentity {
		password = config.SealPassword
	}

	ids := identity.New(identity.Options{
		Chain:    cfg.Chain,
		Keys:     keys,
		Storage:  store,
		Password: password,
		Logger:   logger,
	})

	var tokenClient client.TokenClient
	if cfg.RPCURL != "" && cfg.TokenAddress != "" {
		tokenClient, err = client.New(cfg)
		if err != nil {
			logger.Warn("chain client unavailable, operations disabled", "error", err)
		}
	}

	settings, err := wallet.SettingsFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	log := activity.New(logger)
	a.wallet = wallet.New(wallet.Options{
		Chain:      cfg.Chain,
		Identities: ids,
		Client:     tokenClient,
		Settings:   settings,
		Missing:    cfg.Missing(),
		Activity:   log,
		Logger:     logger,
	})
	a.closers = append(a.closers, a.wallet.Close)

	links, err := viewport.ParseQuickLinks(cfg.QuickLinks)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.viewport = viewport.New(viewport.Options{
		SearchURL:    cfg.SearchURL,
		QuickLinks:   links,
		Probe:        cfg.ProbeFrames,
		ProbeTimeout: cfg.ProbeTimeout,
		ProbeRetries: cfg.ProbeRetries,
		Activity:     log,
		Logger:       logger,
	})

	return a, nil
}

// Close releases resources in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
