package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/bus"
	busmemory "github.com/mmynk/splitledger/internal/bus/memory"
	"github.com/mmynk/splitledger/internal/bus/redisbus"
	"github.com/mmynk/splitledger/internal/bus/wsbus"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/file"
	storememory "github.com/mmynk/splitledger/internal/storage/memory"
	"github.com/mmynk/splitledger/internal/storage/redisstore"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func redisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.SnapshotStore, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return storememory.New(nil), nil
	case config.StoreFile:
		s, err := file.New(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreSQLite:
		path := cfg.StorePath
		if filepath.Ext(path) == ".json" {
			path = strings.TrimSuffix(path, ".json") + ".db"
		}
		s, err := sqlite.New(path, cfg.Origin)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreRedis:
		s, err := redisstore.New(ctx, redisOptions(cfg), cfg.Origin)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openBus(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (bus.CommandBus, error) {
	opts := []bus.Option{bus.WithDropHandler(func(bus.Envelope) { m.EnvelopeDropped() })}
	switch cfg.BusDriver {
	case config.BusMemory:
		return busmemory.NewHub(opts...).Join(cfg.Session), nil
	case config.BusWebSocket:
		c, err := wsbus.Dial(ctx, cfg.HubURL, cfg.Session, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BusRedis:
		b, err := redisbus.New(ctx, redisOptions(cfg), cfg.Session, opts...)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown bus driver %q", cfg.BusDriver)
}

// handlerHolder serves 503 until the API is ready.
type handlerHolder struct {
	mu sync.RWMutex
	h  http.Handler
}

func (h *handlerHolder) set(handler http.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.h = handler
}

func (h *handlerHolder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	handler := h.h
	h.mu.RUnlock()
	if handler == nil {
		http.Error(w, "starting", http.StatusServiceUnavailable)
		return
	}
	handler.ServeHTTP(w, r)
}
