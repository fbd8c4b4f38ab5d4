package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/config"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/db"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/directory"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/gate"
	internalhttp "github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/http"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/notify"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/reports"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/repository"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/settings"
)

func main() {
	cfg := config.Load()
	if cfg.GateTokenSecret == "" {
		log.Fatal("GATE_TOKEN_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, settings push disabled: %v", err)
			rdb = nil
		}
	}

	store := repository.NewStore(pool)
	settingsStore := settings.NewStore(pool, rdb, cfg.SettingsChannel)

	// Enabling the maintenance lock tears every session down before any
	// watcher learns of the change, so no client keeps acting on state
	// derived from a session the new configuration just shut out.
	enforce := func(prev, next model.Settings) {
		if next.LockEpoch > prev.LockEpoch {
			log.Printf("maintenance lock enabled (epoch %d), revoking sessions", next.LockEpoch)
			if err := store.DeleteAllSessions(context.Background()); err != nil {
				log.Printf("session revocation failed: %v", err)
			}
		}
	}

	replicator := settings.NewReplicator(settingsStore, enforce, cfg.SettingsPollInterval)
	if err := replicator.Prime(ctx); err != nil {
		log.Fatalf("settings load failed: %v", err)
	}
	go replicator.Run(ctx)

	tokens := gate.NewTokenIssuer(cfg.GateTokenSecret, cfg.GateTokenIssuer, cfg.GateTokenTTL, cfg.UnlockGrantTTL)
	g := gate.New(replicator, tokens)
	sink := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
	promotions := gate.NewPromotions(replicator, directory.NewLockout(store), sink, tokens, cfg.LockoutThreshold, cfg.LockoutCooldown)
	dir := directory.NewManager(store, g)
	reportStore := reports.NewStore(pool)

	server := internalhttp.NewServer(cfg, store, settingsStore, replicator, g, promotions, dir, reportStore)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("safebell-admin listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
