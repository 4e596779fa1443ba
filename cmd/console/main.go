package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"operator-console/internal/backend"
	"operator-console/internal/config"
	"operator-console/internal/httpapi"
	"operator-console/internal/notify"
	"operator-console/internal/session"
	"operator-console/internal/view"
	"operator-console/pkg/logger"
	"operator-console/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	tokens := session.NewTokenStore()
	client := backend.NewClient(cfg.Backend.BaseURL, tokens, &http.Client{Timeout: cfg.Backend.Timeout})
	sessions := session.NewManager(client, tokens, session.NewRedisRefreshStore(rdb), log)
	controller := view.NewController(client, log)

	// A persisted refresh token survives console restarts; pick the session
	// back up before serving.
	if resumed, err := sessions.Resume(rootCtx); err != nil {
		log.Warn("session resume failed", "err", err)
	} else if resumed {
		log.Info("session resumed from persisted refresh token")
		if err := controller.Refresh(rootCtx); err != nil {
			log.Warn("initial call list load failed", "err", err)
		}
	}

	if cfg.PushEnabled() {
		sub := notify.New(cfg.Push.URL, cfg.Push.Channel, tokens, log)
		go runSubscription(rootCtx, sub, sessions, controller, log)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Session: sessions,
		View:    controller,
		Calls:   client,
	}
	registerRoutes(r, h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("console listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// subscriptionRetry paces reconnect attempts after the push channel drops or
// while no session is active yet.
const subscriptionRetry = 5 * time.Second

// runSubscription keeps one push subscription alive for the life of the
// process, folding update-call events into the list controller. The
// subscriber itself has no reconnect policy; this loop is it.
func runSubscription(ctx context.Context, sub *notify.Subscriber, sessions *session.Manager, controller *view.Controller, log *slog.Logger) {
	for {
		if sessions.LoggedIn() {
			err := sub.Subscribe(ctx, notify.EventUpdateCall, controller.ApplyUpdate)
			if err != nil && ctx.Err() == nil {
				log.Warn("push subscription ended", "err", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(subscriptionRetry):
		}
	}
}
