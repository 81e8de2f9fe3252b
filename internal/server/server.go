// Package server wires the dispatch service together: storage, push
// provider, HTTP surface, and the cleanup janitor.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"permithub/internal/config"
	"permithub/internal/dispatch"
	"permithub/internal/httpserver"
	"permithub/internal/janitor"
	"permithub/internal/logging"
	"permithub/internal/push"
	"permithub/internal/store"
)

type Server struct {
	httpServer *http.Server
	store      *store.Store
	janitor    *janitor.Janitor
	log        zerolog.Logger
}

func New(cfg *config.Config, sessionSecret []byte, log zerolog.Logger) (*Server, error) {
	storeInstance, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	vapidKeys, err := config.LoadOrCreateVapidKeys(cfg.SettingsFile)
	if err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("vapid keys: %w", err)
	}

	pushService, err := push.NewService(vapidKeys, cfg.VapidSubject, logging.Component(log, "push"))
	if err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("push service: %w", err)
	}

	dispatcher := dispatch.New(storeInstance, pushService, logging.Component(log, "dispatch"))
	sendLimiter := httpserver.NewSendLimiter(cfg.SendRateMax, cfg.SendRateWindow)

	router := httpserver.NewRouter()
	httpserver.RegisterRoutes(router, httpserver.Dependencies{
		SessionSecret:  sessionSecret,
		Store:          storeInstance,
		Sender:         dispatcher,
		SendLimiter:    sendLimiter,
		VapidPublicKey: vapidKeys.PublicKey,
		CorsOrigins:    cfg.CorsOrigins,
		Production:     cfg.Production(),
		Log:            logging.Component(log, "http"),
	})

	cleaner := janitor.New(storeInstance, sendLimiter, cfg.RegistrationMaxAge, logging.Component(log, "janitor"))

	address := fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ListenPort)
	srv := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		httpServer: srv,
		store:      storeInstance,
		janitor:    cleaner,
		log:        log,
	}, nil
}

func (s *Server) Start(pruneSchedule string) error {
	if err := s.janitor.Start(pruneSchedule); err != nil {
		return fmt.Errorf("janitor schedule: %w", err)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.janitor != nil {
		s.janitor.Stop()
	}
	err := s.httpServer.Shutdown(ctx)
	if s.store != nil {
		_ = s.store.Close()
	}
	return err
}
