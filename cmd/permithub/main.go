package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"permithub/internal/config"
	"permithub/internal/logging"
	"permithub/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", false)
		fallback.Fatal().Err(err).Msg("config error")
	}

	log := logging.New(cfg.LogLevel, cfg.Production())

	sessionSecret, err := config.LoadSessionSecret(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("session secret error")
	}

	srv, err := server.New(cfg, sessionSecret, log)
	if err != nil {
		log.Fatal().Err(err).Msg("server init error")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Info().Str("host", cfg.ListenHost).Int("port", cfg.ListenPort).Msg("permithub listening")
	if err := srv.Start(cfg.PruneSchedule); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Fatal().Err(err).Msg("server error")
	}
}
