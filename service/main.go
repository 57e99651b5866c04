package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	c "tsa/service/core"
)

func main() {
	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := c.LoadSettings(".env")
	logger := zerolog.New(os.Stdout).Level(settings.LogLevel).With().Timestamp().Str("service", "tsa").Logger()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid settings")
	}

	// opens postgres and the alpha vantage client as configured
	sc, err := c.NewServiceContext(ctx, settings, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build service context")
	}
	defer sc.Close()

	// get http server, makes all of the endpoints and routes
	s := c.GetHttpServer(sc)

	go func() {
		logger.Info().Str("addr", s.Addr).Msg("starting tsa server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	logger.Info().Msg("received shutdown signal, shutting down gracefully")

	// this gives the server 10 seconds to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	logger.Info().Msg("server stopped successfully")
}
