package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vasu1712/scenyx-canvas/internal/api/rooms"
	"github.com/Vasu1712/scenyx-canvas/internal/auth"
	"github.com/Vasu1712/scenyx-canvas/internal/config"
	"github.com/Vasu1712/scenyx-canvas/internal/logging"
	"github.com/Vasu1712/scenyx-canvas/internal/storage/memory"
	"github.com/Vasu1712/scenyx-canvas/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the server together and blocks until a signal or a server error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	store := memory.NewRoomStore(
		memory.WithGracePeriod(cfg.RoomGracePeriod),
		memory.WithMaxAttempts(cfg.IDMaxAttempts),
		memory.WithLogger(logging.Component(logger, "room_store")),
	)
	tickets := auth.NewTicketIssuer(cfg.JWTSecret, cfg.CreatorTokenTTL)

	hub := ws.NewHub(store, tickets, ws.Config{
		SendBufferSize:    cfg.SendBufferSize,
		InboundBufferSize: cfg.HubBufferSize,
		MaxMessageSize:    cfg.MaxMessageSize,
		AllowedOrigin:     cfg.AllowedOrigin,
	}, logging.Component(logger, "hub"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	handler := rooms.NewRoomHandler(store, tickets, hub, logging.Component(logger, "http"))
	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: rooms.NewRouter(handler, cfg.AllowedOrigin),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.WithField("address", server.Addr).Info("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		stop()
		<-hubDone
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	<-hubDone
	logger.Info("Server stopped")
	return nil
}
