package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-repo-uploader/internal/config"
	"github.com/jrsteele09/go-repo-uploader/internal/logging"
	"github.com/jrsteele09/go-repo-uploader/metrics"
	"github.com/jrsteele09/go-repo-uploader/server"
	"github.com/jrsteele09/go-repo-uploader/server/authflowrepo"
	"github.com/jrsteele09/go-repo-uploader/sessions"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.Load()
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	if err := config.Validate(c); err != nil {
		log.Fatal().Err(err).Msg("Refusing to start")
	}
	displayAppname(c.GetAppName())

	registry := metrics.NewRegistry()
	prom := metrics.NewProm(metrics.Namespace, registry)

	authState := authflowrepo.NewInMemoryRepo()
	sessionStore, err := sessions.NewStore(c,
		sessions.WithObserver(prom),
		sessions.WithSweepHook(func(now time.Time) {
			if n := authState.DeleteExpired(now); n > 0 {
				log.Debug().Int("count", n).Msg("expired oauth states removed")
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("sessions.NewStore: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessionStore.StartSweeper(ctx, c.GetSessionSweepInterval())
	defer sessionStore.Stop()

	handler, err := server.New(c, sessionStore, authState, server.WithMetrics(prom, registry))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	defer handler.Close()

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
