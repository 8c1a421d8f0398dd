// Command userauthd serves the user authentication API.
//
// All configuration comes from the environment and an optional YAML file;
// see internal/settings. A minimal development run needs only the two
// signing secrets:
//
//	ACCESS_TOKEN_SECRET=... REFRESH_TOKEN_SECRET=... userauthd
//
// Without DATABASE_URL users live in memory; without USERAUTH_REDIS_ADDR
// login, refresh and registration are not throttled.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/userauth/internal/settings"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	s, err := settings.Load()
	if err != nil {
		settings.Default().Logger().WithError(err).Fatal("invalid configuration")
	}
	logger := s.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, s, logger); err != nil {
		logger.WithError(err).Fatal("userauthd exited")
	}
}

func run(ctx context.Context, s settings.Settings, logger *logrus.Logger) error {
	a, err := newApp(ctx, s, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", s.Server.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: s.Server.ReadHeaderTimeout,
		ReadTimeout:       s.Server.ReadTimeout,
		WriteTimeout:      s.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("user service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
