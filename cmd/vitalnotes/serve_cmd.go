package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	adaptermiddleware "vitalnotes/internal/adapters/http/middleware"
	httpiface "vitalnotes/internal/interfaces/http"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.app.cfg.ConsoleAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from CONSOLE_ADDR)")
	return cmd
}

func (c *cli) serve(ctx context.Context, addr string) error {
	a := c.app
	mode, err := adaptermiddleware.ParseAuthMode(a.cfg.ConsoleAuth)
	if err != nil {
		return err
	}
	consoleAuth, err := adaptermiddleware.ConsoleAuth(mode, a.cfg.ConsoleAPIKey, "/healthz")
	if err != nil {
		return err
	}
	mw := httpiface.Middleware{
		Auth:          consoleAuth,
		RequestLogger: adaptermiddleware.RequestLogger(a.logger),
		Secure:        adaptermiddleware.SecureHeaders(),
	}
	if a.cfg.TracingEnabled {
		mw.XRay = adaptermiddleware.XRayMiddleware("vitalnotes-console")
	}

	if _, ok := a.sessions.Current(); ok {
		if err := a.records.List(ctx); err != nil {
			a.logger.Warn(ctx, "patient list not loaded at startup", "error", err)
		}
	}

	e := httpiface.NewConsoleRouter(httpiface.Handlers{
		Session:  httpiface.NewSessionHandler(a.auth, a.sessions, a.policy, a.records, a.logger),
		Patients: httpiface.NewPatientsHandler(a.records),
	}, a.guard, mw)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info(gctx, "starting console", "addr", addr, "auth_mode", string(mode))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info(shutdownCtx, "stopping console")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
