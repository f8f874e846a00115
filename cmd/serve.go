package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"jobmate/digest-service/internal/api"
	"jobmate/digest-service/internal/grpcserver"
	"jobmate/digest-service/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the HTTP API",
	Long:  "Runs every profile once at startup and then on the configured schedule, and serves digests and reports over HTTP.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCommand)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		runner grpcserver.Runner = a.worker
		health *grpcserver.Server
		lis    net.Listener
	)
	if a.cfg.GRPCPort != "" {
		lis, err = net.Listen("tcp", fmt.Sprintf(":%s", a.cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		health = grpcserver.NewServer(a.profiles, a.log)
		runner = health.Track(a.worker)
	}

	sched := scheduler.New(runner, a.profiles, a.cfg.Schedule(), a.log)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	h := api.NewHandler(ctx, a.profiles, a.digests, runner, a.reports.Dir(), a.log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", a.cfg.Port),
		Handler:      api.NewServer(h, a.log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", "version", version, "port", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if health != nil {
		g.Go(func() error {
			if err := health.Serve(lis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("shutdown error", "err", err)
		}
		if health != nil {
			health.Stop()
		}
		sched.Stop()
		h.Wait()
		return nil
	})

	err = g.Wait()
	a.log.Info("stopped")
	return err
}
