// serve command: gRPC Reference service plus the observability listener
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/nainya/swornref/internal/metrics"
	"github.com/nainya/swornref/internal/server"
	"github.com/nainya/swornref/pkg/registry"
)

const (
	maxMsgSize      = 100 * 1024 * 1024 // 100 MB; whole ruleset roots can be large
	shutdownTimeout = 10 * time.Second
)

func (a *app) serveCmd() *cobra.Command {
	var (
		watch       bool
		grpcPort    int
		metricsPort int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Reference gRPC service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("grpc-port") {
				a.cfg.Server.GRPCPort = grpcPort
			}
			if cmd.Flags().Changed("metrics-port") {
				a.cfg.Server.MetricsPort = metricsPort
			}
			return a.serve(cmd, watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Reload a document when its file changes")
	cmd.Flags().IntVar(&grpcPort, "grpc-port", 0, "gRPC port (overrides config)")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Metrics and health port (overrides config)")
	return cmd
}

func (a *app) serve(cmd *cobra.Command, watch bool) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := a.cfg.Server.GRPCPort
	a.log.LogServerStart(port, a.cfg.DataDir)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on :%d: %w", port, err)
	}
	defer lis.Close()

	m := metrics.NewMetrics()
	reg := a.newRegistry(m)
	srv := server.NewServer(reg, m, a.log)
	grpcServer := server.NewGRPCServer(srv,
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	)
	obs := server.NewObservabilityServer(a.cfg.Server.MetricsPort, m, reg.Loaded, a.log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(obs.Start)

	// Load, then serve; /ready reports loading until the corpus is in
	g.Go(func() error {
		if err := a.load(gctx, cmd, reg); err != nil {
			return err
		}
		a.log.LogServerReady(port, reg.Len())

		if watch {
			w := registry.NewWatcher(reg, a.cfg.DataDir, a.log.Zerolog())
			g.Go(func() error { return w.Run(gctx) })
		}

		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.LogServerShutdown()
		grpcServer.GracefulStop()
		a.log.Info("gRPC server stopped").Dur("uptime", srv.Uptime()).Send()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return obs.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
