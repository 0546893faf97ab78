package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/milweb-dev/milweb/internal/config"
	"github.com/milweb-dev/milweb/pkg/client"
	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/metrics"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var (
		metricsAddr string
		withMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "watch <buffer|group>...",
		Short: "Log every frame of the given buffers",
		Long: `Subscribe to buffers or groups and log each frame as it arrives.

A group is logged once per round, after every member has its data.
With --metrics, Prometheus metrics are served on /metrics.

Examples:
  milweb watch Display0
  milweb watch Stats Blobs
  milweb watch Inspection --metrics --metrics-addr :9100`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Metrics.Enabled = withMetrics
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			return runWatch(cfg, args)
		},
	}

	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "Serve Prometheus metrics")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics listen address (default from milweb.json)")

	return cmd
}

func runWatch(cfg *config.Config, names []string) error {
	ctx, stop := signalContext()
	defer stop()

	logger := newLogger(cfg)
	var opts []client.Option
	if cfg.Metrics.Enabled {
		collector := metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace))
		opts = append(opts, client.WithObserver(collector))
		srv := metricsServer(cfg.Metrics.Addr, logger)
		defer shutdown(srv)
		info("Metrics on http://%s/metrics", cfg.Metrics.Addr)
	}

	sess := startSession(cfg, logger, opts...)
	defer sess.Close()

	app, err := dial(ctx, sess, cfg)
	if err != nil {
		return err
	}
	handles, err := resolve(ctx, sess, app, names)
	if err != nil {
		return err
	}

	err = sess.Do(ctx, func() {
		for _, h := range handles {
			watchProxy(sess, h, logger)
		}
	})
	if err != nil {
		return err
	}
	success("Watching %d buffers (Ctrl+C to stop)", len(handles))

	select {
	case <-ctx.Done():
		fmt.Println()
		info("Stopping")
	case <-sess.Done():
	}
	return nil
}

// watchProxy hooks the update and error hooks of h. It runs on the loop.
func watchProxy(sess *client.Session, h client.Handle, logger *slog.Logger) {
	p, ok := sess.Lookup(h)
	if !ok {
		return
	}
	if g, ok := p.(*client.Group); ok {
		g.Hook(protocol.HookUpdateEnd, func(protocol.HookType, hook.Info, any) {
			logger.Info("group round", "group", g.Name(), "counter", g.Counter())
			for _, m := range g.Members() {
				if mp, ok := sess.Lookup(m); ok {
					logger.Info("member frame", describe(mp.Snapshot())...)
				}
			}
		}, nil)
		return
	}
	p.Hook(protocol.HookUpdateWeb, func(protocol.HookType, hook.Info, any) {
		logger.Info("frame", describe(p.Snapshot())...)
	}, nil)
	p.Hook(protocol.HookDisconnect, func(protocol.HookType, hook.Info, any) {
		logger.Warn("disconnected", "buffer", p.Name())
	}, nil)
}

// metricsServer serves the default Prometheus registry on addr.
func metricsServer(addr string, logger *slog.Logger) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", "error", err)
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
