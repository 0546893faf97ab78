package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/milweb-dev/milweb/internal/config"
	"github.com/milweb-dev/milweb/internal/errors"
	"github.com/milweb-dev/milweb/pkg/client"
)

// loadConfig reads milweb.json and applies command-line overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flags.configDir)
	if err != nil {
		return nil, err
	}
	if flags.url != "" {
		cfg.URL = flags.url
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if flags.fps > 0 {
		cfg.FPS = flags.fps
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// clientConfig converts the file configuration into a session config.
func clientConfig(cfg *config.Config) *client.Config {
	cc := client.DefaultConfig()
	cc.ClientName = cfg.ClientName
	cc.FramesPerSecond = int64(cfg.FPS)
	cc.Debug = cfg.Debug
	if d, err := cfg.Handshake(); err == nil {
		cc.HandshakeTimeout = d
	}
	return cc
}

// startSession creates and starts a session.
func startSession(cfg *config.Config, logger *slog.Logger, opts ...client.Option) *client.Session {
	opts = append([]client.Option{client.WithLogger(logger)}, opts...)
	sess := client.NewSession(clientConfig(cfg), opts...)
	sess.Start()
	return sess
}

// dial opens the application connection and waits for the object list.
func dial(ctx context.Context, sess *client.Session, cfg *config.Config) (*client.App, error) {
	timeout, _ := cfg.Handshake()
	ctx, cancel := context.WithTimeout(ctx, 2*timeout)
	defer cancel()

	app, err := sess.Connect(ctx, cfg.URL)
	switch {
	case err == nil:
		return app, nil
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.New("E142").WithDetail("No object list from " + cfg.URL)
	case stderrors.Is(err, client.ErrVersionMismatch):
		return nil, errors.New("E061").Wrap(err)
	default:
		return nil, errors.New("E060").WithDetail(cfg.URL).Wrap(err)
	}
}

// resolve connects the named buffers or groups.
func resolve(ctx context.Context, sess *client.Session, app *client.App, names []string) ([]client.Handle, error) {
	handles := make([]client.Handle, len(names))
	missing := ""
	err := sess.Do(ctx, func() {
		for i, name := range names {
			handles[i] = app.Connect(name)
			if handles[i] == client.Null && missing == "" {
				missing = name
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if missing != "" {
		return nil, errors.New("E140").WithDetail("Unknown buffer: " + missing).
			WithSuggestion("Run 'milweb list' to see published buffers")
	}
	return handles, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
