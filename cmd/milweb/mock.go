package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/milweb-dev/milweb/internal/config"
	"github.com/milweb-dev/milweb/internal/mockserver"
)

// Names of the buffers published by the mock server.
const (
	mockDisplay = "Display0"
	mockGroup   = "Inspection"
	mockTop     = "Top"
	mockSide    = "Side"
	mockStats   = "Stats"
	mockInbox   = "Commands"
	mockOutbox  = "Results"
)

func mockCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run a local mock exchange server",
		Long: `Start a mock exchange server publishing synthetic buffers:

  Display0     interactive RGB32 display with a moving gradient
  Inspection   group of the Top and Side Mono8 images
  Stats        array of frame statistics
  Commands     writable text mailbox
  Results      read-only text mailbox

Examples:
  milweb mock
  milweb mock --addr :7681 --fps 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Mock.Addr = addr
			}
			if flags.fps > 0 {
				cfg.Mock.FPS = flags.fps
			}
			return runMock(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from milweb.json)")

	return cmd
}

func mockBuffers(cfg *config.Config) []mockserver.Buffer {
	w, h := int64(cfg.Mock.Width), int64(cfg.Mock.Height)
	return []mockserver.Buffer{
		mockserver.Display(mockDisplay, w, h),
		mockserver.Image(mockTop, mockGroup, w, h),
		mockserver.Image(mockSide, mockGroup, w/2, h/2),
		mockserver.Array(mockStats, "", 2, 1),
		mockserver.Mailbox(mockInbox, 256, true, true),
		mockserver.Mailbox(mockOutbox, 256, false, true),
	}
}

func runMock(cfg *config.Config) error {
	ctx, stop := signalContext()
	defer stop()

	logger := newLogger(cfg)
	srv := mockserver.New(mockBuffers(cfg), mockserver.WithLogger(logger))
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	printBanner()
	fmt.Println()
	success("Mock server on ws://%s", cfg.Mock.Addr)
	info("Buffers: %s, %s (%s, %s), %s, %s, %s",
		mockDisplay, mockGroup, mockTop, mockSide, mockStats, mockInbox, mockOutbox)
	info("Press Ctrl+C to stop")

	go animate(ctx, srv, cfg)

	select {
	case <-ctx.Done():
		fmt.Println()
		info("Shutting down...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	success("Server stopped")
	return nil
}

// animate publishes a new frame on every buffer at the configured rate.
func animate(ctx context.Context, srv *mockserver.Server, cfg *config.Config) {
	fps := cfg.Mock.FPS
	if fps <= 0 {
		fps = 1
	}
	w, h := cfg.Mock.Width, cfg.Mock.Height
	tick := time.NewTicker(time.Second / time.Duration(fps))
	defer tick.Stop()

	for frame := 1; ; frame++ {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		srv.Publish(mockDisplay, mockserver.Pattern(w, h, frame))
		srv.PublishGroup(mockGroup, map[string][]byte{
			mockTop:  mono(w, h, frame),
			mockSide: mono(w/2, h/2, frame*2),
		})

		stats := make([]byte, 8)
		binary.LittleEndian.PutUint32(stats, uint32(frame))
		binary.LittleEndian.PutUint32(stats[4:], uint32(w*h))
		srv.Publish(mockStats, stats)

		if frame%fps == 0 {
			srv.Publish(mockOutbox, []byte(fmt.Sprintf("frame %d ok", frame)))
		}
	}
}

// mono returns a Mono8 frame with a diagonal gradient.
func mono(width, height, frame int) []byte {
	data := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = byte(x + y + frame)
		}
	}
	return data
}
