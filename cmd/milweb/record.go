package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/milweb-dev/milweb/internal/config"
	"github.com/milweb-dev/milweb/internal/errors"
	"github.com/milweb-dev/milweb/pkg/record"
)

func recordCmd(flags *globalFlags) *cobra.Command {
	var (
		sink   string
		path   string
		bucket string
		prefix string
		queue  int
	)

	cmd := &cobra.Command{
		Use:   "record <buffer|group>...",
		Short: "Record frames to a bbolt file or an S3 bucket",
		Long: `Subscribe to buffers or groups and store every frame.

The bolt sink keeps one bucket per buffer, keyed by serial. The s3 sink
uploads images and displays as PNG, text mailboxes as .txt and anything
else as raw bytes.

Examples:
  milweb record Display0 --path frames.db
  milweb record Inspection --sink s3 --bucket qa-frames --prefix line4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if sink != "" {
				cfg.Record.Sink = sink
			}
			if path != "" {
				cfg.Record.Path = path
			}
			if bucket != "" {
				cfg.Record.Bucket = bucket
			}
			if prefix != "" {
				cfg.Record.Prefix = prefix
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runRecord(cfg, args, queue)
		},
	}

	cmd.Flags().StringVar(&sink, "sink", "", "Sink: bolt or s3 (default from milweb.json)")
	cmd.Flags().StringVar(&path, "path", "", "Bolt database file")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket")
	cmd.Flags().StringVar(&prefix, "prefix", "", "S3 key prefix")
	cmd.Flags().IntVar(&queue, "queue", record.DefaultQueueSize, "Frames buffered before dropping")

	return cmd
}

// openSink builds the sink selected by cfg.
func openSink(cfg *config.Config) (record.Sink, string, error) {
	switch cfg.Record.Sink {
	case config.SinkS3:
		client := record.NewS3Client(cfg.Record.Region, cfg.Record.Endpoint)
		return record.NewS3Sink(client, cfg.Record.Bucket, cfg.Record.Prefix),
			fmt.Sprintf("s3://%s/%s", cfg.Record.Bucket, cfg.Record.Prefix), nil
	default:
		sink, err := record.OpenBolt(cfg.Record.Path)
		if err != nil {
			return nil, "", errors.New("E143").WithDetail(cfg.Record.Path).Wrap(err)
		}
		return sink, cfg.Record.Path, nil
	}
}

func runRecord(cfg *config.Config, names []string, queue int) error {
	ctx, stop := signalContext()
	defer stop()

	logger := newLogger(cfg)
	sess := startSession(cfg, logger)
	defer sess.Close()

	app, err := dial(ctx, sess, cfg)
	if err != nil {
		return err
	}
	handles, err := resolve(ctx, sess, app, names)
	if err != nil {
		return err
	}

	sink, where, err := openSink(cfg)
	if err != nil {
		return err
	}
	rec := record.New(sess, sink, record.WithLogger(logger), record.WithQueueSize(queue))
	for _, h := range handles {
		if err := rec.Attach(ctx, h); err != nil {
			rec.Close()
			return err
		}
	}
	success("Recording %d buffers to %s (session %s)", len(handles), where, rec.ID())

	start := time.Now()
	select {
	case <-ctx.Done():
		fmt.Println()
	case <-sess.Done():
	}
	if err := rec.Close(); err != nil {
		warn("Closing sink: %v", err)
	}
	info("%d frames written, %d dropped, %d failed in %s",
		rec.Written(), rec.Dropped(), rec.Failed(), time.Since(start).Round(time.Second))
	return nil
}
