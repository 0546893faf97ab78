package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/milweb-dev/milweb/internal/config"
	"github.com/milweb-dev/milweb/internal/errors"
	"github.com/milweb-dev/milweb/pkg/canvas"
	"github.com/milweb-dev/milweb/pkg/client"
)

func inputCmd(flags *globalFlags) *cobra.Command {
	var (
		file  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "input <display>",
		Short: "Replay input events on an interactive display",
		Long: `Read input events as JSON lines and replay them on a display.

Each line is an event such as
  {"kind":"mousedown","button":0,"x":120,"y":40}
  {"kind":"wheel","deltaY":-100,"x":120,"y":40,"ctrl":true}
  {"kind":"touchstart","touches":[{"x":10,"y":10},{"x":60,"y":60}]}

Events are only forwarded while the display is interactive.

Examples:
  milweb input Display0 --file clicks.jsonl
  cat zoom.jsonl | milweb input Display0 --delay 50ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			var r io.Reader = os.Stdin
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			return runInput(cfg, args[0], r, delay)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read events from a file instead of stdin")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between events")

	return cmd
}

// readInputs decodes one canvas.Input per non-empty line.
func readInputs(r io.Reader) ([]canvas.Input, error) {
	var out []canvas.Input
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var in canvas.Input
		if err := json.Unmarshal(sc.Bytes(), &in); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, in)
	}
	return out, sc.Err()
}

func runInput(cfg *config.Config, name string, r io.Reader, delay time.Duration) error {
	inputs, err := readInputs(r)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	sess := startSession(cfg, newLogger(cfg))
	defer sess.Close()

	app, err := dial(ctx, sess, cfg)
	if err != nil {
		return err
	}
	handles, err := resolve(ctx, sess, app, []string{name})
	if err != nil {
		return err
	}
	h := handles[0]

	timeout, _ := cfg.Handshake()
	waitCtx, cancel := context.WithTimeout(ctx, 2*timeout)
	defer cancel()
	bridge, err := selectSurface(waitCtx, sess, h)
	if err != nil {
		return err
	}
	if bridge == nil {
		return errors.New("E145").WithDetail(name)
	}

	sent := 0
	for _, in := range inputs {
		var applyErr error
		err := sess.Do(ctx, func() { applyErr = bridge.Apply(in) })
		if err != nil {
			return err
		}
		if applyErr != nil {
			warn("%v", applyErr)
			continue
		}
		sent++
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
		}
	}
	success("Replayed %d events on %s", sent, name)
	return nil
}

// selectSurface waits for the display h to be initialized and interactive,
// then selects an off-screen surface on it. It returns nil when h is not
// a display.
func selectSurface(ctx context.Context, sess *client.Session, h client.Handle) (*canvas.Bridge, error) {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		var (
			bridge *canvas.Bridge
			done   bool
		)
		err := sess.Do(ctx, func() {
			p, ok := sess.Lookup(h)
			if !ok {
				done = true
				return
			}
			d, ok := p.(*client.Display)
			if !ok {
				done = true
				return
			}
			if d.Initialized() && d.Interactive() {
				bridge = sess.DispSelectSurface(h, canvas.NewSurface(0, 0))
				done = true
			}
		})
		if err != nil {
			return nil, err
		}
		if done {
			return bridge, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.New("E142").WithDetail("Display did not become interactive")
		case <-tick.C:
		}
	}
}
