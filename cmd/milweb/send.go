package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/milweb-dev/milweb/internal/config"
	"github.com/milweb-dev/milweb/internal/errors"
	"github.com/milweb-dev/milweb/pkg/client"
)

func sendCmd(flags *globalFlags) *cobra.Command {
	var (
		tag    int64
		file   string
		binary bool
	)

	cmd := &cobra.Command{
		Use:   "send <mailbox> [text]",
		Short: "Write a message to a mailbox",
		Long: `Write a text or binary message to a read-write mailbox.

The message is the second argument, or the contents of --file. Text
longer than the mailbox is truncated by the server.

Examples:
  milweb send Commands "start"
  milweb send Commands --tag 7 "reset"
  milweb send Recipe --binary --file recipe.bin`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			var payload any
			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if binary {
					payload = data
				} else {
					payload = string(data)
				}
			case len(args) == 2:
				if binary {
					payload = []byte(args[1])
				} else {
					payload = args[1]
				}
			default:
				return errors.New("E122").WithDetail("No message given").
					WithSuggestion("Pass the text as an argument or use --file")
			}
			return runSend(cfg, args[0], payload, tag)
		},
	}

	cmd.Flags().Int64Var(&tag, "tag", 0, "Message tag")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the message from a file")
	cmd.Flags().BoolVar(&binary, "binary", false, "Send a binary message")

	return cmd
}

func runSend(cfg *config.Config, name string, payload any, tag int64) error {
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
	ctx, cancel := context.WithTimeout(ctx, 2*timeout)
	defer cancel()
	mailbox, err := waitMailbox(ctx, sess, h)
	if err != nil {
		return err
	}
	if !mailbox {
		return errors.New("E144").WithDetail(name)
	}

	err = sess.Do(ctx, func() {
		sess.MessageWrite(h, payload, -1, tag, 0)
	})
	if err != nil {
		return err
	}
	success("Message sent to %s", name)
	return nil
}

// waitMailbox waits until h has its object info and reports whether it
// is a writable mailbox.
func waitMailbox(ctx context.Context, sess *client.Session, h client.Handle) (bool, error) {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		var ready, writable bool
		err := sess.Do(ctx, func() {
			p, ok := sess.Lookup(h)
			if !ok {
				return
			}
			m, ok := p.(*client.Message)
			if !ok {
				ready = true
				return
			}
			ready = m.Initialized()
			writable = m.Writable()
		})
		if err != nil {
			return false, err
		}
		if ready {
			return writable, nil
		}
		select {
		case <-ctx.Done():
			return false, errors.New("E142").WithDetail("No object info for the mailbox")
		case <-tick.C:
		}
	}
}
