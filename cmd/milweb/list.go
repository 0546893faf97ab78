package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/milweb-dev/milweb/pkg/client"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

func listCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published buffers",
		Long: `Connect to the exchange server and print the buffers it publishes,
with their type and group.

Examples:
  milweb list
  milweb list --url ws://inspector:7681`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), flags)
		},
	}
	return cmd
}

func runList(ctx context.Context, flags *globalFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	sess := startSession(cfg, newLogger(cfg))
	defer sess.Close()

	app, err := dial(ctx, sess, cfg)
	if err != nil {
		return err
	}

	var (
		server  protocol.ConnectionInfo
		entries []protocol.BufferEntry
	)
	err = sess.Do(ctx, func() {
		server = app.ServerInfo()
		entries = append(entries, app.BufferList()...)
	})
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ExchangeBufferId < entries[j].ExchangeBufferId
	})

	fmt.Printf("\n  %s (pid %d, client %d)\n\n", server.ServerProcessName, server.ServerProcessId, server.ClientId)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tTYPE\tGROUP")
	for _, e := range entries {
		group := e.ExchangeGroupId
		if group == "" {
			group = "-"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", e.ExchangeBufferId, e.BufferType, group)
	}
	w.Flush()
	fmt.Println()
	success("%d buffers published", len(entries))
	return nil
}

// describe formats a proxy snapshot for logs.
func describe(s client.Snapshot) []any {
	attrs := []any{"buffer", s.Name, "serial", s.Serial, "bytes", len(s.Data)}
	if s.Group != "" {
		attrs = append(attrs, "group", s.Group, "group_counter", s.GroupCounter)
	}
	if s.Width > 0 {
		attrs = append(attrs, "size", fmt.Sprintf("%dx%d", s.Width, s.Height))
	}
	return attrs
}
