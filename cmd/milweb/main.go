package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milweb-dev/milweb/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╦╗┬┬  ╦ ╦┌─┐┌┐
  ║║║││  ║║║├┤ ├┴┐
  ╩ ╩┴┴─┘╚╩╝└─┘└─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	configDir string
	url       string
	logLevel  string
	logFormat string
	fps       int
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "milweb",
		Short: "Inspect and record objects published by a MIL exchange server",
		Long: `milweb connects to an exchange server over WebSocket and follows the
displays, images, arrays and mailboxes it publishes.

  • List published buffers and groups
  • Watch buffers and log every frame
  • Record frames to a bbolt file or an S3 bucket
  • Write messages to mailboxes
  • Replay input events on interactive displays
  • Run a local mock server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configDir, "config", "c", ".", "Directory containing milweb.json")
	pf.StringVarP(&flags.url, "url", "u", "", "Exchange server URL (default from milweb.json)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.IntVar(&flags.fps, "fps", 0, "Poll rate in frames per second")

	rootCmd.AddCommand(
		listCmd(&flags),
		watchCmd(&flags),
		recordCmd(&flags),
		sendCmd(&flags),
		inputCmd(&flags),
		mockCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
