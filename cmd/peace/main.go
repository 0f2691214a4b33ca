// Command peace drives the re-encryption protocol from the shell: digest
// and hop decryption helpers, witness-derivation and witness-commit
// proofs, the setup ceremony and a local asset store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK     = 0
	exitCrypto = 1
	exitUsage  = 2
	exitSetup  = 3
)

const (
	logLevelKey  = "log-level"
	logOutputKey = "log-output"
)

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "peace",
		Short:         "Proxy re-encryption over BLS12-381",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			level, err := c.Flags().GetString(logLevelKey)
			if err != nil {
				return err
			}
			output, err := c.Flags().GetString(logOutputKey)
			if err != nil {
				return err
			}
			switch level {
			case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
			default:
				return usageError("invalid log level %q", level)
			}
			log.Init(level, output, nil)
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.String(logLevelKey, config.LogLevel(), "log level (debug, info, warn, error)")
	flags.String(logOutputKey, "stderr", "log output (stdout, stderr or a file path)")

	root.AddCommand(
		hashCommand(),
		decryptHopCommand(),
		registerCommand(),
		proveCommand(),
		verifyCommand(),
		setupCommand(),
		ceremonyCommand(),
		assetCommand(),
	)
	return root
}

// usageError marks a command line mistake so that it exits with the usage
// status.
func usageError(format string, args ...any) error {
	return types.ErrInvalidArgument.Withf(format, args...)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch types.Class(err) {
	case 2:
		return exitCrypto
	case 3:
		return exitSetup
	default:
		return exitUsage
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	cancel()
	os.Exit(exitCode(err))
}
