package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/charliek/objstore/internal/config"
	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/logger"
	"github.com/charliek/objstore/internal/ui"
	"github.com/charliek/objstore/internal/version"
)

var (
	// Global flags
	cfgFile        string
	verbose        bool
	jsonOut        bool
	nonInteractive bool

	// Shared state
	cfg    *config.Config
	output *ui.Output
	log    = zap.NewNop()

	// Output streams, replaced in tests
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "objstore",
	Short: "Upload, download, delete, check and list objects in a bucket",
	Long: `objstore is a CLI tool for working with the objects of a single bucket.

The bucket lives in Google Cloud Storage, Amazon S3, a MinIO server, or a
local directory, selected in the config file. Every command goes through
the same facade: upload, download, delete, exists and list.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize output handler
		output = ui.NewOutputWithWriters(stdout, stderr, verbose, jsonOut)

		// Set non-interactive mode
		ui.SetNonInteractive(nonInteractive)

		// Skip config loading for commands that don't need it
		if !needsConfig(cmd) {
			return initLogger(nil)
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		return initLogger(&cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// needsConfig returns true if the command requires configuration
func needsConfig(cmd *cobra.Command) bool {
	// Commands that don't need config
	noConfigCmds := map[string]bool{
		"encode":     true,
		"doctor":     true,
		"help":       true,
		"completion": true,
		"version":    true,
	}

	return !noConfigCmds[cmd.Name()]
}

// initLogger builds the diagnostic logger; --verbose forces debug level
func initLogger(logCfg *logger.Config) error {
	c := logger.Config{}
	if logCfg != nil {
		c = *logCfg
	}
	if verbose {
		c.Level = "debug"
	}

	l, err := logger.New(&c)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Debug("command failed", zap.String("kind", domain.KindOf(err)), zap.Error(err))

		// Print error if output is available
		if output != nil {
			output.Error("%v", err)
		} else {
			// Fallback if output isn't initialized
			ui.NewOutputWithWriters(stdout, stderr, false, false).Error("%v", err)
		}

		// Return exit code error
		return domain.WrapWithExitCode(err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.objstore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "disable interactive prompts (for CI/CD)")

	// Set version template
	rootCmd.SetVersionTemplate("objstore {{.Version}}\n")

	// Add commands
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(existsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfig returns the loaded configuration (for use by subcommands)
func GetConfig() *config.Config {
	return cfg
}

// GetOutput returns the output handler (for use by subcommands)
func GetOutput() *ui.Output {
	return output
}

// GetLogger returns the diagnostic logger (for use by subcommands)
func GetLogger() *zap.Logger {
	return log
}

// signalContext returns a context that is cancelled on SIGINT, SIGTERM, or timeout
func signalContext() (context.Context, context.CancelFunc) {
	// Create context with timeout
	ctx, timeoutCancel := context.WithTimeout(context.Background(), constants.DefaultOperationTimeout)

	// Create cancellable context for signal handling
	ctx, signalCancel := context.WithCancel(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-c:
			signalCancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
		// Drain any pending signal to prevent goroutine leak
		select {
		case <-c:
		default:
		}
	}()

	// Return a combined cancel function
	return ctx, func() {
		signalCancel()
		timeoutCancel()
	}
}
