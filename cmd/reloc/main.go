package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reloc/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reloc",
	Short: "reloc - make prebuilt bundles run from wherever they were unpacked",
	Long: `reloc rewrites the install prefix baked into a prebuilt software bundle.

Known text files get a straight substitution. Binaries are patched in
place without shifting a single byte: a shorter prefix is NUL padded to
the width of the old one, and a longer prefix is skipped with a warning
rather than risk corrupting the binary.

Configuration lives in reloc.yaml (see --config); RELOC_* environment
variables take precedence over the file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = buildLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildLogger builds the process logger from the config with the global
// flags layered on top.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(parsed)
	}

	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}
	if format == "text" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	return zc.Build()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "reloc.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or text (default from config)")

	// Add commands to root
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
