package cmd

import (
	"fmt"
	"os"

	"github.com/abhisek/mathibot/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger

	verbose    bool
	configPath string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "mathibot",
	Short: "Math tutoring chat for students",
	Long:  "MathiBot answers math questions in Spanish, walks students through exercises and quotes curriculum lessons.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if logFile != "" {
			if err := store.EnsureDir(logFile); err != nil {
				return fmt.Errorf("prepare log file: %w", err)
			}
			config.OutputPaths = []string{logFile}
			config.ErrorOutputPaths = []string{logFile}
		}
		var err error
		logger, err = config.Build()
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
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MATHIBOT_DB env var)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (overrides MATHIBOT_CONFIG env var)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	addChatFlags(rootCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then MATHIBOT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolveConfigPath returns --config, then MATHIBOT_CONFIG. Empty means
// built-in defaults.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return os.Getenv("MATHIBOT_CONFIG")
}

// tuiLogger keeps log lines off the terminal while the TUI owns it.
func tuiLogger() *zap.Logger {
	if logFile == "" {
		return zap.NewNop()
	}
	return logger
}
