// Package cli implements the command-line interface for cubeturn.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubeturn/internal/config"
	"github.com/SeamusWaldron/cubeturn/internal/logging"
	"github.com/SeamusWaldron/cubeturn/internal/recorder"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

const version = "0.1.0"

var (
	// Global flags
	cfgFile string
	dbPath  string
	verbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "cubeturn",
	Short: "3x3x3 rotating-cube puzzle",
	Long: `cubeturn - a 3x3x3 rotating-cube puzzle for the terminal.

Turn faces from the keyboard, with the mouse, or by mirroring a GoCube
smart cube over Bluetooth. Every turn is journaled, and every session can
be recorded to a log and replayed exactly.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.cubeturn/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Journal database path (default: ~/.cubeturn/cubeturn.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// runtime is what every command resolves before doing work.
type runtime struct {
	cfg    *config.Config
	log    *logrus.Logger
	closer io.Closer
}

// setup loads configuration and builds the logger. Logs go to the configured
// file, else to logFile, else to console.
func setup(console io.Writer, logFile string) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = logFile
	}

	log, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: console,
	})
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, log: log, closer: closer}, nil
}

func (r *runtime) Close() error {
	return r.closer.Close()
}

// openJournal opens the turn journal.
func (r *runtime) openJournal() (*storage.DB, error) {
	db, err := storage.Open(r.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return db, nil
}

// defaultLogFile is where logs go while a terminal UI owns the screen.
func defaultLogFile() string {
	return filepath.Join(config.Dir(), "logs", "cubeturn.log")
}

// openState opens the state file next to the journal.
func (r *runtime) openState() (*recorder.StateFile, error) {
	return recorder.OpenStateFile(filepath.Join(config.Dir(), "state.json"))
}
