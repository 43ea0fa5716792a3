package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubeturn/internal/config"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, journal and device information",
	Long:  `Display the resolved settings, the journal database, the last session and recording, and the last smart cube used.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.cfg
	fmt.Println("cubeturn Status")
	fmt.Println("===============")
	fmt.Println()

	configPath := cfgFile
	if configPath == "" {
		configPath = config.DefaultPath()
		if _, err := os.Stat(configPath); err != nil {
			configPath += " (not found, using defaults)"
		}
	}
	fmt.Printf("Config:         %s\n", configPath)
	fmt.Printf("Animation:      %s + %s safety margin\n", cfg.AnimationTime, cfg.SafetyMargin)
	if cfg.LockTimeout > 0 {
		fmt.Printf("Lock timeout:   %s\n", cfg.LockTimeout)
	} else {
		fmt.Println("Lock timeout:   off")
	}
	fmt.Printf("Easing:         %s\n", cfg.Easing)
	fmt.Printf("Scramble turns: %d\n", cfg.ScrambleTurns)
	fmt.Println()

	// Journal
	fmt.Printf("Database: %s\n", cfg.DBPath)
	if !cfg.Journal {
		fmt.Println("  (journal disabled)")
	}
	db, err := storage.Open(cfg.DBPath)
	if err == nil {
		defer db.Close()
		if v, err := db.Version(); err == nil {
			fmt.Printf("Schema version: %d\n", v)
		}
		sessions, _ := storage.NewSessionRepository(db).List(10000)
		fmt.Printf("Total sessions: %d\n", len(sessions))
		if len(sessions) > 0 {
			fmt.Printf("Last session:   %s (%s)\n", sessions[0].SessionID, sessions[0].StartedAt.Local().Format(time.RFC3339))
		}
	} else {
		fmt.Printf("  unavailable: %v\n", err)
	}
	fmt.Println()

	stateFile, err := rt.openState()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	state := stateFile.State()

	if state.LastLogPath != "" {
		fmt.Printf("Last recording: %s\n", state.LastLogPath)
		fmt.Println("  (Use 'cubeturn replay' to replay it)")
	} else {
		fmt.Println("No recordings yet")
	}
	fmt.Println()

	if state.LastDeviceID != "" {
		fmt.Printf("Last device: %s (%s)\n", state.LastDeviceName, state.LastDeviceID)
	} else {
		fmt.Println("No device history")
		fmt.Println()
		fmt.Println("Tips:")
		fmt.Println("  - Run 'cubeturn scan' with your GoCube awake")
		fmt.Println("  - Then 'cubeturn play --device'")
	}
	return nil
}
