package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubeturn"
	"github.com/SeamusWaldron/cubeturn/internal/recorder"
)

var replayCmd = &cobra.Command{
	Use:   "replay [log-file]",
	Short: "Replay a recorded session log",
	Long: `Rebuild a recorded session by feeding its logged input back into a
fresh cube, then print the final state.

If no log file is given, the most recent recording is replayed. A bare file
name is looked up in the recording directory.

Usage:
  cubeturn replay                          # Replay the last session
  cubeturn replay session_20260101_120000.jsonl
  cubeturn replay --list                   # List recordings`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

var (
	replayList   bool
	replayFormat string
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVarP(&replayList, "list", "l", false, "List recorded session logs")
	replayCmd.Flags().StringVar(&replayFormat, "format", "text", "Output format: text, json or yaml")
}

func runReplay(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer rt.Close()

	if replayList {
		return listLogs(rt.cfg.RecordDir)
	}

	var path string
	if len(args) > 0 {
		path = resolveLogPath(rt.cfg.RecordDir, args[0])
	} else {
		stateFile, err := rt.openState()
		if err != nil {
			return err
		}
		path = stateFile.State().LastLogPath
		if path == "" {
			return errors.New("no recorded session yet; run 'cubeturn play' first")
		}
	}

	log, err := recorder.LoadLog(path)
	if err != nil {
		return err
	}

	g, stats, err := cubeturn.Replay(log, cubeturn.WithLogger(rt.log), cubeturn.WithVerify(true))
	if err != nil {
		return err
	}
	if err := g.Verify(); err != nil {
		return fmt.Errorf("replayed cube is inconsistent: %w", err)
	}

	out := cmd.OutOrStdout()
	if replayFormat == "text" {
		fmt.Fprintf(out, "Replayed %s\n", filepath.Base(path))
		if log.Header.SessionID != "" {
			fmt.Fprintf(out, "Session:  %s\n", log.Header.SessionID)
		}
		fmt.Fprintf(out, "Entries:  %d (%d committed, %d busy, %d ignored)\n",
			stats.Entries, stats.Committed, stats.Busy, stats.Ignored)
		fmt.Fprintf(out, "Mode:     %s\n\n", g.Mode())
	}
	return writeSnapshot(out, g, replayFormat)
}

// resolveLogPath looks a bare name up in dir unless it exists as given.
func resolveLogPath(dir, name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(dir, name)
}

func listLogs(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "session_*.jsonl"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Printf("No recordings in %s\n", dir)
		return nil
	}

	// Names embed the start time, so name order is time order; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	fmt.Printf("Recordings in %s:\n\n", dir)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		fmt.Printf("  %-40s %8d bytes\n", filepath.Base(m), info.Size())
	}
	return nil
}
