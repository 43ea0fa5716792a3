package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SeamusWaldron/cubeturn/internal/analysis"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

var (
	historyLimit  int
	historyStats  bool
	historyFormat string
	historyDelete bool
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show journaled sessions",
	Long: `List recent sessions from the turn journal, or show one session.

The session ID may be "last" for the most recent session.

Examples:
  cubeturn history
  cubeturn history last --stats
  cubeturn history <session-id> --stats --format yaml
  cubeturn history <session-id> --delete`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of sessions to list")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "Show turn statistics")
	historyCmd.Flags().StringVar(&historyFormat, "format", "text", "Stats format: text, json or yaml")
	historyCmd.Flags().BoolVar(&historyDelete, "delete", false, "Delete the session and its turns")
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer rt.Close()

	db, err := rt.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := storage.NewSessionRepository(db)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		list, err := sessions.List(historyLimit)
		if err != nil {
			return err
		}
		printSessionList(out, list)
		return nil
	}

	var s *storage.Session
	if args[0] == "last" {
		s, err = sessions.Latest()
	} else {
		s, err = sessions.Get(args[0])
	}
	if err != nil {
		return err
	}

	if historyDelete {
		if err := sessions.Delete(s.SessionID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted session %s\n", s.SessionID)
		return nil
	}

	turns, err := storage.NewTurnRepository(db).GetBySession(s.SessionID)
	if err != nil {
		return err
	}

	var durationMs int64
	if s.DurationMs != nil {
		durationMs = *s.DurationMs
	}
	summary := analysis.Summarize(s.SessionID, turns, durationMs)

	if historyStats && historyFormat != "text" {
		return writeSummary(out, summary, historyFormat)
	}

	printSession(out, s)
	if historyStats {
		fmt.Fprintln(out)
		printSummary(out, summary)
	}
	return nil
}

func printSessionList(w io.Writer, list []storage.Session) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No sessions recorded yet.")
		return
	}

	fmt.Fprintf(w, "Recent sessions (showing %d):\n\n", len(list))
	fmt.Fprintf(w, "%-36s  %-19s  %-10s  %-8s  %s\n", "ID", "Started", "Duration", "Source", "Scramble")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, s := range list {
		duration := "-"
		if s.DurationMs != nil {
			duration = formatDuration(time.Duration(*s.DurationMs) * time.Millisecond)
		}
		scramble := ""
		if s.ScrambleText != nil {
			scramble = *s.ScrambleText
		}
		fmt.Fprintf(w, "%-36s  %-19s  %-10s  %-8s  %s\n",
			s.SessionID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			s.Source,
			scramble,
		)
	}
}

func printSession(w io.Writer, s *storage.Session) {
	fmt.Fprintf(w, "ID:       %s\n", s.SessionID)
	fmt.Fprintf(w, "Source:   %s\n", s.Source)
	fmt.Fprintf(w, "Started:  %s\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if s.EndedAt != nil {
		fmt.Fprintf(w, "Ended:    %s\n", s.EndedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Seed:     %d\n", s.Seed)
	if s.ScrambleText != nil {
		fmt.Fprintf(w, "Scramble: %s\n", *s.ScrambleText)
	}
	if s.DeviceName != nil {
		fmt.Fprintf(w, "Device:   %s\n", *s.DeviceName)
	}
}

func printSummary(w io.Writer, s *analysis.Summary) {
	fmt.Fprintf(w, "Duration:      %s\n", formatDuration(time.Duration(s.DurationMs)*time.Millisecond))
	fmt.Fprintf(w, "Requests:      %d\n", s.Requests)
	fmt.Fprintf(w, "Committed:     %d\n", s.Committed)
	fmt.Fprintf(w, "Dropped busy:  %d (%.0f%%)\n", s.Busy, s.DropRate*100)
	if s.Recovered > 0 {
		fmt.Fprintf(w, "Recovered:     %d\n", s.Recovered)
	}
	fmt.Fprintf(w, "TPS:           %.2f\n", s.TPS)
	fmt.Fprintf(w, "Longest pause: %s\n", formatDuration(time.Duration(s.LongestPauseMs)*time.Millisecond))
	fmt.Fprintf(w, "Pauses > %.1fs: %d\n", float64(analysis.PauseThresholdMs)/1000, s.PausesOverThresh)

	if len(s.Faces) > 0 {
		fmt.Fprintln(w, "\nFaces:")
		for _, f := range sortedKeys(s.Faces) {
			fmt.Fprintf(w, "  %-7s %d\n", f, s.Faces[f])
		}
	}
	if len(s.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, src := range sortedKeys(s.Sources) {
			fmt.Fprintf(w, "  %-10s %d\n", src, s.Sources[src])
		}
	}
	if len(s.FacePairs) > 0 {
		fmt.Fprintln(w, "\nCommon pairs:")
		for _, p := range s.FacePairs {
			fmt.Fprintf(w, "  %-14s %d\n", p.Pair, p.Count)
		}
	}
}

func writeSummary(w io.Writer, s *analysis.Summary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins*60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}
