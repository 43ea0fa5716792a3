package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubeturn/internal/ble"
	"github.com/SeamusWaldron/cubeturn/internal/input"
	"github.com/SeamusWaldron/cubeturn/internal/protocol"
)

var (
	monitorAddress string
	monitorRaw     bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print frames received from a smart cube",
	Long: `Connect to a GoCube and print every frame it sends, with rotations
decoded to the face they turn on the virtual cube. Useful for checking the
color-to-face mapping before playing with --device.

Press Ctrl+C to exit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorAddress, "address", "", "Cube address (default: last used, then first found)")
	monitorCmd.Flags().BoolVar(&monitorRaw, "raw", false, "Also print raw frames (base64)")
}

var (
	frameColor    = color.New(color.FgCyan)
	rotationColor = color.New(color.FgGreen, color.Bold)
)

func runMonitor(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	last := ""
	if stateFile, err := rt.openState(); err == nil {
		last = stateFile.State().LastDeviceID
	}

	client, err := ble.NewClient(rt.log.WithField("component", "ble"))
	if err != nil {
		return fmt.Errorf("BLE not available: %w", err)
	}

	out := cmd.OutOrStdout()
	start := time.Now()
	client.OnFrame(func(f *protocol.Frame) {
		printFrame(out, time.Since(start), f, monitorRaw)
	})

	if err := connectCube(ctx, client, monitorAddress, last); err != nil {
		return err
	}
	defer client.Disconnect()

	fmt.Fprintf(out, "Connected to %s (%s)\n", client.DeviceName(), client.Address())
	fmt.Fprintln(out, "Turn the cube to see frames. Press Ctrl+C to exit.")
	fmt.Fprintln(out)

	<-ctx.Done()
	fmt.Fprintln(out, "\nDisconnecting...")
	return nil
}

// printFrame writes one line per frame, plus one per decoded rotation.
func printFrame(w io.Writer, at time.Duration, f *protocol.Frame, raw bool) {
	frameColor.Fprintf(w, "[%8.3fs] %-10s", at.Seconds(), protocol.TypeName(f.Type))
	if raw {
		fmt.Fprintf(w, " %s", f.Raw)
	}
	fmt.Fprintln(w)

	switch f.Type {
	case protocol.TypeRotation:
		events, err := protocol.DecodeRotation(f.Payload)
		if err != nil {
			fmt.Fprintf(w, "             bad rotation: %v\n", err)
			return
		}
		for _, ev := range events {
			face, dir, err := input.FromRotation(ev)
			if err != nil {
				fmt.Fprintf(w, "             %v\n", err)
				continue
			}
			rotationColor.Fprintf(w, "             %s %s -> %s %s\n",
				ev.Color, clockwiseName(ev.Clockwise), face, dir)
		}
	case protocol.TypeBattery:
		if b, err := protocol.DecodeBattery(f.Payload); err == nil {
			fmt.Fprintf(w, "             battery %d%%\n", b.Level)
		}
	}
}

func clockwiseName(cw bool) string {
	if cw {
		return "clockwise"
	}
	return "counter-clockwise"
}
