package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubeturn/internal/ble"
)

var (
	scanTimeout  time.Duration
	scanAttempts int
	scanFlash    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for GoCube smart cubes",
	Long: `Scan for GoCube smart cubes over Bluetooth and list them.

Use the listed address with 'cubeturn play --device --address <addr>'.
With --flash, connects to the first cube found and flashes its lights.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Second, "Scan duration per attempt")
	scanCmd.Flags().IntVar(&scanAttempts, "attempts", 3, "Scan attempts before giving up")
	scanCmd.Flags().BoolVar(&scanFlash, "flash", false, "Flash the first cube found")
}

func runScan(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer rt.Close()

	client, results, err := ScanWithRetry(cmd.Context(), rt.log, scanTimeout, scanAttempts)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No GoCube found. Make sure the cube is awake (turn a face).")
		return nil
	}

	fmt.Printf("\n%-20s  %-20s  %s\n", "Name", "Address", "RSSI")
	for _, r := range results {
		fmt.Printf("%-20s  %-20s  %d dBm\n", r.Name, r.Address, r.RSSI)
	}

	if !scanFlash {
		return nil
	}
	if err := client.ConnectTo(results[0]); err != nil {
		return err
	}
	defer client.Disconnect()

	if err := client.FlashBacklight(); err != nil {
		return err
	}
	fmt.Printf("\nFlashed %s\n", results[0].Name)

	stateFile, err := rt.openState()
	if err == nil {
		err = stateFile.SetLastDevice(results[0].Address, results[0].Name)
	}
	if err != nil {
		rt.log.WithError(err).Warn("failed to remember device")
	}
	return nil
}

// ScanWithRetry scans for cubes up to maxAttempts times, stopping at the
// first attempt that finds one.
func ScanWithRetry(ctx context.Context, log logrus.FieldLogger, timeout time.Duration, maxAttempts int) (*ble.Client, []ble.ScanResult, error) {
	fmt.Println("Scanning for GoCube devices...")

	client, err := ble.NewClient(log.WithField("component", "ble"))
	if err != nil {
		return nil, nil, fmt.Errorf("BLE not available: %w", err)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sctx, cancel := context.WithTimeout(ctx, timeout)
		results, err := client.Scan(sctx, timeout)
		cancel()

		if err != nil {
			fmt.Printf("Scan %d failed: %v\n", attempt, err)
			continue
		}
		if len(results) > 0 {
			return client, results, nil
		}
		if attempt < maxAttempts {
			fmt.Printf("Scan %d: no devices found, retrying...\n", attempt)
		}
		if ctx.Err() != nil {
			return client, nil, ctx.Err()
		}
	}
	return client, nil, nil
}
