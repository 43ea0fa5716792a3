package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SeamusWaldron/cubeturn"
	"github.com/SeamusWaldron/cubeturn/internal/ble"
	"github.com/SeamusWaldron/cubeturn/internal/protocol"
	"github.com/SeamusWaldron/cubeturn/internal/recorder"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

var (
	playSeed    uint64
	playTurns   int
	playDevice  bool
	playAddress string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the puzzle in the terminal",
	Long: `Start the interactive puzzle. The cube is scrambled first.

Keyboard:
  a/d     - turn LEFT / RIGHT
  w/s     - turn TOP / BOTTOM
  f/b     - turn FACE / BACK
  g       - switch between VIEW and ACTION mode
  esc     - quit

Mouse:
  The face buttons below the cube work in either mode. In ACTION mode a
  left click on the front face turns the face under the pointer, except
  TOP and BOTTOM; a right click turns only TOP or BOTTOM.

With --device, turns made on a GoCube smart cube are mirrored.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Uint64Var(&playSeed, "seed", 0, "Scramble seed (default: config, then time-based)")
	playCmd.Flags().IntVar(&playTurns, "turns", -1, "Number of scramble turns (default: config)")
	playCmd.Flags().BoolVar(&playDevice, "device", false, "Mirror turns from a GoCube smart cube")
	playCmd.Flags().StringVar(&playAddress, "address", "", "Smart cube address (default: last used, then first found)")
	rootCmd.AddCommand(playCmd)
}

// IsTTY returns true if stdin and stdout are both terminals.
func IsTTY() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

func runPlay(cmd *cobra.Command, args []string) error {
	if !IsTTY() {
		return errors.New("play needs a terminal; use 'cubeturn scramble' for headless output")
	}

	rt, err := setup(os.Stderr, defaultLogFile())
	if err != nil {
		return err
	}
	defer rt.Close()

	seed := rt.cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = playSeed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	turns := rt.cfg.ScrambleTurns
	if playTurns >= 0 {
		turns = playTurns
	}

	stateFile, err := rt.openState()
	if err != nil {
		rt.log.WithError(err).Warn("state file unavailable")
		stateFile = nil
	}

	m := newPlayModel()
	opts := []cubeturn.Option{
		cubeturn.WithSeed(seed),
		cubeturn.WithScrambleTurns(turns),
		cubeturn.WithAnimationTime(rt.cfg.AnimationTime),
		cubeturn.WithSafetyMargin(rt.cfg.SafetyMargin),
		cubeturn.WithLockTimeout(rt.cfg.LockTimeout),
		cubeturn.WithEasing(rt.cfg.Easing),
		cubeturn.WithLogger(rt.log),
		cubeturn.WithTurnObserver(m.observe),
	}

	var journal *recorder.Session
	if rt.cfg.Journal {
		db, err := rt.openJournal()
		if err != nil {
			return err
		}
		defer db.Close()

		journal = recorder.NewSession(db, stateFile, rt.log)
		if _, err := journal.Start(storage.NewSession{Seed: seed, Source: "play", AppVersion: version}); err != nil {
			return err
		}
		opts = append(opts, cubeturn.WithTurnObserver(journal.ObserveTurn))
	}

	g, err := cubeturn.New(opts...)
	if err != nil {
		return err
	}
	m.attach(g)

	if journal != nil {
		if err := journal.SetScramble(g.Scramble()); err != nil {
			rt.log.WithError(err).Warn("failed to journal scramble")
		}
	}

	var events *recorder.EventLog
	if rt.cfg.RecordDir != "" {
		h := g.Header()
		if journal != nil {
			h.SessionID = journal.SessionID()
		}
		events, err = recorder.CreateEventLog(rt.cfg.RecordDir, h)
		if err != nil {
			rt.log.WithError(err).Warn("recording disabled")
		} else {
			g.SetEventLog(events)
			if stateFile != nil {
				if err := stateFile.SetLastLog(events.Path()); err != nil {
					rt.log.WithError(err).Warn("failed to update state file")
				}
			}
		}
	}

	if stateFile != nil {
		m.onDev = func(name, address string) {
			if err := stateFile.SetLastDevice(address, name); err != nil {
				rt.log.WithError(err).Warn("failed to update state file")
			}
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	if playDevice {
		last := ""
		if stateFile != nil {
			last = stateFile.State().LastDeviceID
		}
		grp.Go(func() error {
			mirrorDevice(gctx, rt.log, p, playAddress, last)
			return nil
		})
	}
	runErr := grp.Wait()

	if events != nil {
		if err := events.Close(); err != nil {
			rt.log.WithError(err).Warn("failed to close session log")
		}
	}
	if journal != nil {
		if err := journal.End(time.Now()); err != nil {
			rt.log.WithError(err).Warn("failed to end journal session")
		}
		fmt.Printf("Session %s: %d turns committed, %d dropped while busy\n",
			journal.SessionID(), m.committed, m.busy)
	}
	if events != nil {
		fmt.Printf("Recorded %d stimuli to %s\n", events.Count(), events.Path())
	}
	return runErr
}

// mirrorDevice connects to a smart cube and forwards its turns to the
// program until ctx is done. Failures are shown in the UI; the game keeps
// running without the cube.
func mirrorDevice(ctx context.Context, log logrus.FieldLogger, p *tea.Program, address, last string) {
	log = log.WithField("component", "ble")

	client, err := ble.NewClient(log)
	if err != nil {
		p.Send(deviceErrorMsg{err: fmt.Errorf("BLE not available: %w", err)})
		return
	}
	client.OnRotation(func(ev protocol.RotationEvent) {
		p.Send(rotationMsg{ev: ev})
	})
	client.OnFrame(func(f *protocol.Frame) {
		if f.Type == protocol.TypeBattery {
			if b, err := protocol.DecodeBattery(f.Payload); err == nil {
				p.Send(deviceBatteryMsg{level: b.Level})
			}
		}
	})

	if err := connectCube(ctx, client, address, last); err != nil {
		p.Send(deviceErrorMsg{err: err})
		return
	}
	defer client.Disconnect()

	p.Send(deviceConnectedMsg{name: client.DeviceName(), address: client.Address()})
	if err := client.FlashBacklight(); err != nil {
		log.WithError(err).Debug("flash failed")
	}

	<-ctx.Done()
}

// connectCube connects to address, else to the last used cube, else to the
// first cube found by a scan.
func connectCube(ctx context.Context, client *ble.Client, address, last string) error {
	const timeout = 5 * time.Second

	if address != "" {
		return client.Connect(ctx, address, timeout)
	}
	if last != "" {
		if err := client.Connect(ctx, last, timeout); err == nil {
			return nil
		}
	}

	results, err := client.Scan(ctx, timeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(results) == 0 {
		return ble.ErrDeviceNotFound
	}
	return client.ConnectTo(results[0])
}
