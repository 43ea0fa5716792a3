package cubeturn

import (
	"fmt"
	"time"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/input"
	"github.com/SeamusWaldron/cubeturn/internal/recorder"
)

// ReplayStats counts what a replay did.
type ReplayStats struct {
	Entries   int
	Committed int
	Busy      int
	Ignored   int
}

// Replay rebuilds the game recorded in log by feeding its stimuli, at their
// recorded times, into a fresh game. Extra options are applied after the
// ones derived from the log header.
func Replay(log *recorder.Log, opts ...Option) (*Game, ReplayStats, error) {
	var stats ReplayStats
	if log.Header.Version != recorder.LogVersion {
		return nil, stats, fmt.Errorf("%w: %q", ErrUnsupportedLog, log.Header.Version)
	}

	mode := input.ModeView
	if log.Header.InitialMode == input.ModeAction.String() {
		mode = input.ModeAction
	}

	clock := log.Header.CreatedAt
	base := []Option{
		WithSeed(log.Header.Seed),
		WithScrambleTurns(log.Header.ScrambleTurns),
		WithAnimationTime(time.Duration(log.Header.AnimationTimeMs) * time.Millisecond),
		WithSafetyMargin(time.Duration(log.Header.SafetyMarginMs) * time.Millisecond),
		WithLockTimeout(time.Duration(log.Header.LockTimeoutMs) * time.Millisecond),
		WithInitialMode(mode),
		WithClock(func() time.Time { return clock }),
		WithTurnObserver(func(ev engine.TurnEvent) {
			switch ev.Outcome {
			case engine.Committed:
				if ev.Request.Source != engine.SourceScramble {
					stats.Committed++
				}
			case engine.Busy:
				stats.Busy++
			}
		}),
	}

	g, err := New(append(base, opts...)...)
	if err != nil {
		return nil, stats, err
	}

	for i, e := range log.Entries {
		clock = e.At
		stats.Entries++

		var res input.Result
		switch e.Type {
		case recorder.EntryKey:
			res, err = g.router.HandleKey(e.Key)
		case recorder.EntryPointer:
			res, err = replayPointer(g, e)
		case recorder.EntryButton:
			var face cube.Face
			if face, err = cube.ParseFace(e.Face); err == nil {
				res, err = g.router.HandleButton(face)
			}
		case recorder.EntrySmartCube:
			var face cube.Face
			if face, err = cube.ParseFace(e.Face); err == nil {
				res, err = g.router.HandleSmartCube(face, engine.Direction(e.Direction))
			}
		case recorder.EntryCommit:
			g.engine.Tick(clock)
			if g.engine.Busy() {
				// The recorded tick landed within rounding of the deadline.
				g.engine.ForceCommit(clock)
			}
			continue
		default:
			return g, stats, fmt.Errorf("%w: %q at entry %d", ErrUnknownEntry, e.Type, i+1)
		}
		if err != nil {
			return g, stats, fmt.Errorf("replay entry %d (%s): %w", i+1, e.Type, err)
		}
		if !res.Routed && !res.Toggled {
			stats.Ignored++
		}
	}

	// Let any turn still animating at the end of the log finish.
	if g.engine.Busy() {
		clock = clock.Add(g.cfg.animationTime + g.cfg.safetyMargin)
		g.engine.Tick(clock)
	}
	return g, stats, nil
}

func replayPointer(g *Game, e recorder.Entry) (input.Result, error) {
	b := input.ButtonPrimary
	if e.Button == input.ButtonSecondary.String() {
		b = input.ButtonSecondary
	}
	hits := make([]input.Hit, 0, len(e.Faces))
	for _, name := range e.Faces {
		face, err := cube.ParseFace(name)
		if err != nil {
			return input.Result{Source: input.SourcePointer}, err
		}
		hits = append(hits, input.Hit{Face: face})
	}
	return g.router.HandlePointer(b, hits)
}
