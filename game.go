// Package cubeturn is an interactive 3x3x3 rotating-cube puzzle.
//
// A Game wires the rotation engine, the input router and optional
// recording. It replaces a process-wide game object: everything it needs is
// passed in through options, and every stimulus goes through its methods.
//
//	g, err := cubeturn.New(cubeturn.WithSeed(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g.Key("a")                       // animated LEFT turn
//	g.Tick(time.Now())               // call every frame
//	fmt.Println(g.Facelets().String())
//
// All methods must be called from one goroutine, the one driving Tick.
package cubeturn

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/input"
	"github.com/SeamusWaldron/cubeturn/internal/logging"
	"github.com/SeamusWaldron/cubeturn/internal/protocol"
	"github.com/SeamusWaldron/cubeturn/internal/recorder"
	"github.com/SeamusWaldron/cubeturn/internal/scene"
)

// Game is one puzzle instance.
type Game struct {
	cfg    *config
	log    logrus.FieldLogger
	engine *engine.Engine
	router *input.Router

	seed     uint64
	scramble []cube.Face
	label    string
	events   *recorder.EventLog
}

// New builds a game and applies the opening scramble.
func New(opts ...Option) (*Game, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.scrambleTurns < 0 {
		return nil, fmt.Errorf("%w: scramble turns %d", ErrInvalidOption, cfg.scrambleTurns)
	}
	if cfg.animationTime < 0 || cfg.safetyMargin < 0 || cfg.lockTimeout < 0 {
		return nil, fmt.Errorf("%w: durations must not be negative", ErrInvalidOption)
	}
	if cfg.lockTimeout > 0 && cfg.lockTimeout < cfg.animationTime {
		return nil, fmt.Errorf("%w: lock timeout %s is shorter than animation time %s",
			ErrInvalidOption, cfg.lockTimeout, cfg.animationTime)
	}
	easing, err := scene.EasingByName(cfg.easing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}

	log := cfg.logger
	if log == nil {
		log = logging.Discard()
	}

	g := &Game{cfg: cfg, log: log, seed: cfg.seed}
	if g.seed == 0 {
		g.seed = uint64(cfg.now().UnixNano())
	}

	engineOpts := []engine.Option{
		engine.WithAnimationTime(cfg.animationTime),
		engine.WithSafetyMargin(cfg.safetyMargin),
		engine.WithLockTimeout(cfg.lockTimeout),
		engine.WithEasing(easing),
		engine.WithClock(cfg.now),
		engine.WithLogger(log.WithField("component", "engine")),
		engine.WithVerify(cfg.verify),
		engine.WithTurnObserver(g.recordCommit),
	}
	for _, fn := range cfg.observers {
		engineOpts = append(engineOpts, engine.WithTurnObserver(fn))
	}
	g.engine = engine.New(engineOpts...)

	routerOpts := []input.Option{
		input.WithInitialMode(cfg.initialMode),
		input.WithClock(cfg.now),
		input.WithLogger(log.WithField("component", "input")),
	}
	for _, fn := range cfg.results {
		routerOpts = append(routerOpts, input.WithResultObserver(fn))
	}
	g.router = input.NewRouter(g.engine, input.LabelFunc(func(s string) { g.label = s }), routerOpts...)

	g.scramble, err = engine.NewScrambler(g.seed).Scramble(g.engine, cfg.scrambleTurns)
	if err != nil {
		return nil, fmt.Errorf("failed to scramble: %w", err)
	}

	log.WithFields(logrus.Fields{
		"seed":     g.seed,
		"scramble": recorder.Notation(g.scramble),
	}).Info("game ready")
	return g, nil
}

// Engine returns the rotation engine.
func (g *Game) Engine() *engine.Engine { return g.engine }

// Router returns the input router.
func (g *Game) Router() *input.Router { return g.router }

// Seed returns the scramble seed actually used.
func (g *Game) Seed() uint64 { return g.seed }

// Scramble returns the faces turned by the opening scramble.
func (g *Game) Scramble() []cube.Face {
	out := make([]cube.Face, len(g.scramble))
	copy(out, g.scramble)
	return out
}

// Label returns the mode message.
func (g *Game) Label() string { return g.label }

// Mode returns the input mode.
func (g *Game) Mode() input.Mode { return g.router.Mode() }

// Busy reports whether a turn holds the lock.
func (g *Game) Busy() bool { return g.engine.Busy() }

// Facelets returns the visible sticker state.
func (g *Game) Facelets() cube.Facelets { return g.engine.Facelets() }

// Verify checks the cube invariants.
func (g *Game) Verify() error { return g.engine.Verify() }

// Now reads the game clock.
func (g *Game) Now() time.Time { return g.cfg.now() }

// Header describes this game for a stimulus log.
func (g *Game) Header() recorder.Header {
	return recorder.Header{
		CreatedAt:       g.cfg.now(),
		Seed:            g.seed,
		ScrambleTurns:   g.cfg.scrambleTurns,
		AnimationTimeMs: g.cfg.animationTime.Milliseconds(),
		SafetyMarginMs:  g.cfg.safetyMargin.Milliseconds(),
		LockTimeoutMs:   g.cfg.lockTimeout.Milliseconds(),
		InitialMode:     g.router.Mode().String(),
	}
}

// SetEventLog starts recording stimuli to l. Nil stops recording.
func (g *Game) SetEventLog(l *recorder.EventLog) {
	g.events = l
}

// Tick advances animations to now and commits finished turns.
func (g *Game) Tick(now time.Time) {
	g.engine.Tick(now.Round(0))
}

// Key handles a key press.
func (g *Game) Key(key string) (input.Result, error) {
	g.record(recorder.Entry{Type: recorder.EntryKey, Key: key})
	return g.router.HandleKey(key)
}

// Pointer handles a pointer press over the given sensor hits.
func (g *Game) Pointer(b input.Button, hits []input.Hit) (input.Result, error) {
	faces := make([]string, len(hits))
	for i, h := range hits {
		faces[i] = h.Face.String()
	}
	g.record(recorder.Entry{Type: recorder.EntryPointer, Button: b.String(), Faces: faces})
	return g.router.HandlePointer(b, hits)
}

// PointerAt handles a pointer press at (x, y) on the front view, in world
// units with the cube centered at the origin.
func (g *Game) PointerAt(b input.Button, x, y float64) (input.Result, error) {
	return g.Pointer(b, input.Pick(input.FrontRay(x, y)))
}

// Button handles an on-screen face button.
func (g *Game) Button(face cube.Face) (input.Result, error) {
	g.record(recorder.Entry{Type: recorder.EntryButton, Face: face.String()})
	return g.router.HandleButton(face)
}

// SmartCube mirrors a physical turn.
func (g *Game) SmartCube(face cube.Face, dir engine.Direction) (input.Result, error) {
	g.record(recorder.Entry{Type: recorder.EntrySmartCube, Face: face.String(), Direction: int(dir)})
	return g.router.HandleSmartCube(face, dir)
}

// SmartCubeRotation mirrors a decoded smart-cube rotation frame.
func (g *Game) SmartCubeRotation(ev protocol.RotationEvent) (input.Result, error) {
	face, dir, err := input.FromRotation(ev)
	if err != nil {
		return input.Result{Source: input.SourceSmartCube}, err
	}
	return g.SmartCube(face, dir)
}

func (g *Game) record(e recorder.Entry) {
	if g.events == nil {
		return
	}
	e.At = g.cfg.now()
	if err := g.events.Record(e); err != nil {
		g.log.WithError(err).Warn("failed to record stimulus")
	}
}

// recordCommit logs commits made from Tick, which replay has to reproduce.
// Instant turns commit inside the stimulus that caused them.
func (g *Game) recordCommit(ev engine.TurnEvent) {
	if g.events == nil || ev.Outcome != engine.Committed || !ev.Animated {
		return
	}
	if err := g.events.Record(recorder.Entry{Type: recorder.EntryCommit, At: ev.At, Seq: ev.Seq}); err != nil {
		g.log.WithError(err).Warn("failed to record commit")
	}
}
