package cubeturn

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/input"
)

// DefaultScrambleTurns is how many random faces are turned before play.
const DefaultScrambleTurns = 3

// Option configures a Game.
type Option func(*config)

type config struct {
	seed          uint64
	scrambleTurns int
	animationTime time.Duration
	safetyMargin  time.Duration
	lockTimeout   time.Duration
	easing        string
	initialMode   input.Mode
	now           func() time.Time
	logger        logrus.FieldLogger
	observers     []func(engine.TurnEvent)
	results       []func(input.Result)
	verify        bool
}

func defaultConfig() *config {
	return &config{
		scrambleTurns: DefaultScrambleTurns,
		animationTime: engine.DefaultAnimationTime,
		safetyMargin:  engine.DefaultSafetyMargin,
		initialMode:   input.ModeView,
		now:           wallNow,
	}
}

// wallNow drops the monotonic reading so that recorded times replay
// exactly.
func wallNow() time.Time {
	return time.Now().Round(0)
}

// WithSeed fixes the scramble seed. Zero picks a seed from the clock.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithScrambleTurns sets how many faces are turned at start. Zero starts
// from a solved cube.
func WithScrambleTurns(n int) Option {
	return func(c *config) {
		c.scrambleTurns = n
	}
}

// WithAnimationTime sets the duration of an animated turn.
func WithAnimationTime(d time.Duration) Option {
	return func(c *config) {
		c.animationTime = d
	}
}

// WithSafetyMargin sets how long the lock outlives an animation.
func WithSafetyMargin(d time.Duration) Option {
	return func(c *config) {
		c.safetyMargin = d
	}
}

// WithLockTimeout enables the stuck-turn watchdog.
func WithLockTimeout(d time.Duration) Option {
	return func(c *config) {
		c.lockTimeout = d
	}
}

// WithEasing selects the animation easing by name (in_expo, linear,
// out_expo, in_out_sine).
func WithEasing(name string) Option {
	return func(c *config) {
		c.easing = name
	}
}

// WithInitialMode sets the starting input mode.
func WithInitialMode(m input.Mode) Option {
	return func(c *config) {
		c.initialMode = m
	}
}

// WithClock sets the game clock.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger shared by the engine and router.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithTurnObserver registers a callback for every turn event.
func WithTurnObserver(fn func(engine.TurnEvent)) Option {
	return func(c *config) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithResultObserver registers a callback for every routed stimulus.
func WithResultObserver(fn func(input.Result)) Option {
	return func(c *config) {
		if fn != nil {
			c.results = append(c.results, fn)
		}
	}
}

// WithVerify checks the cube invariants after every commit.
func WithVerify(enabled bool) Option {
	return func(c *config) {
		c.verify = enabled
	}
}
