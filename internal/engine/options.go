package engine

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SeamusWaldron/cubeturn/internal/scene"
)

// Defaults taken from the interactive game.
const (
	DefaultAnimationTime = 500 * time.Millisecond
	DefaultSafetyMargin  = 110 * time.Millisecond
)

// Option configures an Engine.
type Option func(*config)

type config struct {
	animationTime time.Duration
	safetyMargin  time.Duration
	lockTimeout   time.Duration
	easing        scene.Easing
	now           func() time.Time
	interp        Interpolator
	logger        logrus.FieldLogger
	observers     []func(TurnEvent)
	verify        bool
}

func defaultConfig() *config {
	return &config{
		animationTime: DefaultAnimationTime,
		safetyMargin:  DefaultSafetyMargin,
		now:           time.Now,
		logger:        discardLogger(),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// WithAnimationTime sets how long an animated turn takes.
func WithAnimationTime(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.animationTime = d
		}
	}
}

// WithSafetyMargin sets the extra time an animated turn keeps the lock after
// its interpolation finishes.
func WithSafetyMargin(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.safetyMargin = d
		}
	}
}

// WithLockTimeout enables the watchdog. When an animated turn has not
// reported completion after d, the engine snaps the turn to its target and
// commits it. Zero disables the watchdog (the default), in which case a lost
// completion callback keeps the lock held forever.
func WithLockTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.lockTimeout = d
		}
	}
}

// WithEasing sets the easing of the default interpolator. Ignored when
// WithInterpolator is used.
func WithEasing(e scene.Easing) Option {
	return func(c *config) {
		c.easing = e
	}
}

// WithClock sets the time source used to stamp turn starts.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithInterpolator replaces the default scene.Tweener.
func WithInterpolator(i Interpolator) Option {
	return func(c *config) {
		c.interp = i
	}
}

// WithLogger sets the logger for turn diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTurnObserver registers a callback for every turn event. Observers run
// synchronously on the engine's loop.
func WithTurnObserver(fn func(TurnEvent)) Option {
	return func(c *config) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithVerify runs Verify after every commit and logs any violation.
func WithVerify(enabled bool) Option {
	return func(c *config) {
		c.verify = enabled
	}
}
