// Package input turns keyboard, pointer, on-screen button and smart-cube
// stimuli into face turns.
package input

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
)

// Request sources.
const (
	SourceKeyboard  = "keyboard"
	SourcePointer   = "pointer"
	SourceButton    = "button"
	SourceSmartCube = "smartcube"
)

// Rotator runs turn requests. *engine.Engine satisfies it.
type Rotator interface {
	Submit(req engine.Request) (engine.Outcome, error)
	ForceCommit(now time.Time) bool
}

// Labeler shows the mode message.
type Labeler interface {
	SetText(text string)
}

// LabelFunc adapts a function to Labeler.
type LabelFunc func(string)

// SetText calls f(text).
func (f LabelFunc) SetText(text string) { f(text) }

// Mode says whether pointer input turns faces.
type Mode int

const (
	ModeView   Mode = iota // pointer input is ignored
	ModeAction             // pointer input turns faces
)

func (m Mode) String() string {
	if m == ModeAction {
		return "ACTION"
	}
	return "VIEW"
}

// Label returns the on-screen message for the mode.
func (m Mode) Label(toggle string) string {
	return fmt.Sprintf("%s mode ON (to switch - press '%s')", m, toggle)
}

// Button is a pointer button.
type Button int

const (
	ButtonPrimary   Button = iota // LEFT, RIGHT, FACE, BACK
	ButtonSecondary               // TOP, BOTTOM
)

func (b Button) String() string {
	if b == ButtonSecondary {
		return "secondary"
	}
	return "primary"
}

// Accepts reports whether pressing b on face f's sensor turns f.
func (b Button) Accepts(f cube.Face) bool {
	axis, err := cube.AxisOf(f)
	if err != nil {
		return false
	}
	if b == ButtonSecondary {
		return axis == cube.AxisY
	}
	return axis != cube.AxisY
}

// DefaultKeyMap binds the face keys.
func DefaultKeyMap() map[string]cube.Face {
	return map[string]cube.Face{
		"a": cube.Left,
		"d": cube.Right,
		"w": cube.Top,
		"s": cube.Bottom,
		"f": cube.Front,
		"b": cube.Back,
	}
}

// DefaultToggleKey switches between VIEW and ACTION.
const DefaultToggleKey = "g"

// Result describes what a stimulus did.
type Result struct {
	Source  string
	Face    cube.Face
	Outcome engine.Outcome
	// Routed is false when the stimulus was ignored before reaching the
	// engine: an unbound key, a pointer press in VIEW mode, or a press
	// with no eligible sensor.
	Routed bool
	// Toggled is set when the stimulus switched the mode.
	Toggled bool
}

// Option configures a Router.
type Option func(*Router)

// WithKeyMap replaces the face key bindings.
func WithKeyMap(m map[string]cube.Face) Option {
	return func(r *Router) {
		r.keys = make(map[string]cube.Face, len(m))
		for k, f := range m {
			r.keys[strings.ToLower(k)] = f
		}
	}
}

// WithToggleKey sets the mode toggle key.
func WithToggleKey(key string) Option {
	return func(r *Router) {
		if key != "" {
			r.toggle = strings.ToLower(key)
		}
	}
}

// WithInitialMode sets the starting mode. The default is ModeView.
func WithInitialMode(m Mode) Option {
	return func(r *Router) {
		r.mode = m
	}
}

// WithLogger sets the router's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock sets the time source used when a smart-cube turn has to
// finish an animation early.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// WithResultObserver registers a callback for every handled stimulus.
func WithResultObserver(fn func(Result)) Option {
	return func(r *Router) {
		if fn != nil {
			r.observers = append(r.observers, fn)
		}
	}
}

// Router maps stimuli to turn requests. Like the engine it runs on a single
// loop.
type Router struct {
	rot       Rotator
	label     Labeler
	keys      map[string]cube.Face
	toggle    string
	mode      Mode
	now       func() time.Time
	log       logrus.FieldLogger
	observers []func(Result)
}

// NewRouter creates a router and shows the initial mode label. label may be
// nil.
func NewRouter(rot Rotator, label Labeler, opts ...Option) *Router {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Router{
		rot:    rot,
		label:  label,
		keys:   DefaultKeyMap(),
		toggle: DefaultToggleKey,
		mode:   ModeView,
		now:    time.Now,
		log:    discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.showMode()
	return r
}

// Mode returns the current mode.
func (r *Router) Mode() Mode {
	return r.mode
}

// Label returns the current mode message.
func (r *Router) Label() string {
	return r.mode.Label(r.toggle)
}

// ToggleKey returns the key that switches modes.
func (r *Router) ToggleKey() string {
	return r.toggle
}

// KeyFor returns the key bound to face, if any.
func (r *Router) KeyFor(f cube.Face) (string, bool) {
	for k, face := range r.keys {
		if face == f {
			return k, true
		}
	}
	return "", false
}

// ToggleMode switches between VIEW and ACTION and updates the label.
func (r *Router) ToggleMode() Mode {
	if r.mode == ModeAction {
		r.mode = ModeView
	} else {
		r.mode = ModeAction
	}
	r.showMode()
	r.log.WithField("mode", r.mode).Info("mode changed")
	return r.mode
}

func (r *Router) showMode() {
	if r.label != nil {
		r.label.SetText(r.Label())
	}
}

// HandleKey handles a key press. Face keys start an animated turn in either
// mode; the toggle key switches modes; anything else is ignored.
func (r *Router) HandleKey(key string) (Result, error) {
	key = strings.ToLower(key)
	if key == r.toggle {
		r.ToggleMode()
		res := Result{Source: SourceKeyboard, Toggled: true}
		r.notify(res)
		return res, nil
	}

	face, ok := r.keys[key]
	if !ok {
		return Result{Source: SourceKeyboard}, nil
	}
	return r.dispatch(SourceKeyboard, face, engine.Forward, true)
}

// HandlePointer handles a pointer press with the sensors under the pointer,
// nearest first. Presses are ignored in VIEW mode. The first hit the button
// accepts is turned; the rest are ignored.
func (r *Router) HandlePointer(b Button, hits []Hit) (Result, error) {
	if r.mode != ModeAction {
		return Result{Source: SourcePointer}, nil
	}
	for _, h := range hits {
		if b.Accepts(h.Face) {
			return r.dispatch(SourcePointer, h.Face, engine.Forward, true)
		}
	}
	return Result{Source: SourcePointer}, nil
}

// HandleButton handles one of the on-screen face buttons. Buttons work in
// either mode.
func (r *Router) HandleButton(face cube.Face) (Result, error) {
	return r.dispatch(SourceButton, face, engine.Forward, true)
}

// HandleSmartCube mirrors a turn made on a physical cube. The physical cube
// is authoritative, so an animation still in flight is finished first and
// the mirrored turn is applied instantly.
func (r *Router) HandleSmartCube(face cube.Face, dir engine.Direction) (Result, error) {
	if r.rot.ForceCommit(r.now()) {
		r.log.WithField("face", face).Debug("finished animation early for smart cube turn")
	}
	return r.dispatch(SourceSmartCube, face, dir, false)
}

func (r *Router) dispatch(source string, face cube.Face, dir engine.Direction, animated bool) (Result, error) {
	outcome, err := r.rot.Submit(engine.Request{
		Face:      face,
		Direction: dir,
		Animated:  animated,
		Source:    source,
	})
	res := Result{Source: source, Face: face, Outcome: outcome, Routed: err == nil}
	if err != nil {
		return res, fmt.Errorf("failed to turn %v: %w", face, err)
	}

	r.log.WithFields(logrus.Fields{
		"source":  source,
		"face":    face,
		"outcome": outcome,
	}).Debug("stimulus routed")
	r.notify(res)
	return res, nil
}

func (r *Router) notify(res Result) {
	for _, fn := range r.observers {
		fn(res)
	}
}
