// Package engine implements the face-rotation kinematics: grouping a face's
// cubies under a pivot, turning the pivot, and committing the result back
// onto the integer lattice under a turn lock.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/scene"
)

// Interpolator animates a node rotation over time. Completion callbacks
// must run from Advance, on the caller's loop.
type Interpolator interface {
	AnimateRotation(n *scene.Node, axis mgl64.Vec3, degrees float64, d time.Duration, start time.Time, done func())
	Advance(now time.Time)
	Stop(n *scene.Node)
}

// Direction is the sense of a quarter turn about the face axis.
type Direction int

const (
	Forward Direction = 1  // +90°
	Reverse Direction = -1 // -90°
)

// Degrees returns the signed turn angle.
func (d Direction) Degrees() float64 {
	return 90 * float64(d)
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Outcome describes what a turn request did.
type Outcome int

const (
	Rejected  Outcome = iota // request was invalid; see the error
	Busy                     // another turn holds the lock; request dropped
	Started                  // animated turn running; commit happens in Tick
	Committed                // turn fully applied
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Busy:
		return "busy"
	case Started:
		return "started"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Phase is the engine's turn state.
type Phase int

const (
	Idle       Phase = iota
	Animating        // pivot is interpolating; lock held
	Committing       // writing results back to the lattice
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// Request is a single face turn.
type Request struct {
	Face      cube.Face
	Direction Direction
	Animated  bool
	// Source labels where the request came from (keyboard, pointer, ...).
	Source string
}

// TurnEvent is delivered to observers when a turn is rejected as busy,
// starts animating, or commits.
type TurnEvent struct {
	Request
	Seq       int
	Outcome   Outcome
	At        time.Time
	Recovered bool // committed by the lock watchdog or ForceCommit
}

// Cubie is one of the 27 arena records.
type Cubie struct {
	ID          int
	Home        cube.Point
	Grid        cube.Point
	Orientation cube.Orientation
	Mask        cube.FaceMask

	node *scene.Node
}

// Node returns the cubie's scene node.
func (c *Cubie) Node() *scene.Node {
	return c.node
}

type turn struct {
	req        Request
	seq        int
	axis       cube.Axis
	start      time.Time
	deadline   time.Time
	visualDone bool
}

// Engine owns the cubies, the pivot and the turn lock. All methods must be
// called from a single loop; Tick advances animated turns.
type Engine struct {
	cfg    *config
	log    logrus.FieldLogger
	interp Interpolator

	root   *scene.Node
	pivot  *scene.Node
	cubies [27]Cubie

	lock   Lock
	phase  Phase
	active *turn
	seq    int
}

// New creates an engine with 27 cubies at their home positions.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	interp := cfg.interp
	if interp == nil {
		interp = scene.NewTweener(cfg.easing)
	}

	e := &Engine{
		cfg:    cfg,
		log:    cfg.logger,
		interp: interp,
		root:   scene.NewNode("scene"),
	}
	e.pivot = e.root.NewChild("pivot", mgl64.Vec3{})

	for i, p := range cube.AllPositions() {
		e.cubies[i] = Cubie{
			ID:          i,
			Home:        p,
			Grid:        p,
			Orientation: cube.Identity,
			Mask:        cube.MaskOf(p),
			node:        e.root.NewChild(fmt.Sprintf("cubie-%02d", i), p.Vec3()),
		}
	}

	return e
}

// Root returns the scene root.
func (e *Engine) Root() *scene.Node {
	return e.root
}

// Pivot returns the shared rotation pivot.
func (e *Engine) Pivot() *scene.Node {
	return e.pivot
}

// Phase returns the current turn state.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Busy reports whether a turn holds the lock.
func (e *Engine) Busy() bool {
	return e.lock.Held()
}

// Seq returns the number of turns that acquired the lock so far.
func (e *Engine) Seq() int {
	return e.seq
}

// Cubie returns the arena record with the given ID.
func (e *Engine) Cubie(id int) Cubie {
	return e.cubies[id]
}

// RotateFace turns face by +90° about its axis.
func (e *Engine) RotateFace(face cube.Face, animated bool) (Outcome, error) {
	return e.Submit(Request{Face: face, Direction: Forward, Animated: animated})
}

// Rotate turns face by a quarter turn in direction dir.
func (e *Engine) Rotate(face cube.Face, dir Direction, animated bool) (Outcome, error) {
	return e.Submit(Request{Face: face, Direction: dir, Animated: animated})
}

// Submit runs a turn request. Instant turns commit before returning. Animated
// turns return Started and commit from Tick once the interpolation has
// finished and the safety margin has elapsed. A request made while another
// turn holds the lock returns Busy and changes nothing.
func (e *Engine) Submit(req Request) (Outcome, error) {
	axis, err := cube.AxisOf(req.Face)
	if err != nil {
		return Rejected, err
	}
	if req.Direction != Forward && req.Direction != Reverse {
		return Rejected, fmt.Errorf("%w: %d", ErrInvalidDirection, int(req.Direction))
	}

	now := e.cfg.now()
	if !e.lock.TryAcquire(now) {
		e.log.WithField("face", req.Face).Debug("turn dropped, lock held")
		e.notify(TurnEvent{Request: req, Seq: e.seq, Outcome: Busy, At: now})
		return Busy, nil
	}
	e.seq++

	// Settle anything a previous turn left on the pivot.
	e.settle()

	for i := range e.cubies {
		c := &e.cubies[i]
		if c.Mask.Has(req.Face) {
			c.node.SetParent(e.pivot, true)
		}
	}

	t := &turn{req: req, seq: e.seq, axis: axis, start: now}

	if !req.Animated {
		e.pivot.Rotation = e.targetRotation(t)
		e.active = t
		e.finish(now, false)
		return Committed, nil
	}

	t.deadline = now.Add(e.cfg.animationTime + e.cfg.safetyMargin)
	e.active = t
	e.phase = Animating
	e.interp.AnimateRotation(e.pivot, axis.Vec3(), req.Direction.Degrees(), e.cfg.animationTime, now, func() {
		t.visualDone = true
	})

	e.log.WithFields(logrus.Fields{
		"seq":  t.seq,
		"face": req.Face,
		"dir":  req.Direction,
	}).Debug("turn started")
	e.notify(TurnEvent{Request: req, Seq: t.seq, Outcome: Started, At: now})

	return Started, nil
}

// Tick advances the interpolation to now and commits the active turn when
// it is due.
func (e *Engine) Tick(now time.Time) {
	e.interp.Advance(now)

	if e.phase != Animating || e.active == nil {
		return
	}
	t := e.active

	if t.visualDone && !now.Before(t.deadline) {
		e.finish(now, false)
		return
	}

	if e.cfg.lockTimeout > 0 && !t.visualDone && now.Sub(t.start) >= e.cfg.lockTimeout {
		e.log.WithFields(logrus.Fields{
			"seq":     t.seq,
			"face":    t.req.Face,
			"held_ms": e.lock.HeldFor(now).Milliseconds(),
		}).Warn("turn did not complete in time, forcing commit")
		e.recover(now)
	}
}

// ForceCommit snaps an in-flight animated turn to its target and commits it.
// It reports whether there was a turn to commit.
func (e *Engine) ForceCommit(now time.Time) bool {
	if e.phase != Animating || e.active == nil {
		return false
	}
	e.recover(now)
	return true
}

func (e *Engine) recover(now time.Time) {
	e.interp.Stop(e.pivot)
	e.pivot.Rotation = e.targetRotation(e.active)
	e.finish(now, true)
}

// targetRotation is the pivot rotation at the end of t. The pivot starts
// every turn at identity.
func (e *Engine) targetRotation(t *turn) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(t.req.Direction.Degrees()), t.axis.Vec3())
}

func (e *Engine) finish(now time.Time, recovered bool) {
	t := e.active
	e.phase = Committing
	e.settle()
	e.active = nil
	e.lock.Release()
	e.phase = Idle

	if e.cfg.verify {
		if err := e.Verify(); err != nil {
			e.log.WithError(err).WithField("seq", t.seq).Error("commit left the cube inconsistent")
		}
	}

	e.log.WithFields(logrus.Fields{
		"seq":       t.seq,
		"face":      t.req.Face,
		"animated":  t.req.Animated,
		"recovered": recovered,
	}).Debug("turn committed")
	e.notify(TurnEvent{Request: t.req, Seq: t.seq, Outcome: Committed, At: now, Recovered: recovered})
}

// settle moves every cubie under the pivot back to the root, snapping its
// world pose onto the lattice, then resets the pivot.
func (e *Engine) settle() {
	for i := range e.cubies {
		c := &e.cubies[i]
		if c.node.Parent() != e.pivot {
			continue
		}
		grid := cube.RoundVec3(c.node.WorldPosition())
		o := cube.OrientationFromQuat(c.node.WorldRotation())

		c.node.SetParent(e.root, false)
		c.node.Position = grid.Vec3()
		c.node.Rotation = o.Quat()

		c.Grid = grid
		c.Orientation = o
		c.Mask = cube.MaskOf(grid)
	}
	e.pivot.ResetRotation()
}

func (e *Engine) notify(ev TurnEvent) {
	for _, fn := range e.cfg.observers {
		fn(ev)
	}
}

// Snapshot returns every cubie's placement, indexed by cubie ID.
func (e *Engine) Snapshot() []cube.Placement {
	out := make([]cube.Placement, len(e.cubies))
	for i, c := range e.cubies {
		out[i] = cube.Placement{Home: c.Home, Grid: c.Grid, Orientation: c.Orientation}
	}
	return out
}

// Facelets projects the current state onto the six faces.
func (e *Engine) Facelets() cube.Facelets {
	return cube.BuildFacelets(e.Snapshot())
}

// Verify checks the at-rest invariants: every cubie is under the root on a
// distinct lattice point matching its world position, orientations are
// axis-aligned, and the pivot is empty and unrotated.
func (e *Engine) Verify() error {
	if e.phase != Idle {
		return fmt.Errorf("%w: verify during %s", ErrBusy, e.phase)
	}

	seen := make(map[cube.Point]int)
	for _, c := range e.cubies {
		if c.node.Parent() != e.root {
			return fmt.Errorf("%w: cubie %d is not parented to the scene root", ErrCorrupt, c.ID)
		}
		if !c.Grid.Valid() {
			return fmt.Errorf("%w: cubie %d at %v is off the lattice", ErrCorrupt, c.ID, c.Grid)
		}
		if prev, dup := seen[c.Grid]; dup {
			return fmt.Errorf("%w: cubies %d and %d share %v", ErrCorrupt, prev, c.ID, c.Grid)
		}
		seen[c.Grid] = c.ID

		wp := c.node.WorldPosition()
		if cube.RoundVec3(wp) != c.Grid || wp.Sub(c.Grid.Vec3()).Len() > 1e-6 {
			return fmt.Errorf("%w: cubie %d world position %v does not match grid %v", ErrCorrupt, c.ID, wp, c.Grid)
		}
		if !c.Orientation.Valid() {
			return fmt.Errorf("%w: cubie %d has orientation %v", ErrCorrupt, c.ID, c.Orientation)
		}
		if c.Mask != cube.MaskOf(c.Grid) {
			return fmt.Errorf("%w: cubie %d face mask is stale", ErrCorrupt, c.ID)
		}
	}

	if n := len(e.pivot.Children()); n != 0 {
		return fmt.Errorf("%w: %d cubies left on the pivot", ErrCorrupt, n)
	}
	if r := e.pivot.Rotation; math.Abs(math.Abs(r.W)-1) > 1e-9 {
		return fmt.Errorf("%w: pivot rotation not reset", ErrCorrupt)
	}
	if e.lock.Held() {
		return fmt.Errorf("%w: lock held while idle", ErrCorrupt)
	}

	return nil
}
