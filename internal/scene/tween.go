package scene

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Easing maps linear progress t in [0,1] to eased progress.
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// InExpo starts slowly and accelerates sharply.
func InExpo(t float64) float64 {
	if t <= 0 {
		return 0
	}
	return math.Pow(2, 10*(t-1))
}

// OutExpo starts fast and settles slowly.
func OutExpo(t float64) float64 {
	if t >= 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}

// InOutSine eases both ends.
func InOutSine(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// EasingByName resolves a configured easing name.
func EasingByName(name string) (Easing, error) {
	switch strings.ToLower(name) {
	case "", "in_expo":
		return InExpo, nil
	case "linear":
		return Linear, nil
	case "out_expo":
		return OutExpo, nil
	case "in_out_sine":
		return InOutSine, nil
	default:
		return nil, fmt.Errorf("scene: unknown easing %q", name)
	}
}

type rotationTween struct {
	node     *Node
	base     mgl64.Quat
	axis     mgl64.Vec3
	radians  float64
	start    time.Time
	duration time.Duration
	done     func()
}

// Tweener interpolates node rotations over time. It has no clock of its own:
// the owning loop calls Advance with the current time, and completion
// callbacks run inside Advance on that loop.
type Tweener struct {
	easing Easing
	active []*rotationTween
}

// NewTweener creates a tweener. A nil easing means InExpo.
func NewTweener(easing Easing) *Tweener {
	if easing == nil {
		easing = InExpo
	}
	return &Tweener{easing: easing}
}

// AnimateRotation rotates n by degrees about the world-space axis over d,
// starting at start. done, if not nil, runs once when the rotation reaches
// its target.
func (t *Tweener) AnimateRotation(n *Node, axis mgl64.Vec3, degrees float64, d time.Duration, start time.Time, done func()) {
	t.active = append(t.active, &rotationTween{
		node:     n,
		base:     n.Rotation,
		axis:     axis.Normalize(),
		radians:  mgl64.DegToRad(degrees),
		start:    start,
		duration: d,
		done:     done,
	})
}

// Advance moves every active tween to its state at now and fires the
// completion callback of each tween that finished.
func (t *Tweener) Advance(now time.Time) {
	if len(t.active) == 0 {
		return
	}

	var finished []*rotationTween
	remaining := t.active[:0]
	for _, tw := range t.active {
		progress := 1.0
		if tw.duration > 0 {
			progress = float64(now.Sub(tw.start)) / float64(tw.duration)
		}
		if progress < 0 {
			progress = 0
		}
		if progress >= 1 {
			tw.apply(1)
			finished = append(finished, tw)
			continue
		}
		tw.apply(t.easing(progress))
		remaining = append(remaining, tw)
	}
	t.active = remaining

	for _, tw := range finished {
		if tw.done != nil {
			tw.done()
		}
	}
}

func (tw *rotationTween) apply(fraction float64) {
	tw.node.Rotation = mgl64.QuatRotate(tw.radians*fraction, tw.axis).Mul(tw.base).Normalize()
}

// Stop drops every tween on n without firing its callback. The node keeps
// whatever rotation the last Advance gave it.
func (t *Tweener) Stop(n *Node) {
	remaining := t.active[:0]
	for _, tw := range t.active {
		if tw.node != n {
			remaining = append(remaining, tw)
		}
	}
	t.active = remaining
}

// Active returns the number of unfinished tweens.
func (t *Tweener) Active() int {
	return len(t.active)
}
