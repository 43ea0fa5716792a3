package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/scene"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

// deafInterpolator accepts animations but never completes them.
type deafInterpolator struct {
	started int
	stopped int
}

func (d *deafInterpolator) AnimateRotation(*scene.Node, mgl64.Vec3, float64, time.Duration, time.Time, func()) {
	d.started++
}
func (d *deafInterpolator) Advance(time.Time) {}
func (d *deafInterpolator) Stop(*scene.Node)  { d.stopped++ }

func samePlacements(a, b []cube.Placement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustVerify(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestNewEngine_IdentityLattice(t *testing.T) {
	e := New()
	mustVerify(t, e)
	for i, p := range cube.AllPositions() {
		c := e.Cubie(i)
		if c.Grid != p || c.Home != p {
			t.Errorf("cubie %d at %v, want %v", i, c.Grid, p)
		}
	}
	if !e.Facelets().IsSolved() {
		t.Error("new engine should show a solved cube")
	}
	if e.Phase() != Idle || e.Busy() {
		t.Error("new engine should be idle")
	}
}

func TestRotateFace_LeftScenario(t *testing.T) {
	e := New()
	before := e.Snapshot()

	outcome, err := e.RotateFace(cube.Left, false)
	if err != nil {
		t.Fatalf("RotateFace: %v", err)
	}
	if outcome != Committed {
		t.Fatalf("outcome = %v, want committed", outcome)
	}
	mustVerify(t, e)

	moved := 0
	for i, c := range e.Snapshot() {
		prev := before[i].Grid
		if prev.X == -1 {
			moved++
			want := cube.Pt(-1, -prev.Z, prev.Y)
			if c.Grid != want {
				t.Errorf("cubie %d: %v -> %v, want %v", i, prev, c.Grid, want)
			}
			continue
		}
		if c.Grid != prev || c.Orientation != cube.Identity {
			t.Errorf("cubie %d outside LEFT changed: %v -> %v", i, prev, c.Grid)
		}
	}
	if moved != 9 {
		t.Errorf("%d cubies moved, want 9", moved)
	}
	if e.Busy() {
		t.Error("lock should be free after an instant turn")
	}

	// Follow the corner through the full cycle.
	id := cube.Pt(-1, 1, 1).Index()
	want := []cube.Point{cube.Pt(-1, -1, 1), cube.Pt(-1, -1, -1), cube.Pt(-1, 1, -1), cube.Pt(-1, 1, 1)}
	for step, w := range want {
		if step > 0 {
			e.RotateFace(cube.Left, false)
		}
		if got := e.Cubie(id).Grid; got != w {
			t.Fatalf("step %d: corner at %v, want %v", step+1, got, w)
		}
	}
}

func TestRotateFace_FourTurnsIsIdentity_AllFaces(t *testing.T) {
	for _, face := range cube.Faces() {
		e := New()
		NewScrambler(7).Scramble(e, 5)
		before := e.Snapshot()
		for i := 0; i < 4; i++ {
			if _, err := e.RotateFace(face, false); err != nil {
				t.Fatalf("%v: %v", face, err)
			}
		}
		if !samePlacements(before, e.Snapshot()) {
			t.Errorf("%v x 4 should return every cubie to its pre-turn grid and orientation", face)
			t.Log(e.Facelets().String())
		}
	}
}

func TestRotateFace_MembershipIsImageOfTurn(t *testing.T) {
	for _, face := range cube.Faces() {
		e := New()
		axis, _ := cube.AxisOf(face)
		members, _ := cube.MembersOf(face)
		e.RotateFace(face, false)

		for _, p := range members {
			c := e.Cubie(p.Index())
			if want := cube.RotatePoint(p, axis, 1); c.Grid != want {
				t.Errorf("%v: %v moved to %v, want %v", face, p, c.Grid, want)
			}
			if !cube.InFace(c.Grid, face) {
				t.Errorf("%v: member left the face", face)
			}
		}
	}
}

func TestReverseUndoesForward(t *testing.T) {
	e := New()
	e.Rotate(cube.Front, Forward, false)
	e.Rotate(cube.Front, Reverse, false)
	if !samePlacements(New().Snapshot(), e.Snapshot()) {
		t.Error("forward then reverse should be the identity")
	}
	if _, err := e.Rotate(cube.Front, Direction(2), false); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("bad direction error = %v", err)
	}
}

func TestLatticeClosure_LongRandomSequence(t *testing.T) {
	e := New(WithVerify(true))
	s := NewScrambler(12345)
	for i := 0; i < 300; i++ {
		face := s.Pick()
		dir := Forward
		if i%3 == 0 {
			dir = Reverse
		}
		if _, err := e.Rotate(face, dir, false); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if err := e.Verify(); err != nil {
			t.Fatalf("after turn %d (%v): %v", i, face, err)
		}
	}
}

func TestOppositeFacesCommute(t *testing.T) {
	pairs := [][2]cube.Face{
		{cube.Left, cube.Right},
		{cube.Top, cube.Bottom},
		{cube.Front, cube.Back},
	}
	for _, pair := range pairs {
		a, b := New(), New()
		a.RotateFace(pair[0], false)
		a.RotateFace(pair[1], false)
		b.RotateFace(pair[1], false)
		b.RotateFace(pair[0], false)
		if !samePlacements(a.Snapshot(), b.Snapshot()) {
			t.Errorf("%v and %v should commute", pair[0], pair[1])
		}
	}
}

func TestAnimatedTurn_SecondRequestIsBusy(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now))

	out, err := e.RotateFace(cube.Left, true)
	if err != nil || out != Started {
		t.Fatalf("first turn = %v, %v; want started", out, err)
	}
	if e.Phase() != Animating || !e.Busy() {
		t.Fatal("engine should be animating with the lock held")
	}
	if n := len(e.Pivot().Children()); n != 9 {
		t.Errorf("pivot holds %d cubies, want 9", n)
	}

	e.Tick(clock.Advance(100 * time.Millisecond))
	snap := e.Snapshot()

	out, err = e.RotateFace(cube.Top, true)
	if err != nil {
		t.Fatalf("second turn error: %v", err)
	}
	if out != Busy {
		t.Fatalf("second turn = %v, want busy", out)
	}
	if !samePlacements(snap, e.Snapshot()) {
		t.Error("busy request changed cube state")
	}

	e.Tick(clock.Advance(DefaultAnimationTime + DefaultSafetyMargin))
	if e.Phase() != Idle || e.Busy() {
		t.Fatal("turn should have committed")
	}
	mustVerify(t, e)

	want := New()
	want.RotateFace(cube.Left, false)
	if !samePlacements(want.Snapshot(), e.Snapshot()) {
		t.Error("animated LEFT should end where an instant LEFT does, with TOP dropped")
	}
}

func TestAnimatedTurn_HoldsLockThroughSafetyMargin(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now), WithAnimationTime(500*time.Millisecond), WithSafetyMargin(110*time.Millisecond))

	e.RotateFace(cube.Front, true)
	e.Tick(clock.Advance(500 * time.Millisecond))
	if e.Phase() != Animating {
		t.Fatalf("phase = %v right after the interpolation, want animating", e.Phase())
	}
	if out, _ := e.RotateFace(cube.Back, false); out != Busy {
		t.Errorf("instant turn during the margin = %v, want busy", out)
	}

	e.Tick(clock.Advance(109 * time.Millisecond))
	if !e.Busy() {
		t.Fatal("lock released before the safety margin elapsed")
	}
	e.Tick(clock.Advance(time.Millisecond))
	if e.Busy() {
		t.Fatal("lock should be released once the margin has elapsed")
	}
	mustVerify(t, e)
}

func TestAnimatedTurn_MidwayStateStaysCanonical(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now), WithEasing(scene.Linear))
	e.RotateFace(cube.Right, true)
	e.Tick(clock.Advance(DefaultAnimationTime / 2))

	if !e.Facelets().IsSolved() {
		t.Error("grid state must not change until commit")
	}
	// Halfway through a linear quarter turn about X the corner sits at 45°.
	c := e.Cubie(cube.Pt(1, 1, 1).Index())
	wp := c.Node().WorldPosition()
	want := mgl64.Vec3{1, 0, math.Sqrt2}
	if d := wp.Sub(want).Len(); d > 1e-9 {
		t.Errorf("corner at %v, want %v (off by %g)", wp, want, d)
	}
	if c.Grid != cube.Pt(1, 1, 1) {
		t.Errorf("grid moved to %v before commit", c.Grid)
	}
}

func TestStuckLock_WithoutWatchdog(t *testing.T) {
	clock := newFakeClock()
	deaf := &deafInterpolator{}
	e := New(WithClock(clock.Now), WithInterpolator(deaf))

	e.RotateFace(cube.Left, true)
	e.Tick(clock.Advance(time.Hour))
	if !e.Busy() {
		t.Fatal("without a completion callback the lock should stay held")
	}
	if out, _ := e.RotateFace(cube.Right, false); out != Busy {
		t.Errorf("turn while stuck = %v, want busy", out)
	}
}

func TestStuckLock_WatchdogCommits(t *testing.T) {
	clock := newFakeClock()
	deaf := &deafInterpolator{}
	var events []TurnEvent
	e := New(
		WithClock(clock.Now),
		WithInterpolator(deaf),
		WithLockTimeout(2*time.Second),
		WithTurnObserver(func(ev TurnEvent) { events = append(events, ev) }),
	)

	e.RotateFace(cube.Left, true)
	e.Tick(clock.Advance(1999 * time.Millisecond))
	if !e.Busy() {
		t.Fatal("watchdog fired early")
	}
	e.Tick(clock.Advance(time.Millisecond))
	if e.Busy() {
		t.Fatal("watchdog should have committed the turn")
	}
	if deaf.stopped != 1 {
		t.Errorf("interpolator stopped %d times, want 1", deaf.stopped)
	}
	mustVerify(t, e)

	want := New()
	want.RotateFace(cube.Left, false)
	if !samePlacements(want.Snapshot(), e.Snapshot()) {
		t.Error("recovered turn should land on the full quarter turn")
	}

	last := events[len(events)-1]
	if last.Outcome != Committed || !last.Recovered {
		t.Errorf("last event = %+v, want a recovered commit", last)
	}
}

func TestForceCommit(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now), WithInterpolator(&deafInterpolator{}))
	if e.ForceCommit(clock.Now()) {
		t.Error("ForceCommit with no turn should report false")
	}
	e.RotateFace(cube.Bottom, true)
	if !e.ForceCommit(clock.Now()) {
		t.Fatal("ForceCommit should commit the in-flight turn")
	}
	mustVerify(t, e)
}

func TestInvalidFace_NoStateChange(t *testing.T) {
	e := New()
	out, err := e.RotateFace(cube.Face(9), false)
	if !errors.Is(err, cube.ErrInvalidFace) {
		t.Fatalf("error = %v, want ErrInvalidFace", err)
	}
	if out != Rejected {
		t.Errorf("outcome = %v, want rejected", out)
	}
	if e.Busy() || e.Seq() != 0 {
		t.Error("invalid face must not touch the lock")
	}
	mustVerify(t, e)
}

func TestObserver_EventOrder(t *testing.T) {
	clock := newFakeClock()
	var got []Outcome
	e := New(WithClock(clock.Now), WithTurnObserver(func(ev TurnEvent) {
		got = append(got, ev.Outcome)
	}))

	e.Submit(Request{Face: cube.Top, Direction: Forward, Animated: true, Source: "keyboard"})
	e.Submit(Request{Face: cube.Back, Direction: Forward, Animated: true, Source: "keyboard"})
	e.Tick(clock.Advance(time.Second))
	e.Submit(Request{Face: cube.Back, Direction: Forward, Source: "pointer"})

	want := []Outcome{Started, Busy, Committed, Committed}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScramble_DeterministicGivenSeed(t *testing.T) {
	a, b := New(), New()
	pa, err := NewScrambler(42).Scramble(a, 3)
	if err != nil {
		t.Fatal(err)
	}
	pb, _ := NewScrambler(42).Scramble(b, 3)

	if len(pa) != 3 {
		t.Fatalf("picked %d faces, want 3", len(pa))
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Errorf("pick %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
	if !samePlacements(a.Snapshot(), b.Snapshot()) {
		t.Error("same seed should produce the same final state")
	}
	mustVerify(t, a)

	replay := New()
	for _, f := range pa {
		replay.RotateFace(f, false)
	}
	if !samePlacements(a.Snapshot(), replay.Snapshot()) {
		t.Error("scramble should equal applying its picks in order")
	}
}

func TestScramble_Refusals(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now))
	s := NewScrambler(1)

	if _, err := s.Scramble(e, -1); !errors.Is(err, ErrInvalidTurns) {
		t.Errorf("negative turns error = %v", err)
	}
	e.RotateFace(cube.Left, true)
	if _, err := s.Scramble(e, 3); !errors.Is(err, ErrBusy) {
		t.Errorf("scramble while animating error = %v, want ErrBusy", err)
	}
	picks, err := s.Scramble(New(), 0)
	if err != nil || len(picks) != 0 {
		t.Errorf("zero-turn scramble = %v, %v", picks, err)
	}
}

func TestScramble_UsesEveryFace(t *testing.T) {
	s := NewScrambler(99)
	counts := make(map[cube.Face]int)
	for i := 0; i < 600; i++ {
		counts[s.Pick()]++
	}
	for _, f := range cube.Faces() {
		if counts[f] < 50 {
			t.Errorf("%v picked %d/600 times", f, counts[f])
		}
	}
}

func TestLock(t *testing.T) {
	var l Lock
	now := time.Unix(10, 0)
	if !l.TryAcquire(now) {
		t.Fatal("free lock should be acquired")
	}
	if l.TryAcquire(now) {
		t.Error("held lock must reject")
	}
	if got := l.HeldFor(now.Add(time.Second)); got != time.Second {
		t.Errorf("HeldFor = %v", got)
	}
	l.Release()
	if l.Held() || l.HeldFor(now) != 0 {
		t.Error("released lock should be free")
	}
}
