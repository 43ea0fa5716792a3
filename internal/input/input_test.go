package input

import (
	"errors"
	"testing"
	"time"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/protocol"
)

type recordingRotator struct {
	requests []engine.Request
	outcome  engine.Outcome
	forced   int
}

func (r *recordingRotator) Submit(req engine.Request) (engine.Outcome, error) {
	if _, err := cube.AxisOf(req.Face); err != nil {
		return engine.Rejected, err
	}
	r.requests = append(r.requests, req)
	return r.outcome, nil
}

func (r *recordingRotator) ForceCommit(time.Time) bool {
	r.forced++
	return false
}

type label struct {
	text string
}

func (l *label) SetText(s string) { l.text = s }

func TestRouter_StartsInViewMode(t *testing.T) {
	l := &label{}
	r := NewRouter(&recordingRotator{}, l)
	if r.Mode() != ModeView {
		t.Errorf("mode = %v, want VIEW", r.Mode())
	}
	if want := "VIEW mode ON (to switch - press 'g')"; l.text != want {
		t.Errorf("label = %q, want %q", l.text, want)
	}
}

func TestRouter_ToggleKey(t *testing.T) {
	l := &label{}
	rot := &recordingRotator{}
	r := NewRouter(rot, l)

	res, err := r.HandleKey("g")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Toggled || res.Routed {
		t.Errorf("result = %+v", res)
	}
	if r.Mode() != ModeAction {
		t.Error("g should switch to ACTION")
	}
	if want := "ACTION mode ON (to switch - press 'g')"; l.text != want {
		t.Errorf("label = %q, want %q", l.text, want)
	}

	r.HandleKey("G")
	if r.Mode() != ModeView {
		t.Error("second toggle should return to VIEW")
	}
	if len(rot.requests) != 0 {
		t.Error("toggling must not turn anything")
	}
}

func TestRouter_FaceKeys(t *testing.T) {
	rot := &recordingRotator{outcome: engine.Started}
	r := NewRouter(rot, nil)

	want := map[string]cube.Face{
		"a": cube.Left, "d": cube.Right, "w": cube.Top,
		"s": cube.Bottom, "f": cube.Front, "b": cube.Back,
	}
	for key, face := range want {
		rot.requests = nil
		res, err := r.HandleKey(key)
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if !res.Routed || res.Face != face || res.Outcome != engine.Started {
			t.Errorf("%s: result = %+v", key, res)
		}
		if len(rot.requests) != 1 {
			t.Fatalf("%s: %d requests", key, len(rot.requests))
		}
		req := rot.requests[0]
		if req.Face != face || !req.Animated || req.Direction != engine.Forward || req.Source != SourceKeyboard {
			t.Errorf("%s: request = %+v", key, req)
		}
	}

	res, _ := r.HandleKey("x")
	if res.Routed {
		t.Error("unbound key should be ignored")
	}
	if len(rot.requests) != 1 {
		t.Error("unbound key reached the engine")
	}
}

func TestRouter_PointerIgnoredInViewMode(t *testing.T) {
	rot := &recordingRotator{}
	r := NewRouter(rot, nil)

	res, err := r.HandlePointer(ButtonPrimary, []Hit{{Face: cube.Left}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Routed || len(rot.requests) != 0 {
		t.Error("pointer input should be ignored in VIEW mode")
	}
}

func TestRouter_PointerButtonFiltering(t *testing.T) {
	tests := []struct {
		name   string
		button Button
		hits   []cube.Face
		want   cube.Face
		routed bool
	}{
		{"primary skips top", ButtonPrimary, []cube.Face{cube.Top, cube.Left, cube.Front}, cube.Left, true},
		{"secondary skips sides", ButtonSecondary, []cube.Face{cube.Left, cube.Front, cube.Bottom}, cube.Bottom, true},
		{"primary back", ButtonPrimary, []cube.Face{cube.Back}, cube.Back, true},
		{"secondary nothing eligible", ButtonSecondary, []cube.Face{cube.Front, cube.Back}, 0, false},
		{"no hits", ButtonPrimary, nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot := &recordingRotator{outcome: engine.Started}
			r := NewRouter(rot, nil, WithInitialMode(ModeAction))

			var hits []Hit
			for i, f := range tt.hits {
				hits = append(hits, Hit{Face: f, Distance: float64(i)})
			}
			res, err := r.HandlePointer(tt.button, hits)
			if err != nil {
				t.Fatal(err)
			}
			if res.Routed != tt.routed {
				t.Fatalf("routed = %v, want %v", res.Routed, tt.routed)
			}
			if tt.routed {
				if len(rot.requests) != 1 || rot.requests[0].Face != tt.want {
					t.Errorf("requests = %+v, want one %v", rot.requests, tt.want)
				}
			} else if len(rot.requests) != 0 {
				t.Errorf("unexpected requests %+v", rot.requests)
			}
		})
	}
}

func TestRouter_ButtonsWorkInViewMode(t *testing.T) {
	rot := &recordingRotator{outcome: engine.Started}
	r := NewRouter(rot, nil)
	res, err := r.HandleButton(cube.Bottom)
	if err != nil || !res.Routed {
		t.Fatalf("HandleButton = %+v, %v", res, err)
	}
	if rot.requests[0].Source != SourceButton {
		t.Errorf("source = %q", rot.requests[0].Source)
	}
}

func TestRouter_InvalidFaceFromButton(t *testing.T) {
	r := NewRouter(&recordingRotator{}, nil)
	_, err := r.HandleButton(cube.Face(42))
	if !errors.Is(err, cube.ErrInvalidFace) {
		t.Errorf("err = %v, want ErrInvalidFace", err)
	}
}

func TestRouter_BusyWithRealEngine(t *testing.T) {
	now := time.Unix(100, 0)
	e := engine.New(engine.WithClock(func() time.Time { return now }))
	r := NewRouter(e, nil)

	first, _ := r.HandleKey("a")
	second, _ := r.HandleKey("w")
	if first.Outcome != engine.Started {
		t.Errorf("first = %v", first.Outcome)
	}
	if second.Outcome != engine.Busy {
		t.Errorf("second = %v, want busy", second.Outcome)
	}
}

func TestRouter_SmartCubeFinishesAnimation(t *testing.T) {
	now := time.Unix(100, 0)
	e := engine.New(engine.WithClock(func() time.Time { return now }))
	r := NewRouter(e, nil, WithClock(func() time.Time { return now }))

	r.HandleKey("a")
	res, err := r.HandleSmartCube(cube.Right, engine.Reverse)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != engine.Committed {
		t.Fatalf("smart cube turn = %v, want committed", res.Outcome)
	}
	if err := e.Verify(); err != nil {
		t.Fatal(err)
	}

	want := engine.New()
	want.RotateFace(cube.Left, false)
	want.Rotate(cube.Right, engine.Reverse, false)
	got, exp := e.Snapshot(), want.Snapshot()
	for i := range got {
		if got[i] != exp[i] {
			t.Fatalf("cubie %d: %+v, want %+v", i, got[i], exp[i])
		}
	}
}

func TestRouter_ResultObserver(t *testing.T) {
	var seen []Result
	r := NewRouter(&recordingRotator{outcome: engine.Started}, nil, WithResultObserver(func(res Result) {
		seen = append(seen, res)
	}))
	r.HandleKey("g")
	r.HandleKey("f")
	r.HandleKey("q")
	if len(seen) != 2 {
		t.Fatalf("observed %d results, want 2", len(seen))
	}
	if !seen[0].Toggled || seen[1].Face != cube.Front {
		t.Errorf("results = %+v", seen)
	}
}

func TestRouter_CustomKeys(t *testing.T) {
	rot := &recordingRotator{}
	r := NewRouter(rot, nil, WithKeyMap(map[string]cube.Face{"L": cube.Left}), WithToggleKey("m"))
	r.HandleKey("l")
	if len(rot.requests) != 1 {
		t.Fatal("custom key not bound")
	}
	r.HandleKey("m")
	if r.Mode() != ModeAction {
		t.Error("custom toggle key not bound")
	}
	if k, ok := r.KeyFor(cube.Left); !ok || k != "l" {
		t.Errorf("KeyFor(LEFT) = %q, %v", k, ok)
	}
}

func TestPick_FrontView(t *testing.T) {
	tests := []struct {
		name  string
		x, y  float64
		first cube.Face
		n     int
	}{
		{"center", 0, 0, cube.Front, 2},
		{"left column", -1, 0, cube.Left, 3},
		{"right column", 1, 0, cube.Right, 3},
		{"top row", 0, 1, cube.Top, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := Pick(FrontRay(tt.x, tt.y))
			if len(hits) != tt.n {
				t.Fatalf("hits = %+v, want %d", hits, tt.n)
			}
			if hits[0].Face != tt.first {
				t.Errorf("nearest = %v, want %v", hits[0].Face, tt.first)
			}
			for i := 1; i < len(hits); i++ {
				if hits[i].Distance < hits[i-1].Distance {
					t.Error("hits not sorted by distance")
				}
			}
		})
	}

	if hits := Pick(FrontRay(5, 5)); len(hits) != 0 {
		t.Errorf("ray outside the cube hit %+v", hits)
	}
}

func TestPick_SecondaryOnTopRow(t *testing.T) {
	rot := &recordingRotator{outcome: engine.Started}
	r := NewRouter(rot, nil, WithInitialMode(ModeAction))
	res, _ := r.HandlePointer(ButtonSecondary, Pick(FrontRay(0, 1)))
	if !res.Routed || res.Face != cube.Top {
		t.Errorf("result = %+v, want TOP", res)
	}
}

func TestFromRotation(t *testing.T) {
	tests := []struct {
		color     cube.Color
		clockwise bool
		face      cube.Face
		dir       engine.Direction
	}{
		{cube.White, true, cube.Top, engine.Forward},
		{cube.Yellow, true, cube.Bottom, engine.Reverse},
		{cube.Red, true, cube.Right, engine.Forward},
		{cube.Orange, false, cube.Left, engine.Forward},
		{cube.Green, true, cube.Front, engine.Reverse},
		{cube.Blue, false, cube.Back, engine.Reverse},
	}
	for _, tt := range tests {
		face, dir, err := FromRotation(protocol.RotationEvent{Color: tt.color, Clockwise: tt.clockwise})
		if err != nil {
			t.Fatal(err)
		}
		if face != tt.face || dir != tt.dir {
			t.Errorf("%v cw=%v -> %v %v, want %v %v", tt.color, tt.clockwise, face, dir, tt.face, tt.dir)
		}
	}

	if _, _, err := FromRotation(protocol.RotationEvent{Color: cube.None}); err == nil {
		t.Error("unknown color should fail")
	}
}

func TestButtonAccepts(t *testing.T) {
	for _, f := range cube.Faces() {
		vertical := f == cube.Top || f == cube.Bottom
		if ButtonPrimary.Accepts(f) == vertical {
			t.Errorf("primary accepts %v = %v", f, !vertical)
		}
		if ButtonSecondary.Accepts(f) != vertical {
			t.Errorf("secondary accepts %v = %v", f, vertical)
		}
	}
}
