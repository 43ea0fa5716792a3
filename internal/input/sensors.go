package input

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
)

// Sensor is an invisible box around one face, used as the pointer hit
// region for that face.
type Sensor struct {
	Face   cube.Face
	Center mgl64.Vec3
	Scale  mgl64.Vec3
}

// Min returns the lower corner of the box.
func (s Sensor) Min() mgl64.Vec3 {
	return s.Center.Sub(s.Scale.Mul(0.5))
}

// Max returns the upper corner of the box.
func (s Sensor) Max() mgl64.Vec3 {
	return s.Center.Add(s.Scale.Mul(0.5))
}

// Slightly oversized slabs hugging each face of the 3x3x3 block.
var sensors = []Sensor{
	{cube.Left, mgl64.Vec3{-0.99, 0, 0}, mgl64.Vec3{1.01, 3.01, 3.01}},
	{cube.Front, mgl64.Vec3{0, 0, -0.99}, mgl64.Vec3{3.01, 3.01, 1.01}},
	{cube.Back, mgl64.Vec3{0, 0, 0.99}, mgl64.Vec3{3.01, 3.01, 1.01}},
	{cube.Right, mgl64.Vec3{0.99, 0, 0}, mgl64.Vec3{1.01, 3.01, 3.01}},
	{cube.Top, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{3.01, 1.01, 3.01}},
	{cube.Bottom, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{3.01, 1.01, 3.01}},
}

// Sensors returns the six face sensors.
func Sensors() []Sensor {
	out := make([]Sensor, len(sensors))
	copy(out, sensors)
	return out
}

// CameraZ is where the default camera sits, looking down +Z at FACE.
const CameraZ = -15

// Ray is a pick ray in world space.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// FrontRay is the ray through screen point (x, y) of an orthographic
// front view from the default camera.
func FrontRay(x, y float64) Ray {
	return Ray{Origin: mgl64.Vec3{x, y, CameraZ}, Dir: mgl64.Vec3{0, 0, 1}}
}

// Hit is a sensor intersected by a ray.
type Hit struct {
	Face     cube.Face
	Distance float64
}

// Pick returns every sensor the ray passes through, nearest first. Sensors
// entered at the same distance keep table order.
func Pick(r Ray) []Hit {
	var hits []Hit
	for _, s := range sensors {
		if d, ok := intersect(r, s.Min(), s.Max()); ok {
			hits = append(hits, Hit{Face: s.Face, Distance: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

// intersect is the slab test. It returns the entry distance along the ray.
func intersect(r Ray, lo, hi mgl64.Vec3) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		o, d := r.Origin[i], r.Dir[i]
		if d == 0 {
			if o < lo[i] || o > hi[i] {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo[i]-o)/d, (hi[i]-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	return math.Max(tmin, 0), true
}
