// Package cube models the 3x3x3 lattice: grid positions, faces, the
// face classifier and the orientation algebra used to commit turns.
package cube

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point is an integer lattice coordinate. Valid points have every
// component in {-1, 0, 1}.
type Point struct {
	X, Y, Z int
}

// Pt is shorthand for Point{x, y, z}.
func Pt(x, y, z int) Point {
	return Point{X: x, Y: y, Z: z}
}

// Valid reports whether p is one of the 27 lattice points.
func (p Point) Valid() bool {
	return inRange(p.X) && inRange(p.Y) && inRange(p.Z)
}

func inRange(v int) bool {
	return v >= -1 && v <= 1
}

// Vec3 converts the point into scene-space coordinates.
func (p Point) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
}

// Component returns the coordinate of p along axis.
func (p Point) Component(axis Axis) int {
	switch axis {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// Neg returns -p.
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y, Z: -p.Z}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Index maps a lattice point onto 0..26 in x-major order.
// Invalid points return -1.
func (p Point) Index() int {
	if !p.Valid() {
		return -1
	}
	return (p.X+1)*9 + (p.Y+1)*3 + (p.Z + 1)
}

// allPositions is built once; callers receive copies.
var allPositions = func() []Point {
	pts := make([]Point, 0, 27)
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				pts = append(pts, Point{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}()

// AllPositions returns the 27 lattice points {-1,0,1}³ in x, y, z order.
// The slice index of each point equals Point.Index.
func AllPositions() []Point {
	out := make([]Point, len(allPositions))
	copy(out, allPositions)
	return out
}

// RoundVec3 snaps a scene-space position to the nearest lattice point.
// Components are rounded half away from zero.
func RoundVec3(v mgl64.Vec3) Point {
	return Point{
		X: int(math.Round(v.X())),
		Y: int(math.Round(v.Y())),
		Z: int(math.Round(v.Z())),
	}
}
