package cube

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Orientation is an axis-aligned rotation stored as a signed permutation
// matrix. It maps cubie-local directions to world directions: world = O·local.
// Exactly 24 values are proper rotations.
type Orientation [3][3]int

// Identity is the home orientation.
var Identity = Orientation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// quarterCosSin returns cos and sin of quarters·90°.
func quarterCosSin(quarters int) (int, int) {
	switch ((quarters % 4) + 4) % 4 {
	case 1:
		return 0, 1
	case 2:
		return -1, 0
	case 3:
		return 0, -1
	default:
		return 1, 0
	}
}

// QuarterTurn returns the right-handed rotation of quarters·90° about axis.
// A positive quarter about X takes (y, z) to (-z, y).
func QuarterTurn(axis Axis, quarters int) Orientation {
	c, s := quarterCosSin(quarters)
	switch axis {
	case AxisX:
		return Orientation{{1, 0, 0}, {0, c, -s}, {0, s, c}}
	case AxisY:
		return Orientation{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
	default:
		return Orientation{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
	}
}

// Mul returns o·b (apply b first, then o).
func (o Orientation) Mul(b Orientation) Orientation {
	var out Orientation
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = o[r][0]*b[0][c] + o[r][1]*b[1][c] + o[r][2]*b[2][c]
		}
	}
	return out
}

// Transpose returns the inverse rotation.
func (o Orientation) Transpose() Orientation {
	var out Orientation
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = o[c][r]
		}
	}
	return out
}

// Apply rotates p.
func (o Orientation) Apply(p Point) Point {
	return Point{
		X: o[0][0]*p.X + o[0][1]*p.Y + o[0][2]*p.Z,
		Y: o[1][0]*p.X + o[1][1]*p.Y + o[1][2]*p.Z,
		Z: o[2][0]*p.X + o[2][1]*p.Y + o[2][2]*p.Z,
	}
}

// Valid reports whether o is a proper axis-aligned rotation.
func (o Orientation) Valid() bool {
	for i := 0; i < 3; i++ {
		rowNZ, colNZ := 0, 0
		for j := 0; j < 3; j++ {
			if v := o[i][j]; v != 0 {
				if v != 1 && v != -1 {
					return false
				}
				rowNZ++
			}
			if o[j][i] != 0 {
				colNZ++
			}
		}
		if rowNZ != 1 || colNZ != 1 {
			return false
		}
	}
	return o.det() == 1
}

func (o Orientation) det() int {
	return o[0][0]*(o[1][1]*o[2][2]-o[1][2]*o[2][1]) -
		o[0][1]*(o[1][0]*o[2][2]-o[1][2]*o[2][0]) +
		o[0][2]*(o[1][0]*o[2][1]-o[1][1]*o[2][0])
}

// OrientationFromQuat snaps a rotation to the nearest axis-aligned
// orientation by rounding its matrix entries. q must be within 45° of an
// axis-aligned rotation for the result to be Valid.
func OrientationFromQuat(q mgl64.Quat) Orientation {
	m := q.Normalize().Mat4()
	var o Orientation
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			o[r][c] = int(math.Round(m.At(r, c)))
		}
	}
	return o
}

// Quat converts the orientation to a unit quaternion.
func (o Orientation) Quat() mgl64.Quat {
	var m mgl64.Mat4
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, float64(o[r][c]))
		}
	}
	m.Set(3, 3, 1)
	return mgl64.Mat4ToQuat(m).Normalize()
}

// RotatePoint rotates p by quarters·90° about axis.
func RotatePoint(p Point, axis Axis, quarters int) Point {
	return QuarterTurn(axis, quarters).Apply(p)
}
