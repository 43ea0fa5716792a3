package cube

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidFace is matched by every *InvalidFaceError.
var ErrInvalidFace = errors.New("cube: invalid face")

// Axis is one of the three rotation axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "?"
	}
}

// Unit returns the positive unit vector of the axis.
func (a Axis) Unit() Point {
	switch a {
	case AxisX:
		return Point{X: 1}
	case AxisY:
		return Point{Y: 1}
	default:
		return Point{Z: 1}
	}
}

// Vec3 returns the axis as a scene-space unit vector.
func (a Axis) Vec3() mgl64.Vec3 {
	return a.Unit().Vec3()
}

// Face identifies one of the six outer layers.
type Face int

const (
	Left   Face = 0
	Right  Face = 1
	Top    Face = 2
	Bottom Face = 3
	Front  Face = 4 // called FACE in the key and sensor tables
	Back   Face = 5
)

// NumFaces is the number of faces.
const NumFaces = 6

// Faces lists every face in a fixed order.
func Faces() []Face {
	return []Face{Left, Right, Top, Bottom, Front, Back}
}

// Valid reports whether f names one of the six faces.
func (f Face) Valid() bool {
	return f >= Left && f <= Back
}

func (f Face) String() string {
	switch f {
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	case Top:
		return "TOP"
	case Bottom:
		return "BOTTOM"
	case Front:
		return "FACE"
	case Back:
		return "BACK"
	default:
		return fmt.Sprintf("Face(%d)", int(f))
	}
}

// Notation returns the single-letter cube notation for the face.
func (f Face) Notation() string {
	switch f {
	case Left:
		return "L"
	case Right:
		return "R"
	case Top:
		return "U"
	case Bottom:
		return "D"
	case Front:
		return "F"
	case Back:
		return "B"
	default:
		return "?"
	}
}

// InvalidFaceError reports a face identifier outside the six known faces.
type InvalidFaceError struct {
	Name string
}

func (e *InvalidFaceError) Error() string {
	return fmt.Sprintf("cube: invalid face %q", e.Name)
}

// Is makes errors.Is(err, ErrInvalidFace) hold.
func (e *InvalidFaceError) Is(target error) bool {
	return target == ErrInvalidFace
}

func invalidFace(f Face) error {
	return &InvalidFaceError{Name: f.String()}
}

// ParseFace parses a face name (LEFT, RIGHT, TOP, BOTTOM, FACE, BACK, or
// FRONT as an alias for FACE) or a notation letter (L R U D F B).
// Matching is case-insensitive.
func ParseFace(s string) (Face, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LEFT", "L":
		return Left, nil
	case "RIGHT", "R":
		return Right, nil
	case "TOP", "U", "UP":
		return Top, nil
	case "BOTTOM", "D", "DOWN":
		return Bottom, nil
	case "FACE", "FRONT", "F":
		return Front, nil
	case "BACK", "B":
		return Back, nil
	default:
		return 0, &InvalidFaceError{Name: s}
	}
}
