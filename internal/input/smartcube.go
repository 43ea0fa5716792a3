package input

import (
	"fmt"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/protocol"
)

// A Forward turn is clockwise when seen from outside RIGHT, TOP and BACK,
// and counter-clockwise when seen from outside the opposite faces.
var clockwiseIsForward = map[cube.Face]bool{
	cube.Right:  true,
	cube.Top:    true,
	cube.Back:   true,
	cube.Left:   false,
	cube.Bottom: false,
	cube.Front:  false,
}

// FaceForColor returns the face whose solved center has color c, assuming
// the cube is held white up, green toward the viewer.
func FaceForColor(c cube.Color) (cube.Face, error) {
	for _, f := range cube.Faces() {
		if cube.SolvedColor(f) == c {
			return f, nil
		}
	}
	return 0, fmt.Errorf("no face for color %v", c)
}

// FromRotation converts a smart-cube rotation into a face and direction.
func FromRotation(ev protocol.RotationEvent) (cube.Face, engine.Direction, error) {
	face, err := FaceForColor(ev.Color)
	if err != nil {
		return 0, 0, err
	}
	dir := engine.Reverse
	if ev.Clockwise == clockwiseIsForward[face] {
		dir = engine.Forward
	}
	return face, dir, nil
}
