package cube

import "strings"

// Color represents a sticker color.
type Color byte

const (
	White  Color = 0 // Top when solved
	Yellow Color = 1 // Bottom when solved
	Green  Color = 2 // Front (FACE) when solved
	Blue   Color = 3 // Back when solved
	Red    Color = 4 // Right when solved
	Orange Color = 5 // Left when solved
	None   Color = 0xFF
)

func (c Color) String() string {
	switch c {
	case White:
		return "W"
	case Yellow:
		return "Y"
	case Green:
		return "G"
	case Blue:
		return "B"
	case Red:
		return "R"
	case Orange:
		return "O"
	default:
		return "?"
	}
}

// SolvedColor returns the color of a face when solved.
func SolvedColor(f Face) Color {
	switch f {
	case Top:
		return White
	case Bottom:
		return Yellow
	case Front:
		return Green
	case Back:
		return Blue
	case Right:
		return Red
	case Left:
		return Orange
	default:
		return None
	}
}

// colorForNormal returns the sticker color painted on a cubie side whose
// home normal is n.
func colorForNormal(n Point) Color {
	for _, f := range Faces() {
		if normal(f) == n {
			return SolvedColor(f)
		}
	}
	return None
}

// Placement is where a cubie currently sits and how it is turned.
type Placement struct {
	Home        Point
	Grid        Point
	Orientation Orientation
}

// StickerColor returns the color a cubie shows in direction worldNormal.
// The second result is false for interior sides that carry no sticker.
func StickerColor(home Point, o Orientation, worldNormal Point) (Color, bool) {
	local := o.Transpose().Apply(worldNormal)
	if home.X*local.X+home.Y*local.Y+home.Z*local.Z != 1 {
		return None, false
	}
	return colorForNormal(local), true
}

// Facelets is the visible sticker state, indexed by face. Each face has
// 9 facelets indexed as seen from outside the cube:
//
//	0 1 2
//	3 4 5
//	6 7 8
//
// Top is viewed with FACE toward the bottom edge, Bottom with FACE toward
// the top edge, and the four side faces upright.
type Facelets [NumFaces][9]Color

// FaceletPoint returns the lattice point shown at index i of face f.
func FaceletPoint(f Face, i int) Point {
	row, col := i/3, i%3
	switch f {
	case Front:
		return Point{X: col - 1, Y: 1 - row, Z: -1}
	case Back:
		return Point{X: 1 - col, Y: 1 - row, Z: 1}
	case Right:
		return Point{X: 1, Y: 1 - row, Z: col - 1}
	case Left:
		return Point{X: -1, Y: 1 - row, Z: 1 - col}
	case Top:
		return Point{X: col - 1, Y: 1, Z: 1 - row}
	default:
		return Point{X: col - 1, Y: -1, Z: row - 1}
	}
}

// BuildFacelets projects cubie placements onto the six faces.
func BuildFacelets(placements []Placement) Facelets {
	var byGrid [27]*Placement
	for i := range placements {
		if idx := placements[i].Grid.Index(); idx >= 0 {
			byGrid[idx] = &placements[i]
		}
	}

	var f Facelets
	for _, face := range Faces() {
		n := normal(face)
		for i := 0; i < 9; i++ {
			f[face][i] = None
			pl := byGrid[FaceletPoint(face, i).Index()]
			if pl == nil {
				continue
			}
			if c, ok := StickerColor(pl.Home, pl.Orientation, n); ok {
				f[face][i] = c
			}
		}
	}
	return f
}

// SolvedFacelets returns the facelets of an untouched cube.
func SolvedFacelets() Facelets {
	var f Facelets
	for _, face := range Faces() {
		for i := 0; i < 9; i++ {
			f[face][i] = SolvedColor(face)
		}
	}
	return f
}

// IsSolved returns true if every face shows a single color.
func (f Facelets) IsSolved() bool {
	for _, face := range Faces() {
		want := f[face][4]
		for i := 0; i < 9; i++ {
			if f[face][i] != want {
				return false
			}
		}
	}
	return true
}

// String returns the unfolded net: Top above, LEFT FACE RIGHT BACK in a
// row, Bottom below.
func (f Facelets) String() string {
	var b strings.Builder

	writeRow := func(face Face, row int) {
		for col := 0; col < 3; col++ {
			b.WriteString(f[face][row*3+col].String())
			b.WriteString(" ")
		}
	}

	for row := 0; row < 3; row++ {
		b.WriteString("      ")
		writeRow(Top, row)
		b.WriteString("\n")
	}

	for row := 0; row < 3; row++ {
		for _, face := range []Face{Left, Front, Right, Back} {
			writeRow(face, row)
		}
		b.WriteString("\n")
	}

	for row := 0; row < 3; row++ {
		b.WriteString("      ")
		writeRow(Bottom, row)
		b.WriteString("\n")
	}

	return b.String()
}
