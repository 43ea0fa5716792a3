package cube

// FaceMask is a bitmask of faces. Bit i is set for Face(i).
type FaceMask uint8

// Has reports whether f is in the mask.
func (m FaceMask) Has(f Face) bool {
	return f.Valid() && m&(1<<uint(f)) != 0
}

// Faces returns the faces in the mask in Faces() order.
func (m FaceMask) Faces() []Face {
	var out []Face
	for _, f := range Faces() {
		if m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

type faceDef struct {
	axis Axis
	// layer is the coordinate along axis shared by every member.
	layer int
}

var faceDefs = [NumFaces]faceDef{
	Left:   {axis: AxisX, layer: -1},
	Right:  {axis: AxisX, layer: 1},
	Top:    {axis: AxisY, layer: 1},
	Bottom: {axis: AxisY, layer: -1},
	Front:  {axis: AxisZ, layer: -1},
	Back:   {axis: AxisZ, layer: 1},
}

// Precomputed once; the lattice never changes.
var (
	faceMembers [NumFaces][]Point
	pointMasks  [27]FaceMask
)

func init() {
	for _, f := range Faces() {
		def := faceDefs[f]
		members := make([]Point, 0, 9)
		for _, p := range allPositions {
			if p.Component(def.axis) == def.layer {
				members = append(members, p)
				pointMasks[p.Index()] |= 1 << uint(f)
			}
		}
		faceMembers[f] = members
	}
}

// MembersOf returns the 9 lattice points in the face's layer.
func MembersOf(f Face) ([]Point, error) {
	if !f.Valid() {
		return nil, invalidFace(f)
	}
	out := make([]Point, len(faceMembers[f]))
	copy(out, faceMembers[f])
	return out, nil
}

// AxisOf returns the rotation axis of the face. Opposite faces share an axis.
func AxisOf(f Face) (Axis, error) {
	if !f.Valid() {
		return 0, invalidFace(f)
	}
	return faceDefs[f].axis, nil
}

// LayerOf returns the coordinate along AxisOf(f) shared by the face members.
func LayerOf(f Face) (int, error) {
	if !f.Valid() {
		return 0, invalidFace(f)
	}
	return faceDefs[f].layer, nil
}

// Normal returns the outward unit normal of the face.
func Normal(f Face) (Point, error) {
	if !f.Valid() {
		return Point{}, invalidFace(f)
	}
	return normal(f), nil
}

func normal(f Face) Point {
	def := faceDefs[f]
	u := def.axis.Unit()
	if def.layer < 0 {
		return u.Neg()
	}
	return u
}

// MaskOf returns the set of faces whose layer contains p. The interior
// point (0,0,0) and invalid points have an empty mask.
func MaskOf(p Point) FaceMask {
	i := p.Index()
	if i < 0 {
		return 0
	}
	return pointMasks[i]
}

// InFace reports whether p belongs to face f.
func InFace(p Point, f Face) bool {
	return MaskOf(p).Has(f)
}
