// Package scene is a minimal headless scene graph: nodes with a local
// position and rotation, parent links, and world-pose queries. Renderers
// read it; the rotation engine writes it.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Node is a transform in the scene tree. A node without a parent is a root.
type Node struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat

	parent   *Node
	children []*Node
}

// NewNode creates a detached node with the identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl64.QuatIdent(),
	}
}

// NewChild creates a node at local position pos under n.
func (n *Node) NewChild(name string, pos mgl64.Vec3) *Node {
	c := NewNode(name)
	c.Position = pos
	c.SetParent(n, false)
	return c
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// WorldPosition returns the node position in root space.
func (n *Node) WorldPosition() mgl64.Vec3 {
	if n.parent == nil {
		return n.Position
	}
	prot := n.parent.WorldRotation()
	return n.parent.WorldPosition().Add(prot.Rotate(n.Position))
}

// WorldRotation returns the node rotation in root space.
func (n *Node) WorldRotation() mgl64.Quat {
	if n.parent == nil {
		return n.Rotation
	}
	return n.parent.WorldRotation().Mul(n.Rotation).Normalize()
}

// SetWorld sets the local transform so that the world pose becomes pos, rot.
func (n *Node) SetWorld(pos mgl64.Vec3, rot mgl64.Quat) {
	if n.parent == nil {
		n.Position = pos
		n.Rotation = rot
		return
	}
	inv := n.parent.WorldRotation().Inverse()
	n.Position = inv.Rotate(pos.Sub(n.parent.WorldPosition()))
	n.Rotation = inv.Mul(rot).Normalize()
}

// SetParent moves n under p (nil detaches it). With keepWorld the local
// transform is re-expressed so the world pose does not change; otherwise
// the local transform is kept as is.
//
// Parenting a node under itself or one of its descendants panics.
func (n *Node) SetParent(p *Node, keepWorld bool) {
	if p == n.parent {
		return
	}
	for a := p; a != nil; a = a.parent {
		if a == n {
			panic(fmt.Sprintf("scene: cannot parent %q under its descendant %q", n.Name, p.Name))
		}
	}

	var pos mgl64.Vec3
	var rot mgl64.Quat
	if keepWorld {
		pos, rot = n.WorldPosition(), n.WorldRotation()
	}

	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = p
	if p != nil {
		p.children = append(p.children, n)
	}

	if keepWorld {
		n.SetWorld(pos, rot)
	}
}

func (n *Node) removeChild(c *Node) {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// ResetRotation sets the local rotation back to identity.
func (n *Node) ResetRotation() {
	n.Rotation = mgl64.QuatIdent()
}
