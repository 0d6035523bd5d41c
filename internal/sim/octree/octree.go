// Package octree is a point octree for proximity queries over sparse
// 3D positions. Growth-style collaborators use it to find attractors
// near a sample point without scanning every entry.
package octree

import "math"

const leafCapacity = 8

// Point is a position with a caller-assigned identifier.
type Point struct {
	X, Y, Z float64
	ID      int
}

// Tree is a fixed-extent point octree. The extent is set at
// construction; inserts outside it are rejected.
type Tree struct {
	root *node
	size int
}

type node struct {
	// Cube center and half-width.
	cx, cy, cz float64
	half       float64

	points   []Point
	children *[8]*node
}

// New builds a tree covering the cube centered at (cx, cy, cz) with the
// given half-width.
func New(cx, cy, cz, half float64) *Tree {
	return &Tree{root: &node{cx: cx, cy: cy, cz: cz, half: half}}
}

// Len reports the number of stored points.
func (t *Tree) Len() int { return t.size }

// Insert adds a point; returns false if it lies outside the extent.
func (t *Tree) Insert(p Point) bool {
	if !t.root.contains(p.X, p.Y, p.Z) {
		return false
	}
	t.root.insert(p)
	t.size++
	return true
}

func (n *node) contains(x, y, z float64) bool {
	return x >= n.cx-n.half && x < n.cx+n.half &&
		y >= n.cy-n.half && y < n.cy+n.half &&
		z >= n.cz-n.half && z < n.cz+n.half
}

func (n *node) insert(p Point) {
	if n.children == nil {
		if len(n.points) < leafCapacity || n.half <= 1e-6 {
			n.points = append(n.points, p)
			return
		}
		n.split()
	}
	n.childFor(p.X, p.Y, p.Z).insert(p)
}

func (n *node) split() {
	n.children = new([8]*node)
	h := n.half / 2
	for i := 0; i < 8; i++ {
		cx := n.cx - h
		if i&1 != 0 {
			cx = n.cx + h
		}
		cy := n.cy - h
		if i&2 != 0 {
			cy = n.cy + h
		}
		cz := n.cz - h
		if i&4 != 0 {
			cz = n.cz + h
		}
		n.children[i] = &node{cx: cx, cy: cy, cz: cz, half: h}
	}
	pts := n.points
	n.points = nil
	for _, p := range pts {
		n.childFor(p.X, p.Y, p.Z).insert(p)
	}
}

func (n *node) childFor(x, y, z float64) *node {
	i := 0
	if x >= n.cx {
		i |= 1
	}
	if y >= n.cy {
		i |= 2
	}
	if z >= n.cz {
		i |= 4
	}
	return n.children[i]
}

// Within appends all points inside radius of (x, y, z) to out and
// returns it.
func (t *Tree) Within(x, y, z, radius float64, out []Point) []Point {
	return t.root.within(x, y, z, radius*radius, out)
}

func (n *node) within(x, y, z, r2 float64, out []Point) []Point {
	if n.minDist2(x, y, z) > r2 {
		return out
	}
	for _, p := range n.points {
		if dist2(p, x, y, z) <= r2 {
			out = append(out, p)
		}
	}
	if n.children != nil {
		for _, c := range n.children {
			out = c.within(x, y, z, r2, out)
		}
	}
	return out
}

// Nearest finds the closest stored point to (x, y, z). ok is false on
// an empty tree.
func (t *Tree) Nearest(x, y, z float64) (best Point, ok bool) {
	bestD2 := math.Inf(1)
	t.root.nearest(x, y, z, &best, &bestD2, &ok)
	return best, ok
}

func (n *node) nearest(x, y, z float64, best *Point, bestD2 *float64, found *bool) {
	if n.minDist2(x, y, z) >= *bestD2 {
		return
	}
	for _, p := range n.points {
		if d := dist2(p, x, y, z); d < *bestD2 {
			*bestD2 = d
			*best = p
			*found = true
		}
	}
	if n.children == nil {
		return
	}
	// Descend the containing octant first so the bound tightens early.
	first := n.childFor(x, y, z)
	first.nearest(x, y, z, best, bestD2, found)
	for _, c := range n.children {
		if c != first {
			c.nearest(x, y, z, best, bestD2, found)
		}
	}
}

// minDist2 is the squared distance from a point to the node's cube,
// zero if inside.
func (n *node) minDist2(x, y, z float64) float64 {
	dx := axisDist(x, n.cx, n.half)
	dy := axisDist(y, n.cy, n.half)
	dz := axisDist(z, n.cz, n.half)
	return dx*dx + dy*dy + dz*dz
}

func axisDist(v, c, half float64) float64 {
	d := math.Abs(v-c) - half
	if d < 0 {
		return 0
	}
	return d
}

func dist2(p Point, x, y, z float64) float64 {
	dx, dy, dz := p.X-x, p.Y-y, p.Z-z
	return dx*dx + dy*dy + dz*dz
}
