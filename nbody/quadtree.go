package nbody

import (
	"github.com/pkg/errors"
	"github.com/quartercastle/vector"
)

type QuadTreeConfig struct {
	// LeafCapacity is the number of bodies a leaf holds before it is
	// subdivided.
	LeafCapacity int
	// MaxDepth limits subdivision. Leaves at MaxDepth take any number of
	// bodies, otherwise bodies at the exact same position would subdivide
	// forever.
	MaxDepth int
}

var DefaultQuadTreeConfig = QuadTreeConfig{LeafCapacity: 1, MaxDepth: 48}

func (c QuadTreeConfig) withDefaults() *QuadTreeConfig {
	if c.LeafCapacity <= 0 {
		c.LeafCapacity = DefaultQuadTreeConfig.LeafCapacity
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultQuadTreeConfig.MaxDepth
	}
	return &c
}

// QuadTree is a node of the Barnes-Hut tree. A node is a leaf iff it has no
// children; only leaves hold bodies. TotalMass and Center aggregate the whole
// subtree and are updated on every Insert and Remove.
type QuadTree struct {
	Center    vector.Vector
	TotalMass float64
	Region    Region
	Bodies    []Body
	Children  [4]*QuadTree
	count     int
	depth     int
	config    *QuadTreeConfig
}

func NewQuadTree(config *QuadTreeConfig, boundary Region) *QuadTree {
	if config == nil {
		config = &DefaultQuadTreeConfig
	}
	return newQuadTree(config.withDefaults(), boundary, 0)
}

func newQuadTree(config *QuadTreeConfig, boundary Region, depth int) *QuadTree {
	qt := new(QuadTree)
	qt.config = config
	qt.Region = boundary
	qt.depth = depth
	qt.Bodies = make([]Body, 0, config.LeafCapacity)
	qt.Center = vector.Vector{0, 0}
	qt.TotalMass = 0
	return qt
}

// BuildTree inserts all bodies into a new tree covering bounds.
func BuildTree(config *QuadTreeConfig, bounds Region, bodies []Body) (*QuadTree, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	qt := NewQuadTree(config, bounds)
	for i, body := range bodies {
		if err := qt.Insert(body); err != nil {
			return nil, errors.Wrapf(err, "body %d", i)
		}
	}
	return qt, nil
}

func (qt *QuadTree) Clear() {
	qt.Center = vector.Vector{0, 0}
	qt.Bodies = qt.Bodies[:0]
	for i := range qt.Children {
		qt.Children[i] = nil
	}
	qt.TotalMass = 0
	qt.count = 0
}

func (qt *QuadTree) IsLeaf() bool {
	return qt.Children[0] == nil
}

// Len returns the number of bodies in the subtree.
func (qt *QuadTree) Len() int {
	return qt.count
}

// Insert adds a copy of body. Bodies outside of the tree region and bodies
// without a positive mass are rejected.
func (qt *QuadTree) Insert(body Body) error {
	if err := body.validate(); err != nil {
		return err
	}
	if !qt.Region.Contains(body.Pos) {
		return errors.Wrapf(ErrOutOfBounds, "pos=%v region=%+v", body.Pos, qt.Region)
	}
	qt.insert(copyBody(body))
	return nil
}

func (qt *QuadTree) insert(body Body) {
	qt.addMass(body)
	if !qt.IsLeaf() {
		qt.Children[qt.Region.QuadrantOf(body.Pos)].insert(body)
		return
	}
	qt.Bodies = append(qt.Bodies, body)
	if len(qt.Bodies) > qt.config.LeafCapacity && qt.depth < qt.config.MaxDepth {
		qt.subdivide()
	}
}

func (qt *QuadTree) subdivide() {
	for i := range qt.Children {
		qt.Children[i] = newQuadTree(qt.config, qt.Region.Quadrant(i), qt.depth+1)
	}
	for _, body := range qt.Bodies {
		qt.Children[qt.Region.QuadrantOf(body.Pos)].insert(body)
	}
	qt.Bodies = nil
}

// addMass must run before the body is stored, the old total is the weight
// of the old center.
func (qt *QuadTree) addMass(body Body) {
	if qt.count == 0 {
		qt.Center = vector.Vector{body.Pos.X(), body.Pos.Y()}
		qt.TotalMass = body.Mass
		qt.count = 1
		return
	}
	total := qt.TotalMass + body.Mass
	qt.Center = body.Pos.Scale(body.Mass).Add(qt.Center.Scale(qt.TotalMass)).Scale(1 / total)
	qt.TotalMass = total
	qt.count++
}

// removeMass is the exact inverse of addMass.
func (qt *QuadTree) removeMass(body Body) {
	qt.count--
	total := qt.TotalMass - body.Mass
	if qt.count <= 0 || total <= 0 {
		qt.count = 0
		qt.TotalMass = 0
		qt.Center = vector.Vector{0, 0}
		return
	}
	qt.Center = qt.Center.Scale(qt.TotalMass).Sub(body.Pos.Scale(body.Mass)).Scale(1 / total)
	qt.TotalMass = total
}

// Remove deletes one body at the position of body and returns whether a
// body was found. If several bodies share the position, one with the same
// mass is preferred. The mass of the stored body is subtracted.
func (qt *QuadTree) Remove(body Body) bool {
	if len(body.Pos) != 2 || !qt.Region.Contains(body.Pos) {
		return false
	}
	_, ok := qt.remove(body)
	return ok
}

func (qt *QuadTree) remove(body Body) (Body, bool) {
	if qt.IsLeaf() {
		found := -1
		for i, other := range qt.Bodies {
			if !samePosition(other.Pos, body.Pos) {
				continue
			}
			if found < 0 || other.Mass == body.Mass {
				found = i
			}
			if other.Mass == body.Mass {
				break
			}
		}
		if found < 0 {
			return Body{}, false
		}
		removed := qt.Bodies[found]
		qt.Bodies = append(qt.Bodies[:found], qt.Bodies[found+1:]...)
		qt.removeMass(removed)
		return removed, true
	}
	removed, ok := qt.Children[qt.Region.QuadrantOf(body.Pos)].remove(body)
	if !ok {
		return Body{}, false
	}
	qt.removeMass(removed)
	if qt.count <= qt.config.LeafCapacity {
		qt.collapse()
	}
	return removed, true
}

// collapse turns an internal node whose subtree fits into one leaf back
// into a leaf. The aggregates are summed up again from the few remaining
// bodies, which drops the rounding error of the incremental updates.
func (qt *QuadTree) collapse() {
	bodies := make([]Body, 0, qt.config.LeafCapacity)
	qt.Walk(func(node *QuadTree) bool {
		bodies = append(bodies, node.Bodies...)
		return true
	})
	qt.Bodies = bodies
	qt.Children = [4]*QuadTree{}
	qt.Center, qt.TotalMass, qt.count = vector.Vector{0, 0}, 0, 0
	for _, body := range bodies {
		qt.addMass(body)
	}
}

// Walk visits the subtree in pre-order. Children of a node are skipped if fn
// returns false for it.
func (qt *QuadTree) Walk(fn func(*QuadTree) bool) {
	if !fn(qt) || qt.IsLeaf() {
		return
	}
	for _, child := range qt.Children {
		child.Walk(fn)
	}
}

// LeafRegion returns the region of the leaf pos would be stored in.
func (qt *QuadTree) LeafRegion(pos vector.Vector) (Region, bool) {
	if !qt.Region.Contains(pos) {
		return Region{}, false
	}
	node := qt
	for !node.IsLeaf() {
		node = node.Children[node.Region.QuadrantOf(pos)]
	}
	return node.Region, true
}

// Height is the number of levels below this node.
func (qt *QuadTree) Height() int {
	if qt.IsLeaf() {
		return 0
	}
	h := 0
	for _, child := range qt.Children {
		h = max(h, child.Height())
	}
	return h + 1
}
