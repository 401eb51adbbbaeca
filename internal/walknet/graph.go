package walknet

import (
	"math"

	"github.com/sells-group/sitescore/internal/model"
)

// coordScale quantizes coordinates to six decimal places (~0.1 m) so that
// vertices shared by adjoining segments merge into one node.
const coordScale = 1e6

// NodeKey identifies a graph node by its quantized coordinate.
type NodeKey struct {
	Lat int64
	Lng int64
}

// KeyOf returns the node key for c.
func KeyOf(c model.LatLng) NodeKey {
	return NodeKey{
		Lat: int64(math.Round(c.Lat * coordScale)),
		Lng: int64(math.Round(c.Lng * coordScale)),
	}
}

// Node is a graph vertex. Coord is the first coordinate seen for the key.
type Node struct {
	Key   NodeKey
	Coord model.LatLng

	weights map[NodeKey]float64
	adj     []NodeKey
}

// Degree returns the number of distinct neighbours.
func (n *Node) Degree() int { return len(n.adj) }

// Graph is an undirected weighted graph of walkable paths. Edge weights are
// geodesic lengths in metres. A Graph is built per request and is not safe
// for concurrent mutation; concurrent reads are fine once built.
type Graph struct {
	nodes map[NodeKey]*Node
	order []NodeKey
	edges int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeKey]*Node)}
}

// BuildGraph creates a graph from path segments. Every consecutive pair of
// valid vertices becomes an undirected edge; when the same pair appears more
// than once the shortest weight wins. Pairs with an invalid endpoint are
// skipped while the rest of the segment still contributes.
func BuildGraph(paths []model.PathSegment) *Graph {
	g := NewGraph()
	for _, p := range paths {
		for i := 1; i < len(p.Coords); i++ {
			a, b := p.Coords[i-1], p.Coords[i]
			if !a.Valid() || !b.Valid() {
				continue
			}
			g.AddEdge(a, b)
		}
	}
	return g
}

// AddEdge inserts both endpoints and relaxes the edge between them. It is a
// no-op when both endpoints quantize to the same node.
func (g *Graph) AddEdge(a, b model.LatLng) {
	na := g.ensure(a)
	nb := g.ensure(b)
	if na.Key == nb.Key {
		return
	}

	w := Distance(na.Coord, nb.Coord)
	if cur, ok := na.weights[nb.Key]; ok {
		if w < cur {
			na.weights[nb.Key] = w
			nb.weights[na.Key] = w
		}
		return
	}

	na.weights[nb.Key] = w
	na.adj = append(na.adj, nb.Key)
	nb.weights[na.Key] = w
	nb.adj = append(nb.adj, na.Key)
	g.edges++
}

func (g *Graph) ensure(c model.LatLng) *Node {
	k := KeyOf(c)
	if n, ok := g.nodes[k]; ok {
		return n
	}
	n := &Node{Key: k, Coord: c, weights: make(map[NodeKey]float64)}
	g.nodes[k] = n
	g.order = append(g.order, k)
	return n
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Node returns the node stored under k.
func (g *Graph) Node(k NodeKey) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[k]
	return n, ok
}

// Weight returns the edge weight between a and b.
func (g *Graph) Weight(a, b NodeKey) (float64, bool) {
	n, ok := g.Node(a)
	if !ok {
		return 0, false
	}
	w, ok := n.weights[b]
	return w, ok
}

// Neighbors calls fn for every neighbour of k in insertion order.
func (g *Graph) Neighbors(k NodeKey, fn func(nb NodeKey, w float64)) {
	n, ok := g.Node(k)
	if !ok {
		return
	}
	for _, nb := range n.adj {
		fn(nb, n.weights[nb])
	}
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	if g == nil {
		return nil
	}
	out := make([]*Node, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.nodes[k])
	}
	return out
}

// Snap is the result of locating the node nearest to a point.
type Snap struct {
	Key      NodeKey
	Coord    model.LatLng
	Distance float64
}

// Nearest returns the node closest to p by geodesic distance. Ties keep the
// node inserted first. It scans every node.
func (g *Graph) Nearest(p model.LatLng) (Snap, bool) {
	if g.NodeCount() == 0 || !p.Valid() {
		return Snap{}, false
	}

	best := Snap{Distance: math.Inf(1)}
	found := false
	for _, k := range g.order {
		n := g.nodes[k]
		d := Distance(p, n.Coord)
		if !found || d < best.Distance {
			best = Snap{Key: k, Coord: n.Coord, Distance: d}
			found = true
		}
	}
	return best, found
}
