package walknet

import (
	"container/heap"
	"math"
)

// Reachability maps each node reachable from a start node to its shortest
// network distance in metres.
type Reachability map[NodeKey]float64

type frontierItem struct {
	key  NodeKey
	dist float64
}

// frontier is a min-heap on distance. Stale entries are skipped on pop
// instead of being decreased in place.
type frontier []frontierItem

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].dist < f[j].dist }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x interface{}) { *f = append(*f, x.(frontierItem)) }

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}

// ShortestPaths runs Dijkstra from start and returns every node whose
// shortest distance is at most cutoff. Neighbours that would land beyond the
// cutoff are never queued. Pass math.Inf(1) for an unbounded search. An
// unknown start, a NaN cutoff or a negative cutoff yields an empty result.
func ShortestPaths(g *Graph, start NodeKey, cutoff float64) Reachability {
	dist := make(Reachability)
	if math.IsNaN(cutoff) || cutoff < 0 {
		return dist
	}
	if _, ok := g.Node(start); !ok {
		return dist
	}

	dist[start] = 0
	pq := &frontier{{key: start, dist: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(frontierItem)
		if cur.dist > dist[cur.key] {
			continue
		}

		g.Neighbors(cur.key, func(nb NodeKey, w float64) {
			nd := cur.dist + w
			if nd > cutoff {
				return
			}
			if d, seen := dist[nb]; seen && nd >= d {
				return
			}
			dist[nb] = nd
			heap.Push(pq, frontierItem{key: nb, dist: nd})
		})
	}
	return dist
}
