package l4labels

// flowEpsilon is the relative residual capacity treated as zero.
const flowEpsilon = 1e-12

// flowGraph is an adjacency-list residual network. Edge e and e^1 are each
// other's reverse.
type flowGraph struct {
	head  []int
	next  []int
	to    []int
	cap   []float64
	level []int
	iter  []int
}

func newFlowGraph(nodes, edgeHint int) *flowGraph {
	g := &flowGraph{
		head:  make([]int, nodes),
		next:  make([]int, 0, 2*edgeHint),
		to:    make([]int, 0, 2*edgeHint),
		cap:   make([]float64, 0, 2*edgeHint),
		level: make([]int, nodes),
		iter:  make([]int, nodes),
	}
	for i := range g.head {
		g.head[i] = -1
	}
	return g
}

// addEdge adds u->v with capacity c and v->u with capacity rc.
func (g *flowGraph) addEdge(u, v int, c, rc float64) {
	g.to = append(g.to, v)
	g.cap = append(g.cap, c)
	g.next = append(g.next, g.head[u])
	g.head[u] = len(g.to) - 1

	g.to = append(g.to, u)
	g.cap = append(g.cap, rc)
	g.next = append(g.next, g.head[v])
	g.head[v] = len(g.to) - 1
}

// bfs assigns BFS levels from s over edges with residual above eps and
// reports whether t was reached.
func (g *flowGraph) bfs(s, t int, eps float64) bool {
	for i := range g.level {
		g.level[i] = -1
	}
	g.level[s] = 0
	queue := []int{s}
	for j := 0; j < len(queue); j++ {
		u := queue[j]
		for e := g.head[u]; e >= 0; e = g.next[e] {
			if g.cap[e] > eps && g.level[g.to[e]] < 0 {
				g.level[g.to[e]] = g.level[u] + 1
				queue = append(queue, g.to[e])
			}
		}
	}
	return g.level[t] >= 0
}

// dfs pushes a blocking-flow augmenting path from u.
func (g *flowGraph) dfs(u, t int, f, eps float64) float64 {
	if u == t {
		return f
	}
	for ; g.iter[u] >= 0; g.iter[u] = g.next[g.iter[u]] {
		e := g.iter[u]
		v := g.to[e]
		if g.cap[e] <= eps || g.level[v] != g.level[u]+1 {
			continue
		}
		d := g.dfs(v, t, min(f, g.cap[e]), eps)
		if d > 0 {
			g.cap[e] -= d
			g.cap[e^1] += d
			return d
		}
	}
	return 0
}

// maxFlow runs Dinic's algorithm and returns the flow value.
func (g *flowGraph) maxFlow(s, t int, eps float64) float64 {
	var flow float64
	for g.bfs(s, t, eps) {
		copy(g.iter, g.head)
		for {
			f := g.dfs(s, t, inf, eps)
			if f <= eps {
				break
			}
			flow += f
		}
	}
	return flow
}

// reachable marks nodes reachable from s in the residual graph.
func (g *flowGraph) reachable(s int, eps float64) []bool {
	seen := make([]bool, len(g.head))
	seen[s] = true
	stack := []int{s}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for e := g.head[u]; e >= 0; e = g.next[e] {
			if g.cap[e] > eps && !seen[g.to[e]] {
				seen[g.to[e]] = true
				stack = append(stack, g.to[e])
			}
		}
	}
	return seen
}

const inf = 1e300
