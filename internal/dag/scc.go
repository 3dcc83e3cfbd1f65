package dag

import "slices"

// StronglyConnected returns the strongly connected components that contain
// a cycle, using Tarjan's algorithm. Each component is sorted and the list
// is ordered by its first member. Single nodes are only reported when they
// have an edge to themselves, which AddEdge never creates.
func (g *Graph) StronglyConnected() [][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	index := 0
	indices := make(map[string]int, len(g.nodes))
	lowlink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var stack []string
	var components [][]string

	var strongConnect func(n *node)
	strongConnect = func(n *node) {
		indices[n.id] = index
		lowlink[n.id] = index
		index++
		stack = append(stack, n.id)
		onStack[n.id] = true

		for _, id := range sortedKeys(n.succs) {
			if _, visited := indices[id]; !visited {
				strongConnect(n.succs[id])
				lowlink[n.id] = min(lowlink[n.id], lowlink[id])
			} else if onStack[id] {
				lowlink[n.id] = min(lowlink[n.id], indices[id])
			}
		}

		if lowlink[n.id] != indices[n.id] {
			return
		}
		var component []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)
			if top == n.id {
				break
			}
		}
		if len(component) > 1 {
			slices.Sort(component)
			components = append(components, component)
		}
	}

	for _, id := range g.sortedIDs() {
		if _, visited := indices[id]; !visited {
			strongConnect(g.nodes[id])
		}
	}

	slices.SortFunc(components, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return components
}

// CycleIn returns a simple cycle through the smallest member of a strongly
// connected component, in edge order. At each step it follows the smallest
// successor inside the component that has not been used yet, backtracking
// when a branch dead-ends, so the result is deterministic.
func (g *Graph) CycleIn(component []string) []string {
	if len(component) < 2 {
		return slices.Clone(component)
	}
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	members := make(map[string]bool, len(component))
	for _, id := range component {
		members[id] = true
	}
	start := slices.Min(component)

	path := []string{start}
	onPath := map[string]bool{start: true}

	var walk func(id string) bool
	walk = func(id string) bool {
		n := g.nodes[id]
		for _, next := range sortedKeys(n.succs) {
			if !members[next] {
				continue
			}
			if next == start {
				return true
			}
			if onPath[next] {
				continue
			}
			path = append(path, next)
			onPath[next] = true
			if walk(next) {
				return true
			}
			path = path[:len(path)-1]
			delete(onPath, next)
		}
		return false
	}

	if !walk(start) {
		return nil
	}
	return path
}
