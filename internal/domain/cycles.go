package domain

import "slices"

// Vertex colors for the cycle-detecting DFS.
const (
	colorWhite uint8 = iota // unvisited
	colorGray               // on the current DFS path
	colorBlack              // fully explored
)

// DetectCycles verifies that the directed graph formed by subtask
// dependency edges is acyclic. On finding a cycle it returns a *CycleError
// carrying the full ordered cycle path to aid debugging, e.g.
// S1 -> S2 -> S3 -> S1. Runs in O(nodes + edges).
//
// Traversal order is sorted by ID so the reported cycle is deterministic.
// Dangling dependency references are skipped here; resolving them is the
// validator's job.
func DetectCycles(b *Backlog) error {
	graph := make(map[string][]string)
	for _, st := range b.Subtasks() {
		deps := slices.Clone(st.Dependencies)
		slices.Sort(deps)
		graph[st.ID] = deps
	}

	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	color := make(map[string]uint8, len(graph))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = colorGray
		stack = append(stack, id)
		for _, dep := range graph[id] {
			if _, ok := graph[dep]; !ok {
				continue
			}
			switch color[dep] {
			case colorGray:
				// Back-edge: the cycle is the stack suffix starting at dep,
				// closed by repeating dep.
				start := slices.Index(stack, dep)
				cycle = append(slices.Clone(stack[start:]), dep)
				return true
			case colorWhite:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = colorBlack
		return false
	}

	for _, id := range ids {
		if color[id] == colorWhite && visit(id) {
			return &CycleError{Cycle: cycle}
		}
	}
	return nil
}
