package curator

import (
	"container/heap"
	"fmt"
	"reflect"
	"slices"
)

// MergeKeyOrder merges the row orders of several primary key tables into a
// single order consistent with all of them.
//
// Every table must have the same key columns. Rows whose key cells are all
// null are ignored, duplicate keys within a table are an error. Each table
// contributes a path through its keys to a directed graph, the merged order is
// a topological sort of that graph where ties are broken by the smallest key.
// With descending, tables are expected in mostly descending order: the graph is
// sorted reversed and the result reversed back, so that ties still resolve
// consistently.
//
// Two tables disagreeing on the relative order of two keys make a cycle, and
// MergeKeyOrder returns an error matching ErrOrder.
func MergeKeyOrder(keyTables []*Table, descending bool) (*Table, error) {
	if len(keyTables) == 0 {
		return EmptyTable(), nil
	}
	names := keyTables[0].Names()
	if len(names) == 0 {
		return nil, runtimeError("key tables have no column")
	}
	kinds := keyKinds(keyTables[0])
	for i, t := range keyTables[1:] {
		if !slices.Equal(t.Names(), names) {
			return nil, runtimeError("key table %d has columns %v, want %v", i+1, t.Names(), names)
		}
		for j, k := range keyKinds(t) {
			if k != nil && kinds[j] != nil && k != kinds[j] {
				return nil, runtimeError("key table %d column %q holds %v, want %v", i+1, names[j], k, kinds[j])
			}
			if kinds[j] == nil {
				kinds[j] = k
			}
		}
	}

	g := newKeyGraph()
	for i, t := range keyTables {
		columns := t.columnsOf(names)
		seen := make(map[string]bool, t.Len())
		previous := -1
		for row := range t.Len() {
			key := tuple(columns, row)
			if allNull(key) {
				continue
			}
			k := keyOf(key)
			if seen[k] {
				return nil, runtimeError("key table %d has duplicate key %v", i, key)
			}
			seen[k] = true
			node := g.node(k, key)
			if previous >= 0 {
				if descending {
					g.edge(node, previous)
				} else {
					g.edge(previous, node)
				}
			}
			previous = node
		}
	}

	order, err := g.sort()
	if err != nil {
		return nil, err
	}
	if descending {
		slices.Reverse(order)
	}

	out := make([][]any, len(names))
	for j := range names {
		out[j] = make([]any, len(order))
		for i, node := range order {
			out[j][i] = g.keys[node][j]
		}
	}
	columns := make([]Column, len(names))
	for j := range names {
		columns[j] = Column{values: out[j]}
	}
	return NewTable(names, columns)
}

// keyKinds returns the Go type of the first non null cell of each column.
func keyKinds(t *Table) []reflect.Type {
	kinds := make([]reflect.Type, len(t.columns))
	for j, c := range t.columns {
		for _, v := range c.values {
			if v != nil {
				kinds[j] = reflect.TypeOf(v)
				break
			}
		}
	}
	return kinds
}

func allNull(values []any) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}

// keyGraph is a directed graph of key tuples stored as adjacency lists.
type keyGraph struct {
	ids   map[string]int
	keys  [][]any
	succ  [][]int
	edges map[[2]int]bool
}

func newKeyGraph() *keyGraph {
	return &keyGraph{ids: make(map[string]int), edges: make(map[[2]int]bool)}
}

func (g *keyGraph) node(k string, key []any) int {
	if id, ok := g.ids[k]; ok {
		return id
	}
	id := len(g.keys)
	g.ids[k] = id
	g.keys = append(g.keys, key)
	g.succ = append(g.succ, nil)
	return id
}

func (g *keyGraph) edge(from, to int) {
	if g.edges[[2]int{from, to}] {
		return
	}
	g.edges[[2]int{from, to}] = true
	g.succ[from] = append(g.succ[from], to)
}

// sort runs Kahn's algorithm, always emitting the smallest ready key.
func (g *keyGraph) sort() ([]int, error) {
	indegree := make([]int, len(g.keys))
	for _, succ := range g.succ {
		for _, to := range succ {
			indegree[to]++
		}
	}
	ready := &keyHeap{keys: g.keys}
	for id, d := range indegree {
		if d == 0 {
			ready.ids = append(ready.ids, id)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, len(g.keys))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		order = append(order, id)
		for _, to := range g.succ[id] {
			indegree[to]--
			if indegree[to] == 0 {
				heap.Push(ready, to)
			}
		}
	}
	if len(order) < len(g.keys) {
		var stuck [][]any
		for id, d := range indegree {
			if d > 0 {
				stuck = append(stuck, g.keys[id])
			}
		}
		return nil, fmt.Errorf("%w: inconsistent order around keys %v", ErrOrder, stuck)
	}
	return order, nil
}

// keyHeap is a min heap of node ids ordered by their key tuple.
type keyHeap struct {
	ids  []int
	keys [][]any
}

func (h *keyHeap) Len() int           { return len(h.ids) }
func (h *keyHeap) Less(i, j int) bool { return compareTuples(h.keys[h.ids[i]], h.keys[h.ids[j]]) < 0 }
func (h *keyHeap) Swap(i, j int)      { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }
func (h *keyHeap) Push(x any)         { h.ids = append(h.ids, x.(int)) }
func (h *keyHeap) Pop() any {
	old := h.ids
	n := len(old)
	x := old[n-1]
	h.ids = old[:n-1]
	return x
}
