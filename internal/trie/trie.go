// Package trie implements the bidirectional, fixed-order N-gram trie that
// backs learning and generation. Two independent [Trie] instances (tagged "F"
// and "B") are combined by [Pair], which applies the context-window updates
// described in the specification's learner section.
//
// Node storage is an arena: nodes live in a single growable slice indexed by
// their id, with each node keeping its own ordered list of (symbol, child id)
// pairs for O(1) child lookup and deterministic iteration order — the same
// "pre-reserve vectors, avoid per-node allocation" layout the design notes
// call for.
package trie

// child is one entry in a node's (symbol -> child id) table.
type child struct {
	symbol uint32
	id     uint64
}

// Node is a single trie node. The root node (id 0) has HasParent == false and
// Symbol set to the reserved "<ERROR>" id.
type Node struct {
	ID        uint64
	ParentID  uint64
	HasParent bool
	Symbol    uint32
	Usage     uint64
	Count     uint64

	children []child
	index    map[uint32]int
}

// childID returns the id of the child reached from n via symbol sym, if any.
func (n *Node) childID(sym uint32) (uint64, bool) {
	if n.index == nil {
		return 0, false
	}
	i, ok := n.index[sym]
	if !ok {
		return 0, false
	}
	return n.children[i].id, true
}

// ChildInfo describes one child edge, used by callers that need to weight-
// sample among a node's children (the babble generator and the evaluator).
type ChildInfo struct {
	Symbol uint32
	ID     uint64
	Usage  uint64
}

// Trie is one direction (forward or backward) of the N-gram model.
type Trie struct {
	Tag   string // "F" or "B"
	nodes []Node
}

// New returns an empty [Trie] tagged tag, with only the root node (symbol id
// 0, the "<ERROR>" sentinel) present.
func New(tag string) *Trie {
	t := &Trie{Tag: tag, nodes: make([]Node, 1, 4096)}
	t.nodes[0] = Node{ID: 0, HasParent: false, Symbol: 0}
	return t
}

// Root returns the id of the root node.
func (t *Trie) Root() uint64 { return 0 }

// Len returns the total number of nodes, including the root.
func (t *Trie) Len() int { return len(t.nodes) }

// Usage returns the usage counter of the node with the given id.
func (t *Trie) Usage(id uint64) uint64 { return t.nodes[id].Usage }

// Count returns the count counter of the node with the given id.
func (t *Trie) Count(id uint64) uint64 { return t.nodes[id].Count }

// Symbol returns the symbol carried by the node with the given id.
func (t *Trie) Symbol(id uint64) uint32 { return t.nodes[id].Symbol }

// Parent returns the parent id of the node with the given id, and whether it
// has one (false only for the root).
func (t *Trie) Parent(id uint64) (uint64, bool) {
	n := &t.nodes[id]
	return n.ParentID, n.HasParent
}

// Children returns the ordered list of child edges of the node with the given
// id. The order is the order in which children were first created, which is
// deterministic given a deterministic sequence of [Trie.Insert] calls.
func (t *Trie) Children(id uint64) []ChildInfo {
	n := &t.nodes[id]
	out := make([]ChildInfo, len(n.children))
	for i, c := range n.children {
		out[i] = ChildInfo{Symbol: c.symbol, ID: c.id, Usage: t.nodes[c.id].Usage}
	}
	return out
}

// ChildByID returns the child of node id reached via symbol sym, if present.
func (t *Trie) ChildByID(id uint64, sym uint32) (uint64, bool) {
	return t.nodes[id].childID(sym)
}

// Walk follows context from the root for as long as a matching child exists,
// returning the deepest node reached and how many symbols of context were
// actually consumed. depth == len(context) means the full context was a valid
// path; depth < len(context) means the walk stopped early because no child
// matched at that point.
func (t *Trie) Walk(context []uint32) (id uint64, depth int) {
	cur := uint64(0)
	for _, sym := range context {
		next, ok := t.nodes[cur].childID(sym)
		if !ok {
			break
		}
		cur = next
		depth++
	}
	return cur, depth
}

// childOrCreate returns the id of parentID's child reached via sym, creating
// a fresh node if none exists yet.
func (t *Trie) childOrCreate(parentID uint64, sym uint32) uint64 {
	if id, ok := t.nodes[parentID].childID(sym); ok {
		return id
	}

	newID := uint64(len(t.nodes))
	t.nodes = append(t.nodes, Node{ID: newID, ParentID: parentID, HasParent: true, Symbol: sym})

	// Re-fetch the parent pointer: the append above may have reallocated the
	// backing array, invalidating any pointer taken before it.
	p := &t.nodes[parentID]
	if p.index == nil {
		p.index = make(map[uint32]int)
	}
	p.index[sym] = len(p.children)
	p.children = append(p.children, child{symbol: sym, id: newID})
	return newID
}

// Insert adds one context-window path to the trie: usage is incremented for
// the root and for every node along the path (creating nodes as needed), and
// count is incremented for the final node in path — the leaf of this window.
func (t *Trie) Insert(path []uint32) {
	cur := uint64(0)
	t.nodes[cur].Usage++
	for i, sym := range path {
		cur = t.childOrCreate(cur, sym)
		t.nodes[cur].Usage++
		if i == len(path)-1 {
			t.nodes[cur].Count++
		}
	}
}

// NodeRow is a flattened (tree, parent_id, symbol, usage, count) record, used
// by the storage layer to persist the trie_nodes logical relation and by
// tests to compare trie state across learning orders.
type NodeRow struct {
	Tree      string
	ID        uint64
	ParentID  uint64
	HasParent bool
	Symbol    uint32
	Usage     uint64
	Count     uint64
}

// All returns every node in the trie as a flat slice of [NodeRow], in id
// order (the root first).
func (t *Trie) All() []NodeRow {
	out := make([]NodeRow, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = NodeRow{
			Tree:      t.Tag,
			ID:        n.ID,
			ParentID:  n.ParentID,
			HasParent: n.HasParent,
			Symbol:    n.Symbol,
			Usage:     n.Usage,
			Count:     n.Count,
		}
	}
	return out
}

// WordPath returns the root-to-node path of symbol ids leading to id,
// excluding the root's own (sentinel) symbol. Used for the bulk-equivalence
// comparisons in the specification, which key trie state by word path rather
// than by node id (ids depend on insertion order, word paths do not).
func (t *Trie) WordPath(id uint64) []uint32 {
	var rev []uint32
	cur := id
	for {
		n := &t.nodes[cur]
		if !n.HasParent {
			break
		}
		rev = append(rev, n.Symbol)
		cur = n.ParentID
	}
	path := make([]uint32, len(rev))
	for i, s := range rev {
		path[len(rev)-1-i] = s
	}
	return path
}

// Restore rebuilds a [Trie] from a previously persisted set of [NodeRow]
// records (e.g. loaded from the storage layer). rows must include the root
// (HasParent == false) and every row's parent must already have been added —
// in other words, rows must be in an order consistent with root-first BFS/DFS
// traversal, which is how [Trie.All] produces them.
func Restore(tag string, rows []NodeRow) *Trie {
	t := &Trie{Tag: tag, nodes: make([]Node, 0, len(rows))}
	// idMap translates persisted ids (which may not start at 0 contiguous
	// with this trie alone, e.g. when both trees share one id space) to this
	// trie's own arena indices.
	idMap := make(map[uint64]uint64, len(rows))
	for _, r := range rows {
		if !r.HasParent {
			t.nodes = append(t.nodes, Node{ID: 0, HasParent: false, Symbol: r.Symbol, Usage: r.Usage, Count: r.Count})
			idMap[r.ID] = 0
			continue
		}
		parent := idMap[r.ParentID]
		newID := t.childOrCreate(parent, r.Symbol)
		n := &t.nodes[newID]
		n.Usage = r.Usage
		n.Count = r.Count
		idMap[r.ID] = newID
	}
	return t
}
