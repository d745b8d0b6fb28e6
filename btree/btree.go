// Package btree implements an in-memory order-k B-tree mapping string
// keys to integer record ids, used by table.Table to back each indexed
// column.
package btree

// DefaultOrder is the order used when a Table does not specify one.
const DefaultOrder = 5

// node is a single B-tree node. Leaf nodes hold keys and their payload
// record ids; internal nodes hold keys and child pointers.
type node struct {
	leaf     bool
	keys     []string
	values   []int64  // payload per key, leaf nodes only
	children []*node  // up to order children, internal nodes only
}

// BTree is an order-k B-tree keyed by string, holding int64 record ids.
// Keys compare lexicographically throughout, never numerically.
type BTree struct {
	order int
	root  *node
}

// New creates an empty BTree of the given order (minimum 3).
func New(order int) *BTree {
	if order < 3 {
		order = DefaultOrder
	}
	return &BTree{order: order, root: &node{leaf: true}}
}

// Search returns the record id stored for key, and whether it was found.
func (t *BTree) Search(key string) (int64, bool) {
	n := t.root
	for {
		i := 0
		for i < len(n.keys) && key >= n.keys[i] {
			i++
		}
		if n.leaf {
			// i now points past every key <= key; the match, if any, is
			// the key just before i when it compares equal.
			for idx, k := range n.keys {
				if k == key {
					return n.values[idx], true
				}
			}
			return 0, false
		}
		n = n.children[i]
	}
}

// Insert adds key -> value. Duplicate-key rejection is the Table layer's
// responsibility (per the unique-constraint contract); Insert overwrites
// a duplicate key's value if the caller does call it with one.
func (t *BTree) Insert(key string, value int64) {
	if len(t.root.keys) == t.order-1 {
		newRoot := &node{leaf: false, children: []*node{t.root}}
		t.splitChild(newRoot, 0)
		t.root = newRoot
	}
	t.insertNonFull(t.root, key, value)
}

func (t *BTree) insertNonFull(n *node, key string, value int64) {
	if n.leaf {
		i := len(n.keys) - 1
		for i >= 0 && key < n.keys[i] {
			i--
		}
		if i >= 0 && n.keys[i] == key {
			n.values[i] = value
			return
		}
		n.keys = append(n.keys, "")
		n.values = append(n.values, 0)
		copy(n.keys[i+2:], n.keys[i+1:])
		copy(n.values[i+2:], n.values[i+1:])
		n.keys[i+1] = key
		n.values[i+1] = value
		return
	}

	i := len(n.keys) - 1
	for i >= 0 && key < n.keys[i] {
		i--
	}
	i++
	if len(n.children[i].keys) == t.order-1 {
		t.splitChild(n, i)
		if key > n.keys[i] {
			i++
		}
	}
	t.insertNonFull(n.children[i], key, value)
}

// splitChild splits the full child at index i of parent, promoting its
// median key into parent.
func (t *BTree) splitChild(parent *node, i int) {
	child := parent.children[i]
	mid := len(child.keys) / 2

	right := &node{leaf: child.leaf}
	right.keys = append(right.keys, child.keys[mid+1:]...)
	if child.leaf {
		right.values = append(right.values, child.values[mid+1:]...)
	} else {
		right.children = append(right.children, child.children[mid+1:]...)
	}

	promotedKey := child.keys[mid]
	var promotedValue int64
	if child.leaf {
		promotedValue = child.values[mid]
	}

	child.keys = child.keys[:mid]
	if child.leaf {
		child.values = child.values[:mid]
	} else {
		child.children = child.children[:mid+1]
	}

	parent.children = append(parent.children, nil)
	copy(parent.children[i+2:], parent.children[i+1:])
	parent.children[i+1] = right

	parent.keys = append(parent.keys, "")
	copy(parent.keys[i+1:], parent.keys[i:])
	parent.keys[i] = promotedKey

	if child.leaf {
		// For a leaf split the promoted key also remains discoverable
		// through the right sibling's first slot so search still finds
		// its value; re-insert it there.
		right.keys = append([]string{promotedKey}, right.keys...)
		right.values = append([]int64{promotedValue}, right.values...)
	}
}

// Delete removes key from the tree and reports whether it was present.
// Underflow rebalancing is intentionally simplified: a now-empty
// non-root leaf is unlinked from its parent, but keys are never borrowed
// or merged across siblings. Search correctness is preserved; strict
// minimum occupancy is not.
func (t *BTree) Delete(key string) bool {
	return t.deleteFrom(t.root, nil, 0, key)
}

func (t *BTree) deleteFrom(n, parent *node, childIdx int, key string) bool {
	if n.leaf {
		for i, k := range n.keys {
			if k == key {
				n.keys = append(n.keys[:i], n.keys[i+1:]...)
				n.values = append(n.values[:i], n.values[i+1:]...)
				if len(n.keys) == 0 && parent != nil {
					unlinkChild(parent, childIdx)
				}
				return true
			}
		}
		return false
	}

	i := 0
	for i < len(n.keys) && key >= n.keys[i] {
		i++
	}
	return t.deleteFrom(n.children[i], n, i, key)
}

// unlinkChild removes the now-empty child at childIdx from parent along
// with the one routing key adjacent to it, tolerating the resulting
// underflow per the tree's simplified delete policy. An internal node
// never collapses past zero children: once the last one is removed,
// parent is demoted to an empty leaf so Search/insertNonFull — which
// index n.children[i] on every non-leaf node — never index past an
// empty slice.
func unlinkChild(parent *node, childIdx int) {
	parent.children = append(parent.children[:childIdx], parent.children[childIdx+1:]...)
	keyIdx := childIdx
	if keyIdx >= len(parent.keys) {
		keyIdx = len(parent.keys) - 1
	}
	if keyIdx >= 0 {
		parent.keys = append(parent.keys[:keyIdx], parent.keys[keyIdx+1:]...)
	}
	if len(parent.children) == 0 {
		parent.leaf = true
		parent.children = nil
	}
}

// Len returns the total number of keys stored in the tree.
func (t *BTree) Len() int {
	return countKeys(t.root)
}

func countKeys(n *node) int {
	if n.leaf {
		return len(n.keys)
	}
	total := 0
	for _, c := range n.children {
		total += countKeys(c)
	}
	return total
}
