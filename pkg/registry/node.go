package registry

import (
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// pathNode is one segment position of the prefix tree. A node that holds
// neither a plugin nor children is never kept in its parent's map.
type pathNode struct {
	plugin   plugin.Plugin
	children map[string]*pathNode
}

func (n *pathNode) isEmpty() bool {
	return n.plugin == nil && len(n.children) == 0
}

func (n *pathNode) child(seg string) *pathNode {
	return n.children[seg]
}

func (n *pathNode) childOrCreate(seg string) *pathNode {
	if c := n.children[seg]; c != nil {
		return c
	}
	if n.children == nil {
		n.children = make(map[string]*pathNode)
	}
	c := &pathNode{}
	n.children[seg] = c
	return c
}

// trail returns the nodes from n down to the node at segs, n included.
// The result is shorter than len(segs)+1 when the path does not exist.
func (n *pathNode) trail(segs []string) []*pathNode {
	nodes := make([]*pathNode, 1, len(segs)+1)
	nodes[0] = n
	cur := n
	for _, seg := range segs {
		cur = cur.child(seg)
		if cur == nil {
			break
		}
		nodes = append(nodes, cur)
	}
	return nodes
}

// find returns the node at segs, or nil.
func (n *pathNode) find(segs []string) *pathNode {
	cur := n
	for _, seg := range segs {
		if cur = cur.child(seg); cur == nil {
			return nil
		}
	}
	return cur
}

// longestMatch returns the plugin of the deepest node along segs that holds
// one, falling back to n itself.
func (n *pathNode) longestMatch(segs []string) plugin.Plugin {
	match := n.plugin
	cur := n
	for _, seg := range segs {
		if cur = cur.child(seg); cur == nil {
			break
		}
		if cur.plugin != nil {
			match = cur.plugin
		}
	}
	return match
}

// contains reports whether p is registered at n or below.
func (n *pathNode) contains(p plugin.Plugin) bool {
	if n.plugin != nil && n.plugin.IsPlugin(p) {
		return true
	}
	for _, c := range n.children {
		if c.contains(p) {
			return true
		}
	}
	return false
}

// removeAll clears every slot below and at n holding p, pruning children
// left empty. It returns the number of slots cleared.
func (n *pathNode) removeAll(p plugin.Plugin) int {
	removed := 0
	if n.plugin != nil && n.plugin.IsPlugin(p) {
		n.plugin = nil
		removed++
	}
	for seg, c := range n.children {
		removed += c.removeAll(p)
		if c.isEmpty() {
			delete(n.children, seg)
		}
	}
	return removed
}

// pruneTrail removes the empty nodes at the end of nodes from their
// parents, walking up until a node that still holds something.
// nodes[i+1] must be the child of nodes[i] at segs[i].
func pruneTrail(nodes []*pathNode, segs []string) {
	for i := len(nodes) - 1; i > 0; i-- {
		if !nodes[i].isEmpty() {
			return
		}
		delete(nodes[i-1].children, segs[i-1])
	}
}

// walk yields every occupied node below and at n in depth first order.
// path holds the segments leading to n.
func (n *pathNode) walk(path []string, yield func(string, plugin.Plugin) bool) bool {
	if n.plugin != nil {
		if !yield(joinPath(path), n.plugin) {
			return false
		}
	}
	for seg, c := range n.children {
		if !c.walk(append(path, seg), yield) {
			return false
		}
	}
	return true
}
