package pipeline

import "strings"

// Kind discriminates tree nodes.
type Kind int

const (
	ElementNode Kind = iota // Element with raw open and close tags
	TextNode                // Character data, still escaped as in the source
	RawNode                 // Declarations, comments, CDATA and processing instructions
	TagNode                 // A template tag cut out of a w:t
	LoopNode                // A lifted section or inverted section
)

// Node is one element of the raw-preserving tree.
type Node struct {
	Kind     Kind
	Name     string // Qualified element name, e.g. "w:p"
	Open     string // Raw start tag; the whole tag when self-closing
	Close    string // Raw end tag; empty when self-closing
	Text     string // Raw bytes of text and raw nodes
	Tag      Tag    // Tag and loop nodes
	Children []*Node
}

func (n *Node) isElement(name string) bool {
	return n.Kind == ElementNode && n.Name == name
}

// isProperty reports whether n is a property element such as w:pPr or w:rPr.
func (n *Node) isProperty() bool {
	return n.Kind == ElementNode && strings.HasSuffix(n.Name, "Pr")
}

// clone deep-copies n.
func (n *Node) clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.clone()
		}
	}
	return &c
}

// shallowClone copies n without children.
func (n *Node) shallowClone() *Node {
	c := *n
	c.Children = nil
	return &c
}

// walk visits nodes depth-first in document order until fn returns false.
func walk(n *Node, fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, ch := range n.Children {
		if !walk(ch, fn) {
			return false
		}
	}
	return true
}

// pathTo returns the chain of nodes from root down to target, both included.
func pathTo(root, target *Node) []*Node {
	if root == target {
		return []*Node{root}
	}
	for _, ch := range root.Children {
		if p := pathTo(ch, target); p != nil {
			return append([]*Node{root}, p...)
		}
	}
	return nil
}

func indexOf(nodes []*Node, target *Node) int {
	for i, n := range nodes {
		if n == target {
			return i
		}
	}
	return -1
}

// deepest returns the last node in path with the given element name.
func deepest(path []*Node, name string) (*Node, int) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].isElement(name) {
			return path[i], i
		}
	}
	return nil, -1
}
