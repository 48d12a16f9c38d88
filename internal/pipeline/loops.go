package pipeline

import (
	"fmt"
	"strings"
)

// lift replaces every section pair with a loop node, innermost first.
func lift(root *Node) error {
	for {
		open, closing, err := innermostPair(root)
		if err != nil {
			return err
		}
		if open == nil {
			return nil
		}
		if err := liftPair(root, open, closing); err != nil {
			return err
		}
	}
}

// innermostPair returns the first closing tag in document order and the
// opening tag it matches.
func innermostPair(root *Node) (open, closing *Node, err error) {
	var stack []*Node
	walk(root, func(n *Node) bool {
		if n.Kind != TagNode {
			return true
		}
		switch n.Tag.Kind {
		case TagSection, TagInverted:
			stack = append(stack, n)
		case TagClose:
			if len(stack) == 0 {
				err = fmt.Errorf("%w: unopened section %s", ErrTemplateSyntax, n.Tag.Raw)
				return false
			}
			o := stack[len(stack)-1]
			if n.Tag.Name != "" && n.Tag.Name != o.Tag.Name {
				err = fmt.Errorf("%w: %s closed by %s", ErrTemplateSyntax, o.Tag.Raw, n.Tag.Raw)
				return false
			}
			open, closing = o, n
			return false
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	if open == nil && len(stack) > 0 {
		return nil, nil, fmt.Errorf("%w: unclosed section %s", ErrTemplateSyntax, stack[0].Tag.Raw)
	}
	return open, closing, nil
}

func liftPair(root, a, b *Node) error {
	pa, pb := pathTo(root, a), pathTo(root, b)
	loop := &Node{Kind: LoopNode, Tag: a.Tag}

	if liftParagraphs(pa, pb, loop) {
		return nil
	}
	if liftRows(pa, pb, loop) {
		return nil
	}

	c := 0
	for c < len(pa) && c < len(pb) && pa[c] == pb[c] {
		c++
	}
	return liftInline(pa, pb, c-1, loop)
}

// liftParagraphs handles tags that each stand alone in sibling paragraphs:
// the loop repeats the paragraphs between them and both tag paragraphs go away.
func liftParagraphs(pa, pb []*Node, loop *Node) bool {
	pA, iA := deepest(pa, paragraphName)
	pB, iB := deepest(pb, paragraphName)
	if pA == nil || pB == nil || pA == pB || iA < 1 || iB < 1 || pa[iA-1] != pb[iB-1] {
		return false
	}
	if !standalone(pA) || !standalone(pB) {
		return false
	}

	parent := pa[iA-1]
	i, j := indexOf(parent.Children, pA), indexOf(parent.Children, pB)
	loop.Children = append([]*Node(nil), parent.Children[i+1:j]...)
	parent.Children = splice(parent.Children, i, j+1, loop)
	return true
}

// standalone reports whether the paragraph holds one tag and nothing visible.
func standalone(p *Node) bool {
	tags := 0
	ok := walk(p, func(n *Node) bool {
		switch n.Kind {
		case TagNode:
			tags++
		case LoopNode:
			return false
		case TextNode:
			if strings.TrimSpace(n.Text) != "" {
				return false
			}
		case ElementNode:
			switch n.Name {
			case "w:drawing", "w:pict", "w:object", "w:tab", "w:br", "w:sym":
				return false
			}
		}
		return true
	})
	return ok && tags == 1
}

// liftRows handles tags in different cells of one table: the loop repeats
// every row from the opening tag's row to the closing tag's row.
func liftRows(pa, pb []*Node, loop *Node) bool {
	cA, iA := deepest(pa, "w:tc")
	cB, iB := deepest(pb, "w:tc")
	if cA == nil || cB == nil || cA == cB || iA < 2 || iB < 2 {
		return false
	}
	rA, rB := pa[iA-1], pb[iB-1]
	tbl := pa[iA-2]
	if !rA.isElement("w:tr") || !rB.isElement("w:tr") || !tbl.isElement("w:tbl") || tbl != pb[iB-2] {
		return false
	}

	detach(pa)
	detach(pb)
	i, j := indexOf(tbl.Children, rA), indexOf(tbl.Children, rB)
	loop.Children = append([]*Node(nil), tbl.Children[i:j+1]...)
	tbl.Children = splice(tbl.Children, i, j+1, loop)
	return true
}

// detach removes the last node of path from its parent.
func detach(path []*Node) {
	parent, n := path[len(path)-2], path[len(path)-1]
	if i := indexOf(parent.Children, n); i >= 0 {
		parent.Children = splice(parent.Children, i, i+1)
	}
}

// liftInline splits the elements between the common ancestor pa[c] and each
// tag, so the loop body is exactly the markup between the two tags.
func liftInline(pa, pb []*Node, c int, loop *Node) error {
	for _, path := range [][]*Node{pa[c+1 : len(pa)-1], pb[c+1 : len(pb)-1]} {
		for _, n := range path {
			if n.isElement("w:tbl") || n.isElement("w:tr") || n.isElement("w:tc") {
				return fmt.Errorf("%w: section %s crosses a table boundary", ErrTemplateSyntax, loop.Tag.Raw)
			}
		}
	}
	if pa[c].isElement("w:tbl") || pa[c].isElement("w:tr") {
		return fmt.Errorf("%w: section %s crosses a table boundary", ErrTemplateSyntax, loop.Tag.Raw)
	}

	common := pa[c]
	a1, b1 := pa[c+1], pb[c+1]
	i, j := indexOf(common.Children, a1), indexOf(common.Children, b1)
	before := append([]*Node(nil), common.Children[:i]...)
	middle := append([]*Node(nil), common.Children[i+1:j]...)
	after := append([]*Node(nil), common.Children[j+1:]...)

	leftA, rightA := splitAt(pa[c+1:])
	leftB, rightB := splitAt(pb[c+1:])

	loop.Children = appendKept(nil, rightA)
	loop.Children = append(loop.Children, middle...)
	loop.Children = appendKept(loop.Children, leftB)

	children := appendKept(before, leftA)
	children = append(children, loop)
	children = appendKept(children, rightB)
	common.Children = append(children, after...)
	return nil
}

// splitAt cuts path[0] around the tag at the end of path. The left half is
// path[0] itself, truncated; the right half is a new element carrying copies
// of the property children so formatting survives. The tag is dropped.
func splitAt(path []*Node) (left, right *Node) {
	if len(path) == 1 {
		return nil, nil
	}
	n, child := path[0], path[1]
	idx := indexOf(n.Children, child)
	before := append([]*Node(nil), n.Children[:idx]...)
	after := append([]*Node(nil), n.Children[idx+1:]...)

	cl, cr := splitAt(path[1:])

	right = n.shallowClone()
	for _, ch := range before {
		if ch.isProperty() {
			right.Children = append(right.Children, ch.clone())
		}
	}
	if cr != nil {
		right.Children = append(right.Children, cr)
	}
	right.Children = append(right.Children, after...)

	if cl != nil {
		before = append(before, cl)
	}
	n.Children = before
	return n, right
}

func appendKept(nodes []*Node, n *Node) []*Node {
	if n == nil || blank(n) {
		return nodes
	}
	return append(nodes, n)
}

// blank reports whether n renders nothing visible: only paragraphs, runs,
// texts and properties with no characters.
func blank(n *Node) bool {
	switch n.Kind {
	case TextNode:
		return strings.TrimSpace(n.Text) == ""
	case ElementNode:
		if n.isProperty() {
			return true
		}
		switch n.Name {
		case paragraphName, "w:r", textName, "w:proofErr", "w:lastRenderedPageBreak":
		default:
			return false
		}
		for _, ch := range n.Children {
			if !blank(ch) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// splice replaces nodes[from:to] with repl.
func splice(nodes []*Node, from, to int, repl ...*Node) []*Node {
	out := make([]*Node, 0, len(nodes)-(to-from)+len(repl))
	out = append(out, nodes[:from]...)
	out = append(out, repl...)
	return append(out, nodes[to:]...)
}
