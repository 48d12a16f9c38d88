package pipeline

import (
	"fmt"
	"strings"
)

const (
	paragraphName = "w:p"
	textName      = "w:t"
	preserveAttr  = ` xml:space="preserve"`
)

// normalize moves every tag into the w:t that holds its opening brace and
// replaces the tag text with a tag node. Tags never span paragraphs.
func normalize(root *Node) error {
	var groups [][]*Node
	gatherTexts(root, nil, &groups)
	for _, g := range groups {
		if err := normalizeGroup(g); err != nil {
			return err
		}
	}
	return nil
}

// gatherTexts collects w:t elements per innermost paragraph, in document order.
// A w:t outside any paragraph forms its own group.
func gatherTexts(n *Node, group *[]*Node, groups *[][]*Node) {
	if n.isElement(paragraphName) {
		var own []*Node
		for _, ch := range n.Children {
			gatherTexts(ch, &own, groups)
		}
		if len(own) > 0 {
			*groups = append(*groups, own)
		}
		return
	}
	if n.isElement(textName) {
		if group == nil {
			*groups = append(*groups, []*Node{n})
		} else {
			*group = append(*group, n)
		}
		return
	}
	for _, ch := range n.Children {
		gatherTexts(ch, group, groups)
	}
}

// piece is a run of text or a complete tag assigned to one w:t.
type piece struct {
	tag  bool
	text string
}

func normalizeGroup(texts []*Node) error {
	var full strings.Builder
	var owner []int
	for i, t := range texts {
		s := textOf(t)
		full.WriteString(s)
		for range len(s) {
			owner = append(owner, i)
		}
	}
	s := full.String()
	if !strings.Contains(s, "{") {
		return nil
	}

	type span struct{ start, end int }
	var spans []span
	for p := 0; p < len(s); {
		open := strings.IndexByte(s[p:], '{')
		if open < 0 {
			break
		}
		open += p
		closing := strings.IndexByte(s[open+1:], '}')
		if closing < 0 {
			return fmt.Errorf("%w: unclosed tag %q", ErrTemplateSyntax, snippet(s[open:]))
		}
		closing += open + 1
		if nested := strings.IndexByte(s[open+1:closing], '{'); nested >= 0 {
			return fmt.Errorf("%w: unclosed tag %q", ErrTemplateSyntax, snippet(s[open:closing+1]))
		}
		spans = append(spans, span{open, closing + 1})
		p = closing + 1
	}

	pieces := make([][]piece, len(texts))
	addText := func(i int, text string) {
		ps := pieces[i]
		if n := len(ps); n > 0 && !ps[n-1].tag {
			ps[n-1].text += text
			return
		}
		pieces[i] = append(ps, piece{text: text})
	}
	// emitText splits s[from:to] by owning w:t.
	emitText := func(from, to int) {
		for from < to {
			end := from
			for end < to && owner[end] == owner[from] {
				end++
			}
			addText(owner[from], s[from:end])
			from = end
		}
	}

	pos := 0
	for _, sp := range spans {
		emitText(pos, sp.start)
		i := owner[sp.start]
		pieces[i] = append(pieces[i], piece{tag: true, text: s[sp.start:sp.end]})
		pos = sp.end
	}
	emitText(pos, len(s))

	for i, t := range texts {
		if err := rebuildText(t, pieces[i]); err != nil {
			return err
		}
	}
	return nil
}

// rebuildText replaces the children of a w:t when its content changed.
func rebuildText(t *Node, ps []piece) error {
	var plain strings.Builder
	hasTag := false
	for _, p := range ps {
		if p.tag {
			hasTag = true
		} else {
			plain.WriteString(p.text)
		}
	}
	if !hasTag && plain.String() == textOf(t) {
		return nil
	}

	children := make([]*Node, 0, len(ps))
	for _, p := range ps {
		if !p.tag {
			if p.text != "" {
				children = append(children, &Node{Kind: TextNode, Text: p.text})
			}
			continue
		}
		tag, err := parseTag(p.text)
		if err != nil {
			return err
		}
		children = append(children, &Node{Kind: TagNode, Tag: tag})
	}

	preserveSpace(t)
	t.Children = children
	return nil
}

// textOf concatenates the raw text directly inside a w:t.
func textOf(t *Node) string {
	var b strings.Builder
	for _, ch := range t.Children {
		if ch.Kind == TextNode {
			b.WriteString(ch.Text)
		}
	}
	return b.String()
}

// preserveSpace marks a w:t with xml:space="preserve" and expands a
// self-closing one into a start/end pair.
func preserveSpace(t *Node) {
	if t.Close == "" {
		open := strings.TrimRight(strings.TrimSuffix(t.Open, "/>"), " \t\r\n")
		t.Open = open + ">"
		t.Close = "</" + t.Name + ">"
	}
	if strings.Contains(t.Open, "xml:space=") {
		return
	}
	t.Open = strings.TrimSuffix(t.Open, ">") + preserveAttr + ">"
}

func snippet(s string) string {
	const limit = 40
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
