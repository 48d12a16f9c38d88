package pipeline

import (
	"fmt"
	"strings"
)

// tokenize parses markup into a tree rooted at a nameless document node.
// Every byte of data ends up in exactly one Open, Close or Text field, so
// writing the tree back in order reproduces the input.
func tokenize(data string) (*Node, error) {
	root := &Node{Kind: ElementNode}
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	for i := 0; i < len(data); {
		if data[i] != '<' {
			end := strings.IndexByte(data[i:], '<')
			if end < 0 {
				end = len(data)
			} else {
				end += i
			}
			top().Children = append(top().Children, &Node{Kind: TextNode, Text: data[i:end]})
			i = end
			continue
		}

		rest := data[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end, err := skipPast(data, i, "-->")
			if err != nil {
				return nil, err
			}
			top().Children = append(top().Children, &Node{Kind: RawNode, Text: data[i:end]})
			i = end

		case strings.HasPrefix(rest, "<![CDATA["):
			end, err := skipPast(data, i, "]]>")
			if err != nil {
				return nil, err
			}
			top().Children = append(top().Children, &Node{Kind: RawNode, Text: data[i:end]})
			i = end

		case strings.HasPrefix(rest, "<?"):
			end, err := skipPast(data, i, "?>")
			if err != nil {
				return nil, err
			}
			top().Children = append(top().Children, &Node{Kind: RawNode, Text: data[i:end]})
			i = end

		case strings.HasPrefix(rest, "<!"):
			end, err := declarationEnd(data, i)
			if err != nil {
				return nil, err
			}
			top().Children = append(top().Children, &Node{Kind: RawNode, Text: data[i:end]})
			i = end

		case strings.HasPrefix(rest, "</"):
			gt := strings.IndexByte(rest, '>')
			if gt < 0 {
				return nil, fmt.Errorf("%w: unterminated end tag at offset %d", ErrMalformedXML, i)
			}
			name := strings.TrimSpace(rest[2:gt])
			cur := top()
			if len(stack) == 1 || cur.Name != name {
				return nil, fmt.Errorf("%w: unexpected </%s> at offset %d", ErrMalformedXML, name, i)
			}
			cur.Close = rest[:gt+1]
			stack = stack[:len(stack)-1]
			i += gt + 1

		default:
			gt := tagEnd(data, i)
			if gt < 0 {
				return nil, fmt.Errorf("%w: unterminated start tag at offset %d", ErrMalformedXML, i)
			}
			raw := data[i : gt+1]
			n := &Node{Kind: ElementNode, Name: elementName(raw), Open: raw}
			if n.Name == "" {
				return nil, fmt.Errorf("%w: empty element name at offset %d", ErrMalformedXML, i)
			}
			top().Children = append(top().Children, n)
			if !strings.HasSuffix(raw, "/>") {
				stack = append(stack, n)
			}
			i = gt + 1
		}
	}

	if len(stack) > 1 {
		return nil, fmt.Errorf("%w: unclosed <%s>", ErrMalformedXML, top().Name)
	}
	return root, nil
}

// skipPast returns the offset just after the first terminator following start.
func skipPast(data string, start int, terminator string) (int, error) {
	end := strings.Index(data[start:], terminator)
	if end < 0 {
		return 0, fmt.Errorf("%w: missing %q after offset %d", ErrMalformedXML, terminator, start)
	}
	return start + end + len(terminator), nil
}

// declarationEnd handles <!DOCTYPE ...> including an internal subset.
func declarationEnd(data string, start int) (int, error) {
	depth := 0
	for j := start + 2; j < len(data); j++ {
		switch data[j] {
		case '[':
			depth++
		case ']':
			depth--
		case '>':
			if depth <= 0 {
				return j + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unterminated declaration at offset %d", ErrMalformedXML, start)
}

// tagEnd returns the index of the '>' closing the start tag at start,
// skipping quoted attribute values, or -1.
func tagEnd(data string, start int) int {
	var quote byte
	for j := start + 1; j < len(data); j++ {
		c := data[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return j
		}
	}
	return -1
}

func elementName(raw string) string {
	end := strings.IndexAny(raw[1:], " \t\r\n/>")
	if end < 0 {
		return raw[1:]
	}
	return raw[1 : end+1]
}
