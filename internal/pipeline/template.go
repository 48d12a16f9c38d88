package pipeline

// Template is a parsed part. It is immutable after Parse.
type Template struct {
	root *Node
	tags []Tag
}

// Parse builds a Template from the markup of one part.
func Parse(data []byte) (*Template, error) {
	root, err := tokenize(string(data))
	if err != nil {
		return nil, err
	}
	if err := normalize(root); err != nil {
		return nil, err
	}

	var tags []Tag
	walk(root, func(n *Node) bool {
		if n.Kind == TagNode {
			tags = append(tags, n.Tag)
		}
		return true
	})

	if err := lift(root); err != nil {
		return nil, err
	}
	return &Template{root: root, tags: tags}, nil
}

// Tags returns every tag in document order, closing tags included.
func (t *Template) Tags() []Tag {
	return append([]Tag(nil), t.tags...)
}

// HasTags reports whether the part contains any tag.
func (t *Template) HasTags() bool {
	return len(t.tags) > 0
}

// Render substitutes values into the part. Image tags are handed to images,
// which may be nil when the part has none.
func (t *Template) Render(values map[string]any, images ImageProvider) ([]byte, error) {
	r := &renderer{images: images, scopes: []any{values}}
	if err := r.render(t.root); err != nil {
		return nil, err
	}
	return []byte(r.b.String()), nil
}
