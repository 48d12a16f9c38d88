package pipeline

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ImageProvider turns an image tag value into inline drawing markup.
// An empty result removes the tag without output.
type ImageProvider interface {
	Image(tag string, value any) (string, error)
}

const (
	textBreak   = `</w:t><w:br/><w:t xml:space="preserve">`
	textSuspend = `</w:t>`
	textResume  = `<w:t xml:space="preserve">`
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

type renderer struct {
	b      strings.Builder
	images ImageProvider
	scopes []any
}

func (r *renderer) render(n *Node) error {
	switch n.Kind {
	case TextNode, RawNode:
		r.b.WriteString(n.Text)
	case TagNode:
		return r.tag(n.Tag)
	case LoopNode:
		return r.loop(n)
	default:
		r.b.WriteString(n.Open)
		if err := r.children(n); err != nil {
			return err
		}
		r.b.WriteString(n.Close)
	}
	return nil
}

func (r *renderer) children(n *Node) error {
	for _, ch := range n.Children {
		if err := r.render(ch); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) tag(t Tag) error {
	v, ok := r.lookup(t.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingTagValue, t.Name)
	}

	switch t.Kind {
	case TagText:
		r.writeText(formatValue(v))
		return nil
	case TagImage:
		if r.images == nil {
			return fmt.Errorf("image tag %s used without an image provider", t.Raw)
		}
		markup, err := r.images.Image(t.Name, v)
		if err != nil {
			return err
		}
		if markup != "" {
			r.b.WriteString(textSuspend)
			r.b.WriteString(markup)
			r.b.WriteString(textResume)
		}
		return nil
	default:
		return fmt.Errorf("%w: stray %s", ErrTemplateSyntax, t.Raw)
	}
}

// writeText escapes s and turns line feeds into w:br elements.
func (r *renderer) writeText(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			r.b.WriteString(textBreak)
		}
		textEscaper.WriteString(&r.b, line)
	}
}

func (r *renderer) loop(n *Node) error {
	v, ok := r.lookup(n.Tag.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingTagValue, n.Tag.Name)
	}

	if n.Tag.Kind == TagInverted {
		if truthy(v) {
			return nil
		}
		return r.children(n)
	}

	if items, ok := sequence(v); ok {
		for _, item := range items {
			if err := r.scoped(item, n); err != nil {
				return err
			}
		}
		return nil
	}
	if truthy(v) {
		return r.scoped(v, n)
	}
	return nil
}

func (r *renderer) scoped(v any, n *Node) error {
	r.scopes = append(r.scopes, v)
	err := r.children(n)
	r.scopes = r.scopes[:len(r.scopes)-1]
	return err
}

// lookup resolves name from the innermost scope outward. Dotted names
// descend into nested maps from the first scope holding their first segment.
func (r *renderer) lookup(name string) (any, bool) {
	if name == "." {
		return r.scopes[len(r.scopes)-1], true
	}
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if v, ok := lookupKey(r.scopes[i], name); ok {
			return v, true
		}
		first, rest, dotted := strings.Cut(name, ".")
		if !dotted {
			continue
		}
		if v, ok := lookupKey(r.scopes[i], first); ok {
			return lookupPath(v, rest)
		}
	}
	return nil, false
}

func lookupPath(v any, path string) (any, bool) {
	for _, key := range strings.Split(path, ".") {
		next, ok := lookupKey(v, key)
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}

func lookupKey(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		x, ok := m[key]
		return x, ok
	case map[string]string:
		x, ok := m[key]
		return x, ok
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	x := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !x.IsValid() {
		return nil, false
	}
	return x.Interface(), true
}

// sequence returns the elements of slices and arrays.
func sequence(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// truthy follows JavaScript semantics, plus empty collections are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// formatValue renders a scalar the way it reads in JSON.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
