package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// TagKind classifies a tag once, when it is scanned.
type TagKind int

const (
	TagText     TagKind = iota // {name}
	TagImage                   // {%name}
	TagSection                 // {#name}
	TagInverted                // {^name}
	TagClose                   // {/name}
)

// String returns the tag kind name.
func (k TagKind) String() string {
	switch k {
	case TagText:
		return "text"
	case TagImage:
		return "image"
	case TagSection:
		return "section"
	case TagInverted:
		return "inverted"
	case TagClose:
		return "close"
	default:
		return "unknown"
	}
}

// Tag is a parsed placeholder.
type Tag struct {
	Kind TagKind
	Name string // Lookup name; "." for the current loop element
	Raw  string // Source text including braces, still escaped
}

// parseTag parses raw, which includes the surrounding braces.
func parseTag(raw string) (Tag, error) {
	inner := strings.TrimSpace(unescape(raw[1 : len(raw)-1]))

	kind := TagText
	if inner != "" {
		switch inner[0] {
		case '%':
			kind = TagImage
		case '#':
			kind = TagSection
		case '^':
			kind = TagInverted
		case '/':
			kind = TagClose
		}
		if kind != TagText {
			inner = strings.TrimSpace(inner[1:])
		}
	}

	if inner == "" && kind != TagClose {
		return Tag{}, fmt.Errorf("%w: empty tag %s", ErrTemplateSyntax, raw)
	}
	return Tag{Kind: kind, Name: inner, Raw: raw}, nil
}

// unescape decodes the predefined entities and character references.
// Unknown entities are left as is.
func unescape(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	for {
		amp := strings.IndexByte(s, '&')
		if amp < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:amp])
		s = s[amp:]
		semi := strings.IndexByte(s, ';')
		if semi < 0 {
			b.WriteString(s)
			return b.String()
		}
		if r, ok := decodeEntity(s[1:semi]); ok {
			b.WriteString(r)
		} else {
			b.WriteString(s[:semi+1])
		}
		s = s[semi+1:]
	}
}

func decodeEntity(name string) (string, bool) {
	switch name {
	case "amp":
		return "&", true
	case "lt":
		return "<", true
	case "gt":
		return ">", true
	case "quot":
		return `"`, true
	case "apos":
		return "'", true
	}
	if strings.HasPrefix(name, "#") {
		num, base := name[1:], 10
		if strings.HasPrefix(num, "x") || strings.HasPrefix(num, "X") {
			num, base = num[1:], 16
		}
		if n, err := strconv.ParseUint(num, base, 32); err == nil {
			return string(rune(n)), true
		}
	}
	return "", false
}
