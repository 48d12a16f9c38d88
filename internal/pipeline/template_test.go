package pipeline

// Notes:
// - Parts are written inline as compact WordprocessingML; namespaces are
//   omitted because the tree never interprets them.
// - Expected outputs are compared as exact strings: untouched markup must
//   survive byte for byte.

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ImageFunc adapts a function to ImageProvider.
type ImageFunc func(tag string, value any) (string, error)

func (f ImageFunc) Image(tag string, value any) (string, error) {
	return f(tag, value)
}

func body(inner string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="urn:w"><w:body>` + inner + `</w:body></w:document>`
}

func para(texts ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, t := range texts {
		b.WriteString("<w:r><w:t>" + t + "</w:t></w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

func renderString(t *testing.T, src string, values map[string]any, images ImageProvider) string {
	t.Helper()

	tpl, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := tpl.Render(values, images)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return string(out)
}

// ---------------------------------------------------------------------------
// TestParse_RoundTrip - Untouched markup survives byte for byte
// ---------------------------------------------------------------------------

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"declaration and body", body(para("Hello", " world"))},
		{"comment and cdata", `<root><!-- a <b> comment --><![CDATA[x < y]]><a/></root>`},
		{"processing instruction", `<?mso-application progid="Word.Document"?><w:document/>`},
		{"doctype with subset", `<!DOCTYPE x [<!ENTITY e "v">]><x>&e;</x>`},
		{"quoted angle bracket", `<w:p w:attr="a>b" w:other='c>d'><w:r/></w:p>`},
		{"entities kept", `<w:t>Tom &amp; Jerry &#233; &apos;</w:t>`},
		{"whitespace between elements", "<w:body>\n  <w:p>\n    <w:r/>\n  </w:p>\n</w:body>"},
		{"stray closing brace", body(para("a } b"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := renderString(t, tt.src, map[string]any{}, nil)
			if got != tt.src {
				t.Errorf("round trip mismatch:\n got: %s\nwant: %s", got, tt.src)
			}
		})
	}
}

func TestParse_MalformedXML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"mismatched end tag", `<w:p><w:r></w:p>`},
		{"unclosed element", `<w:p><w:r>`},
		{"unterminated start tag", `<w:p attr="x"`},
		{"unterminated comment", `<w:p><!-- open`},
		{"end tag without start", `</w:p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse([]byte(tt.src)); !errors.Is(err, ErrMalformedXML) {
				t.Errorf("Parse() error = %v, want ErrMalformedXML", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRender_Text - Plain tag substitution
// ---------------------------------------------------------------------------

func TestRender_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		values map[string]any
		want   string
	}{
		{
			name:   "single run",
			src:    para("Dear {name},"),
			values: map[string]any{"name": "Jane"},
			want:   `<w:p><w:r><w:t xml:space="preserve">Dear Jane,</w:t></w:r></w:p>`,
		},
		{
			name:   "tag split across runs keeps second run formatting",
			src:    `<w:p><w:r><w:t>Hello {na</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>me}!</w:t></w:r></w:p>`,
			values: map[string]any{"name": "Jane"},
			want:   `<w:p><w:r><w:t xml:space="preserve">Hello Jane</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">!</w:t></w:r></w:p>`,
		},
		{
			name:   "tag split over three runs",
			src:    para("{", "first", "Name}"),
			values: map[string]any{"firstName": "Ada"},
			want:   `<w:p><w:r><w:t xml:space="preserve">Ada</w:t></w:r><w:r><w:t xml:space="preserve"></w:t></w:r><w:r><w:t xml:space="preserve"></w:t></w:r></w:p>`,
		},
		{
			name:   "value escaped",
			src:    para("{company}"),
			values: map[string]any{"company": "Smith & <Sons>"},
			want:   `<w:p><w:r><w:t xml:space="preserve">Smith &amp; &lt;Sons&gt;</w:t></w:r></w:p>`,
		},
		{
			name:   "line breaks",
			src:    para("{address}"),
			values: map[string]any{"address": "1 Main St\r\nSpringfield\nUSA"},
			want:   `<w:p><w:r><w:t xml:space="preserve">1 Main St</w:t><w:br/><w:t xml:space="preserve">Springfield</w:t><w:br/><w:t xml:space="preserve">USA</w:t></w:r></w:p>`,
		},
		{
			name:   "numbers booleans and nil",
			src:    para("{n}|{f}|{b}|{z}"),
			values: map[string]any{"n": 42, "f": 2.5, "b": true, "z": nil},
			want:   `<w:p><w:r><w:t xml:space="preserve">42|2.5|true|</w:t></w:r></w:p>`,
		},
		{
			name:   "json whole number",
			src:    para("{age}"),
			values: map[string]any{"age": float64(30)},
			want:   `<w:p><w:r><w:t xml:space="preserve">30</w:t></w:r></w:p>`,
		},
		{
			name:   "dotted lookup",
			src:    para("{client.address.city}"),
			values: map[string]any{"client": map[string]any{"address": map[string]any{"city": "Bern"}}},
			want:   `<w:p><w:r><w:t xml:space="preserve">Bern</w:t></w:r></w:p>`,
		},
		{
			name:   "literal dotted key wins",
			src:    para("{a.b}"),
			values: map[string]any{"a.b": "literal", "a": map[string]any{"b": "nested"}},
			want:   `<w:p><w:r><w:t xml:space="preserve">literal</w:t></w:r></w:p>`,
		},
		{
			name:   "entity inside tag name",
			src:    para("{R&amp;D}"),
			values: map[string]any{"R&D": "lab"},
			want:   `<w:p><w:r><w:t xml:space="preserve">lab</w:t></w:r></w:p>`,
		},
		{
			name:   "spaces inside braces",
			src:    para("{ name }"),
			values: map[string]any{"name": "x"},
			want:   `<w:p><w:r><w:t xml:space="preserve">x</w:t></w:r></w:p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := renderString(t, tt.src, tt.values, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_MissingTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		tag  string
	}{
		{"text tag", para("{name} <{email}>"), "email"},
		{"image tag", para("{%signature}"), "signature"},
		{"section", para("{#items}x{/items}"), "items"},
		{"dotted path", para("{client.email}"), "client.email"},
		{"inside loop", para("{#items}{missing}{/items}"), "missing"},
	}

	values := map[string]any{
		"name":   "Jane",
		"client": map[string]any{"name": "Acme"},
		"items":  []any{map[string]any{"x": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := values
			if tt.tag == "items" {
				v = map[string]any{}
			}
			tpl, err := Parse([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			_, err = tpl.Render(v, ImageFunc(func(string, any) (string, error) { return "", nil }))
			if !errors.Is(err, ErrMissingTagValue) {
				t.Fatalf("Render() error = %v, want ErrMissingTagValue", err)
			}
			if !strings.Contains(err.Error(), `"`+tt.tag+`"`) {
				t.Errorf("error %q should name tag %q", err, tt.tag)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRender_Loops - Sections, inverted sections, paragraph and row loops
// ---------------------------------------------------------------------------

func TestRender_Loops(t *testing.T) {
	t.Parallel()

	items := []any{
		map[string]any{"name": "alpha"},
		map[string]any{"name": "beta"},
	}

	tests := []struct {
		name   string
		src    string
		values map[string]any
		want   string
	}{
		{
			name:   "paragraph loop drops tag paragraphs",
			src:    `<w:p><w:r><w:t>{#items}</w:t></w:r></w:p>` + para("- {name}") + `<w:p><w:r><w:t>{/items}</w:t></w:r></w:p>`,
			values: map[string]any{"items": items},
			want: `<w:p><w:r><w:t xml:space="preserve">- alpha</w:t></w:r></w:p>` +
				`<w:p><w:r><w:t xml:space="preserve">- beta</w:t></w:r></w:p>`,
		},
		{
			name:   "paragraph loop with empty sequence",
			src:    `<w:p><w:r><w:t>{#items}</w:t></w:r></w:p>` + para("- {name}") + `<w:p><w:r><w:t>{/items}</w:t></w:r></w:p>` + para("end"),
			values: map[string]any{"items": []any{}},
			want:   para("end"),
		},
		{
			name:   "inline loop in one text",
			src:    para("{#tags}{.}, {/tags}"),
			values: map[string]any{"tags": []string{"x", "y"}},
			want:   `<w:p><w:r><w:t xml:space="preserve">x, y, </w:t></w:r></w:p>`,
		},
		{
			name:   "condition across runs keeps run properties",
			src:    `<w:p><w:r><w:rPr><w:i/></w:rPr><w:t>A{#show}B</w:t></w:r><w:r><w:t>C{/show}D</w:t></w:r></w:p>`,
			values: map[string]any{"show": true},
			want: `<w:p><w:r><w:rPr><w:i/></w:rPr><w:t xml:space="preserve">A</w:t></w:r>` +
				`<w:r><w:rPr><w:i/></w:rPr><w:t xml:space="preserve">B</w:t></w:r>` +
				`<w:r><w:t xml:space="preserve">C</w:t></w:r>` +
				`<w:r><w:t xml:space="preserve">D</w:t></w:r></w:p>`,
		},
		{
			name:   "false condition across runs",
			src:    `<w:p><w:r><w:rPr><w:i/></w:rPr><w:t>A{#show}B</w:t></w:r><w:r><w:t>C{/show}D</w:t></w:r></w:p>`,
			values: map[string]any{"show": false},
			want: `<w:p><w:r><w:rPr><w:i/></w:rPr><w:t xml:space="preserve">A</w:t></w:r>` +
				`<w:r><w:t xml:space="preserve">D</w:t></w:r></w:p>`,
		},
		{
			name:   "inverted section",
			src:    para("{^vip}standard{/vip}"),
			values: map[string]any{"vip": false},
			want:   `<w:p><w:r><w:t xml:space="preserve">standard</w:t></w:r></w:p>`,
		},
		{
			name:   "inverted section with truthy value",
			src:    para("{^vip}standard{/vip}"),
			values: map[string]any{"vip": "gold"},
			want:   `<w:p><w:r><w:t xml:space="preserve"></w:t></w:r></w:p>`,
		},
		{
			name:   "map section scopes lookups",
			src:    para("{#client}{name} ({country}){/client}"),
			values: map[string]any{"client": map[string]any{"name": "Acme"}, "country": "CH"},
			want:   `<w:p><w:r><w:t xml:space="preserve">Acme (CH)</w:t></w:r></w:p>`,
		},
		{
			name: "nested loops",
			src:  para("{#groups}[{title}:{#members}{.};{/members}]{/groups}"),
			values: map[string]any{"groups": []any{
				map[string]any{"title": "a", "members": []any{"1", "2"}},
				map[string]any{"title": "b", "members": []any{}},
			}},
			want: `<w:p><w:r><w:t xml:space="preserve">[a:1;2;][b:]</w:t></w:r></w:p>`,
		},
		{
			name:   "anonymous close tag",
			src:    para("{#ok}yes{/}"),
			values: map[string]any{"ok": 1},
			want:   `<w:p><w:r><w:t xml:space="preserve">yes</w:t></w:r></w:p>`,
		},
		{
			name: "table row loop",
			src: `<w:tbl><w:tblPr/><w:tr><w:tc><w:p><w:r><w:t>{#rows}{a}</w:t></w:r></w:p></w:tc>` +
				`<w:tc><w:p><w:r><w:t>{b}{/rows}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
			values: map[string]any{"rows": []any{
				map[string]any{"a": 1, "b": 2},
				map[string]any{"a": 3, "b": 4},
			}},
			want: `<w:tbl><w:tblPr/>` +
				`<w:tr><w:tc><w:p><w:r><w:t xml:space="preserve">1</w:t></w:r></w:p></w:tc>` +
				`<w:tc><w:p><w:r><w:t xml:space="preserve">2</w:t></w:r></w:p></w:tc></w:tr>` +
				`<w:tr><w:tc><w:p><w:r><w:t xml:space="preserve">3</w:t></w:r></w:p></w:tc>` +
				`<w:tc><w:p><w:r><w:t xml:space="preserve">4</w:t></w:r></w:p></w:tc></w:tr>` +
				`</w:tbl>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := renderString(t, tt.src, tt.values, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"unclosed brace", para("Hello {name")},
		{"nested brace", para("{a{b}}")},
		{"empty tag", para("{}")},
		{"empty image tag", para("{%}")},
		{"unopened section", para("{/items}")},
		{"unclosed section", para("{#items}x")},
		{"mismatched section", para("{#a}x{/b}")},
		{
			name: "section crossing table boundary",
			src: para("x {#a}") +
				`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>{/a}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
		},
		{"tag spanning paragraphs", para("{na") + para("me}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse([]byte(tt.src)); !errors.Is(err, ErrTemplateSyntax) {
				t.Errorf("Parse() error = %v, want ErrTemplateSyntax", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRender_Images - Image tags delegate to the provider
// ---------------------------------------------------------------------------

func TestRender_Images(t *testing.T) {
	t.Parallel()

	t.Run("drawing replaces tag", func(t *testing.T) {
		t.Parallel()

		var gotTag string
		var gotValue any
		provider := ImageFunc(func(tag string, value any) (string, error) {
			gotTag, gotValue = tag, value
			return "<w:drawing/>", nil
		})

		got := renderString(t, para("{%logo}"), map[string]any{"logo": "/tmp/logo.png"}, provider)
		want := `<w:p><w:r><w:t xml:space="preserve"></w:t><w:drawing/><w:t xml:space="preserve"></w:t></w:r></w:p>`
		if got != want {
			t.Errorf("Render() = %s, want %s", got, want)
		}
		if gotTag != "logo" || gotValue != "/tmp/logo.png" {
			t.Errorf("provider called with (%q, %v)", gotTag, gotValue)
		}
	})

	t.Run("empty markup removes tag", func(t *testing.T) {
		t.Parallel()

		provider := ImageFunc(func(string, any) (string, error) { return "", nil })
		got := renderString(t, para("a{%sig}b"), map[string]any{"sig": nil}, provider)
		want := `<w:p><w:r><w:t xml:space="preserve">ab</w:t></w:r></w:p>`
		if got != want {
			t.Errorf("Render() = %s, want %s", got, want)
		}
	})

	t.Run("provider error propagates", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		tpl, err := Parse([]byte(para("{%sig}")))
		if err != nil {
			t.Fatal(err)
		}
		_, err = tpl.Render(map[string]any{"sig": "x"}, ImageFunc(func(string, any) (string, error) {
			return "", errBoom
		}))
		if !errors.Is(err, errBoom) {
			t.Errorf("Render() error = %v, want provider error", err)
		}
	})

	t.Run("image in loop uses element", func(t *testing.T) {
		t.Parallel()

		var seen []any
		provider := ImageFunc(func(_ string, value any) (string, error) {
			seen = append(seen, value)
			return "<img/>", nil
		})
		renderString(t, para("{#pics}{%.}{/pics}"), map[string]any{"pics": []any{"a.png", "b.png"}}, provider)
		if diff := cmp.Diff([]any{"a.png", "b.png"}, seen); diff != "" {
			t.Errorf("provider values mismatch (-want +got):\n%s", diff)
		}
	})
}

// ---------------------------------------------------------------------------
// TestTemplate_Tags - Scan-time classification
// ---------------------------------------------------------------------------

func TestTemplate_Tags(t *testing.T) {
	t.Parallel()

	tpl, err := Parse([]byte(para("{name}{%logo}", "{#items}{.}{/items}{^none}x{/none}")))
	if err != nil {
		t.Fatal(err)
	}

	type kn struct {
		Kind TagKind
		Name string
	}
	var got []kn
	for _, tag := range tpl.Tags() {
		got = append(got, kn{tag.Kind, tag.Name})
	}
	want := []kn{
		{TagText, "name"},
		{TagImage, "logo"},
		{TagSection, "items"},
		{TagText, "."},
		{TagClose, "items"},
		{TagInverted, "none"},
		{TagClose, "none"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tags() mismatch (-want +got):\n%s", diff)
	}
	if !tpl.HasTags() {
		t.Error("HasTags() = false, want true")
	}

	plain, err := Parse([]byte(para("no tags here")))
	if err != nil {
		t.Fatal(err)
	}
	if plain.HasTags() {
		t.Error("HasTags() = true for plain part")
	}
}

func TestTemplate_RenderIsRepeatable(t *testing.T) {
	t.Parallel()

	tpl, err := Parse([]byte(para("{#items}{.} {/items}")))
	if err != nil {
		t.Fatal(err)
	}
	first, err := tpl.Render(map[string]any{"items": []any{"a", "b"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := tpl.Render(map[string]any{"items": []any{"c"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) == string(second) {
		t.Fatal("different values rendered identically")
	}
	again, _ := tpl.Render(map[string]any{"items": []any{"a", "b"}}, nil)
	if string(first) != string(again) {
		t.Errorf("re-render differs:\n%s\n%s", first, again)
	}
}
