package docxtpl

import (
	"context"
	"fmt"

	"github.com/alnah/go-docxtpl/internal/docx"
	"github.com/alnah/go-docxtpl/internal/pipeline"
)

// TagKind classifies a tag found in a template.
type TagKind = pipeline.TagKind

// Tag kinds, resolved once when a part is parsed.
const (
	TagText     = pipeline.TagText
	TagImage    = pipeline.TagImage
	TagSection  = pipeline.TagSection
	TagInverted = pipeline.TagInverted
	TagClose    = pipeline.TagClose
)

// TemplateTag is a tag found by InspectTags.
type TemplateTag struct {
	Part string // Archive part holding the tag, e.g. word/document.xml
	Kind TagKind
	Name string // Empty for an anonymous close
}

// Engine substitutes values into a DOCX template.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	resolver *Resolver
	sizes    SizePolicy
}

// NewEngine returns an Engine that resolves images with resolver and sizes
// them with sizes. A nil resolver reads files from anywhere.
func NewEngine(resolver *Resolver, sizes SizePolicy) *Engine {
	if resolver == nil {
		resolver = &Resolver{}
	}
	return &Engine{resolver: resolver, sizes: sizes}
}

// Render returns a new DOCX with every tag in every templated part replaced.
// The template is never modified. Every failure wraps ErrRender together with
// its cause, and no partial document is returned.
func (e *Engine) Render(ctx context.Context, template []byte, values Values) ([]byte, error) {
	out, err := e.render(ctx, template, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return out, nil
}

func (e *Engine) render(ctx context.Context, template []byte, values Values) ([]byte, error) {
	archive, err := docx.Open(template)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	parts, err := archive.TemplatedParts()
	if err != nil {
		return nil, err
	}

	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := archive.Read(part)
		if err != nil {
			return nil, err
		}
		tpl, err := pipeline.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part, err)
		}
		if !tpl.HasTags() {
			continue
		}

		images := &partImages{engine: e, archive: archive, part: part}
		out, err := tpl.Render(values, images)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part, err)
		}
		archive.Write(part, out)
	}

	return archive.Bytes()
}

// partImages embeds the images of one part into the archive being rendered.
type partImages struct {
	engine  *Engine
	archive *docx.Archive
	part    string
}

func (p *partImages) Image(tag string, value any) (string, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: tag %q: value is %T, not a string", ErrUnresolvedImage, tag, value)
	}

	data, err := p.engine.resolver.Resolve(s, tag)
	if err != nil {
		return "", err
	}
	size, err := p.engine.sizes.Size(data, tag)
	if err != nil {
		return "", fmt.Errorf("tag %q: %w", tag, err)
	}
	ext, err := imageFormat(data)
	if err != nil {
		return "", fmt.Errorf("tag %q: %w", tag, err)
	}

	markup, err := p.archive.AddImage(p.part, docx.Image{
		Data:   data,
		Ext:    ext,
		Width:  size.Width,
		Height: size.Height,
		Descr:  tag,
	})
	if err != nil {
		return "", fmt.Errorf("%w: embedding tag %q: %v", ErrInternal, tag, err)
	}
	return markup, nil
}

// InspectTags lists the tags of every templated part, in document order.
func InspectTags(template []byte) ([]TemplateTag, error) {
	archive, err := docx.Open(template)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	parts, err := archive.TemplatedParts()
	if err != nil {
		return nil, err
	}

	var tags []TemplateTag
	for _, part := range parts {
		data, err := archive.Read(part)
		if err != nil {
			return nil, err
		}
		tpl, err := pipeline.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part, err)
		}
		for _, t := range tpl.Tags() {
			tags = append(tags, TemplateTag{Part: part, Kind: t.Kind, Name: t.Name})
		}
	}
	return tags, nil
}
