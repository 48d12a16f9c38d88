package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const contentTypesPart = "[Content_Types].xml"

// DefaultDocumentPart is used when no override names a main document.
const DefaultDocumentPart = "word/document.xml"

const ctPrefix = "application/vnd.openxmlformats-officedocument.wordprocessingml."

// partKinds maps the content types of parts that may carry tags.
// Main document parts (documents, templates, macro-enabled variants) sort first.
var partKinds = map[string]int{
	ctPrefix + "document.main+xml": 0,
	ctPrefix + "template.main+xml": 0,
	ctPrefix + "header+xml":        1,
	ctPrefix + "footer+xml":        1,
	ctPrefix + "footnotes+xml":     1,
	ctPrefix + "endnotes+xml":      1,

	"application/vnd.ms-word.document.macroEnabled.main+xml":         0,
	"application/vnd.ms-word.template.macroEnabledTemplate.main+xml": 0,
}

// mediaTypes maps image extensions to their content type.
var mediaTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"svg":  "image/svg+xml",
}

type contentTypes struct {
	Defaults []struct {
		Extension   string `xml:"Extension,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Default"`
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

func (a *Archive) contentTypes() (*contentTypes, error) {
	data, err := a.Read(contentTypesPart)
	if err != nil {
		return nil, err
	}
	var ct contentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPart, contentTypesPart, err)
	}
	return &ct, nil
}

// TemplatedParts returns the parts that may contain tags: the main document
// first, then headers, footers, footnotes and endnotes in declaration order.
// Falls back to word/document.xml when no override names a main part.
func (a *Archive) TemplatedParts() ([]string, error) {
	ct, err := a.contentTypes()
	if err != nil {
		return nil, err
	}

	var main, aux []string
	for _, o := range ct.Overrides {
		name := strings.TrimPrefix(o.PartName, "/")
		if !a.Has(name) {
			continue
		}
		kind, ok := partKinds[o.ContentType]
		if !ok {
			continue
		}
		if kind == 0 {
			main = append(main, name)
		} else {
			aux = append(aux, name)
		}
	}

	if len(main) == 0 {
		if !a.Has(DefaultDocumentPart) {
			return nil, fmt.Errorf("%w: no main document part", ErrMissingPart)
		}
		main = []string{DefaultDocumentPart}
	}
	return append(main, aux...), nil
}

// ensureDefault declares a content type for ext unless one already exists.
func (a *Archive) ensureDefault(ext string) error {
	contentType, ok := mediaTypes[ext]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	ct, err := a.contentTypes()
	if err != nil {
		return err
	}
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return nil
		}
	}

	data, _ := a.Read(contentTypesPart)
	decl := fmt.Sprintf(`<Default Extension="%s" ContentType="%s"/>`, ext, contentType)
	out, err := insertBeforeClose(data, "Types", decl)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPart, contentTypesPart, err)
	}
	a.Write(contentTypesPart, out)
	return nil
}

// insertBeforeClose inserts markup right before the closing tag of the root
// element named local, keeping every other byte as is.
func insertBeforeClose(data []byte, local, markup string) ([]byte, error) {
	closing := []byte("</" + local + ">")
	i := bytes.LastIndex(data, closing)
	if i < 0 {
		return nil, fmt.Errorf("no closing </%s>", local)
	}
	out := make([]byte, 0, len(data)+len(markup))
	out = append(out, data[:i]...)
	out = append(out, markup...)
	out = append(out, data[i:]...)
	return out, nil
}
