package docx

import (
	"fmt"
	"strings"
)

// EMUPerPixel converts pixels (96 dpi) to English Metric Units.
const EMUPerPixel = 9525

// Namespaces declared on the drawing itself so it is valid in any part.
const (
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// DrawingParams describes an inline picture.
type DrawingParams struct {
	RelID  string // Relationship id of the media part
	ID     int    // Unique wp:docPr id
	Name   string
	Descr  string
	Width  int // Pixels
	Height int // Pixels
}

// Drawing returns a w:drawing element holding an inline picture.
func Drawing(p DrawingParams) string {
	cx := int64(p.Width) * EMUPerPixel
	cy := int64(p.Height) * EMUPerPixel
	name := escapeAttr(p.Name)

	var b strings.Builder
	b.WriteString(`<w:drawing>`)
	fmt.Fprintf(&b, `<wp:inline distT="0" distB="0" distL="0" distR="0" xmlns:wp="%s">`, nsWP)
	fmt.Fprintf(&b, `<wp:extent cx="%d" cy="%d"/>`, cx, cy)
	b.WriteString(`<wp:effectExtent l="0" t="0" r="0" b="0"/>`)
	fmt.Fprintf(&b, `<wp:docPr id="%d" name="%s" descr="%s"/>`, p.ID, name, escapeAttr(p.Descr))
	fmt.Fprintf(&b, `<wp:cNvGraphicFramePr><a:graphicFrameLocks xmlns:a="%s" noChangeAspect="1"/></wp:cNvGraphicFramePr>`, nsA)
	fmt.Fprintf(&b, `<a:graphic xmlns:a="%s"><a:graphicData uri="%s">`, nsA, nsPic)
	fmt.Fprintf(&b, `<pic:pic xmlns:pic="%s">`, nsPic)
	fmt.Fprintf(&b, `<pic:nvPicPr><pic:cNvPr id="0" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, name)
	fmt.Fprintf(&b, `<pic:blipFill><a:blip r:embed="%s" xmlns:r="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, p.RelID, nsR)
	fmt.Fprintf(&b, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, cx, cy)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`)
	b.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`)
	return b.String()
}

var attrEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&apos;",
	"\n", "&#xA;",
	"\r", "&#xD;",
	"\t", "&#x9;",
)

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
