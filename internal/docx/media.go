package docx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MediaDir holds embedded images.
const MediaDir = "word/media/"

// mediaPrefix names images added by this package.
const mediaPrefix = "docxtpl"

// Image is a picture to embed in a part.
type Image struct {
	Data   []byte
	Ext    string // png, jpeg, jpg, gif, bmp, tiff or svg
	Width  int    // Display width in pixels
	Height int    // Display height in pixels
	Descr  string // Alternative text, usually the tag name
}

var docPrID = regexp.MustCompile(`docPr\b[^>]*\sid="(\d+)"`)

// AddImage stores img as a new media part referenced from part and returns
// the w:drawing markup that displays it inline.
func (a *Archive) AddImage(part string, img Image) (string, error) {
	ext := strings.ToLower(img.Ext)
	if _, ok := mediaTypes[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, img.Ext)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return "", fmt.Errorf("invalid image size %dx%d", img.Width, img.Height)
	}
	if !a.Has(part) {
		return "", fmt.Errorf("%w: %s", ErrMissingPart, part)
	}

	mediaName := a.nextMediaName(ext)
	a.Write(mediaName, img.Data)

	if err := a.ensureDefault(ext); err != nil {
		return "", err
	}
	rID, err := a.addRelationship(part, RelTypeImage, mediaName)
	if err != nil {
		return "", err
	}

	return Drawing(DrawingParams{
		RelID:  rID,
		ID:     a.nextDocPrID(),
		Name:   strings.TrimPrefix(mediaName, MediaDir),
		Descr:  img.Descr,
		Width:  img.Width,
		Height: img.Height,
	}), nil
}

func (a *Archive) nextMediaName(ext string) string {
	for {
		a.mediaSeq++
		name := MediaDir + mediaPrefix + strconv.Itoa(a.mediaSeq) + "." + ext
		if !a.Has(name) {
			return name
		}
	}
}

// nextDocPrID returns a drawing id unique within the package.
func (a *Archive) nextDocPrID() int {
	if a.docPrMax < 0 {
		a.docPrMax = 0
		for _, e := range a.entries {
			if !strings.HasPrefix(e.header.Name, "word/") || !strings.HasSuffix(e.header.Name, ".xml") {
				continue
			}
			for _, m := range docPrID.FindAllSubmatch(e.data, -1) {
				if n, err := strconv.Atoi(string(m[1])); err == nil && n > a.docPrMax {
					a.docPrMax = n
				}
			}
		}
	}
	a.docPrMax++
	return a.docPrMax
}
