package docxtpl

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
)

// LogoTag is the tag the pipeline binds Request.LogoPath to.
const LogoTag = "logo"

// DefaultLogoSize is the display size of the logo tag, in pixels.
const DefaultLogoSize = 90

// DefaultSizeOverrides returns the fixed sizes applied by default.
func DefaultSizeOverrides() map[string]Dimensions {
	return map[string]Dimensions{
		LogoTag: {Width: DefaultLogoSize, Height: DefaultLogoSize},
	}
}

// SizePolicy decides the display size of each embedded image.
type SizePolicy struct {
	// Overrides fixes the size of images by tag name, ignoring their pixels.
	Overrides map[string]Dimensions
}

// Validate rejects non-positive overrides.
func (p SizePolicy) Validate() error {
	for tag, d := range p.Overrides {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("size override %q: %w", tag, err)
		}
	}
	return nil
}

// Size returns the override for tag when one exists, without looking at
// data. Otherwise it returns the intrinsic size of the image.
func (p SizePolicy) Size(data []byte, tag string) (Dimensions, error) {
	if d, ok := p.Overrides[tag]; ok {
		return d, nil
	}
	return IntrinsicSize(data)
}

// IntrinsicSize reads the pixel size from the image header.
// Supports PNG, JPEG, GIF, BMP, TIFF and SVG. Failure means an image that
// resolved but cannot be embedded, reported as ErrInternal.
func IntrinsicSize(data []byte) (Dimensions, error) {
	var d Dimensions
	if looksLikeSVG(data) {
		w, h, err := svgSize(data)
		if err != nil {
			return Dimensions{}, fmt.Errorf("%w: reading SVG size: %v", ErrInternal, err)
		}
		d = Dimensions{Width: w, Height: h}
	} else {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return Dimensions{}, fmt.Errorf("%w: decoding image header: %v", ErrInternal, err)
		}
		d = Dimensions{Width: cfg.Width, Height: cfg.Height}
	}

	if d.Width <= 0 || d.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: image has size %s", ErrInternal, d)
	}
	return d, nil
}

// imageFormat returns the media extension for data.
func imageFormat(data []byte) (string, error) {
	if looksLikeSVG(data) {
		return "svg", nil
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: unrecognized image format: %v", ErrInternal, err)
	}
	return format, nil
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimLeft(head, " \t\r\n")
	return bytes.HasPrefix(head, []byte("<")) && bytes.Contains(head, []byte("<svg"))
}

// svgSize reads width and height from the root element, falling back to
// the viewBox when either is missing or relative.
func svgSize(data []byte) (int, int, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return 0, 0, fmt.Errorf("root element is <%s>", start.Name.Local)
		}

		var width, height, viewBox string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "width":
				width = a.Value
			case "height":
				height = a.Value
			case "viewBox":
				viewBox = a.Value
			}
		}

		w, wok := svgLength(width)
		h, hok := svgLength(height)
		if wok && hok {
			return w, h, nil
		}
		vw, vh, err := parseViewBox(viewBox)
		if err != nil {
			return 0, 0, err
		}
		switch {
		case wok:
			return w, int(math.Round(float64(w) * vh / vw)), nil
		case hok:
			return int(math.Round(float64(h) * vw / vh)), h, nil
		}
		return int(math.Round(vw)), int(math.Round(vh)), nil
	}
}

// svgUnits converts absolute CSS units to pixels at 96 dpi.
var svgUnits = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
}

func svgLength(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	i := len(s)
	for i > 0 && (s[i-1] < '0' || s[i-1] > '9') && s[i-1] != '.' {
		i--
	}
	factor, ok := svgUnits[strings.ToLower(s[i:])]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return int(math.Round(v * factor)), true
}

func parseViewBox(s string) (float64, float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return 0, 0, fmt.Errorf("no usable width, height or viewBox")
	}
	w, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("viewBox width: %v", err)
	}
	h, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("viewBox height: %v", err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("viewBox %q has no area", s)
	}
	return w, h, nil
}
