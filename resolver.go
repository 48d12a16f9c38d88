package docxtpl

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// inlineImagePrefix matches the media-type declaration of inline image data.
	inlineImagePrefix = regexp.MustCompile(`^(?:data:)?image/(png|jpg|jpeg|svg|svg\+xml);base64,`)

	// base64Payload accepts the standard alphabet with padding only at the end.
	base64Payload = regexp.MustCompile(`^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`)
)

// Resolver turns an image tag value into image bytes.
// The zero value reads any path with os.ReadFile.
type Resolver struct {
	// ReadFile reads file references. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	// Root, when set, confines file references to this directory.
	// Relative references are resolved against it.
	Root string
}

// ResolveImage resolves value with a zero Resolver.
func ResolveImage(value, tag string) ([]byte, error) {
	var r Resolver
	return r.Resolve(value, tag)
}

// Resolve returns the bytes of the image named by value.
//
// Inline data ([data:]image/<type>;base64,<payload>) is tried first. Once the
// prefix matches, a payload breaking the base64 rules fails with
// ErrMalformedEncodedPayload and is never retried as a path. Any other value
// is a file reference; a missing or unreadable file fails with
// ErrUnresolvedImage.
func (r *Resolver) Resolve(value, tag string) ([]byte, error) {
	if loc := inlineImagePrefix.FindStringIndex(value); loc != nil {
		return decodeInline(value[loc[1]:], tag)
	}
	return r.readFile(value, tag)
}

func decodeInline(payload, tag string) ([]byte, error) {
	if payload == "" || !base64Payload.MatchString(payload) {
		return nil, fmt.Errorf("%w: tag %q", ErrMalformedEncodedPayload, tag)
	}
	data, err := base64.StdEncoding.Strict().DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: tag %q: %v", ErrMalformedEncodedPayload, tag, err)
	}
	return data, nil
}

func (r *Resolver) readFile(path, tag string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: tag %q: empty value", ErrUnresolvedImage, tag)
	}

	if r.Root != "" {
		confined, err := confine(r.Root, path)
		if err != nil {
			return nil, fmt.Errorf("%w: tag %q: %w", ErrUnresolvedImage, tag, err)
		}
		path = confined
	}

	read := r.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(path) // #nosec G304 -- confined to Root when configured
	if err != nil {
		return nil, fmt.Errorf("%w: tag %q: %w", ErrUnresolvedImage, tag, err)
	}
	return data, nil
}

// confine resolves path against root and rejects anything outside it,
// following symlinks where they exist.
func confine(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = real
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(absRoot, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = real
	}

	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return absPath, nil
}
