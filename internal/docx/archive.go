package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"
)

// Size limits guarding against zip bombs.
const (
	MaxPartSize    = 64 << 20  // Uncompressed bytes per entry
	MaxArchiveSize = 256 << 20 // Uncompressed bytes across all entries
	MaxEntries     = 10000
)

// fixedModTime stamps entries created during rendering.
var fixedModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// entry is one zip member held in memory.
type entry struct {
	header zip.FileHeader
	data   []byte
}

// Archive is an in-memory, order-preserving view of a docx package.
// It is not safe for concurrent use; each render owns its own Archive.
type Archive struct {
	entries []*entry
	index   map[string]*entry

	mediaSeq int // last docxtplN number handed out
	docPrMax int // highest wp:docPr id seen or issued; -1 until scanned
}

// Open reads a docx package from memory.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	if len(zr.File) > MaxEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrArchiveTooLarge, len(zr.File))
	}

	a := &Archive{
		entries:  make([]*entry, 0, len(zr.File)),
		index:    make(map[string]*entry, len(zr.File)),
		docPrMax: -1,
	}

	var total int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		body, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		total += int64(len(body))
		if total > MaxArchiveSize {
			return nil, fmt.Errorf("%w: more than %d bytes uncompressed", ErrArchiveTooLarge, MaxArchiveSize)
		}
		e := &entry{header: f.FileHeader, data: body}
		if _, dup := a.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrNotArchive, f.Name)
		}
		a.entries = append(a.entries, e)
		a.index[f.Name] = e
	}

	if _, ok := a.index[contentTypesPart]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, contentTypesPart)
	}
	return a, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrNotArchive, f.Name, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(io.LimitReader(rc, MaxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNotArchive, f.Name, err)
	}
	if len(body) > MaxPartSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrArchiveTooLarge, f.Name, MaxPartSize)
	}
	return body, nil
}

// Has reports whether the archive contains the named entry.
func (a *Archive) Has(name string) bool {
	_, ok := a.index[name]
	return ok
}

// Read returns the content of the named entry.
func (a *Archive) Read(name string) ([]byte, error) {
	e, ok := a.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	return e.data, nil
}

// Write replaces the named entry, or appends it when absent.
func (a *Archive) Write(name string, data []byte) {
	if e, ok := a.index[name]; ok {
		e.data = data
		return
	}
	e := &entry{
		header: zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: fixedModTime,
		},
		data: data,
	}
	a.entries = append(a.entries, e)
	a.index[name] = e
}

// Bytes serializes the archive.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range a.entries {
		h := e.header
		// Sizes, CRC and zip64 extras are recomputed by the writer.
		h.Extra = nil
		h.CRC32 = 0
		h.CompressedSize64 = 0
		h.UncompressedSize64 = 0
		if h.Method != zip.Store {
			h.Method = zip.Deflate
		}

		w, err := zw.CreateHeader(&h)
		if err != nil {
			return nil, fmt.Errorf("writing %s header: %w", h.Name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", h.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
