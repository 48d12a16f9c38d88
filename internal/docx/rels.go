package docx

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Relationship types used when embedding content.
const (
	RelTypeImage = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

const emptyRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

type relationships struct {
	Rels []struct {
		ID string `xml:"Id,attr"`
	} `xml:"Relationship"`
}

// RelsPath returns the relationships part of part,
// e.g. word/document.xml -> word/_rels/document.xml.rels.
func RelsPath(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// relTarget expresses target relative to the directory of part when possible.
func relTarget(part, target string) string {
	dir := path.Dir(part)
	if dir == "." {
		return target
	}
	if strings.HasPrefix(target, dir+"/") {
		return target[len(dir)+1:]
	}
	return "/" + target
}

// addRelationship appends a relationship from part to target and returns its id.
// Ids follow the rIdN convention, one past the highest existing number.
func (a *Archive) addRelationship(part, relType, target string) (string, error) {
	relsName := RelsPath(part)
	data := []byte(emptyRels)
	if a.Has(relsName) {
		data, _ = a.Read(relsName)
	}

	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedPart, relsName, err)
	}

	taken := make(map[string]bool, len(rels.Rels))
	maxID := 0
	for _, r := range rels.Rels {
		taken[r.ID] = true
		if n, err := strconv.Atoi(strings.TrimPrefix(r.ID, "rId")); err == nil && n > maxID {
			maxID = n
		}
	}
	var id string
	for n := maxID + 1; ; n++ {
		id = "rId" + strconv.Itoa(n)
		if !taken[id] {
			break
		}
	}

	decl := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"/>`,
		id, relType, escapeAttr(relTarget(part, target)))
	out, err := insertBeforeClose(data, "Relationships", decl)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedPart, relsName, err)
	}
	a.Write(relsName, out)
	return id, nil
}
