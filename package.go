package godeck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Relationship links a part to another part, by a target relative to the
// source part's directory.
type Relationship struct {
	ID     string
	Type   string
	Target string
}

// Part is one entry of an OPC package. Name has no leading slash, e.g.
// "ppt/slides/slide1.xml". Rels become the part's relationships part.
type Part struct {
	Name        string
	ContentType string
	Data        []byte
	Rels        []Relationship
}

// Package is an ordered set of parts, written as a zip archive with a
// content-types manifest derived from the parts themselves.
type Package struct {
	parts    []Part
	names    map[string]bool
	rootRels []Relationship
	modTime  time.Time
}

// NewPackage returns an empty package.
func NewPackage() *Package {
	return &Package{names: make(map[string]bool)}
}

// SetModTime sets the modification time stamped on every zip entry. The
// default zero time keeps archives byte-for-byte reproducible.
func (p *Package) SetModTime(t time.Time) { p.modTime = t }

// AddRootRel adds a package-level relationship (written to _rels/.rels).
func (p *Package) AddRootRel(r Relationship) {
	p.rootRels = append(p.rootRels, r)
}

// AddPart appends a part. Names are case-insensitive in OPC, so two parts
// differing only in case are duplicates.
func (p *Package) AddPart(part Part) error {
	switch {
	case part.Name == "" || strings.HasPrefix(part.Name, "/") || strings.HasSuffix(part.Name, "/"):
		return &SerializationError{Part: part.Name, Err: fmt.Errorf("invalid part name")}
	case part.Name == contentTypesName || strings.HasSuffix(part.Name, ".rels"):
		return &SerializationError{Part: part.Name, Err: fmt.Errorf("reserved part name")}
	case part.ContentType == "":
		return &SerializationError{Part: part.Name, Err: fmt.Errorf("missing content type")}
	}
	key := strings.ToLower(part.Name)
	if p.names[key] {
		return &SerializationError{Part: part.Name, Err: fmt.Errorf("duplicate part name")}
	}
	ids := make(map[string]bool, len(part.Rels))
	for _, r := range part.Rels {
		if ids[r.ID] {
			return &SerializationError{Part: part.Name, Err: fmt.Errorf("duplicate relationship id %q", r.ID)}
		}
		ids[r.ID] = true
	}
	p.names[key] = true
	p.parts = append(p.parts, part)
	return nil
}

// Parts returns the parts in insertion order.
func (p *Package) Parts() []Part { return p.parts }

const contentTypesName = "[Content_Types].xml"

// relsName returns the relationships part name of a part: for
// "ppt/slides/slide1.xml" it is "ppt/slides/_rels/slide1.xml.rels".
func relsName(name string) string {
	dir, base := path.Split(name)
	return dir + "_rels/" + base + ".rels"
}

// --- Content Types ---

type xmlContentTypes struct {
	XMLName   xml.Name      `xml:"Types"`
	Xmlns     string        `xml:"xmlns,attr"`
	Defaults  []xmlDefault  `xml:"Default"`
	Overrides []xmlOverride `xml:"Override"`
}

type xmlDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xmlOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

var defaultContentTypes = []xmlDefault{
	{Extension: "rels", ContentType: ctRels},
	{Extension: "xml", ContentType: "application/xml"},
}

// contentTypes lists every part: through a Default when the part's type is
// the default for its extension, otherwise through an Override.
func (p *Package) contentTypes() xmlContentTypes {
	ct := xmlContentTypes{Xmlns: nsContentTypes, Defaults: defaultContentTypes}
	for _, part := range p.parts {
		ext := strings.TrimPrefix(path.Ext(part.Name), ".")
		covered := false
		for _, d := range ct.Defaults {
			if strings.EqualFold(d.Extension, ext) && d.ContentType == part.ContentType {
				covered = true
				break
			}
		}
		if !covered {
			ct.Overrides = append(ct.Overrides, xmlOverride{PartName: "/" + part.Name, ContentType: part.ContentType})
		}
	}
	return ct
}

// --- Relationships ---

type xmlRelationships struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Xmlns         string            `xml:"xmlns,attr"`
	Relationships []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

func relsDocument(rels []Relationship) xmlRelationships {
	doc := xmlRelationships{Xmlns: nsRelationships, Relationships: make([]xmlRelationship, 0, len(rels))}
	for _, r := range rels {
		doc.Relationships = append(doc.Relationships, xmlRelationship{ID: r.ID, Type: r.Type, Target: r.Target})
	}
	return doc
}

// checkTargets verifies that every internal relationship resolves to a part
// of the package.
func (p *Package) checkTargets() error {
	check := func(src, base string, rels []Relationship) error {
		for _, r := range rels {
			target := path.Clean(path.Join(base, r.Target))
			if !p.names[strings.ToLower(target)] {
				return &SerializationError{Part: src, Err: fmt.Errorf("relationship %s targets missing part %s", r.ID, target)}
			}
		}
		return nil
	}
	if err := check("_rels/.rels", "", p.rootRels); err != nil {
		return err
	}
	for _, part := range p.parts {
		if err := check(part.Name, path.Dir(part.Name), part.Rels); err != nil {
			return err
		}
	}
	return nil
}

func marshalXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// countingWriter tracks bytes written for io.WriterTo.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the package as a zip archive: the content-types manifest,
// the package relationships, then each part followed by its relationships.
// Every entry is deflated.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	if err := p.checkTargets(); err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	ct, err := marshalXML(p.contentTypes())
	if err != nil {
		return cw.n, &SerializationError{Part: contentTypesName, Err: err}
	}
	if err := p.writeEntry(zw, contentTypesName, ct); err != nil {
		return cw.n, err
	}
	if len(p.rootRels) > 0 {
		if err := p.writeRels(zw, "_rels/.rels", p.rootRels); err != nil {
			return cw.n, err
		}
	}
	for _, part := range p.parts {
		if err := p.writeEntry(zw, part.Name, part.Data); err != nil {
			return cw.n, err
		}
		if len(part.Rels) > 0 {
			if err := p.writeRels(zw, relsName(part.Name), part.Rels); err != nil {
				return cw.n, err
			}
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish zip: %w", err)
	}
	return cw.n, nil
}

func (p *Package) writeRels(zw *zip.Writer, name string, rels []Relationship) error {
	data, err := marshalXML(relsDocument(rels))
	if err != nil {
		return &SerializationError{Part: name, Err: err}
	}
	return p.writeEntry(zw, name, data)
}

func (p *Package) writeEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: p.modTime,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s in zip: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
