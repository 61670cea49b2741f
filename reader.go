package godeck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// PackageSummary is the structure of a .pptx package as found on disk.
type PackageSummary struct {
	Parts        []string          // zip entries, in archive order
	ContentTypes map[string]string // part name -> content type, per the manifest
	Uncovered    []string          // parts with no content type
	PageWidth    int64             // EMU
	PageHeight   int64             // EMU
	Slides       []SlideSummary    // in presentation order
}

// SlideSummary describes one slide part.
type SlideSummary struct {
	Part      string
	NodeCount int
	Texts     []string // text of each shape that has any, paragraphs joined by "\n"
}

// Inspect reads the package at path.
func Inspect(path string) (*PackageSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return InspectReader(f, info.Size())
}

// InspectReader reads a package from an io.ReaderAt.
func InspectReader(r io.ReaderAt, size int64) (*PackageSummary, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid reader size: %d", size)
	}
	if size > int64(maxZipTotalSize) {
		return nil, fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", size, maxZipTotalSize)
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	if len(zr.File) > maxZipEntries {
		return nil, fmt.Errorf("zip archive contains too many entries (%d > %d)", len(zr.File), maxZipEntries)
	}
	files := zipIndex(zr)

	sum := &PackageSummary{ContentTypes: make(map[string]string)}
	if err := sum.readContentTypes(zr, files); err != nil {
		return nil, err
	}

	rootRels, err := readRelationships(files, "_rels/.rels")
	if err != nil {
		return nil, err
	}
	presPart := ""
	for _, rel := range rootRels {
		if rel.Type == relTypeOfficeDoc {
			presPart = strings.TrimPrefix(rel.Target, "/")
			break
		}
	}
	if presPart == "" {
		return nil, errors.New("package has no officeDocument relationship")
	}
	if err := sum.readPresentation(files, presPart); err != nil {
		return nil, err
	}
	return sum, nil
}

// maxZipEntrySize is the maximum allowed size for a single file extracted from a ZIP.
// This prevents zip bomb attacks. 50 MB is generous for any legitimate PPTX part.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the cumulative limit for all extracted content from a single ZIP.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in a ZIP archive.
const maxZipEntries = 10000

// zipIndex builds a map from file name to *zip.File for O(1) lookups.
func zipIndex(zr *zip.Reader) map[string]*zip.File {
	m := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		m[f.Name] = f
	}
	return m
}

func readFileFromZip(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("file not found in zip: %s", name)
	}
	if f.UncompressedSize64 > maxZipEntrySize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", name, maxZipEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from zip: %w", name, err)
	}
	if int64(len(data)) > int64(maxZipEntrySize) {
		return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", name)
	}
	return data, nil
}

func (s *PackageSummary) readContentTypes(zr *zip.Reader, files map[string]*zip.File) error {
	data, err := readFileFromZip(files, contentTypesName)
	if err != nil {
		return err
	}
	var ct xmlContentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return fmt.Errorf("failed to parse %s: %w", contentTypesName, err)
	}
	overrides := make(map[string]string, len(ct.Overrides))
	for _, o := range ct.Overrides {
		overrides[strings.ToLower(strings.TrimPrefix(o.PartName, "/"))] = o.ContentType
	}
	defaults := make(map[string]string, len(ct.Defaults))
	for _, d := range ct.Defaults {
		defaults[strings.ToLower(d.Extension)] = d.ContentType
	}
	for _, f := range zr.File {
		if f.Name == contentTypesName {
			continue
		}
		s.Parts = append(s.Parts, f.Name)
		t, ok := overrides[strings.ToLower(f.Name)]
		if !ok {
			t, ok = defaults[strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))]
		}
		if !ok {
			s.Uncovered = append(s.Uncovered, f.Name)
			continue
		}
		s.ContentTypes[f.Name] = t
	}
	return nil
}

// --- Relationship reading ---

type xmlRelsForRead struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []xmlRelationship `xml:"Relationship"`
}

func readRelationships(files map[string]*zip.File, name string) ([]xmlRelationship, error) {
	if _, ok := files[name]; !ok {
		return nil, nil // relationships part may not exist
	}
	data, err := readFileFromZip(files, name)
	if err != nil {
		return nil, err
	}
	var rels xmlRelsForRead
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %w", name, err)
	}
	return rels.Relationships, nil
}

// --- Presentation reading ---

type xmlPresentationForRead struct {
	XMLName xml.Name `xml:"presentation"`
	SldIDs  []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
	SldSz struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

func (s *PackageSummary) readPresentation(files map[string]*zip.File, presPart string) error {
	data, err := readFileFromZip(files, presPart)
	if err != nil {
		return err
	}
	var pres xmlPresentationForRead
	if err := xml.Unmarshal(data, &pres); err != nil {
		return fmt.Errorf("failed to parse %s: %w", presPart, err)
	}
	s.PageWidth, s.PageHeight = pres.SldSz.CX, pres.SldSz.CY

	rels, err := readRelationships(files, relsName(presPart))
	if err != nil {
		return err
	}
	targets := make(map[string]string, len(rels))
	for _, r := range rels {
		targets[r.ID] = r.Target
	}
	for _, sld := range pres.SldIDs {
		target, ok := targets[sld.RID]
		if !ok {
			return fmt.Errorf("slide references unknown relationship %q", sld.RID)
		}
		part := path.Join(path.Dir(presPart), target)
		slide, err := readSlideSummary(files, part)
		if err != nil {
			return fmt.Errorf("failed to read slide %s: %w", part, err)
		}
		s.Slides = append(s.Slides, slide)
	}
	return nil
}

// readSlideSummary counts the shapes of a slide and collects their text.
func readSlideSummary(files map[string]*zip.File, part string) (SlideSummary, error) {
	data, err := readFileFromZip(files, part)
	if err != nil {
		return SlideSummary{}, err
	}
	sum := SlideSummary{Part: part}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		shape   strings.Builder
		paras   int
		inShape bool
		inText  bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return SlideSummary{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == nsPresentationML && t.Name.Local == "sp":
				sum.NodeCount++
				inShape, paras = true, 0
				shape.Reset()
			case t.Name.Space == nsDrawingML && t.Name.Local == "p" && inShape:
				if paras > 0 {
					shape.WriteByte('\n')
				}
				paras++
			case t.Name.Space == nsDrawingML && t.Name.Local == "br" && inShape:
				shape.WriteByte('\n')
			case t.Name.Space == nsDrawingML && t.Name.Local == "t":
				inText = true
			}
		case xml.CharData:
			if inText && inShape {
				shape.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == nsDrawingML && t.Name.Local == "t":
				inText = false
			case t.Name.Space == nsPresentationML && t.Name.Local == "sp":
				inShape = false
				if txt := shape.String(); strings.TrimSpace(txt) != "" {
					sum.Texts = append(sum.Texts, txt)
				}
			}
		}
	}
	return sum, nil
}
