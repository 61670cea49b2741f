package godeck

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// XML namespace constants
const (
	nsRelationships  = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes   = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsOfficeDocRels  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsDCTerms        = "http://purl.org/dc/terms/"
	nsDC             = "http://purl.org/dc/elements/1.1/"
	nsCoreProperties = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsExtProperties  = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
	nsDocPropsVTypes = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
	nsXSI            = "http://www.w3.org/2001/XMLSchema-instance"

	relTypeSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypePresProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps"
	relTypeViewProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/viewProps"
	relTypeTableStyles = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles"
	relTypeOfficeDoc   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeCoreProps   = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeExtProps    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"

	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctPresProps    = "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"
	ctViewProps    = "application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"
	ctTableStyles  = "application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"
	ctCoreProps    = "application/vnd.openxmlformats-package.core-properties+xml"
	ctExtProps     = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctRels         = "application/vnd.openxmlformats-package.relationships+xml"
)

// Part names of the fixed parts.
const (
	partPresentation = "ppt/presentation.xml"
	partPresProps    = "ppt/presProps.xml"
	partViewProps    = "ppt/viewProps.xml"
	partTableStyles  = "ppt/tableStyles.xml"
	partSlideMaster  = "ppt/slideMasters/slideMaster1.xml"
	partSlideLayout  = "ppt/slideLayouts/slideLayout1.xml"
	partTheme        = "ppt/theme/theme1.xml"
	partCoreProps    = "docProps/core.xml"
	partAppProps     = "docProps/app.xml"
)

const xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Identifiers in presentation.xml. Slide ids start at 256 and master ids
// at 2^31, as the schema requires.
const (
	firstSlideID  = 256
	slideMasterID = 2147483648
	slideLayoutID = 2147483649
)

func slidePartName(number int) string {
	return fmt.Sprintf("ppt/slides/slide%d.xml", number)
}

// --- Presentation ---

func (w *PPTXWriter) presentationPart() Part {
	rels := []Relationship{{ID: "rId1", Type: relTypeSlideMaster, Target: "slideMasters/slideMaster1.xml"}}

	var ids strings.Builder
	for i, s := range w.doc.Slides {
		rid := fmt.Sprintf("rId%d", i+2)
		rels = append(rels, Relationship{ID: rid, Type: relTypeSlide, Target: fmt.Sprintf("slides/slide%d.xml", s.Number)})
		fmt.Fprintf(&ids, "\n    <p:sldId id=\"%d\" r:id=\"%s\"/>", firstSlideID+i, rid)
	}
	n := len(w.doc.Slides) + 2
	for _, r := range []struct{ typ, target string }{
		{relTypePresProps, "presProps.xml"},
		{relTypeViewProps, "viewProps.xml"},
		{relTypeTheme, "theme/theme1.xml"},
		{relTypeTableStyles, "tableStyles.xml"},
	} {
		rels = append(rels, Relationship{ID: fmt.Sprintf("rId%d", n), Type: r.typ, Target: r.target})
		n++
	}

	content := fmt.Sprintf(xmlDecl+`<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" saveSubsetFonts="1">
  <p:sldMasterIdLst>
    <p:sldMasterId id="%d" r:id="rId1"/>
  </p:sldMasterIdLst>
  <p:sldIdLst>%s
  </p:sldIdLst>
  <p:sldSz cx="%d" cy="%d"/>
  <p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>`, nsDrawingML, nsOfficeDocRels, nsPresentationML,
		slideMasterID, ids.String(), w.doc.Page.CX, w.doc.Page.CY)

	return Part{Name: partPresentation, ContentType: ctPresentation, Data: []byte(content), Rels: rels}
}

func presPropsPart() Part {
	content := fmt.Sprintf(xmlDecl+`<p:presentationPr xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"/>`,
		nsDrawingML, nsOfficeDocRels, nsPresentationML)
	return Part{Name: partPresProps, ContentType: ctPresProps, Data: []byte(content)}
}

func viewPropsPart() Part {
	content := fmt.Sprintf(xmlDecl+`<p:viewPr xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">
  <p:normalViewPr>
    <p:restoredLeft sz="15620"/>
    <p:restoredTop sz="94660"/>
  </p:normalViewPr>
  <p:gridSpacing cx="76200" cy="76200"/>
</p:viewPr>`, nsDrawingML, nsOfficeDocRels, nsPresentationML)
	return Part{Name: partViewProps, ContentType: ctViewProps, Data: []byte(content)}
}

func tableStylesPart() Part {
	content := fmt.Sprintf(xmlDecl+`<a:tblStyleLst xmlns:a="%s" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`, nsDrawingML)
	return Part{Name: partTableStyles, ContentType: ctTableStyles, Data: []byte(content)}
}

// --- App Properties ---

func (w *PPTXWriter) appPropertiesPart() Part {
	props := w.doc.Properties
	content := fmt.Sprintf(xmlDecl+`<Properties xmlns="%s" xmlns:vt="%s">
  <Application>GoDeck v%s</Application>
  <PresentationFormat>Custom</PresentationFormat>
  <Slides>%d</Slides>
  <Company>%s</Company>
  <AppVersion>%s</AppVersion>
</Properties>`, nsExtProperties, nsDocPropsVTypes, Version, len(w.doc.Slides), xmlEscape(props.Company), AppVersion)
	return Part{Name: partAppProps, ContentType: ctExtProps, Data: []byte(content)}
}

// --- Core Properties ---

func (w *PPTXWriter) corePropertiesPart() Part {
	props := w.doc.Properties
	content := fmt.Sprintf(xmlDecl+`<cp:coreProperties xmlns:cp="%s" xmlns:dc="%s" xmlns:dcterms="%s" xmlns:xsi="%s">
  <dc:creator>%s</dc:creator>
  <cp:lastModifiedBy>%s</cp:lastModifiedBy>
  <dc:title>%s</dc:title>
  <dc:description>%s</dc:description>
  <dc:subject>%s</dc:subject>
  <cp:keywords>%s</cp:keywords>
  <cp:category>%s</cp:category>
  <cp:revision>%s</cp:revision>
  <dc:language>%s</dc:language>
  <dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>
  <dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>
</cp:coreProperties>`,
		nsCoreProperties, nsDC, nsDCTerms, nsXSI,
		xmlEscape(props.Creator),
		xmlEscape(props.LastModifiedBy),
		xmlEscape(props.Title),
		xmlEscape(props.Description),
		xmlEscape(props.Subject),
		xmlEscape(props.Keywords),
		xmlEscape(props.Category),
		xmlEscape(props.Revision),
		w.lang(),
		props.Created.UTC().Format("2006-01-02T15:04:05Z"),
		props.Modified.UTC().Format("2006-01-02T15:04:05Z"),
	)
	return Part{Name: partCoreProps, ContentType: ctCoreProps, Data: []byte(content)}
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s)) // strings.Builder never fails
	return b.String()
}
