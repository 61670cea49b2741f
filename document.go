// Package godeck assembles declarative slide descriptions into PowerPoint
// presentation files (.pptx) following the Office Open XML (OOXML) standard.
//
// Callers describe slides as trees of NodeSpec values whose positions are
// relative layout rules (grids, repeated rows) and whose styles are symbolic
// references into an immutable Theme. A Builder resolves everything into a
// Document with absolute EMU geometry and concrete colours, and a PPTXWriter
// serializes the Document into a zip package, published atomically.
//
//	theme := godeck.DefaultTheme()
//	doc, err := godeck.NewBuilder(theme).Build(ctx, slides)
//	...
//	err = godeck.NewWriter(doc).Save("deck.pptx")
package godeck

import (
	"time"

	"golang.org/x/text/language"
)

// Document is a fully resolved presentation. It is built once, handed to a
// writer, and discarded.
type Document struct {
	Page       PageSize
	Properties Properties
	Lang       language.Tag
	Font       string // theme font family of the slide master
	Slides     []ResolvedSlide
	Warnings   []Warning
}

// ResolvedSlide is one slide with every node resolved. Number is the
// 1-based part number, assigned from the slide's position in the build.
type ResolvedSlide struct {
	Index      int
	Number     int
	Name       string
	Background *RGB
	Nodes      []ResolvedNode // z-order: first is bottom-most
}

// ResolvedNode is the resolved form of one NodeSpec.
type ResolvedNode struct {
	Kind      ShapeKind
	ID        string
	Box       Box
	Fill      *RGB
	Line      *RGB
	LineWidth int64 // in EMU
	Text      *ResolvedTextFrame
}

// ResolvedTextFrame is the text of a node in final units.
type ResolvedTextFrame struct {
	Anchor     Anchor
	Wrap       bool
	Paragraphs []ResolvedParagraph
}

// ResolvedParagraph carries spacing in the package's own units.
type ResolvedParagraph struct {
	Align       Alignment
	Level       int
	SpaceBefore int // hundredths of a point
	SpaceAfter  int // hundredths of a point
	LineSpacing int // thousandths of a percent; 0 means default
	Runs        []ResolvedRun
}

// ResolvedRun is a run with a concrete font. Text is NFC-normalized; a "\n"
// inside it is a line break.
type ResolvedRun struct {
	Text string
	Font ResolvedFont
}

// Warning is an informational finding that did not stop the build.
type Warning struct {
	Location
	Msg string
}

func (w Warning) String() string {
	return w.Location.String() + ": " + w.Msg
}

// NodeCount returns the total number of nodes over all slides.
func (d *Document) NodeCount() int {
	n := 0
	for _, s := range d.Slides {
		n += len(s.Nodes)
	}
	return n
}

// Properties holds the standard document properties written to
// docProps/core.xml and docProps/app.xml.
type Properties struct {
	Title          string
	Subject        string
	Description    string
	Keywords       string
	Category       string
	Company        string
	Creator        string
	LastModifiedBy string
	Revision       string
	Created        time.Time
	Modified       time.Time
}

// NewProperties returns properties with defaults.
func NewProperties() Properties {
	now := time.Now().UTC().Truncate(time.Second)
	return Properties{
		Creator:        "GoDeck",
		LastModifiedBy: "GoDeck",
		Revision:       "1",
		Created:        now,
		Modified:       now,
	}
}
