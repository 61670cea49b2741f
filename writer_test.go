package godeck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
)

func mustTag(t *testing.T, s string) language.Tag {
	t.Helper()
	tag, err := language.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return tag
}

// buildDeck builds n slides, each holding a titled card.
func buildDeck(t *testing.T, n int, opts ...BuilderOption) *Document {
	t.Helper()
	var slides []SlideDescription
	for i := 1; i <= n; i++ {
		slides = append(slides, SlideDescription{
			Index:      i * 10,
			Background: Ref("light-gray"),
			Nodes: []NodeSpec{
				{
					Kind:     KindRoundedRectangle,
					Position: GridLayout{Rows: 1, Columns: 4, Margins: UniformMargins(0.5)}.Cell(0, i%4),
					Style:    StyleRef{Fill: Ref("white"), Line: Ref("accent-blue"), LineWeight: "hairline"},
				},
				{
					ID:       "title",
					Kind:     KindTextBox,
					Position: Absolute{X: 0.5, Y: 0.2, Width: 9, Height: 1},
					Paragraphs: []ParagraphSpec{Para(
						Run(fmt.Sprintf("Slide %d", i), "heading", Ref("dark-gray")),
					)},
				},
			},
		})
	}
	b := NewBuilder(DefaultTheme(), append([]BuilderOption{WithTextMeasurer(nil)}, opts...)...)
	doc, err := b.Build(context.Background(), slides)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return doc
}

func writeToBuffer(t *testing.T, doc *Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	n, err := NewWriter(doc, WithWriterWorkers(4)).WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}
	return buf.Bytes()
}

func TestWriterSlidesInOrder(t *testing.T) {
	doc := buildDeck(t, 10)
	data := writeToBuffer(t, doc)

	sum, err := InspectReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("InspectReader failed: %v", err)
	}
	if len(sum.Slides) != 10 {
		t.Fatalf("got %d slides, want 10", len(sum.Slides))
	}
	for i, s := range sum.Slides {
		want := SlideSummary{
			Part:      fmt.Sprintf("ppt/slides/slide%d.xml", i+1),
			NodeCount: 2,
			Texts:     []string{fmt.Sprintf("Slide %d", i+1)},
		}
		if diff := cmp.Diff(want, s); diff != "" {
			t.Errorf("slide %d (-want +got):\n%s", i+1, diff)
		}
	}
	if sum.PageWidth != 9144000 || sum.PageHeight != 6858000 {
		t.Errorf("page = %dx%d", sum.PageWidth, sum.PageHeight)
	}
	if len(sum.Uncovered) != 0 {
		t.Errorf("parts without a content type: %v", sum.Uncovered)
	}
	if got := sum.ContentTypes["ppt/slides/slide7.xml"]; got != ctSlide {
		t.Errorf("slide content type = %q", got)
	}
	if got := sum.ContentTypes["ppt/slides/_rels/slide7.xml.rels"]; got != ctRels {
		t.Errorf("rels content type = %q", got)
	}
	if sum.Parts[0] != "_rels/.rels" || sum.Parts[1] != partPresentation {
		t.Errorf("unexpected part order: %v", sum.Parts[:2])
	}
}

func TestWriterParts(t *testing.T) {
	doc := buildDeck(t, 3)
	parts, err := NewWriter(doc).Parts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range parts {
		names = append(names, p.Name)
	}
	want := []string{
		partPresentation, partSlideMaster, partSlideLayout, partTheme,
		partPresProps, partViewProps, partTableStyles,
		"ppt/slides/slide1.xml", "ppt/slides/slide2.xml", "ppt/slides/slide3.xml",
		partCoreProps, partAppProps,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("parts (-want +got):\n%s", diff)
	}

	pres := string(parts[0].Data)
	for _, s := range []string{`<p:sldId id="256" r:id="rId2"/>`, `<p:sldId id="258" r:id="rId4"/>`, `<p:sldSz cx="9144000" cy="6858000"/>`} {
		if !strings.Contains(pres, s) {
			t.Errorf("presentation.xml missing %s", s)
		}
	}
}

func TestWriterSlideXML(t *testing.T) {
	doc := buildDeck(t, 1, WithLanguage(mustTag(t, "de-DE")))
	doc.Slides[0].Nodes[1].Text.Paragraphs[0].Runs[0].Text = "R&D <one>\nline two"
	w := NewWriter(doc)
	part, err := w.slidePart(&doc.Slides[0])
	if err != nil {
		t.Fatal(err)
	}
	xml := string(part.Data)
	for _, s := range []string{
		`<a:srgbClr val="F3F4F6"/>`, // background
		`<a:prstGeom prst="roundRect">`,
		`<a:ln w="12700"><a:solidFill><a:srgbClr val="3B82F6"/></a:solidFill></a:ln>`,
		`<p:cNvPr id="3" name="title"/>`,
		`<p:cNvSpPr txBox="1"/>`,
		`<a:ln><a:noFill/></a:ln>`,
		`lang="de-DE" sz="2800" b="1" dirty="0"`,
		`<a:t>R&amp;D &lt;one&gt;</a:t>`,
		`<a:br>`,
		`<a:t>line two</a:t>`,
	} {
		if !strings.Contains(xml, s) {
			t.Errorf("slide XML missing %s", s)
		}
	}
	if strings.Index(xml, `prst="roundRect"`) > strings.Index(xml, `name="title"`) {
		t.Error("shapes are not in z-order")
	}
}

func TestSlideEmitterOrder(t *testing.T) {
	doc := buildDeck(t, 1)
	e := NewWriter(doc).newSlideEmitter(&doc.Slides[0])

	var se *SerializationError
	if err := e.finalize(); !errors.As(err, &se) {
		t.Errorf("finalize on empty slide: got %v", err)
	}
	if err := e.emitTextFrames(); !errors.As(err, &se) {
		t.Errorf("text frames before shapes: got %v", err)
	}
	if _, err := e.result(); !errors.As(err, &se) {
		t.Errorf("result before finalize: got %v", err)
	}
	if err := e.emitShapes(); err != nil {
		t.Fatal(err)
	}
	if err := e.emitShapes(); !errors.As(err, &se) {
		t.Errorf("shapes twice: got %v", err)
	}
	if err := e.emitTextFrames(); err != nil {
		t.Fatal(err)
	}
	if err := e.finalize(); err != nil {
		t.Fatal(err)
	}
	if e.state != stateFinalized {
		t.Errorf("state = %v, want %v", e.state, stateFinalized)
	}
	if _, err := e.result(); err != nil {
		t.Errorf("result: %v", err)
	}
}

func TestWriterRejectsUnresolvedNodes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ResolvedNode)
	}{
		{"unknown kind", func(n *ResolvedNode) { n.Kind = ShapeKind(99) }},
		{"box not in emu", func(n *ResolvedNode) { n.Box.Unit = UnitInch }},
		{"empty box", func(n *ResolvedNode) { n.Box.Width = 0 }},
		{"bad colour", func(n *ResolvedNode) { n.Fill = &RGB{R: 256} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := buildDeck(t, 2)
			tt.mutate(&doc.Slides[1].Nodes[0])

			_, err := NewWriter(doc).slidePart(&doc.Slides[1])
			var se *SerializationError
			if !errors.As(err, &se) {
				t.Fatalf("slidePart: got %v, want SerializationError", err)
			}
			if se.Part != "ppt/slides/slide2.xml" {
				t.Errorf("part = %q", se.Part)
			}

			var buf bytes.Buffer
			if _, err := NewWriter(doc).WriteTo(&buf); !errors.As(err, &se) {
				t.Errorf("WriteTo: got %v, want SerializationError", err)
			}
			if buf.Len() != 0 {
				t.Errorf("%d bytes written before failing", buf.Len())
			}
		})
	}
}

func TestWriterDeterministic(t *testing.T) {
	doc := buildDeck(t, 4)
	doc.Properties.Created = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	doc.Properties.Modified = doc.Properties.Created
	a := writeToBuffer(t, doc)
	b := writeToBuffer(t, doc)
	if !bytes.Equal(a, b) {
		t.Error("two writes of the same document differ")
	}
}

func TestWriterCanceled(t *testing.T) {
	doc := buildDeck(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if _, err := NewWriter(doc).WriteToContext(ctx, &buf); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written after cancellation", buf.Len())
	}
}

func TestWriterValidate(t *testing.T) {
	doc := buildDeck(t, 2)
	doc.Slides[1].Number = 5
	_, err := NewWriter(doc).Parts(context.Background())
	var se *SerializationError
	if !errors.As(err, &se) || !strings.Contains(err.Error(), "number 5, want 2") {
		t.Errorf("got %v", err)
	}
}

func TestPackageAddPart(t *testing.T) {
	p := NewPackage()
	if err := p.AddPart(Part{Name: "ppt/slides/slide1.xml", ContentType: ctSlide}); err != nil {
		t.Fatal(err)
	}
	for _, part := range []Part{
		{Name: "PPT/Slides/Slide1.xml", ContentType: ctSlide},
		{Name: "/ppt/x.xml", ContentType: ctSlide},
		{Name: "ppt/_rels/x.xml.rels", ContentType: ctRels},
		{Name: contentTypesName, ContentType: "application/xml"},
		{Name: "ppt/y.xml"},
		{Name: "ppt/z.xml", ContentType: ctSlide, Rels: []Relationship{{ID: "rId1"}, {ID: "rId1"}}},
	} {
		var se *SerializationError
		if err := p.AddPart(part); !errors.As(err, &se) {
			t.Errorf("AddPart(%q): got %v, want SerializationError", part.Name, err)
		}
	}
	if len(p.Parts()) != 1 {
		t.Errorf("got %d parts, want 1", len(p.Parts()))
	}
}

func TestPackageMissingTarget(t *testing.T) {
	p := NewPackage()
	p.AddRootRel(Relationship{ID: "rId1", Type: relTypeOfficeDoc, Target: partPresentation})
	err := p.AddPart(Part{
		Name:        partPresentation,
		ContentType: ctPresentation,
		Rels:        []Relationship{{ID: "rId1", Type: relTypeSlide, Target: "slides/slide1.xml"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	_, err = p.WriteTo(&buf)
	var se *SerializationError
	if !errors.As(err, &se) || !strings.Contains(err.Error(), "ppt/slides/slide1.xml") {
		t.Errorf("got %v", err)
	}
}

func TestContentTypesCoverage(t *testing.T) {
	p := NewPackage()
	_ = p.AddPart(Part{Name: "docProps/custom.xml", ContentType: "application/xml"})
	_ = p.AddPart(Part{Name: partTheme, ContentType: ctTheme})
	ct := p.contentTypes()
	want := []xmlOverride{{PartName: "/" + partTheme, ContentType: ctTheme}}
	if diff := cmp.Diff(want, ct.Overrides); diff != "" {
		t.Errorf("overrides (-want +got):\n%s", diff)
	}
}
