package godeck

import (
	"fmt"
	"math"
	"strings"
)

// slideState is the progress of one slide through serialization.
type slideState int

const (
	stateEmpty slideState = iota
	stateShapesEmitted
	stateTextFramesEmitted
	stateFinalized
)

func (s slideState) String() string {
	switch s {
	case stateEmpty:
		return "Empty"
	case stateShapesEmitted:
		return "ShapesEmitted"
	case stateTextFramesEmitted:
		return "TextFramesEmitted"
	case stateFinalized:
		return "Finalized"
	default:
		return fmt.Sprintf("slideState(%d)", int(s))
	}
}

// slideEmitter serializes one slide in three strictly ordered steps: the
// shape properties of every node, then every text frame, then the slide
// document that stitches them together in z-order. Emitters of different
// slides share nothing but the read-only Document.
type slideEmitter struct {
	w      *PPTXWriter
	slide  *ResolvedSlide
	part   string
	state  slideState
	shapes []string // nvSpPr + spPr per node
	texts  []string // txBody per node, "" for none
	data   []byte
}

func (w *PPTXWriter) newSlideEmitter(s *ResolvedSlide) *slideEmitter {
	return &slideEmitter{w: w, slide: s, part: slidePartName(s.Number)}
}

func (e *slideEmitter) fail(format string, args ...any) error {
	return &SerializationError{Part: e.part, Err: fmt.Errorf(format, args...)}
}

func (e *slideEmitter) expect(want slideState) error {
	if e.state != want {
		return e.fail("slide is %v, step requires %v", e.state, want)
	}
	return nil
}

// emitShapes moves Empty → ShapesEmitted.
func (e *slideEmitter) emitShapes() error {
	if err := e.expect(stateEmpty); err != nil {
		return err
	}
	e.shapes = make([]string, len(e.slide.Nodes))
	for i := range e.slide.Nodes {
		s, err := e.shapeXML(i, &e.slide.Nodes[i])
		if err != nil {
			return err
		}
		e.shapes[i] = s
	}
	e.state = stateShapesEmitted
	return nil
}

// emitTextFrames moves ShapesEmitted → TextFramesEmitted.
func (e *slideEmitter) emitTextFrames() error {
	if err := e.expect(stateShapesEmitted); err != nil {
		return err
	}
	e.texts = make([]string, len(e.slide.Nodes))
	for i := range e.slide.Nodes {
		n := &e.slide.Nodes[i]
		if n.Text == nil {
			continue
		}
		t, err := e.textBodyXML(i, n.Text)
		if err != nil {
			return err
		}
		e.texts[i] = t
	}
	e.state = stateTextFramesEmitted
	return nil
}

// finalize moves TextFramesEmitted → Finalized.
func (e *slideEmitter) finalize() error {
	if err := e.expect(stateTextFramesEmitted); err != nil {
		return err
	}

	var tree strings.Builder
	for i := range e.shapes {
		tree.WriteString("      <p:sp>\n")
		tree.WriteString(e.shapes[i])
		tree.WriteString(e.texts[i])
		tree.WriteString("      </p:sp>\n")
	}

	// Background XML
	bgXML := ""
	if bg := e.slide.Background; bg != nil {
		hex, err := bg.Hex()
		if err != nil {
			return e.fail("background: %w", err)
		}
		bgXML = fmt.Sprintf(`    <p:bg>
      <p:bgPr>
        <a:solidFill><a:srgbClr val="%s"/></a:solidFill>
        <a:effectLst/>
      </p:bgPr>
    </p:bg>
`, hex)
	}

	nameAttr := ""
	if e.slide.Name != "" {
		nameAttr = fmt.Sprintf(` name="%s"`, xmlEscape(e.slide.Name))
	}

	content := fmt.Sprintf(xmlDecl+`<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">
  <p:cSld%s>
%s    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr>
        <a:xfrm>
          <a:off x="0" y="0"/>
          <a:ext cx="0" cy="0"/>
          <a:chOff x="0" y="0"/>
          <a:chExt cx="0" cy="0"/>
        </a:xfrm>
      </p:grpSpPr>
%s    </p:spTree>
  </p:cSld>
  <p:clrMapOvr>
    <a:masterClrMapping/>
  </p:clrMapOvr>
</p:sld>`, nsDrawingML, nsOfficeDocRels, nsPresentationML, nameAttr, bgXML, tree.String())

	e.data = []byte(content)
	e.shapes, e.texts = nil, nil
	e.state = stateFinalized
	return nil
}

// result returns the finished slide part.
func (e *slideEmitter) result() (Part, error) {
	if err := e.expect(stateFinalized); err != nil {
		return Part{}, err
	}
	return Part{
		Name:        e.part,
		ContentType: ctSlide,
		Data:        e.data,
		Rels:        []Relationship{{ID: "rId1", Type: relTypeSlideLayout, Target: "../slideLayouts/slideLayout1.xml"}},
	}, nil
}

// slidePart runs a slide through every state.
func (w *PPTXWriter) slidePart(s *ResolvedSlide) (Part, error) {
	e := w.newSlideEmitter(s)
	for _, step := range []func() error{e.emitShapes, e.emitTextFrames, e.finalize} {
		if err := step(); err != nil {
			return Part{}, err
		}
	}
	return e.result()
}

// --- Shape XML ---

// shapeGeometry maps a node kind to its preset geometry. Every kind must
// appear here.
func shapeGeometry(k ShapeKind) (prst, label string, txBox bool, ok bool) {
	switch k {
	case KindRectangle:
		return "rect", "Rectangle", false, true
	case KindRoundedRectangle:
		return "roundRect", "Rounded Rectangle", false, true
	case KindEllipse:
		return "ellipse", "Oval", false, true
	case KindTextBox:
		return "rect", "TextBox", true, true
	}
	return "", "", false, false
}

func (e *slideEmitter) shapeXML(i int, n *ResolvedNode) (string, error) {
	id := i + 2 // 1 is the group shape

	prst, label, txBox, ok := shapeGeometry(n.Kind)
	if !ok {
		return "", e.fail("node %d: unknown shape kind %v", i, n.Kind)
	}
	if n.Box.Unit != UnitEMU {
		return "", e.fail("node %d: box is in %v; geometry must be converted to EMU before serialization", i, n.Box.Unit)
	}
	if n.Box.Width <= 0 || n.Box.Height <= 0 {
		return "", e.fail("node %d: box has non-positive size %dx%d", i, n.Box.Width, n.Box.Height)
	}

	name := n.ID
	if name == "" {
		name = fmt.Sprintf("%s %d", label, id)
	}
	cNvSpPr := "<p:cNvSpPr/>"
	if txBox {
		cNvSpPr = `<p:cNvSpPr txBox="1"/>`
	}

	fillXML, err := e.fillXML(i, n.Fill)
	if err != nil {
		return "", err
	}
	lineXML, err := e.lineXML(i, n.Line, n.LineWidth)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`        <p:nvSpPr>
          <p:cNvPr id="%d" name="%s"/>
          %s
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="%s">
            <a:avLst/>
          </a:prstGeom>
%s%s        </p:spPr>
`, id, xmlEscape(name), cNvSpPr,
		n.Box.X, n.Box.Y, n.Box.Width, n.Box.Height,
		prst, fillXML, lineXML), nil
}

// --- Fill and Line helpers ---

func (e *slideEmitter) colorHex(i int, c *RGB) (string, error) {
	hex, err := c.Hex()
	if err != nil {
		return "", e.fail("node %d: %w", i, err)
	}
	return hex, nil
}

func (e *slideEmitter) fillXML(i int, c *RGB) (string, error) {
	if c == nil {
		return "          <a:noFill/>\n", nil
	}
	hex, err := e.colorHex(i, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("          <a:solidFill><a:srgbClr val=\"%s\"/></a:solidFill>\n", hex), nil
}

func (e *slideEmitter) lineXML(i int, c *RGB, width int64) (string, error) {
	if c == nil || width <= 0 {
		return "          <a:ln><a:noFill/></a:ln>\n", nil
	}
	hex, err := e.colorHex(i, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("          <a:ln w=\"%d\"><a:solidFill><a:srgbClr val=\"%s\"/></a:solidFill></a:ln>\n", width, hex), nil
}

// --- Text XML ---

func boolToWrap(wrap bool) string {
	if wrap {
		return "square"
	}
	return "none"
}

// textAnchorAttr returns the anchor attribute string for <a:bodyPr>.
func textAnchorAttr(anchor Anchor) string {
	if anchor == AnchorDefault {
		return ""
	}
	return fmt.Sprintf(` anchor="%s"`, string(anchor))
}

func (e *slideEmitter) textBodyXML(i int, tf *ResolvedTextFrame) (string, error) {
	var paragraphsXML strings.Builder
	for pi := range tf.Paragraphs {
		p, err := e.paragraphXML(i, pi, &tf.Paragraphs[pi])
		if err != nil {
			return "", err
		}
		paragraphsXML.WriteString(p)
	}
	return fmt.Sprintf(`        <p:txBody>
          <a:bodyPr wrap="%s" rtlCol="0"%s/>
          <a:lstStyle/>
%s        </p:txBody>
`, boolToWrap(tf.Wrap), textAnchorAttr(tf.Anchor), paragraphsXML.String()), nil
}

func (e *slideEmitter) paragraphXML(i, pi int, para *ResolvedParagraph) (string, error) {
	attrs := ""
	if para.Align != AlignDefault {
		attrs = fmt.Sprintf(` algn="%s"`, para.Align)
	}
	if para.Level > 0 {
		attrs += fmt.Sprintf(` lvl="%d"`, para.Level)
	}

	spacing := ""
	if para.LineSpacing > 0 {
		spacing = fmt.Sprintf(`
              <a:lnSpc><a:spcPct val="%d"/></a:lnSpc>`, para.LineSpacing)
	}
	if para.SpaceBefore > 0 {
		spacing += fmt.Sprintf(`
              <a:spcBef><a:spcPts val="%d"/></a:spcBef>`, para.SpaceBefore)
	}
	if para.SpaceAfter > 0 {
		spacing += fmt.Sprintf(`
              <a:spcAft><a:spcPts val="%d"/></a:spcAft>`, para.SpaceAfter)
	}
	pPr := fmt.Sprintf("            <a:pPr%s/>\n", attrs)
	if spacing != "" {
		pPr = fmt.Sprintf("            <a:pPr%s>%s\n            </a:pPr>\n", attrs, spacing)
	}

	var runsXML strings.Builder
	endAttrs := fmt.Sprintf(` lang="%s" dirty="0"`, e.w.lang())
	for k := range para.Runs {
		r := &para.Runs[k]
		rPr, err := e.runPropsXML(r.Font)
		if err != nil {
			return "", e.fail("node %d paragraph %d run %d: %w", i, pi, k, err)
		}
		for li, line := range strings.Split(r.Text, "\n") {
			if li > 0 {
				fmt.Fprintf(&runsXML, "            <a:br>\n%s            </a:br>\n", rPr)
			}
			fmt.Fprintf(&runsXML, "            <a:r>\n%s              <a:t>%s</a:t>\n            </a:r>\n", rPr, xmlEscape(line))
		}
		endAttrs = runAttrs(e.w.lang(), r.Font)
	}

	return fmt.Sprintf("          <a:p>\n%s%s            <a:endParaRPr%s/>\n          </a:p>\n",
		pPr, runsXML.String(), endAttrs), nil
}

func runAttrs(lang string, f ResolvedFont) string {
	attrs := fmt.Sprintf(` lang="%s"`, lang)
	if f.Size > 0 {
		attrs += fmt.Sprintf(` sz="%d"`, int(math.Round(f.Size*100)))
	}
	if f.Bold {
		attrs += ` b="1"`
	}
	if f.Italic {
		attrs += ` i="1"`
	}
	return attrs + ` dirty="0"`
}

func (e *slideEmitter) runPropsXML(f ResolvedFont) (string, error) {
	solidFill := ""
	if f.Color != nil {
		hex, err := f.Color.Hex()
		if err != nil {
			return "", err
		}
		solidFill = fmt.Sprintf(`
                <a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, hex)
	}
	latin := ""
	if f.Family != "" {
		latin = fmt.Sprintf(`
                <a:latin typeface="%s"/>`, xmlEscape(f.Family))
	}
	if solidFill == "" && latin == "" {
		return fmt.Sprintf("              <a:rPr%s/>\n", runAttrs(e.w.lang(), f)), nil
	}
	return fmt.Sprintf("              <a:rPr%s>%s%s\n              </a:rPr>\n", runAttrs(e.w.lang(), f), solidFill, latin), nil
}
