package godeck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
)

// Deck is a decoded deck file: slides plus the build settings that travel
// with them.
type Deck struct {
	Page       Page
	Language   language.Tag
	Clip       bool
	Properties Properties
	Slides     []SlideDescription
}

// Options returns the builder options the deck file asks for.
func (d *Deck) Options() []BuilderOption {
	opts := []BuilderOption{
		WithPage(d.Page),
		WithLanguage(d.Language),
		WithProperties(d.Properties),
	}
	if d.Clip {
		opts = append(opts, WithClipToPage())
	}
	return opts
}

// DecodeDeck reads a JSON deck file:
//
//	{
//	  "page": "screen4x3",
//	  "properties": {"title": "Quarterly review"},
//	  "slides": [{
//	    "index": 1,
//	    "background": "white",
//	    "nodes": [{
//	      "id": "title", "kind": "textbox",
//	      "position": {"abs": {"x": 0.5, "y": 0.4, "width": 9, "height": 1}},
//	      "paragraphs": [{"align": "center", "runs": [
//	        {"text": "Results", "font": "title", "color": "primary-blue"}]}]
//	    }, {
//	      "kind": "rounded-rectangle",
//	      "position": {"grid": {"row": 0, "column": 1, "rows": 1, "columns": 4, "margins": 0.5}},
//	      "style": {"fill": "accent-blue~tint(0.7)", "line": "accent-blue", "lineWeight": "regular"}
//	    }]
//	  }]
//	}
//
// A slide without "index" takes its 1-based position in the file. Unknown
// fields are rejected. Symbolic keys are not checked here; the builder
// reports them with their location.
func DecodeDeck(r io.Reader) (*Deck, error) {
	var df deckFile
	if err := decodeStrict(r, &df); err != nil {
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}

	deck := &Deck{Language: language.AmericanEnglish, Clip: df.Clip, Properties: NewProperties()}
	page, err := df.Page.page()
	if err != nil {
		return nil, err
	}
	deck.Page = page
	if df.Language != "" {
		tag, err := language.Parse(df.Language)
		if err != nil {
			return nil, fmt.Errorf("language %q: %w", df.Language, err)
		}
		deck.Language = tag
	}
	if df.Properties != nil {
		df.Properties.apply(&deck.Properties)
	}

	deck.Slides = make([]SlideDescription, 0, len(df.Slides))
	for i, sf := range df.Slides {
		s, err := sf.slide(i)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		deck.Slides = append(deck.Slides, s)
	}
	return deck, nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func unmarshalStrict(data []byte, v any) error {
	return decodeStrict(bytes.NewReader(data), v)
}

type deckFile struct {
	Page       pageFile        `json:"page"`
	Language   string          `json:"language"`
	Clip       bool            `json:"clip"`
	Properties *propertiesFile `json:"properties"`
	Slides     []slideFile     `json:"slides"`
}

// pageFile is either a preset name or {"width", "height", "unit"}.
type pageFile struct {
	Name   string
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

func (p *pageFile) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Name)
	}
	type plain pageFile
	return unmarshalStrict(data, (*plain)(p))
}

func (p pageFile) page() (Page, error) {
	if p.Width == 0 && p.Height == 0 {
		return PageByName(p.Name)
	}
	u, err := ParseUnit(p.Unit)
	if err != nil {
		return Page{}, fmt.Errorf("page: %w", err)
	}
	return Page{Width: p.Width, Height: p.Height, Unit: u}, nil
}

type propertiesFile struct {
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Keywords    string     `json:"keywords"`
	Category    string     `json:"category"`
	Company     string     `json:"company"`
	Creator     string     `json:"creator"`
	Created     *time.Time `json:"created"`
	Modified    *time.Time `json:"modified"`
}

func (pf *propertiesFile) apply(p *Properties) {
	p.Title, p.Subject, p.Description = pf.Title, pf.Subject, pf.Description
	p.Keywords, p.Category, p.Company = pf.Keywords, pf.Category, pf.Company
	if pf.Creator != "" {
		p.Creator, p.LastModifiedBy = pf.Creator, pf.Creator
	}
	if pf.Created != nil {
		p.Created = pf.Created.UTC()
	}
	if pf.Modified != nil {
		p.Modified = pf.Modified.UTC()
	}
}

type slideFile struct {
	Index      *int         `json:"index"`
	Name       string       `json:"name"`
	Background colorRefFile `json:"background"`
	Nodes      []nodeFile   `json:"nodes"`
}

func (sf slideFile) slide(i int) (SlideDescription, error) {
	s := SlideDescription{Index: i + 1, Name: sf.Name, Background: sf.Background.ref}
	if sf.Index != nil {
		s.Index = *sf.Index
	}
	s.Nodes = make([]NodeSpec, 0, len(sf.Nodes))
	for j, nf := range sf.Nodes {
		n, err := nf.node()
		if err != nil {
			return SlideDescription{}, fmt.Errorf("node %d: %w", j, err)
		}
		s.Nodes = append(s.Nodes, n)
	}
	return s, nil
}

type nodeFile struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Position   positionFile    `json:"position"`
	Style      styleFile       `json:"style"`
	Frame      frameFile       `json:"frame"`
	Paragraphs []paragraphFile `json:"paragraphs"`
}

func (nf nodeFile) node() (NodeSpec, error) {
	kind, err := ParseShapeKind(nf.Kind)
	if err != nil {
		return NodeSpec{}, err
	}
	anchor, err := ParseAnchor(nf.Frame.Anchor)
	if err != nil {
		return NodeSpec{}, err
	}
	pos, err := nf.Position.position()
	if err != nil {
		return NodeSpec{}, err
	}
	n := NodeSpec{
		ID:       nf.ID,
		Kind:     kind,
		Position: pos,
		Style:    StyleRef{Fill: nf.Style.Fill.ref, Line: nf.Style.Line.ref, LineWeight: nf.Style.LineWeight},
		Frame:    TextFrame{Anchor: anchor, NoWrap: nf.Frame.NoWrap},
	}
	for k, pf := range nf.Paragraphs {
		p, err := pf.paragraph()
		if err != nil {
			return NodeSpec{}, fmt.Errorf("paragraph %d: %w", k, err)
		}
		n.Paragraphs = append(n.Paragraphs, p)
	}
	return n, nil
}

// positionFile holds exactly one of its fields; none leaves the node
// without a position, which the builder reports.
type positionFile struct {
	Abs    *Absolute   `json:"abs"`
	Grid   *gridFile   `json:"grid"`
	Repeat *repeatFile `json:"repeat"`
}

func (pf positionFile) position() (Position, error) {
	var set []Position
	if pf.Abs != nil {
		set = append(set, *pf.Abs)
	}
	if pf.Grid != nil {
		set = append(set, pf.Grid.cell())
	}
	if pf.Repeat != nil {
		set = append(set, pf.Repeat.cell())
	}
	switch len(set) {
	case 0:
		return nil, nil
	case 1:
		return set[0], nil
	}
	return nil, fmt.Errorf("position sets %d of abs, grid and repeat", len(set))
}

type gridFile struct {
	Row     int         `json:"row"`
	Column  int         `json:"column"`
	Rows    int         `json:"rows"`
	Columns int         `json:"columns"`
	RowSpan int         `json:"rowSpan"`
	ColSpan int         `json:"colSpan"`
	Margins marginsFile `json:"margins"`
	Gutter  float64     `json:"gutter"`
	Area    *Region     `json:"area"`
}

func (g gridFile) cell() GridCell {
	return GridCell{
		Row: g.Row, Column: g.Column,
		Rows: g.Rows, Columns: g.Columns,
		RowSpan: g.RowSpan, ColSpan: g.ColSpan,
		Margins: Margins(g.Margins), Gutter: g.Gutter, Area: g.Area,
	}
}

// marginsFile is a single number or {"top", "right", "bottom", "left"}.
type marginsFile struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

func (m *marginsFile) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*m = marginsFile(UniformMargins(v))
		return nil
	}
	type plain marginsFile
	return unmarshalStrict(data, (*plain)(m))
}

type repeatFile struct {
	Index  int       `json:"index"`
	Origin pointFile `json:"origin"`
	Step   pointFile `json:"step"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

type pointFile struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (r repeatFile) cell() RepeatCell {
	return RepeatCell{
		Index:  r.Index,
		Origin: Offset{DX: r.Origin.X, DY: r.Origin.Y},
		Step:   Offset{DX: r.Step.X, DY: r.Step.Y},
		Width:  r.Width,
		Height: r.Height,
	}
}

type styleFile struct {
	Fill       colorRefFile `json:"fill"`
	Line       colorRefFile `json:"line"`
	LineWeight string       `json:"lineWeight"`
}

type frameFile struct {
	Anchor string `json:"anchor"`
	NoWrap bool   `json:"noWrap"`
}

type paragraphFile struct {
	Runs        []runFile `json:"runs"`
	Align       string    `json:"align"`
	Level       int       `json:"level"`
	SpaceBefore float64   `json:"spaceBefore"`
	SpaceAfter  float64   `json:"spaceAfter"`
	LineSpacing float64   `json:"lineSpacing"`
}

func (pf paragraphFile) paragraph() (ParagraphSpec, error) {
	align, err := ParseAlignment(pf.Align)
	if err != nil {
		return ParagraphSpec{}, err
	}
	p := ParagraphSpec{
		Align:       align,
		Level:       pf.Level,
		SpaceBefore: pf.SpaceBefore,
		SpaceAfter:  pf.SpaceAfter,
		LineSpacing: pf.LineSpacing,
		Runs:        make([]RunSpec, 0, len(pf.Runs)),
	}
	for k, rf := range pf.Runs {
		align, err := ParseAlignment(rf.Align)
		if err != nil {
			return ParagraphSpec{}, fmt.Errorf("run %d: %w", k, err)
		}
		p.Runs = append(p.Runs, RunSpec{
			Text:   rf.Text,
			Font:   rf.Font,
			Size:   rf.Size,
			Bold:   rf.Bold,
			Italic: rf.Italic,
			Color:  rf.Color.ref,
			Align:  align,
		})
	}
	return p, nil
}

type runFile struct {
	Text   string       `json:"text"`
	Font   string       `json:"font"`
	Size   float64      `json:"size"`
	Bold   *bool        `json:"bold"`
	Italic *bool        `json:"italic"`
	Color  colorRefFile `json:"color"`
	Align  string       `json:"align"`
}

// colorRefFile is "name", "name~tint(0.7)", or
// {"name": ..., "tint": 0.7} / {"name": ..., "shade": 0.2}.
type colorRefFile struct {
	ref ColorRef
}

func (c *colorRefFile) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			c.ref = ColorRef{}
			return nil
		}
		ref, err := ParseColorRef(s)
		if err != nil {
			return err
		}
		c.ref = ref
		return nil
	}
	var obj struct {
		Name  string   `json:"name"`
		Tint  *float64 `json:"tint"`
		Shade *float64 `json:"shade"`
	}
	if err := unmarshalStrict(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Tint != nil && obj.Shade != nil:
		return fmt.Errorf("colour %q sets both tint and shade", obj.Name)
	case obj.Tint != nil:
		c.ref = Tint(obj.Name, *obj.Tint)
	case obj.Shade != nil:
		c.ref = Shade(obj.Name, *obj.Shade)
	default:
		c.ref = Ref(obj.Name)
	}
	return nil
}
