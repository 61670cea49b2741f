package godeck

import "fmt"

// ShapeKind tags the variant of a NodeSpec.
type ShapeKind int

const (
	KindRectangle ShapeKind = iota + 1
	KindRoundedRectangle
	KindEllipse
	KindTextBox
)

func (k ShapeKind) String() string {
	switch k {
	case KindRectangle:
		return "rectangle"
	case KindRoundedRectangle:
		return "rounded-rectangle"
	case KindEllipse:
		return "ellipse"
	case KindTextBox:
		return "textbox"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// ParseShapeKind parses the names returned by ShapeKind.String.
func ParseShapeKind(s string) (ShapeKind, error) {
	switch s {
	case "rectangle", "rect":
		return KindRectangle, nil
	case "rounded-rectangle", "roundRect":
		return KindRoundedRectangle, nil
	case "ellipse", "oval":
		return KindEllipse, nil
	case "textbox", "text":
		return KindTextBox, nil
	}
	return 0, fmt.Errorf("unknown shape kind %q", s)
}

func (k ShapeKind) valid() bool {
	return k >= KindRectangle && k <= KindTextBox
}

// NodeSpec describes one visual element. Every kind may carry text; text
// boxes are shapes without fill or outline unless a Style says otherwise.
type NodeSpec struct {
	ID         string // optional identity used in error paths
	Kind       ShapeKind
	Position   Position
	Style      StyleRef
	Frame      TextFrame
	Paragraphs []ParagraphSpec
}

// TextFrame holds frame-level text options.
type TextFrame struct {
	Anchor Anchor
	NoWrap bool
}

// ParagraphSpec is an ordered sequence of runs with its own spacing.
// Spacing is never inherited from neighbouring paragraphs.
type ParagraphSpec struct {
	Runs        []RunSpec
	Align       Alignment
	Level       int     // outline level, 0–8
	SpaceBefore float64 // in points
	SpaceAfter  float64 // in points
	LineSpacing float64 // percent of single spacing; 0 means default
}

// RunSpec is a run of text with uniform formatting.
type RunSpec struct {
	Text   string
	Font   string  // TypeScale key; empty means the master's default
	Size   float64 // points; overrides the TypeScale size when positive
	Bold   *bool   // overrides the TypeScale weight when set
	Italic *bool
	Color  ColorRef
	Align  Alignment // lifted to the paragraph
}

// Run returns a run using a TypeScale entry and palette colour.
func Run(text, font string, color ColorRef) RunSpec {
	return RunSpec{Text: text, Font: font, Color: color}
}

// Para returns a paragraph of runs.
func Para(runs ...RunSpec) ParagraphSpec {
	return ParagraphSpec{Runs: runs}
}

// Bool returns a pointer to v, for the optional RunSpec fields.
func Bool(v bool) *bool { return &v }

// SlideDescription is one slide as submitted by the caller. Index must be
// unique within a build and increase along the submitted sequence.
type SlideDescription struct {
	Index      int
	Name       string
	Background ColorRef
	Nodes      []NodeSpec
}
