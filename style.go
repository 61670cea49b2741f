package godeck

import "fmt"

// Alignment represents horizontal paragraph alignment.
type Alignment string

const (
	AlignDefault Alignment = ""
	AlignLeft    Alignment = "l"
	AlignCenter  Alignment = "ctr"
	AlignRight   Alignment = "r"
	AlignJustify Alignment = "just"
)

// ParseAlignment parses the names used in deck files.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "":
		return AlignDefault, nil
	case "left", "l":
		return AlignLeft, nil
	case "center", "centre", "ctr":
		return AlignCenter, nil
	case "right", "r":
		return AlignRight, nil
	case "justify", "just":
		return AlignJustify, nil
	}
	return "", fmt.Errorf("unknown alignment %q", s)
}

// Anchor represents the vertical position of text within its frame.
type Anchor string

const (
	AnchorDefault Anchor = ""
	AnchorTop     Anchor = "t"
	AnchorMiddle  Anchor = "ctr"
	AnchorBottom  Anchor = "b"
)

// ParseAnchor parses the names used in deck files.
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "":
		return AnchorDefault, nil
	case "top", "t":
		return AnchorTop, nil
	case "middle", "center", "ctr":
		return AnchorMiddle, nil
	case "bottom", "b":
		return AnchorBottom, nil
	}
	return "", fmt.Errorf("unknown anchor %q", s)
}

// FontMetrics is one TypeScale entry.
type FontMetrics struct {
	Family string
	Size   float64 // in points
	Bold   bool
	Italic bool
}

// StyleRef is a symbolic shape style: every field is a key resolved against
// the Theme. Empty fields mean "none".
type StyleRef struct {
	Fill       ColorRef
	Line       ColorRef
	LineWeight string
}

// IsZero reports whether no field is set.
func (s StyleRef) IsZero() bool {
	return s.Fill.IsZero() && s.Line.IsZero() && s.LineWeight == ""
}

// ResolvedStyle is the concrete outcome of resolving a StyleRef.
type ResolvedStyle struct {
	Fill      *RGB
	Line      *RGB
	LineWidth int64 // in EMU; 0 means no outline
}

// ResolvedFont is the concrete font of a run.
type ResolvedFont struct {
	Family string
	Size   float64 // in points
	Bold   bool
	Italic bool
	Color  *RGB
}
