package godeck

import (
	"fmt"

	"seehuhn.de/go/geom/rect"
)

// Position is where a node goes on its slide. It is one of Absolute,
// GridCell or RepeatCell; all lengths are in the page unit.
type Position interface {
	isPosition()
}

// Absolute places a node at fixed coordinates.
type Absolute struct {
	X, Y          float64
	Width, Height float64
}

// Margins are insets from the edges of a layout area.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// UniformMargins returns equal margins on all four sides.
func UniformMargins(m float64) Margins {
	return Margins{Top: m, Right: m, Bottom: m, Left: m}
}

// Region is a rectangle in page units, origin at the top-left of the page.
type Region struct {
	X, Y          float64
	Width, Height float64
}

func (r Region) rect() rect.Rect {
	return rect.Rect{LLx: r.X, LLy: r.Y, URx: r.X + r.Width, URy: r.Y + r.Height}
}

// clipRect returns the part of r inside bound. The result has a
// non-positive width or height when they do not overlap.
func clipRect(r, bound rect.Rect) rect.Rect {
	if bound.Covers(r) {
		return r
	}
	return rect.Rect{
		LLx: max(r.LLx, bound.LLx),
		LLy: max(r.LLy, bound.LLy),
		URx: min(r.URx, bound.URx),
		URy: min(r.URy, bound.URy),
	}
}

// GridCell places a node in one cell (or a span of cells) of an implicit
// grid laid over Area, or over the whole page when Area is nil. An Area
// reaching past the page edge is cut back to the page first.
//
// The extent left after margins and gutters is divided evenly; the integer
// remainder in EMU goes to the last row and column, so the cells tile the
// available area exactly.
type GridCell struct {
	Row, Column   int // zero-based
	Rows, Columns int
	RowSpan       int // 0 means 1
	ColSpan       int // 0 means 1
	Margins       Margins
	Gutter        float64 // space between adjacent cells
	Area          *Region
}

// Offset is a displacement in page units.
type Offset struct {
	DX, DY float64
}

// RepeatCell is the Index-th of a run of equally sized boxes starting at
// Origin and advancing by Step.
type RepeatCell struct {
	Index  int
	Origin Offset
	Step   Offset
	Width  float64
	Height float64
}

func (Absolute) isPosition()   {}
func (GridCell) isPosition()   {}
func (RepeatCell) isPosition() {}

// ResolveBox converts a position to an absolute EMU box on page. It does
// not check page bounds; the builder does, so that it can apply its
// clipping policy.
func ResolveBox(pos Position, page Page) (Box, error) {
	switch p := pos.(type) {
	case Absolute:
		return resolveAbsolute(p, page.Unit)
	case *Absolute:
		return resolveAbsolute(*p, page.Unit)
	case GridCell:
		return resolveGrid(p, page)
	case *GridCell:
		return resolveGrid(*p, page)
	case RepeatCell:
		return resolveRepeat(p, page.Unit)
	case *RepeatCell:
		return resolveRepeat(*p, page.Unit)
	case nil:
		return Box{}, &keyError{rule: RuleMissingPosition, msg: "node has no position"}
	default:
		return Box{}, &keyError{rule: RuleMissingPosition, msg: fmt.Sprintf("unsupported position type %T", pos)}
	}
}

// emuConv converts lengths one by one and remembers the first failure, so
// the resolvers read as straight-line arithmetic.
type emuConv struct {
	unit Unit
	err  error
	what string
}

func (c *emuConv) to(what string, v float64) int64 {
	if c.err != nil {
		return 0
	}
	emu, err := c.unit.ToEMU(v)
	if err != nil {
		c.err, c.what = err, what
	}
	return emu
}

func (c *emuConv) failure() error {
	if c.err == nil {
		return nil
	}
	return &keyError{rule: RuleInvalidLength, msg: fmt.Sprintf("%s: %v", c.what, c.err)}
}

func degenerate(w, h int64, context string) error {
	if w > 0 && h > 0 {
		return nil
	}
	return &keyError{rule: RuleDegenerateBox, msg: fmt.Sprintf("%s has non-positive size %dx%d EMU", context, w, h)}
}

func resolveAbsolute(p Absolute, u Unit) (Box, error) {
	c := emuConv{unit: u}
	b := Box{
		X:      c.to("x", p.X),
		Y:      c.to("y", p.Y),
		Width:  c.to("width", p.Width),
		Height: c.to("height", p.Height),
		Unit:   UnitEMU,
	}
	if err := c.failure(); err != nil {
		return Box{}, err
	}
	if err := degenerate(b.Width, b.Height, "box"); err != nil {
		return Box{}, err
	}
	return b, nil
}

func resolveRepeat(p RepeatCell, u Unit) (Box, error) {
	if p.Index < 0 {
		return Box{}, &keyError{rule: RuleGridParams, msg: fmt.Sprintf("repeat index %d is negative", p.Index)}
	}
	c := emuConv{unit: u}
	ox, oy := c.to("origin x", p.Origin.DX), c.to("origin y", p.Origin.DY)
	sx, sy := c.to("step x", p.Step.DX), c.to("step y", p.Step.DY)
	w, h := c.to("width", p.Width), c.to("height", p.Height)
	if err := c.failure(); err != nil {
		return Box{}, err
	}
	if err := degenerate(w, h, "repeated box"); err != nil {
		return Box{}, err
	}
	i := int64(p.Index)
	x, err := repeatOffset("x", ox, sx, i)
	if err != nil {
		return Box{}, err
	}
	y, err := repeatOffset("y", oy, sy, i)
	if err != nil {
		return Box{}, err
	}
	return Box{X: x, Y: y, Width: w, Height: h, Unit: UnitEMU}, nil
}

// repeatOffset returns origin + i*step, keeping the product and the sum
// within ±maxEMU.
func repeatOffset(axis string, origin, step, i int64) (int64, error) {
	s := step
	if s < 0 {
		s = -s
	}
	if s != 0 && i > maxEMU/s {
		return 0, &keyError{rule: RuleInvalidLength, msg: fmt.Sprintf("repeat %s: index %d times step %d EMU out of range", axis, i, step)}
	}
	v := origin + i*step
	if v > maxEMU || v < -maxEMU {
		return 0, &keyError{rule: RuleInvalidLength, msg: fmt.Sprintf("repeat %s: offset %d EMU out of range", axis, v)}
	}
	return v, nil
}

func resolveGrid(g GridCell, page Page) (Box, error) {
	rowSpan, colSpan := max(g.RowSpan, 1), max(g.ColSpan, 1)
	switch {
	case g.Rows <= 0 || g.Columns <= 0:
		return Box{}, &keyError{rule: RuleGridParams, msg: fmt.Sprintf("grid must have at least one row and column, got %dx%d", g.Rows, g.Columns)}
	case g.Row < 0 || g.Column < 0 || g.Row >= g.Rows || g.Column >= g.Columns:
		return Box{}, &keyError{rule: RuleGridParams, msg: fmt.Sprintf("cell (%d,%d) outside %dx%d grid", g.Row, g.Column, g.Rows, g.Columns)}
	case g.Row+rowSpan > g.Rows || g.Column+colSpan > g.Columns:
		return Box{}, &keyError{rule: RuleGridParams, msg: fmt.Sprintf("span %dx%d at (%d,%d) overflows %dx%d grid", rowSpan, colSpan, g.Row, g.Column, g.Rows, g.Columns)}
	case g.Margins.Top < 0 || g.Margins.Right < 0 || g.Margins.Bottom < 0 || g.Margins.Left < 0 || g.Gutter < 0:
		return Box{}, &keyError{rule: RuleGridParams, msg: "margins and gutter must not be negative"}
	}

	pageRect := rect.Rect{URx: page.Width, URy: page.Height}
	area := pageRect
	if g.Area != nil {
		if !(g.Area.Width > 0 && g.Area.Height > 0) {
			return Box{}, &keyError{rule: RuleGridParams, msg: "grid area must have positive size"}
		}
		area = clipRect(g.Area.rect(), pageRect)
	}
	if !(area.Dx() > 0 && area.Dy() > 0) {
		return Box{}, &keyError{rule: RuleGridParams, msg: "grid area does not overlap the page"}
	}

	c := emuConv{unit: page.Unit}
	left := c.to("area x", area.LLx) + c.to("left margin", g.Margins.Left)
	right := c.to("area right", area.URx) - c.to("right margin", g.Margins.Right)
	top := c.to("area y", area.LLy) + c.to("top margin", g.Margins.Top)
	bottom := c.to("area bottom", area.URy) - c.to("bottom margin", g.Margins.Bottom)
	gutter := c.to("gutter", g.Gutter)
	if err := c.failure(); err != nil {
		return Box{}, err
	}

	x, w, err := gridSpan(left, right, gutter, g.Columns, g.Column, colSpan)
	if err != nil {
		return Box{}, err
	}
	y, h, err := gridSpan(top, bottom, gutter, g.Rows, g.Row, rowSpan)
	if err != nil {
		return Box{}, err
	}
	return Box{X: x, Y: y, Width: w, Height: h, Unit: UnitEMU}, nil
}

// gridSpan lays n tracks between lo and hi separated by gutter and returns
// the offset and length of span tracks starting at index i.
func gridSpan(lo, hi, gutter int64, n, i, span int) (int64, int64, error) {
	avail := hi - lo - int64(n-1)*gutter
	track := avail / int64(n)
	if avail <= 0 || track <= 0 {
		return 0, 0, &keyError{rule: RuleDegenerateBox, msg: fmt.Sprintf("%d tracks leave %d EMU after margins and gutters", n, avail)}
	}
	rem := avail - track*int64(n)
	pos := lo + int64(i)*(track+gutter)
	length := int64(span)*track + int64(span-1)*gutter
	if i+span == n {
		length += rem
	}
	return pos, length, nil
}
