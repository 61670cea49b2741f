package godeck

import "fmt"

// Page describes the slide size in a caller unit. All positions in a build
// are expressed in the same unit.
type Page struct {
	Width  float64
	Height float64
	Unit   Unit
}

// Standard page sizes.
var (
	PageScreen4x3   = Page{Width: 10, Height: 7.5, Unit: UnitInch}
	PageScreen16x9  = Page{Width: 13.333333, Height: 7.5, Unit: UnitInch}
	PageScreen16x10 = Page{Width: 12, Height: 7.5, Unit: UnitInch}
	PageA4          = Page{Width: 275, Height: 190, Unit: UnitMillimeter}
)

// PageByName returns a standard page size by its deck-file name.
func PageByName(name string) (Page, error) {
	switch name {
	case "", "screen4x3":
		return PageScreen4x3, nil
	case "screen16x9":
		return PageScreen16x9, nil
	case "screen16x10":
		return PageScreen16x10, nil
	case "A4", "a4":
		return PageA4, nil
	}
	return Page{}, fmt.Errorf("unknown page size %q", name)
}

// PageSize is a page resolved to EMU.
type PageSize struct {
	CX int64
	CY int64
}

// Resolve converts the page to EMU. Both sides must be positive.
func (p Page) Resolve() (PageSize, error) {
	cx, err := p.Unit.ToEMU(p.Width)
	if err != nil {
		return PageSize{}, fmt.Errorf("page width: %w", err)
	}
	cy, err := p.Unit.ToEMU(p.Height)
	if err != nil {
		return PageSize{}, fmt.Errorf("page height: %w", err)
	}
	if cx <= 0 || cy <= 0 {
		return PageSize{}, fmt.Errorf("page size must be positive, got %dx%d EMU", cx, cy)
	}
	return PageSize{CX: cx, CY: cy}, nil
}

// Box is an absolute bounding box. The serializer only accepts boxes whose
// Unit is UnitEMU; the geometry resolver is the only producer of those.
type Box struct {
	X, Y          int64
	Width, Height int64
	Unit          Unit
}

// Right returns the right edge.
func (b Box) Right() int64 { return b.X + b.Width }

// Bottom returns the bottom edge.
func (b Box) Bottom() int64 { return b.Y + b.Height }

// Within reports whether b lies inside the page.
func (b Box) Within(ps PageSize) bool {
	return b.X >= 0 && b.Y >= 0 && b.Right() <= ps.CX && b.Bottom() <= ps.CY
}

// Overlaps reports whether b and o share a region of positive area.
func (b Box) Overlaps(o Box) bool {
	return b.X < o.Right() && o.X < b.Right() && b.Y < o.Bottom() && o.Y < b.Bottom()
}

// clip returns b intersected with the page.
func (b Box) clip(ps PageSize) Box {
	x0, y0 := max(b.X, 0), max(b.Y, 0)
	x1, y1 := min(b.Right(), ps.CX), min(b.Bottom(), ps.CY)
	return Box{X: x0, Y: y0, Width: max(x1-x0, 0), Height: max(y1-y0, 0), Unit: b.Unit}
}
