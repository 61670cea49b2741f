package godeck

// Repeat returns n positions of equal size, the i-th at origin + i*step.
// The result is identical to placing each box by hand with Absolute at the
// same coordinates.
func Repeat(n int, origin, step Offset, width, height float64) []Position {
	out := make([]Position, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, RepeatCell{Index: i, Origin: origin, Step: step, Width: width, Height: height})
	}
	return out
}

// Row returns n boxes laid left to right from (x, y), dx apart.
func Row(n int, x, y, dx, width, height float64) []Position {
	return Repeat(n, Offset{DX: x, DY: y}, Offset{DX: dx}, width, height)
}

// Column returns n boxes laid top to bottom from (x, y), dy apart.
func Column(n int, x, y, dy, width, height float64) []Position {
	return Repeat(n, Offset{DX: x, DY: y}, Offset{DY: dy}, width, height)
}

// GridLayout describes a grid shared by several nodes.
type GridLayout struct {
	Rows, Columns int
	Margins       Margins
	Gutter        float64
	Area          *Region
}

// Cell returns the position of a single cell.
func (g GridLayout) Cell(row, col int) GridCell {
	return GridCell{
		Row: row, Column: col,
		Rows: g.Rows, Columns: g.Columns,
		Margins: g.Margins, Gutter: g.Gutter, Area: g.Area,
	}
}

// Span returns the position of a rowSpan x colSpan block of cells.
func (g GridLayout) Span(row, col, rowSpan, colSpan int) GridCell {
	c := g.Cell(row, col)
	c.RowSpan, c.ColSpan = rowSpan, colSpan
	return c
}

// Cells returns every cell in row-major order.
func (g GridLayout) Cells() []Position {
	out := make([]Position, 0, max(g.Rows*g.Columns, 0))
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Columns; c++ {
			out = append(out, g.Cell(r, c))
		}
	}
	return out
}
