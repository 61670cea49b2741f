package godeck

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// RGB is a concrete colour. Channels are plain ints so that a bad value
// coming from configuration stays visible instead of wrapping.
type RGB struct {
	R, G, B int
}

// Valid reports whether every channel is in 0–255.
func (c RGB) Valid() bool {
	return inByte(c.R) && inByte(c.G) && inByte(c.B)
}

func inByte(v int) bool { return v >= 0 && v <= 255 }

// Hex returns the colour as an upper-case RRGGBB string. It fails if a
// channel is out of range.
func (c RGB) Hex() (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("colour channel out of range: (%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B), nil
}

func (c RGB) String() string {
	if h, err := c.Hex(); err == nil {
		return "#" + h
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// ParseColor accepts "#RRGGBB", "RRGGBB" or a CSS colour name such as
// "white" or "tomato".
func ParseColor(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 && isHex(hex) {
		return RGB{
			R: int(hexByte(hex[0:2])),
			G: int(hexByte(hex[2:4])),
			B: int(hexByte(hex[4:6])),
		}, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return RGB{R: int(c.R), G: int(c.G), B: int(c.B)}, nil
	}
	return RGB{}, fmt.Errorf("invalid colour %q", s)
}

// MustParseColor is like ParseColor but panics on error. Meant for
// package-level palettes.
func MustParseColor(s string) RGB {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if hexVal(s[i]) < 0 {
			return false
		}
	}
	return true
}

func hexByte(s string) uint8 {
	return uint8(hexVal(s[0])<<4 | hexVal(s[1]))
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}

// Variant selects a derived colour computed from a palette entry.
type Variant int

const (
	VariantNone Variant = iota
	// VariantTint mixes the base colour toward white by Amount.
	VariantTint
	// VariantShade mixes the base colour toward black by Amount.
	VariantShade
)

// ColorRef is a symbolic reference into a Palette. The zero value means
// "no colour" (the property is left to the master).
type ColorRef struct {
	Name    string
	Variant Variant
	Amount  float64 // 0..1, only for tint and shade
}

// Ref returns a plain palette reference.
func Ref(name string) ColorRef { return ColorRef{Name: name} }

// Tint returns a reference to name lightened toward white by amount.
func Tint(name string, amount float64) ColorRef {
	return ColorRef{Name: name, Variant: VariantTint, Amount: amount}
}

// Shade returns a reference to name darkened toward black by amount.
func Shade(name string, amount float64) ColorRef {
	return ColorRef{Name: name, Variant: VariantShade, Amount: amount}
}

// IsZero reports whether the reference is unset.
func (r ColorRef) IsZero() bool { return r.Name == "" }

func (r ColorRef) String() string {
	switch r.Variant {
	case VariantTint:
		return fmt.Sprintf("%s~tint(%g)", r.Name, r.Amount)
	case VariantShade:
		return fmt.Sprintf("%s~shade(%g)", r.Name, r.Amount)
	}
	return r.Name
}

// derive applies a tint or shade to base. Channels are rounded, never
// clamped: an out-of-range base stays out of range.
func derive(base RGB, v Variant, amount float64) RGB {
	mix := func(c int, target float64) int {
		return int(math.Round(float64(c) + (target-float64(c))*amount))
	}
	switch v {
	case VariantTint:
		return RGB{R: mix(base.R, 255), G: mix(base.G, 255), B: mix(base.B, 255)}
	case VariantShade:
		return RGB{R: mix(base.R, 0), G: mix(base.G, 0), B: mix(base.B, 0)}
	}
	return base
}

// ParseColorRef parses the form produced by ColorRef.String: "name",
// "name~tint(0.7)" or "name~shade(0.2)".
func ParseColorRef(s string) (ColorRef, error) {
	name, derived, ok := strings.Cut(strings.TrimSpace(s), "~")
	if name == "" {
		return ColorRef{}, fmt.Errorf("invalid colour reference %q", s)
	}
	if !ok {
		return Ref(name), nil
	}
	fn, arg, ok := strings.Cut(derived, "(")
	if !ok || !strings.HasSuffix(arg, ")") {
		return ColorRef{}, fmt.Errorf("invalid colour reference %q", s)
	}
	amount, err := strconv.ParseFloat(strings.TrimSuffix(arg, ")"), 64)
	if err != nil {
		return ColorRef{}, fmt.Errorf("invalid colour reference %q: %w", s, err)
	}
	switch fn {
	case "tint":
		return Tint(name, amount), nil
	case "shade":
		return Shade(name, amount), nil
	}
	return ColorRef{}, fmt.Errorf("invalid colour reference %q: unknown variant %q", s, fn)
}
