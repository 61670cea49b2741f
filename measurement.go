package godeck

import (
	"fmt"
	"math"
)

// EMU (English Metric Units) conversion helpers.
// 1 inch = 914400 EMU, 1 point = 12700 EMU, 1 cm = 360000 EMU.

const (
	emuPerInch       = 914400
	emuPerPoint      = 12700
	emuPerCentimeter = 360000
	emuPerMillimeter = 36000
	// maxEMU bounds every converted value. OOXML coordinates are xsd:long but
	// viewers reject anything past a few metres; 2^40 EMU is ~30 km.
	maxEMU = 1 << 40
)

// Unit is a distance unit in which callers express positions.
type Unit int

const (
	UnitInch Unit = iota
	UnitPoint
	UnitCentimeter
	UnitMillimeter
	UnitEMU
)

// String returns the unit's short name.
func (u Unit) String() string {
	switch u {
	case UnitInch:
		return "in"
	case UnitPoint:
		return "pt"
	case UnitCentimeter:
		return "cm"
	case UnitMillimeter:
		return "mm"
	case UnitEMU:
		return "emu"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit parses the short unit names used in deck files.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", "in", "inch":
		return UnitInch, nil
	case "pt", "point":
		return UnitPoint, nil
	case "cm":
		return UnitCentimeter, nil
	case "mm":
		return UnitMillimeter, nil
	case "emu":
		return UnitEMU, nil
	}
	return 0, fmt.Errorf("unknown unit %q", s)
}

func (u Unit) perUnit() (float64, bool) {
	switch u {
	case UnitInch:
		return emuPerInch, true
	case UnitPoint:
		return emuPerPoint, true
	case UnitCentimeter:
		return emuPerCentimeter, true
	case UnitMillimeter:
		return emuPerMillimeter, true
	case UnitEMU:
		return 1, true
	}
	return 0, false
}

// ToEMU converts v to EMU, rounding to the nearest integer. It fails on
// unknown units, non-finite input and values outside the representable range.
//
// Rounding per literal is what makes repeated placement (origin + i*step)
// agree exactly with hand-written absolute positions.
func (u Unit) ToEMU(v float64) (int64, error) {
	f, ok := u.perUnit()
	if !ok {
		return 0, fmt.Errorf("unknown unit %d", int(u))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite length %v", v)
	}
	emu := math.Round(v * f)
	if emu > maxEMU || emu < -maxEMU {
		return 0, fmt.Errorf("length %v%s out of range", v, u)
	}
	return int64(emu), nil
}

// FromEMU converts an EMU value back to u.
func (u Unit) FromEMU(emu int64) float64 {
	f, ok := u.perUnit()
	if !ok {
		return 0
	}
	return float64(emu) / f
}

// Inch converts inches to EMU. Clamps to safe range.
func Inch(n float64) int64 {
	return clampEMU(n * emuPerInch)
}

// Point converts points to EMU.
func Point(n float64) int64 {
	return clampEMU(n * emuPerPoint)
}

// Centimeter converts centimeters to EMU.
func Centimeter(n float64) int64 {
	return clampEMU(n * emuPerCentimeter)
}

// Millimeter converts millimeters to EMU.
func Millimeter(n float64) int64 {
	return clampEMU(n * emuPerMillimeter)
}

// EMUToInch converts EMU to inches.
func EMUToInch(emu int64) float64 {
	return float64(emu) / emuPerInch
}

// EMUToPoint converts EMU to points.
func EMUToPoint(emu int64) float64 {
	return float64(emu) / emuPerPoint
}

// clampEMU rounds a float64 to int64, clamping to prevent overflow.
func clampEMU(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > maxEMU {
		return maxEMU
	}
	if v < -maxEMU {
		return -maxEMU
	}
	return int64(math.Round(v))
}
