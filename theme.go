package godeck

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Theme is the immutable Palette/TypeScale configuration of a build. It has
// no setters: once NewTheme returns, lookups are pure functions of the key,
// so one Theme may be shared by any number of concurrent builds.
type Theme struct {
	palette       map[string]RGB
	typeScale     map[string]FontMetrics
	lineWeights   map[string]float64 // in points
	derived       bool
	defaultFamily string
}

// defaultFamily is the font family of type-scale entries that name none.
const defaultFamily = "Calibri"

// ThemeOption configures a Theme at construction time.
type ThemeOption func(*Theme)

// WithDerivedVariants enables tint/shade references. Without it a ColorRef
// carrying a variant fails to resolve.
func WithDerivedVariants() ThemeOption {
	return func(t *Theme) { t.derived = true }
}

// WithLineWeights sets the named line weights, in points.
func WithLineWeights(weights map[string]float64) ThemeOption {
	return func(t *Theme) {
		for k, v := range weights {
			t.lineWeights[k] = v
		}
	}
}

// WithDefaultFamily sets the font family used when a TypeScale entry leaves
// Family empty, and written into the package theme.
func WithDefaultFamily(family string) ThemeOption {
	return func(t *Theme) { t.defaultFamily = family }
}

// NewTheme copies palette and typeScale into a new Theme. Keys must be
// non-empty, font sizes and line weights positive and finite. Colour
// channels are not checked here; an out-of-range entry fails when it is
// resolved, naming the node that used it.
func NewTheme(palette map[string]RGB, typeScale map[string]FontMetrics, opts ...ThemeOption) (*Theme, error) {
	t := &Theme{
		palette:       make(map[string]RGB, len(palette)),
		typeScale:     make(map[string]FontMetrics, len(typeScale)),
		lineWeights:   make(map[string]float64),
		defaultFamily: defaultFamily,
	}
	for k, v := range palette {
		if k == "" {
			return nil, errors.New("palette: empty colour name")
		}
		t.palette[k] = v
	}
	for k, v := range typeScale {
		if k == "" {
			return nil, errors.New("type scale: empty entry name")
		}
		if !(v.Size > 0) || math.IsInf(v.Size, 0) {
			return nil, fmt.Errorf("type scale %q: size must be positive, got %v", k, v.Size)
		}
		t.typeScale[k] = v
	}
	for _, opt := range opts {
		opt(t)
	}
	for k, v := range t.lineWeights {
		if k == "" {
			return nil, errors.New("line weights: empty name")
		}
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("line weight %q must be positive, got %v", k, v)
		}
	}
	return t, nil
}

// DerivedVariants reports whether tint/shade references are enabled.
func (t *Theme) DerivedVariants() bool { return t.derived }

// DefaultFamily returns the fallback font family.
func (t *Theme) DefaultFamily() string { return t.defaultFamily }

// ColorNames returns the palette keys in sorted order.
func (t *Theme) ColorNames() []string {
	names := maps.Keys(t.palette)
	slices.Sort(names)
	return names
}

// FontNames returns the type scale keys in sorted order.
func (t *Theme) FontNames() []string {
	names := maps.Keys(t.typeScale)
	slices.Sort(names)
	return names
}

// LineWeightNames returns the line weight keys in sorted order.
func (t *Theme) LineWeightNames() []string {
	names := maps.Keys(t.lineWeights)
	slices.Sort(names)
	return names
}

// ResolveColor resolves a colour reference. Unknown names are an error, never
// a fallback colour.
func (t *Theme) ResolveColor(ref ColorRef) (RGB, error) {
	base, ok := t.palette[ref.Name]
	if !ok {
		return RGB{}, &keyError{rule: RuleUnknownStyle, key: ref.Name, msg: "colour not in palette"}
	}
	if ref.Variant != VariantNone {
		if !t.derived {
			return RGB{}, &keyError{rule: RuleDerivedDisabled, key: ref.String(), msg: "derived colour variants are not enabled for this theme"}
		}
		if ref.Variant != VariantTint && ref.Variant != VariantShade {
			return RGB{}, &keyError{rule: RuleInvalidVariant, key: ref.String(), msg: "unknown colour variant"}
		}
		if !(ref.Amount >= 0 && ref.Amount <= 1) {
			return RGB{}, &keyError{rule: RuleInvalidVariant, key: ref.String(), msg: "variant amount must be within [0, 1]"}
		}
	}
	c := derive(base, ref.Variant, ref.Amount)
	if !c.Valid() {
		return RGB{}, &keyError{rule: RuleColorRange, key: ref.String(), msg: fmt.Sprintf("resolved to %s", c)}
	}
	return c, nil
}

// ResolveFont resolves a TypeScale key.
func (t *Theme) ResolveFont(key string) (FontMetrics, error) {
	fm, ok := t.typeScale[key]
	if !ok {
		return FontMetrics{}, &keyError{rule: RuleUnknownStyle, key: key, msg: "font not in type scale"}
	}
	if fm.Family == "" {
		fm.Family = t.defaultFamily
	}
	return fm, nil
}

// ResolveLineWeight resolves a named line weight to EMU.
func (t *Theme) ResolveLineWeight(key string) (int64, error) {
	pt, ok := t.lineWeights[key]
	if !ok {
		return 0, &keyError{rule: RuleUnknownStyle, key: key, msg: "line weight not defined"}
	}
	emu, err := UnitPoint.ToEMU(pt)
	if err != nil {
		return 0, &keyError{rule: RuleInvalidLineWeight, key: key, msg: err.Error()}
	}
	return emu, nil
}

// ResolveStyle resolves every field of a StyleRef. A line colour without a
// weight gets one point, the viewer default. A weight without a line colour
// is an error since nothing would be drawn.
func (t *Theme) ResolveStyle(ref StyleRef) (ResolvedStyle, error) {
	if ref.LineWeight != "" && ref.Line.IsZero() {
		return ResolvedStyle{}, &keyError{rule: RuleInvalidLineWeight, key: ref.LineWeight, msg: "line weight without a line colour"}
	}
	var rs ResolvedStyle
	if !ref.Fill.IsZero() {
		c, err := t.ResolveColor(ref.Fill)
		if err != nil {
			return ResolvedStyle{}, err
		}
		rs.Fill = &c
	}
	if !ref.Line.IsZero() {
		c, err := t.ResolveColor(ref.Line)
		if err != nil {
			return ResolvedStyle{}, err
		}
		rs.Line = &c
		rs.LineWidth = emuPerPoint
	}
	if ref.LineWeight != "" {
		w, err := t.ResolveLineWeight(ref.LineWeight)
		if err != nil {
			return ResolvedStyle{}, err
		}
		rs.LineWidth = w
	}
	return rs, nil
}

// --- configuration file ---

type themeFile struct {
	Palette         map[string]string   `json:"palette"`
	TypeScale       map[string]fontFile `json:"typeScale"`
	LineWeights     map[string]float64  `json:"lineWeights"`
	DerivedVariants bool                `json:"derivedVariants"`
	DefaultFamily   string              `json:"defaultFamily"`
}

type fontFile struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold"`
	Italic bool    `json:"italic"`
}

// LoadTheme reads a JSON theme:
//
//	{
//	  "palette":     {"primary": "#1E3A8A", "paper": "white"},
//	  "typeScale":   {"title": {"family": "Calibri", "size": 48, "bold": true}},
//	  "lineWeights": {"accent": 3},
//	  "derivedVariants": true
//	}
func LoadTheme(r io.Reader) (*Theme, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var tf themeFile
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("failed to decode theme: %w", err)
	}
	palette := make(map[string]RGB, len(tf.Palette))
	for k, v := range tf.Palette {
		c, err := ParseColor(v)
		if err != nil {
			return nil, fmt.Errorf("palette %q: %w", k, err)
		}
		palette[k] = c
	}
	scale := make(map[string]FontMetrics, len(tf.TypeScale))
	for k, v := range tf.TypeScale {
		scale[k] = FontMetrics{Family: v.Family, Size: v.Size, Bold: v.Bold, Italic: v.Italic}
	}
	opts := []ThemeOption{WithLineWeights(tf.LineWeights)}
	if tf.DerivedVariants {
		opts = append(opts, WithDerivedVariants())
	}
	if tf.DefaultFamily != "" {
		opts = append(opts, WithDefaultFamily(tf.DefaultFamily))
	}
	return NewTheme(palette, scale, opts...)
}

// DefaultTheme returns the colour scheme and type scale the stakeholder decks
// were designed with.
func DefaultTheme(opts ...ThemeOption) *Theme {
	palette := map[string]RGB{
		"primary-blue": MustParseColor("#1E3A8A"),
		"accent-blue":  MustParseColor("#3B82F6"),
		"teal":         MustParseColor("#0D9488"),
		"green":        MustParseColor("#10B981"),
		"orange":       MustParseColor("#F97316"),
		"red":          MustParseColor("#EF4444"),
		"dark-gray":    MustParseColor("#1F2937"),
		"light-gray":   MustParseColor("#F3F4F6"),
		"white":        MustParseColor("white"),
	}
	scale := map[string]FontMetrics{
		"display":  {Size: 72, Bold: true},
		"title":    {Size: 48, Bold: true},
		"heading":  {Size: 28, Bold: true},
		"stat":     {Size: 32, Bold: true},
		"subtitle": {Size: 20},
		"body":     {Size: 16},
		"caption":  {Size: 12},
		"small":    {Size: 11},
	}
	weights := map[string]float64{
		"hairline": 1,
		"regular":  2,
		"accent":   3,
	}
	t, err := NewTheme(palette, scale, append([]ThemeOption{WithLineWeights(weights)}, opts...)...)
	if err != nil {
		panic(err) // static data
	}
	return t
}
