package godeck

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveColorUnknownKey(t *testing.T) {
	theme := DefaultTheme()
	_, err := theme.ResolveColor(Ref("brand-magenta"))
	var ke *keyError
	if !errors.As(err, &ke) {
		t.Fatalf("got %v, want keyError", err)
	}
	if ke.rule != RuleUnknownStyle || ke.key != "brand-magenta" {
		t.Errorf("got rule %s key %q", ke.rule, ke.key)
	}
}

func TestResolveDeterministic(t *testing.T) {
	theme := DefaultTheme(WithDerivedVariants())
	want, err := theme.ResolveStyle(StyleRef{Fill: Tint("accent-blue", 0.7), Line: Ref("primary-blue"), LineWeight: "accent"})
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := theme.ResolveStyle(StyleRef{Fill: Tint("accent-blue", 0.7), Line: Ref("primary-blue"), LineWeight: "accent"})
			if err != nil {
				errs <- err.Error()
				return
			}
			if diff := cmp.Diff(want, got); diff != "" {
				errs <- diff
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
	if want.LineWidth != 3*emuPerPoint {
		t.Errorf("line width = %d, want %d", want.LineWidth, 3*emuPerPoint)
	}
}

func TestDerivedVariants(t *testing.T) {
	if _, err := DefaultTheme().ResolveColor(Tint("teal", 0.5)); err == nil {
		t.Error("tint resolved although derived variants are disabled")
	}
	theme := DefaultTheme(WithDerivedVariants())
	tests := []struct {
		ref  ColorRef
		want RGB
	}{
		{Tint("primary-blue", 0), RGB{30, 58, 138}},
		{Tint("primary-blue", 1), RGB{255, 255, 255}},
		{Shade("primary-blue", 1), RGB{0, 0, 0}},
		{Tint("accent-blue", 0.5), RGB{157, 193, 251}},
		{Shade("orange", 0.2), RGB{199, 92, 18}},
	}
	for _, tt := range tests {
		got, err := theme.ResolveColor(tt.ref)
		if err != nil {
			t.Fatalf("%s: %v", tt.ref, err)
		}
		if got != tt.want {
			t.Errorf("%s = %v, want %v", tt.ref, got, tt.want)
		}
	}
	if _, err := theme.ResolveColor(Tint("teal", 1.5)); err == nil {
		t.Error("expected error for amount outside [0, 1]")
	}
}

func TestColorOutOfRange(t *testing.T) {
	theme, err := NewTheme(map[string]RGB{"bad": {R: 300}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = theme.ResolveColor(Ref("bad"))
	var ke *keyError
	if !errors.As(err, &ke) || ke.rule != RuleColorRange {
		t.Errorf("got %v, want %s", err, RuleColorRange)
	}
}

func TestResolveFontDefaultFamily(t *testing.T) {
	fm, err := DefaultTheme(WithDefaultFamily("Inter")).ResolveFont("title")
	if err != nil {
		t.Fatal(err)
	}
	want := FontMetrics{Family: "Inter", Size: 48, Bold: true}
	if diff := cmp.Diff(want, fm); diff != "" {
		t.Errorf("font mismatch (-want +got):\n%s", diff)
	}
	if _, err := DefaultTheme().ResolveFont("huge"); err == nil {
		t.Error("expected error for unknown type scale key")
	}
}

func TestNewThemeRejects(t *testing.T) {
	if _, err := NewTheme(map[string]RGB{"": {}}, nil); err == nil {
		t.Error("expected error for empty colour name")
	}
	if _, err := NewTheme(nil, map[string]FontMetrics{"body": {Size: 0}}); err == nil {
		t.Error("expected error for zero font size")
	}
	if _, err := NewTheme(nil, nil, WithLineWeights(map[string]float64{"thin": -1})); err == nil {
		t.Error("expected error for negative line weight")
	}
}

func TestResolveStyleLineWeightWithoutLine(t *testing.T) {
	theme := DefaultTheme()
	_, err := theme.ResolveStyle(StyleRef{Fill: Ref("orange"), LineWeight: "accent"})
	var ke *keyError
	if !errors.As(err, &ke) {
		t.Fatalf("got %v, want keyError", err)
	}
	if ke.rule != RuleInvalidLineWeight || ke.key != "accent" {
		t.Errorf("got rule %s key %q", ke.rule, ke.key)
	}

	rs, err := theme.ResolveStyle(StyleRef{Line: Ref("teal")})
	if err != nil {
		t.Fatal(err)
	}
	if rs.LineWidth != emuPerPoint {
		t.Errorf("default line width = %d, want %d", rs.LineWidth, emuPerPoint)
	}
}

func TestLoadTheme(t *testing.T) {
	const src = `{
	  "palette": {"primary": "#1E3A8A", "paper": "white"},
	  "typeScale": {"title": {"family": "Georgia", "size": 40, "bold": true}},
	  "lineWeights": {"thin": 0.5},
	  "derivedVariants": true,
	  "defaultFamily": "Arial"
	}`
	theme, err := LoadTheme(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"paper", "primary"}, theme.ColorNames()); diff != "" {
		t.Errorf("colour names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"title"}, theme.FontNames()); diff != "" {
		t.Errorf("font names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"thin"}, theme.LineWeightNames()); diff != "" {
		t.Errorf("line weight names (-want +got):\n%s", diff)
	}
	c, err := theme.ResolveColor(Ref("paper"))
	if err != nil || c != (RGB{255, 255, 255}) {
		t.Errorf("paper = %v, %v", c, err)
	}
	if !theme.DerivedVariants() || theme.DefaultFamily() != "Arial" {
		t.Errorf("options not applied: derived=%v family=%q", theme.DerivedVariants(), theme.DefaultFamily())
	}
	w, err := theme.ResolveLineWeight("thin")
	if err != nil || w != 6350 {
		t.Errorf("thin = %d, %v; want 6350", w, err)
	}

	if _, err := LoadTheme(strings.NewReader(`{"palette": {"x": "not-a-colour"}}`)); err == nil {
		t.Error("expected error for bad colour")
	}
	if _, err := LoadTheme(strings.NewReader(`{"colours": {}}`)); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestParseColorRef(t *testing.T) {
	tests := []struct {
		in   string
		want ColorRef
	}{
		{"teal", Ref("teal")},
		{"accent-blue~tint(0.7)", Tint("accent-blue", 0.7)},
		{"dark-gray~shade(0.25)", Shade("dark-gray", 0.25)},
	}
	for _, tt := range tests {
		got, err := ParseColorRef(tt.in)
		if err != nil {
			t.Fatalf("ParseColorRef(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseColorRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
	for _, bad := range []string{"", "~tint(0.5)", "teal~glow(0.5)", "teal~tint(x)", "teal~tint(0.5"} {
		if _, err := ParseColorRef(bad); err == nil {
			t.Errorf("ParseColorRef(%q) succeeded", bad)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
	}{
		{"#1E3A8A", RGB{30, 58, 138}},
		{"f3f4f6", RGB{243, 244, 246}},
		{"White", RGB{255, 255, 255}},
		{"tomato", RGB{255, 99, 71}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseColor("#12345"); err == nil {
		t.Error("expected error for short hex")
	}
	if h, _ := (RGB{30, 58, 138}).Hex(); h != "1E3A8A" {
		t.Errorf("Hex() = %q", h)
	}
	if _, err := (RGB{R: -1}).Hex(); err == nil {
		t.Error("expected error for negative channel")
	}
}

func TestMustParseColor(t *testing.T) {
	c, err := DefaultTheme().ResolveColor(Ref("primary-blue"))
	if err != nil {
		t.Fatal(err)
	}
	if c != MustParseColor("#1e3a8a") {
		t.Errorf("primary-blue = %v", c)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustParseColor did not panic on a bad colour")
		}
	}()
	MustParseColor("not-a-colour")
}
