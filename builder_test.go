package godeck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestBuilder(opts ...BuilderOption) *Builder {
	opts = append([]BuilderOption{WithTextMeasurer(nil), WithWorkers(4)}, opts...)
	return NewBuilder(DefaultTheme(WithDerivedVariants()), opts...)
}

func card(id string, x float64, fill ColorRef) NodeSpec {
	return NodeSpec{
		ID:       id,
		Kind:     KindRoundedRectangle,
		Position: Absolute{X: x, Y: 1, Width: 2, Height: 1.5},
		Style:    StyleRef{Fill: fill, Line: Ref("accent-blue"), LineWeight: "regular"},
	}
}

func TestBuildResolvesSlides(t *testing.T) {
	slides := []SlideDescription{{
		Index:      1,
		Background: Ref("white"),
		Nodes: []NodeSpec{
			card("a", 0.5, Tint("accent-blue", 0.7)),
			{
				ID:       "title",
				Kind:     KindTextBox,
				Position: GridLayout{Rows: 4, Columns: 1, Margins: UniformMargins(0.5)}.Cell(0, 0),
				Paragraphs: []ParagraphSpec{{
					SpaceBefore: 6, SpaceAfter: 3, LineSpacing: 90,
					Runs: []RunSpec{
						{Text: "Café", Font: "title", Color: Ref("primary-blue"), Align: AlignCenter},
						{Text: " 2024", Font: "caption", Bold: Bool(true)},
					},
				}},
			},
		},
	}}
	doc, err := newTestBuilder().Build(context.Background(), slides)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(doc.Slides) != 1 || doc.Slides[0].Number != 1 {
		t.Fatalf("unexpected slides: %+v", doc.Slides)
	}
	s := doc.Slides[0]
	if diff := cmp.Diff(&RGB{255, 255, 255}, s.Background); diff != "" {
		t.Errorf("background (-want +got):\n%s", diff)
	}

	wantCard := ResolvedNode{
		Kind:      KindRoundedRectangle,
		ID:        "a",
		Box:       Box{X: Inch(0.5), Y: Inch(1), Width: Inch(2), Height: Inch(1.5), Unit: UnitEMU},
		Fill:      &RGB{196, 218, 252},
		Line:      &RGB{59, 130, 246},
		LineWidth: 2 * emuPerPoint,
	}
	if diff := cmp.Diff(wantCard, s.Nodes[0]); diff != "" {
		t.Errorf("card (-want +got):\n%s", diff)
	}

	wantText := &ResolvedTextFrame{
		Wrap: true,
		Paragraphs: []ResolvedParagraph{{
			Align:       AlignCenter,
			SpaceBefore: 600,
			SpaceAfter:  300,
			LineSpacing: 90000,
			Runs: []ResolvedRun{
				{Text: "Café", Font: ResolvedFont{Family: "Calibri", Size: 48, Bold: true, Color: &RGB{30, 58, 138}}},
				{Text: " 2024", Font: ResolvedFont{Family: "Calibri", Size: 12, Bold: true}},
			},
		}},
	}
	if diff := cmp.Diff(wantText, s.Nodes[1].Text); diff != "" {
		t.Errorf("text frame (-want +got):\n%s", diff)
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", doc.Warnings)
	}
}

func TestBuildUnknownStyleKey(t *testing.T) {
	slides := []SlideDescription{
		{Index: 1, Nodes: []NodeSpec{card("ok", 0.5, Ref("teal"))}},
		{Index: 3, Nodes: []NodeSpec{
			card("first", 0.5, Ref("teal")),
			card("second", 3, Ref("brand-magenta")),
		}},
	}
	_, err := newTestBuilder().Build(context.Background(), slides)
	want := &SpecError{
		Location: Location{Slide: 3, Path: NodePath{{Kind: "node", Index: 1, ID: "second"}}},
		Rule:     RuleUnknownStyle,
		Key:      "brand-magenta",
		Msg:      "colour not in palette",
	}
	var got *SpecError
	if !errors.As(err, &got) {
		t.Fatalf("got %v, want SpecError", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("error (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), `slide 3 /node[1 "second"]`) {
		t.Errorf("message does not locate the node: %s", err)
	}
}

// Nodes are resolved concurrently; the reported error must still be the
// first one in document order.
func TestBuildFirstErrorInDocumentOrder(t *testing.T) {
	var nodes []NodeSpec
	for i := 0; i < 40; i++ {
		nodes = append(nodes, card("", 0.5, Ref("teal")))
	}
	nodes[7].Paragraphs = []ParagraphSpec{Para(Run("x", "body", Ref("")), Run("y", "jumbo", Ref("")))}
	nodes[30].Style.Fill = Ref("nope")
	slides := []SlideDescription{{Index: 1, Nodes: nodes}, {Index: 2, Nodes: []NodeSpec{card("", 0.5, Ref("nope"))}}}

	for i := 0; i < 20; i++ {
		_, err := newTestBuilder(WithWorkers(16)).Build(context.Background(), slides)
		var se *SpecError
		if !errors.As(err, &se) {
			t.Fatalf("got %v, want SpecError", err)
		}
		want := Location{Slide: 1, Path: NodePath{{Kind: "node", Index: 7}, {Kind: "paragraph", Index: 0}, {Kind: "run", Index: 1}}}
		if diff := cmp.Diff(want, se.Location); diff != "" {
			t.Fatalf("run %d: location (-want +got):\n%s", i, diff)
		}
		if se.Key != "jumbo" {
			t.Errorf("key = %q, want jumbo", se.Key)
		}
	}
}

// Reordering the input changes only the stacking order: every node keeps
// its own geometry and style.
func TestBuildPreservesZOrder(t *testing.T) {
	nodes := []NodeSpec{
		card("back", 0.5, Ref("teal")),
		card("middle", 1.5, Ref("orange")),
		card("front", 2.5, Tint("green", 0.4)),
		card("overlay", 3.5, Shade("red", 0.2)),
	}
	permuted := []NodeSpec{nodes[2], nodes[0], nodes[3], nodes[1]}

	b := newTestBuilder()
	build := func(nodes []NodeSpec) []ResolvedNode {
		t.Helper()
		doc, err := b.Build(context.Background(), []SlideDescription{{Index: 1, Nodes: nodes}})
		if err != nil {
			t.Fatal(err)
		}
		return doc.Slides[0].Nodes
	}
	orig, perm := build(nodes), build(permuted)

	for _, tc := range []struct {
		in  []NodeSpec
		out []ResolvedNode
	}{{nodes, orig}, {permuted, perm}} {
		var want, got []string
		for i := range tc.in {
			want = append(want, tc.in[i].ID)
			got = append(got, tc.out[i].ID)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("z-order (-want +got):\n%s", diff)
		}
	}

	byID := func(ns []ResolvedNode) map[string]ResolvedNode {
		m := make(map[string]ResolvedNode, len(ns))
		for _, n := range ns {
			m[n.ID] = n
		}
		return m
	}
	if diff := cmp.Diff(byID(orig), byID(perm)); diff != "" {
		t.Errorf("nodes changed with the order (-original +permuted):\n%s", diff)
	}
	if orig[1].Box.X != Inch(1.5) || *orig[1].Fill != (RGB{249, 115, 22}) {
		t.Errorf("middle = %+v fill %v", orig[1].Box, *orig[1].Fill)
	}
}

func TestBuildSlideIndexes(t *testing.T) {
	tests := []struct {
		name    string
		indexes []int
		rule    Rule
		at      int
	}{
		{"duplicate", []int{1, 2, 2}, RuleDuplicateSlide, 2},
		{"decreasing", []int{5, 3}, RuleSlideOrder, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slides []SlideDescription
			for _, idx := range tt.indexes {
				slides = append(slides, SlideDescription{Index: idx})
			}
			_, err := newTestBuilder().Build(context.Background(), slides)
			var se *SpecError
			if !errors.As(err, &se) {
				t.Fatalf("got %v, want SpecError", err)
			}
			if se.Rule != tt.rule || se.Slide != tt.at {
				t.Errorf("got %s at slide %d, want %s at %d", se.Rule, se.Slide, tt.rule, tt.at)
			}
		})
	}

	doc, err := newTestBuilder().Build(context.Background(), []SlideDescription{{Index: 10}, {Index: 20}, {Index: 25}})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range doc.Slides {
		if s.Number != i+1 {
			t.Errorf("slide %d numbered %d", s.Index, s.Number)
		}
	}
}

func TestBuildOutOfBounds(t *testing.T) {
	off := NodeSpec{Kind: KindRectangle, Position: Absolute{X: 9, Y: 7, Width: 2, Height: 1}, Style: StyleRef{Fill: Ref("red")}}
	slides := []SlideDescription{{Index: 1, Nodes: []NodeSpec{off}}}

	_, err := newTestBuilder().Build(context.Background(), slides)
	var se *SpecError
	if !errors.As(err, &se) || se.Rule != RuleOutOfBounds {
		t.Fatalf("got %v, want %s", err, RuleOutOfBounds)
	}

	doc, err := newTestBuilder(WithClipToPage()).Build(context.Background(), slides)
	if err != nil {
		t.Fatalf("clipped build failed: %v", err)
	}
	want := Box{X: Inch(9), Y: Inch(7), Width: Inch(1), Height: Inch(0.5), Unit: UnitEMU}
	if diff := cmp.Diff(want, doc.Slides[0].Nodes[0].Box); diff != "" {
		t.Errorf("clipped box (-want +got):\n%s", diff)
	}
	if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0].Msg, "clipped") {
		t.Errorf("warnings = %v, want one clipping warning", doc.Warnings)
	}

	gone := NodeSpec{Kind: KindRectangle, Position: Absolute{X: 11, Y: 1, Width: 1, Height: 1}}
	_, err = newTestBuilder(WithClipToPage()).Build(context.Background(), []SlideDescription{{Index: 1, Nodes: []NodeSpec{gone}}})
	var re *ResolutionError
	if !errors.As(err, &re) || re.Rule != RuleDegenerateBox {
		t.Errorf("got %v, want ResolutionError %s", err, RuleDegenerateBox)
	}
}

func TestBuildTextErrors(t *testing.T) {
	tests := []struct {
		name string
		para ParagraphSpec
		rule Rule
		path NodePath
	}{
		{
			name: "alignment conflict",
			para: ParagraphSpec{Align: AlignLeft, Runs: []RunSpec{{Text: "a", Align: AlignLeft}, {Text: "b", Align: AlignRight}}},
			rule: RuleAlignConflict,
			path: NodePath{{Kind: "node"}, {Kind: "paragraph"}, {Kind: "run", Index: 1}},
		},
		{
			name: "control character",
			para: Para(RunSpec{Text: "bell\a"}),
			rule: RuleInvalidText,
			path: NodePath{{Kind: "node"}, {Kind: "paragraph"}, {Kind: "run"}},
		},
		{
			name: "invalid utf-8",
			para: Para(RunSpec{Text: "\xff"}),
			rule: RuleInvalidText,
			path: NodePath{{Kind: "node"}, {Kind: "paragraph"}, {Kind: "run"}},
		},
		{
			name: "font size",
			para: Para(RunSpec{Text: "x", Size: 5000}),
			rule: RuleInvalidFontSize,
			path: NodePath{{Kind: "node"}, {Kind: "paragraph"}, {Kind: "run"}},
		},
		{
			name: "level",
			para: ParagraphSpec{Level: 9},
			rule: RuleInvalidLevel,
			path: NodePath{{Kind: "node"}, {Kind: "paragraph"}},
		},
		{
			name: "spacing",
			para: ParagraphSpec{SpaceAfter: -1},
			rule: RuleInvalidSpacing,
			path: NodePath{{Kind: "node"}, {Kind: "paragraph"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NodeSpec{Kind: KindTextBox, Position: Absolute{X: 1, Y: 1, Width: 4, Height: 2}, Paragraphs: []ParagraphSpec{tt.para}}
			_, err := newTestBuilder().Build(context.Background(), []SlideDescription{{Index: 1, Nodes: []NodeSpec{n}}})
			var se *SpecError
			if !errors.As(err, &se) {
				t.Fatalf("got %v, want SpecError", err)
			}
			if se.Rule != tt.rule {
				t.Errorf("rule = %s, want %s", se.Rule, tt.rule)
			}
			if diff := cmp.Diff(tt.path, se.Path); diff != "" {
				t.Errorf("path (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildRunAlignmentLifted(t *testing.T) {
	n := NodeSpec{Kind: KindTextBox, Position: Absolute{X: 1, Y: 1, Width: 4, Height: 2}, Paragraphs: []ParagraphSpec{{
		Runs: []RunSpec{{Text: "a"}, {Text: "b", Align: AlignRight}, {Text: "c\nd", Align: AlignRight}},
	}}}
	doc, err := newTestBuilder().Build(context.Background(), []SlideDescription{{Index: 1, Nodes: []NodeSpec{n}}})
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Slides[0].Nodes[0].Text.Paragraphs[0].Align; got != AlignRight {
		t.Errorf("align = %q, want %q", got, AlignRight)
	}
}

func TestBuildBackgroundError(t *testing.T) {
	_, err := newTestBuilder().Build(context.Background(), []SlideDescription{{Index: 2, Background: Ref("sky")}})
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want SpecError", err)
	}
	if se.Slide != 2 || se.Path.String() != "/background[0]" || se.Key != "sky" {
		t.Errorf("got %v", se)
	}
}

func TestBuildTextFitWarning(t *testing.T) {
	m, err := NewTextMeasurer()
	if err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("overflowing words ", 60)
	n := NodeSpec{Kind: KindTextBox, Position: Absolute{X: 1, Y: 1, Width: 2, Height: 0.5}, Paragraphs: []ParagraphSpec{Para(Run(long, "body", Ref("")))}}
	doc, err := newTestBuilder(WithTextMeasurer(m)).Build(context.Background(), []SlideDescription{{Index: 1, Nodes: []NodeSpec{n}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0].Msg, "height") {
		t.Errorf("warnings = %v, want one text-fit warning", doc.Warnings)
	}
}

func TestBuildRejects(t *testing.T) {
	if _, err := newTestBuilder().Build(context.Background(), nil); err == nil {
		t.Error("expected error for empty deck")
	} else if se := (*SpecError)(nil); !errors.As(err, &se) || se.Rule != RuleEmptyDeck {
		t.Errorf("got %v, want %s", err, RuleEmptyDeck)
	}

	_, err := newTestBuilder(WithPage(Page{Width: 0, Height: 7.5})).Build(context.Background(), []SlideDescription{{Index: 1}})
	var se *SpecError
	if !errors.As(err, &se) || se.Rule != RuleInvalidPage {
		t.Errorf("got %v, want %s", err, RuleInvalidPage)
	}

	if _, err := NewBuilder(nil).Build(context.Background(), []SlideDescription{{Index: 1}}); err == nil {
		t.Error("expected error for nil theme")
	}

	bad := NodeSpec{Kind: ShapeKind(42), Position: Absolute{Width: 1, Height: 1}}
	_, err = newTestBuilder().Build(context.Background(), []SlideDescription{{Index: 1, Nodes: []NodeSpec{bad}}})
	if !errors.As(err, &se) || se.Rule != RuleUnknownKind {
		t.Errorf("got %v, want %s", err, RuleUnknownKind)
	}

	missing := NodeSpec{Kind: KindRectangle}
	_, err = newTestBuilder().Build(context.Background(), []SlideDescription{{Index: 1, Nodes: []NodeSpec{missing}}})
	if !errors.As(err, &se) || se.Rule != RuleMissingPosition {
		t.Errorf("got %v, want %s", err, RuleMissingPosition)
	}

	weightOnly := NodeSpec{ID: "w", Kind: KindEllipse, Position: Absolute{X: 1, Y: 1, Width: 1, Height: 1},
		Style: StyleRef{Fill: Ref("orange"), LineWeight: "accent"}}
	_, err = newTestBuilder().Build(context.Background(), []SlideDescription{{Index: 1, Nodes: []NodeSpec{weightOnly}}})
	if !errors.As(err, &se) || se.Rule != RuleInvalidLineWeight || se.Key != "accent" {
		t.Errorf("got %v, want %s", err, RuleInvalidLineWeight)
	}
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slides := []SlideDescription{{Index: 1, Nodes: []NodeSpec{card("", 1, Ref("teal"))}}}
	doc, err := newTestBuilder().Build(ctx, slides)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if doc != nil {
		t.Error("document returned after cancellation")
	}
}
