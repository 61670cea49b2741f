package godeck

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Limits accepted by DrawingML for paragraph and run attributes.
const (
	maxLevel       = 8
	minFontSize    = 1.0
	maxFontSize    = 4000.0
	maxSpacing     = 1584.0 // points
	maxLineSpacing = 13200.0
)

// Builder resolves slide descriptions into a Document.
type Builder struct {
	theme    *Theme
	page     Page
	workers  int
	logger   *slog.Logger
	clip     bool
	lang     language.Tag
	props    Properties
	measurer *TextMeasurer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithPage sets the page size and the unit of every position. The default
// is PageScreen4x3.
func WithPage(p Page) BuilderOption {
	return func(b *Builder) { b.page = p }
}

// WithWorkers bounds the number of nodes resolved concurrently. Values
// below one mean GOMAXPROCS.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) { b.workers = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClipToPage clips boxes that extend past the page and records a
// warning, instead of failing the build.
func WithClipToPage() BuilderOption {
	return func(b *Builder) { b.clip = true }
}

// WithLanguage sets the language tag written on every text run.
func WithLanguage(tag language.Tag) BuilderOption {
	return func(b *Builder) { b.lang = tag }
}

// WithProperties sets the document properties.
func WithProperties(p Properties) BuilderOption {
	return func(b *Builder) { b.props = p }
}

// WithTextMeasurer replaces the measurer used for text-fit warnings; nil
// turns the check off.
func WithTextMeasurer(m *TextMeasurer) BuilderOption {
	return func(b *Builder) { b.measurer = m }
}

// NewBuilder creates a builder that resolves styles against theme.
func NewBuilder(theme *Theme, opts ...BuilderOption) *Builder {
	b := &Builder{
		theme:   theme,
		page:    PageScreen4x3,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.DiscardHandler),
		lang:    language.AmericanEnglish,
		props:   NewProperties(),
	}
	if m, err := NewTextMeasurer(); err == nil {
		b.measurer = m
	}
	for _, o := range opts {
		o(b)
	}
	if b.workers < 1 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	return b
}

// nodeResult is the outcome of resolving one node. On failure path locates
// the failing element relative to the slide.
type nodeResult struct {
	node  ResolvedNode
	notes []note
	path  NodePath
	err   error
}

type note struct {
	path NodePath
	msg  string
}

// Build resolves every slide. Nodes are resolved concurrently, but errors
// and warnings are reported in document order: slide by slide, node by
// node, then paragraph and run. The first failure aborts the build and no
// Document is returned.
func (b *Builder) Build(ctx context.Context, slides []SlideDescription) (*Document, error) {
	if b.theme == nil {
		return nil, fmt.Errorf("godeck: builder has no theme")
	}
	ps, err := b.page.Resolve()
	if err != nil {
		return nil, &SpecError{Rule: RuleInvalidPage, Msg: err.Error()}
	}
	if len(slides) == 0 {
		return nil, &SpecError{Rule: RuleEmptyDeck, Msg: "no slides to build"}
	}

	results := make([][]nodeResult, len(slides))
	for i := range slides {
		results[i] = make([]nodeResult, len(slides[i].Nodes))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range slides {
		for j := range slides[i].Nodes {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i][j] = b.resolveNode(ps, j, &slides[i].Nodes[j])
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &Document{
		Page:       ps,
		Properties: b.props,
		Lang:       b.lang,
		Font:       b.theme.DefaultFamily(),
		Slides:     make([]ResolvedSlide, 0, len(slides)),
	}
	idx := newSlideIndexer(len(slides))
	for i := range slides {
		s := &slides[i]
		number, err := idx.next(s.Index)
		if err != nil {
			return nil, err
		}
		rs, err := b.resolveSlide(s, number)
		if err != nil {
			return nil, err
		}
		for _, r := range results[i] {
			if r.err != nil {
				return nil, locate(r.err, Location{Slide: s.Index, Path: r.path})
			}
			for _, n := range r.notes {
				doc.Warnings = append(doc.Warnings, Warning{Location: Location{Slide: s.Index, Path: n.path}, Msg: n.msg})
			}
			rs.Nodes = append(rs.Nodes, r.node)
		}
		b.logger.Debug("resolved slide", "index", s.Index, "number", number, "nodes", len(rs.Nodes))
		doc.Slides = append(doc.Slides, rs)
	}

	for _, w := range doc.Warnings {
		b.logger.Warn("build warning", "slide", w.Slide, "path", w.Path.String(), "msg", w.Msg)
	}
	b.logger.Info("built document",
		"slides", len(doc.Slides),
		"nodes", doc.NodeCount(),
		"warnings", len(doc.Warnings))
	return doc, nil
}

// resolveNode resolves the j-th node of a slide. It only reads the Theme
// and the NodeSpec, so calls for different nodes may run concurrently.
func (b *Builder) resolveNode(ps PageSize, j int, ns *NodeSpec) nodeResult {
	path := NodePath{{Kind: "node", Index: j, ID: ns.ID}}
	fail := func(p NodePath, err error) nodeResult {
		return nodeResult{path: p, err: err}
	}

	if !ns.Kind.valid() {
		return fail(path, &keyError{rule: RuleUnknownKind, msg: fmt.Sprintf("unknown shape kind %v", ns.Kind)})
	}
	box, err := ResolveBox(ns.Position, b.page)
	if err != nil {
		return fail(path, err)
	}
	var notes []note
	if !box.Within(ps) {
		if !b.clip {
			return fail(path, &keyError{rule: RuleOutOfBounds, msg: fmt.Sprintf(
				"box (%d,%d)-(%d,%d) EMU exceeds page %dx%d EMU",
				box.X, box.Y, box.Right(), box.Bottom(), ps.CX, ps.CY)})
		}
		clipped := box.clip(ps)
		if err := degenerate(clipped.Width, clipped.Height, "box clipped to the page"); err != nil {
			return fail(path, err)
		}
		notes = append(notes, note{path: path, msg: fmt.Sprintf(
			"box clipped to page: %dx%d EMU at (%d,%d) became %dx%d EMU at (%d,%d)",
			box.Width, box.Height, box.X, box.Y, clipped.Width, clipped.Height, clipped.X, clipped.Y)})
		box = clipped
	}

	st, err := b.theme.ResolveStyle(ns.Style)
	if err != nil {
		return fail(path, err)
	}
	n := ResolvedNode{
		Kind:      ns.Kind,
		ID:        ns.ID,
		Box:       box,
		Fill:      st.Fill,
		Line:      st.Line,
		LineWidth: st.LineWidth,
	}

	if len(ns.Paragraphs) == 0 {
		return nodeResult{node: n, notes: notes}
	}
	switch ns.Frame.Anchor {
	case AnchorDefault, AnchorTop, AnchorMiddle, AnchorBottom:
	default:
		return fail(path, &keyError{rule: RuleInvalidAlign, key: string(ns.Frame.Anchor), msg: "unknown vertical anchor"})
	}
	tf := &ResolvedTextFrame{
		Anchor:     ns.Frame.Anchor,
		Wrap:       !ns.Frame.NoWrap,
		Paragraphs: make([]ResolvedParagraph, 0, len(ns.Paragraphs)),
	}
	for pi := range ns.Paragraphs {
		rp, errPath, err := b.resolveParagraph(&ns.Paragraphs[pi], path.child("paragraph", pi, ""))
		if err != nil {
			return fail(errPath, err)
		}
		tf.Paragraphs = append(tf.Paragraphs, rp)
	}
	n.Text = tf

	if b.measurer != nil {
		msg, err := b.measurer.Overflow(tf, box)
		switch {
		case err != nil:
			b.logger.Debug("text measurement failed", "path", path.String(), "err", err)
		case msg != "":
			notes = append(notes, note{path: path, msg: msg})
		}
	}
	return nodeResult{node: n, notes: notes}
}

func validAlignment(a Alignment) bool {
	switch a {
	case AlignDefault, AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// spacing converts a point or percent value to hundredths or thousandths.
func spacing(v, limit, scale float64, what string) (int, error) {
	if math.IsNaN(v) || v < 0 || v > limit {
		return 0, &keyError{rule: RuleInvalidSpacing, msg: fmt.Sprintf("%s %v outside [0, %v]", what, v, limit)}
	}
	return int(math.Round(v * scale)), nil
}

func (b *Builder) resolveParagraph(p *ParagraphSpec, path NodePath) (ResolvedParagraph, NodePath, error) {
	if p.Level < 0 || p.Level > maxLevel {
		return ResolvedParagraph{}, path, &keyError{rule: RuleInvalidLevel, msg: fmt.Sprintf("level %d outside [0, %d]", p.Level, maxLevel)}
	}
	if !validAlignment(p.Align) {
		return ResolvedParagraph{}, path, &keyError{rule: RuleInvalidAlign, key: string(p.Align), msg: "unknown alignment"}
	}
	rp := ResolvedParagraph{Level: p.Level, Runs: make([]ResolvedRun, 0, len(p.Runs))}
	var err error
	if rp.SpaceBefore, err = spacing(p.SpaceBefore, maxSpacing, 100, "space before"); err != nil {
		return ResolvedParagraph{}, path, err
	}
	if rp.SpaceAfter, err = spacing(p.SpaceAfter, maxSpacing, 100, "space after"); err != nil {
		return ResolvedParagraph{}, path, err
	}
	if rp.LineSpacing, err = spacing(p.LineSpacing, maxLineSpacing, 1000, "line spacing"); err != nil {
		return ResolvedParagraph{}, path, err
	}

	align, from := p.Align, "paragraph"
	for k := range p.Runs {
		r := &p.Runs[k]
		runPath := path.child("run", k, "")
		rr, err := b.resolveRun(r)
		if err != nil {
			return ResolvedParagraph{}, runPath, err
		}
		if r.Align != AlignDefault {
			if !validAlignment(r.Align) {
				return ResolvedParagraph{}, runPath, &keyError{rule: RuleInvalidAlign, key: string(r.Align), msg: "unknown alignment"}
			}
			switch align {
			case AlignDefault:
				align, from = r.Align, fmt.Sprintf("run %d", k)
			case r.Align:
			default:
				return ResolvedParagraph{}, runPath, &keyError{rule: RuleAlignConflict, key: string(r.Align),
					msg: fmt.Sprintf("conflicts with alignment %q set by %s", align, from)}
			}
		}
		rp.Runs = append(rp.Runs, rr)
	}
	rp.Align = align
	return rp, nil, nil
}

func (b *Builder) resolveRun(r *RunSpec) (ResolvedRun, error) {
	if !utf8.ValidString(r.Text) {
		return ResolvedRun{}, &keyError{rule: RuleInvalidText, msg: "text is not valid UTF-8"}
	}
	text := norm.NFC.String(r.Text)
	for i, c := range text {
		if c == '\t' || c == '\n' {
			continue
		}
		if unicode.IsControl(c) || c == 0xFFFE || c == 0xFFFF {
			return ResolvedRun{}, &keyError{rule: RuleInvalidText, msg: fmt.Sprintf("control character %U at byte %d", c, i)}
		}
	}

	var f ResolvedFont
	if r.Font != "" {
		fm, err := b.theme.ResolveFont(r.Font)
		if err != nil {
			return ResolvedRun{}, err
		}
		f = ResolvedFont{Family: fm.Family, Size: fm.Size, Bold: fm.Bold, Italic: fm.Italic}
	}
	if r.Size != 0 {
		if !(r.Size >= minFontSize && r.Size <= maxFontSize) {
			return ResolvedRun{}, &keyError{rule: RuleInvalidFontSize, msg: fmt.Sprintf("size %vpt outside [%v, %v]", r.Size, minFontSize, maxFontSize)}
		}
		f.Size = r.Size
	}
	if r.Bold != nil {
		f.Bold = *r.Bold
	}
	if r.Italic != nil {
		f.Italic = *r.Italic
	}
	if !r.Color.IsZero() {
		c, err := b.theme.ResolveColor(r.Color)
		if err != nil {
			return ResolvedRun{}, err
		}
		f.Color = &c
	}
	return ResolvedRun{Text: text, Font: f}, nil
}
