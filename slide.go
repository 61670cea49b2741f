package godeck

import "fmt"

// slideIndexer enforces unique, strictly increasing slide indexes along the
// submitted sequence.
type slideIndexer struct {
	seen map[int]int // index -> ordinal of first use
	prev int
	n    int
}

func newSlideIndexer(capacity int) *slideIndexer {
	return &slideIndexer{seen: make(map[int]int, capacity)}
}

// next checks the index of the next slide and returns its 1-based number.
func (x *slideIndexer) next(index int) (int, error) {
	if first, ok := x.seen[index]; ok {
		return 0, &SpecError{
			Location: Location{Slide: index},
			Rule:     RuleDuplicateSlide,
			Msg:      fmt.Sprintf("index already used by slide number %d", first),
		}
	}
	if x.n > 0 && index < x.prev {
		return 0, &SpecError{
			Location: Location{Slide: index},
			Rule:     RuleSlideOrder,
			Msg:      fmt.Sprintf("index %d follows %d", index, x.prev),
		}
	}
	x.n++
	x.seen[index] = x.n
	x.prev = index
	return x.n, nil
}

// resolveSlide resolves the slide-level fields; nodes are added by the
// builder.
func (b *Builder) resolveSlide(s *SlideDescription, number int) (ResolvedSlide, error) {
	rs := ResolvedSlide{
		Index:  s.Index,
		Number: number,
		Name:   s.Name,
		Nodes:  make([]ResolvedNode, 0, len(s.Nodes)),
	}
	if !s.Background.IsZero() {
		c, err := b.theme.ResolveColor(s.Background)
		if err != nil {
			return ResolvedSlide{}, locate(err, Location{Slide: s.Index, Path: NodePath{{Kind: "background"}}})
		}
		rs.Background = &c
	}
	return rs, nil
}
