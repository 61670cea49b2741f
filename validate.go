package godeck

import (
	"fmt"
	"strings"
)

// Validate checks the document for structural issues and returns an error
// describing all problems found, or nil if the document can be serialized.
// A Document produced by a Builder always validates; the writer calls this
// before emitting anything so that hand-assembled documents fail early.
func (d *Document) Validate() error {
	var errs []string

	if d.Page.CX <= 0 {
		errs = append(errs, "page width (CX) must be positive")
	}
	if d.Page.CY <= 0 {
		errs = append(errs, "page height (CY) must be positive")
	}
	if len(d.Slides) == 0 {
		errs = append(errs, "document must have at least one slide")
	}

	for i, s := range d.Slides {
		prefix := fmt.Sprintf("slide %d", s.Index)
		if s.Number != i+1 {
			errs = append(errs, fmt.Sprintf("%s: number %d, want %d", prefix, s.Number, i+1))
		}
		if i > 0 && s.Index <= d.Slides[i-1].Index {
			errs = append(errs, fmt.Sprintf("%s: index does not increase", prefix))
		}
		if s.Background != nil && !s.Background.Valid() {
			errs = append(errs, prefix+": background colour out of range")
		}
		for _, e := range validateSlide(s) {
			errs = append(errs, prefix+": "+e)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func validateSlide(s ResolvedSlide) []string {
	var errs []string
	for j, n := range s.Nodes {
		prefix := fmt.Sprintf("node %d", j)
		if !n.Kind.valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown kind %v", prefix, n.Kind))
		}
		if n.Box.Unit != UnitEMU {
			errs = append(errs, fmt.Sprintf("%s: box is in %v, not emu", prefix, n.Box.Unit))
		}
		if n.Box.Width <= 0 || n.Box.Height <= 0 {
			errs = append(errs, prefix+": box has non-positive size")
		}
		for _, c := range []*RGB{n.Fill, n.Line} {
			if c != nil && !c.Valid() {
				errs = append(errs, fmt.Sprintf("%s: colour %s out of range", prefix, c))
			}
		}
		if n.LineWidth < 0 {
			errs = append(errs, prefix+": line width is negative")
		}
		if n.Text != nil {
			errs = append(errs, validateParagraphs(n.Text.Paragraphs, prefix)...)
		}
	}
	return errs
}

// validateParagraphs checks paragraph elements for common issues.
func validateParagraphs(paragraphs []ResolvedParagraph, prefix string) []string {
	var errs []string
	for i, para := range paragraphs {
		if para.Level < 0 || para.Level > maxLevel {
			errs = append(errs, fmt.Sprintf("%s: paragraph %d level %d out of range", prefix, i, para.Level))
		}
		if para.SpaceBefore < 0 || para.SpaceAfter < 0 || para.LineSpacing < 0 {
			errs = append(errs, fmt.Sprintf("%s: paragraph %d has negative spacing", prefix, i))
		}
		for k, r := range para.Runs {
			if r.Font.Color != nil && !r.Font.Color.Valid() {
				errs = append(errs, fmt.Sprintf("%s: paragraph %d run %d colour out of range", prefix, i, k))
			}
			if r.Font.Size < 0 {
				errs = append(errs, fmt.Sprintf("%s: paragraph %d run %d has negative size", prefix, i, k))
			}
		}
	}
	return errs
}
