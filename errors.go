package godeck

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule names the invariant a SpecError or ResolutionError violated.
type Rule string

const (
	RuleUnknownStyle      Rule = "unknown-style-ref"
	RuleDerivedDisabled   Rule = "derived-variant-disabled"
	RuleInvalidVariant    Rule = "invalid-variant"
	RuleGridParams        Rule = "invalid-grid"
	RuleInvalidLength     Rule = "invalid-length"
	RuleOutOfBounds       Rule = "out-of-bounds"
	RuleDegenerateBox     Rule = "degenerate-box"
	RuleColorRange        Rule = "color-out-of-range"
	RuleUnknownKind       Rule = "unknown-kind"
	RuleMissingPosition   Rule = "missing-position"
	RuleDuplicateSlide    Rule = "duplicate-slide-index"
	RuleSlideOrder        Rule = "slide-order"
	RuleAlignConflict     Rule = "alignment-conflict"
	RuleInvalidText       Rule = "invalid-text"
	RuleInvalidFontSize   Rule = "invalid-font-size"
	RuleInvalidSpacing    Rule = "invalid-spacing"
	RuleInvalidLineWeight Rule = "invalid-line-weight"
	RuleInvalidPage       Rule = "invalid-page"
	RuleInvalidAlign      Rule = "invalid-alignment"
	RuleInvalidLevel      Rule = "invalid-level"
	RuleEmptyDeck         Rule = "empty-deck"
)

// PathElem is one step of a NodePath.
type PathElem struct {
	Kind  string // "node", "paragraph" or "run"
	Index int    // zero-based
	ID    string // node identity, if the caller gave one
}

// NodePath locates an element inside a slide, outermost first.
type NodePath []PathElem

func (p NodePath) String() string {
	if len(p) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, e := range p {
		sb.WriteByte('/')
		sb.WriteString(e.Kind)
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(e.Index))
		if e.ID != "" {
			sb.WriteString(" ")
			sb.WriteString(strconv.Quote(e.ID))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

func (p NodePath) child(kind string, index int, id string) NodePath {
	out := make(NodePath, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathElem{Kind: kind, Index: index, ID: id})
}

// Location identifies a slide (by its caller-supplied index) and a path in it.
type Location struct {
	Slide int
	Path  NodePath
}

func (l Location) String() string {
	return fmt.Sprintf("slide %d %s", l.Slide, l.Path)
}

// SpecError reports a malformed or self-contradictory SlideDescription.
type SpecError struct {
	Location
	Rule Rule
	Key  string // offending symbolic key, if any
	Msg  string
}

func (e *SpecError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("spec error at %s: %s: %q: %s", e.Location, e.Rule, e.Key, e.Msg)
	}
	return fmt.Sprintf("spec error at %s: %s: %s", e.Location, e.Rule, e.Msg)
}

// ResolutionError reports that resolution produced an invalid value.
type ResolutionError struct {
	Location
	Rule Rule
	Msg  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error at %s: %s: %s", e.Location, e.Rule, e.Msg)
}

// SerializationError reports an internal invariant violated while emitting
// package parts. It indicates a defect, not bad input.
type SerializationError struct {
	Part string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Part == "" {
		return "serialization error: " + e.Err.Error()
	}
	return fmt.Sprintf("serialization error in %s: %v", e.Part, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// IOError reports a failure to write the output archive. Callers may retry.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// keyError is the untyped failure of a theme lookup; the builder turns it
// into a SpecError or ResolutionError with a location attached.
type keyError struct {
	rule Rule
	key  string
	msg  string
}

func (e *keyError) Error() string {
	if e.key == "" {
		return fmt.Sprintf("%s: %s", e.rule, e.msg)
	}
	return fmt.Sprintf("%s: %q: %s", e.rule, e.key, e.msg)
}

// isResolutionRule reports whether a rule belongs to ResolutionError rather
// than SpecError.
func isResolutionRule(r Rule) bool {
	return r == RuleDegenerateBox || r == RuleColorRange
}

func locate(err error, loc Location) error {
	ke, ok := err.(*keyError)
	if !ok {
		return &SpecError{Location: loc, Rule: RuleInvalidLength, Msg: err.Error()}
	}
	if isResolutionRule(ke.rule) {
		msg := ke.msg
		if ke.key != "" {
			msg = fmt.Sprintf("%q: %s", ke.key, ke.msg)
		}
		return &ResolutionError{Location: loc, Rule: ke.rule, Msg: msg}
	}
	return &SpecError{Location: loc, Rule: ke.rule, Key: ke.key, Msg: ke.msg}
}
