package godeck

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Default text frame insets of a DrawingML body, in EMU.
const (
	frameInsetX = 91440
	frameInsetY = 45720
)

// defaultRunSize is the size a viewer applies to runs that set none.
const defaultRunSize = 18.0

// lineHeightFactor approximates single line spacing as a multiple of the
// font size.
const lineHeightFactor = 1.2

// faceKey uniquely identifies a measuring face.
type faceKey struct {
	family string
	size   float64
	bold   bool
	italic bool
}

// TextMeasurer estimates the extent of text with unhinted glyph metrics.
// Families registered with LoadFontData are used when a run names them;
// every other family is measured with the Go fonts as a proxy. It is safe
// for concurrent use.
type TextMeasurer struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font // lower-case family (+ " bold" etc.)
	faces map[faceKey]font.Face
}

// NewTextMeasurer returns a measurer preloaded with the Go fonts.
func NewTextMeasurer() (*TextMeasurer, error) {
	m := &TextMeasurer{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
	for name, data := range map[string][]byte{
		"go":             goregular.TTF,
		"go bold":        gobold.TTF,
		"go italic":      goitalic.TTF,
		"go bold italic": gobolditalic.TTF,
	} {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		m.fonts[name] = f
	}
	return m, nil
}

// LoadFontData registers a TrueType/OpenType font from raw bytes under its
// internal family and full names.
func (m *TextMeasurer) LoadFontData(data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	registered := false
	for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDFull} {
		name, err := f.Name(nil, id)
		if err == nil && name != "" {
			m.fonts[strings.ToLower(name)] = f
			registered = true
		}
	}
	if !registered {
		return fmt.Errorf("font has no family name")
	}
	return nil
}

func (m *TextMeasurer) findFont(family string, bold, italic bool) *opentype.Font {
	lower := strings.ToLower(family)
	var suffixes []string
	switch {
	case bold && italic:
		suffixes = []string{" bold italic", " bolditalic"}
	case bold:
		suffixes = []string{" bold"}
	case italic:
		suffixes = []string{" italic"}
	}
	for _, base := range []string{lower, "go"} {
		for _, s := range suffixes {
			if f, ok := m.fonts[base+s]; ok {
				return f
			}
		}
		if f, ok := m.fonts[base]; ok {
			return f
		}
	}
	return nil
}

// face returns a cached face; m.mu must be held, since faces are not safe
// for concurrent use.
func (m *TextMeasurer) face(family string, size float64, bold, italic bool) (font.Face, error) {
	key := faceKey{family: strings.ToLower(family), size: size, bold: bold, italic: italic}
	if f, ok := m.faces[key]; ok {
		return f, nil
	}
	f := m.findFont(family, bold, italic)
	if f == nil {
		return nil, fmt.Errorf("no font for %q", family)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[key] = face
	return face, nil
}

// Width returns the advance of s in points.
func (m *TextMeasurer) Width(s string, f ResolvedFont) (float64, error) {
	size := f.Size
	if size <= 0 {
		size = defaultRunSize
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(f.Family, size, f.Bold, f.Italic)
	if err != nil {
		return 0, err
	}
	// DPI 72 makes one pixel one point.
	return float64(font.MeasureString(face, s)) / 64, nil
}

// Overflow estimates whether the text of tf fits inside box. It returns a
// non-empty description when it likely does not.
func (m *TextMeasurer) Overflow(tf *ResolvedTextFrame, box Box) (string, error) {
	if tf == nil {
		return "", nil
	}
	avail := EMUToPoint(box.Width - 2*frameInsetX)
	availH := EMUToPoint(box.Height - 2*frameInsetY)
	if avail <= 0 || availH <= 0 {
		return "frame is smaller than its text insets", nil
	}
	var height, widest float64
	for _, p := range tf.Paragraphs {
		lines, lineSize, w, err := m.paragraphLines(p, avail, tf.Wrap)
		if err != nil {
			return "", err
		}
		widest = max(widest, w)
		lh := lineSize * lineHeightFactor
		if p.LineSpacing > 0 {
			lh *= float64(p.LineSpacing) / 100000
		}
		height += float64(p.SpaceBefore)/100 + float64(lines)*lh + float64(p.SpaceAfter)/100
	}
	switch {
	case !tf.Wrap && widest > avail:
		return fmt.Sprintf("unwrapped text is %.1fpt wide, frame has %.1fpt", widest, avail), nil
	case height > availH:
		return fmt.Sprintf("text needs about %.1fpt of height, frame has %.1fpt", height, availH), nil
	}
	return "", nil
}

// paragraphLines lays a paragraph out greedily word by word and returns the
// number of lines, the largest font size seen, and the widest line.
func (m *TextMeasurer) paragraphLines(p ResolvedParagraph, avail float64, wrap bool) (int, float64, float64, error) {
	lines := 1
	var lineSize, cur, widest float64
	for _, r := range p.Runs {
		size := r.Font.Size
		if size <= 0 {
			size = defaultRunSize
		}
		lineSize = max(lineSize, size)
		for i, seg := range strings.Split(r.Text, "\n") {
			if i > 0 {
				widest = max(widest, cur)
				lines++
				cur = 0
			}
			for _, word := range strings.SplitAfter(seg, " ") {
				if word == "" {
					continue
				}
				w, err := m.Width(word, r.Font)
				if err != nil {
					return 0, 0, 0, err
				}
				if wrap && cur > 0 && cur+w > avail {
					widest = max(widest, cur)
					lines++
					cur = 0
				}
				cur += w
				if wrap && cur > avail {
					// a single word wider than the frame breaks mid-word
					extra := int(math.Ceil(cur/avail)) - 1
					lines += extra
					cur -= float64(extra) * avail
				}
			}
		}
	}
	widest = max(widest, cur)
	if lineSize == 0 {
		lineSize = defaultRunSize
	}
	return lines, lineSize, widest, nil
}
