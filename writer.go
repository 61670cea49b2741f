package godeck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// Writer is the interface for presentation writers.
type Writer interface {
	Save(path string) error
	WriteTo(w io.Writer) (int64, error)
}

// PPTXWriter writes a Document in PPTX format.
type PPTXWriter struct {
	doc     *Document
	workers int
	logger  *slog.Logger
}

var _ Writer = (*PPTXWriter)(nil)

// WriterOption configures a PPTXWriter.
type WriterOption func(*PPTXWriter)

// WithWriterWorkers bounds the number of slides serialized concurrently.
func WithWriterWorkers(n int) WriterOption {
	return func(w *PPTXWriter) { w.workers = n }
}

// WithWriterLogger sets the logger. The default discards everything.
func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(w *PPTXWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter creates a writer for doc.
func NewWriter(doc *Document, opts ...WriterOption) *PPTXWriter {
	w := &PPTXWriter{
		doc:     doc,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(w)
	}
	if w.workers < 1 {
		w.workers = runtime.GOMAXPROCS(0)
	}
	return w
}

func (w *PPTXWriter) lang() string {
	if w.doc.Lang == language.Und {
		return language.AmericanEnglish.String()
	}
	return w.doc.Lang.String()
}

// Parts serializes the document into package parts. Slides are emitted
// concurrently; the parts come back in slide order regardless, and when
// several slides fail the error of the first one is returned.
func (w *PPTXWriter) Parts(ctx context.Context) ([]Part, error) {
	if w.doc == nil {
		return nil, &SerializationError{Err: fmt.Errorf("document is nil")}
	}
	if err := w.doc.Validate(); err != nil {
		return nil, &SerializationError{Err: err}
	}

	slides := make([]Part, len(w.doc.Slides))
	errs := make([]error, len(w.doc.Slides))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i := range w.doc.Slides {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slides[i], errs[i] = w.slidePart(&w.doc.Slides[i])
			if errs[i] == nil {
				w.logger.Debug("serialized slide", "number", w.doc.Slides[i].Number, "bytes", len(slides[i].Data))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	theme, err := w.themePart()
	if err != nil {
		return nil, err
	}
	parts := []Part{
		w.presentationPart(),
		slideMasterPart(),
		slideLayoutPart(),
		theme,
		presPropsPart(),
		viewPropsPart(),
		tableStylesPart(),
	}
	parts = append(parts, slides...)
	parts = append(parts, w.corePropertiesPart(), w.appPropertiesPart())
	return parts, nil
}

// Package assembles the parts into a package with its root relationships.
func (w *PPTXWriter) Package(ctx context.Context) (*Package, error) {
	parts, err := w.Parts(ctx)
	if err != nil {
		return nil, err
	}
	pkg := NewPackage()
	pkg.SetModTime(w.doc.Properties.Modified)
	pkg.AddRootRel(Relationship{ID: "rId1", Type: relTypeOfficeDoc, Target: partPresentation})
	pkg.AddRootRel(Relationship{ID: "rId2", Type: relTypeCoreProps, Target: partCoreProps})
	pkg.AddRootRel(Relationship{ID: "rId3", Type: relTypeExtProps, Target: partAppProps})
	for _, p := range parts {
		if err := pkg.AddPart(p); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

// WriteTo writes the presentation to a writer.
func (w *PPTXWriter) WriteTo(out io.Writer) (int64, error) {
	return w.WriteToContext(context.Background(), out)
}

// WriteToContext is WriteTo with cancellation. Serialization completes
// before the first byte is written to out.
func (w *PPTXWriter) WriteToContext(ctx context.Context, out io.Writer) (int64, error) {
	pkg, err := w.Package(ctx)
	if err != nil {
		return 0, err
	}
	return pkg.WriteTo(out)
}
