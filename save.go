package godeck

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Save writes the presentation to a file.
func (w *PPTXWriter) Save(path string) error {
	return w.SaveContext(context.Background(), path)
}

// SaveContext writes the presentation to path atomically: the archive is
// written to a temporary file in the same directory and renamed over path
// only once complete. On any failure, including cancellation, path is left
// untouched.
func (w *PPTXWriter) SaveContext(ctx context.Context, path string) error {
	pkg, err := w.Package(ctx)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return &IOError{Op: "create directory", Path: dir, Err: err}
		}
	}
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer pf.Cleanup()

	n, err := pkg.WriteTo(pf)
	if err != nil {
		if _, ok := err.(*SerializationError); ok {
			return err
		}
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return &IOError{Op: "publish", Path: path, Err: err}
	}
	w.logger.Info("wrote package", "path", path, "bytes", n, "slides", len(w.doc.Slides))
	return nil
}

// Generate builds slides against theme and writes the result to path. It
// returns the path written. Nothing is created at path unless every step
// succeeds.
func Generate(ctx context.Context, path string, theme *Theme, slides []SlideDescription, opts ...BuilderOption) (string, error) {
	b := NewBuilder(theme, opts...)
	doc, err := b.Build(ctx, slides)
	if err != nil {
		return "", err
	}
	w := NewWriter(doc, WithWriterWorkers(b.workers), WithWriterLogger(b.logger))
	if err := w.SaveContext(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}
