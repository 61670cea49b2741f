// Command deckgen builds a .pptx presentation from a JSON deck file.
//
// Usage:
//
//	deckgen -deck deck.json [-theme theme.json | -derived] -o out.pptx [-workers N] [-clip] [-log-format text|json] [-v]
//	deckgen -inspect out.pptx
//
// Exit status is 0 on success, 1 for an invalid deck (unknown style keys,
// bad geometry, malformed input), 2 for bad usage, 3 when the output cannot
// be written and 4 for internal errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"

	godeck "github.com/VantageDataChat/GoDeck"
)

const (
	exitOK       = 0
	exitSpec     = 1
	exitUsage    = 2
	exitIO       = 3
	exitInternal = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
	stop()
	os.Exit(code)
}

type options struct {
	deck      string
	theme     string
	out       string
	workers   int
	clip      bool
	derived   bool
	logFormat string
	verbose   bool
	inspect   string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("deckgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.deck, "deck", "", "JSON deck file to build")
	fs.StringVar(&o.theme, "theme", "", "JSON theme file (default: built-in theme)")
	fs.StringVar(&o.out, "o", "", "output .pptx path")
	fs.IntVar(&o.workers, "workers", 0, "concurrent workers (default: GOMAXPROCS)")
	fs.BoolVar(&o.clip, "clip", false, "clip out-of-page boxes instead of failing")
	fs.BoolVar(&o.derived, "derived", false, "enable tint/shade colour references in the built-in theme")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text or json (default: text on a terminal)")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	fs.StringVar(&o.inspect, "inspect", "", "print the structure of an existing .pptx and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	switch {
	case o.inspect != "" && (o.deck != "" || o.out != ""):
		return nil, errors.New("-inspect cannot be combined with -deck or -o")
	case o.inspect == "" && (o.deck == "" || o.out == ""):
		return nil, errors.New("-deck and -o are required")
	case o.derived && o.theme != "":
		return nil, errors.New("-derived applies to the built-in theme; set \"derivedVariants\" in the theme file instead")
	}
	switch o.logFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", o.logFormat)
	}
	return o, nil
}

func newLogger(w io.Writer, format string, verbose, tty bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if format == "json" || (format == "" && !tty) {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, tty bool) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "deckgen: %v\n", err)
		return exitUsage
	}
	logger := newLogger(stderr, o.logFormat, o.verbose, tty)

	if o.inspect != "" {
		sum, err := godeck.Inspect(o.inspect)
		if err != nil {
			logger.Error("inspect failed", "path", o.inspect, "err", err)
			return exitIO
		}
		printSummary(stdout, sum)
		return exitOK
	}

	if err := build(ctx, o, logger); err != nil {
		logger.Error("build failed", "err", err)
		return exitCode(err)
	}
	return exitOK
}

// inputError marks a deck or theme file that could not be loaded.
type inputError struct{ err error }

func (e *inputError) Error() string { return e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

func build(ctx context.Context, o *options, logger *slog.Logger) error {
	var themeOpts []godeck.ThemeOption
	if o.derived {
		themeOpts = append(themeOpts, godeck.WithDerivedVariants())
	}
	theme := godeck.DefaultTheme(themeOpts...)
	if o.theme != "" {
		f, err := os.Open(o.theme)
		if err != nil {
			return &inputError{err}
		}
		theme, err = godeck.LoadTheme(f)
		f.Close()
		if err != nil {
			return &inputError{fmt.Errorf("%s: %w", o.theme, err)}
		}
	}
	logger.Debug("theme",
		"colors", theme.ColorNames(),
		"fonts", theme.FontNames(),
		"lineWeights", theme.LineWeightNames())

	f, err := os.Open(o.deck)
	if err != nil {
		return &inputError{err}
	}
	deck, err := godeck.DecodeDeck(f)
	f.Close()
	if err != nil {
		return &inputError{fmt.Errorf("%s: %w", o.deck, err)}
	}

	opts := append(deck.Options(), godeck.WithLogger(logger), godeck.WithWorkers(o.workers))
	if o.clip {
		opts = append(opts, godeck.WithClipToPage())
	}
	path, err := godeck.Generate(ctx, o.out, theme, deck.Slides, opts...)
	if err != nil {
		return err
	}
	logger.Info("done", "path", path, "slides", len(deck.Slides))
	return nil
}

func exitCode(err error) int {
	var (
		specErr *godeck.SpecError
		resErr  *godeck.ResolutionError
		serErr  *godeck.SerializationError
		ioErr   *godeck.IOError
		inErr   *inputError
	)
	switch {
	case errors.As(err, &specErr), errors.As(err, &resErr):
		return exitSpec
	case errors.As(err, &inErr):
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return exitIO
		}
		return exitSpec
	case errors.As(err, &ioErr):
		return exitIO
	case errors.As(err, &serErr):
		return exitInternal
	}
	return exitInternal
}

func printSummary(w io.Writer, sum *godeck.PackageSummary) {
	fmt.Fprintf(w, "page: %d x %d EMU (%.3g x %.3g in)\n",
		sum.PageWidth, sum.PageHeight, godeck.EMUToInch(sum.PageWidth), godeck.EMUToInch(sum.PageHeight))
	fmt.Fprintf(w, "parts: %d\n", len(sum.Parts))
	for _, p := range sum.Uncovered {
		fmt.Fprintf(w, "  no content type: %s\n", p)
	}
	fmt.Fprintf(w, "slides: %d\n", len(sum.Slides))
	for i, s := range sum.Slides {
		fmt.Fprintf(w, "  %d. %s (%d shapes)\n", i+1, s.Part, s.NodeCount)
		for _, t := range s.Texts {
			fmt.Fprintf(w, "       %q\n", t)
		}
	}
}
