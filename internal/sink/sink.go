// Package sink delivers rendered digests to people.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
)

// ErrUnknown is returned for a sink name New does not recognise.
var ErrUnknown = errors.New("sink: unknown sink")

// Sink names accepted by New.
const (
	NameStdout    = "stdout"
	NameFile      = "file"
	NameClipboard = "clipboard"
	NameLINE      = "line"
)

// Names lists every sink in a stable order.
var Names = []string{NameStdout, NameFile, NameClipboard, NameLINE}

// Sink delivers digest text to one channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, text string) error
}

// Options carries what the individual sinks need.
type Options struct {
	Stdout    io.Writer
	FilePath  string
	LINEToken string
	LINETo    string
	LINEOpts  []LINEOption
}

// New builds the sink called name.
func New(name string, opts Options) (Sink, error) {
	switch name {
	case NameStdout:
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		return NewWriter(NameStdout, w), nil
	case NameFile:
		if opts.FilePath == "" {
			return nil, fmt.Errorf("sink: file sink needs an output path")
		}
		return &File{Path: opts.FilePath}, nil
	case NameClipboard:
		return NewClipboard(), nil
	case NameLINE:
		return NewLINE(opts.LINEToken, opts.LINETo, opts.LINEOpts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

// Deliver sends text to every sink. A failing sink does not stop the
// others; all failures are returned joined.
func Deliver(ctx context.Context, sinks []Sink, text string) error {
	var errs []error
	for _, s := range sinks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.Deliver(ctx, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Writer prints the digest to an io.Writer.
type Writer struct {
	name string
	w    io.Writer
}

func NewWriter(name string, w io.Writer) *Writer {
	return &Writer{name: name, w: w}
}

func (s *Writer) Name() string { return s.name }

func (s *Writer) Deliver(_ context.Context, text string) error {
	_, err := io.WriteString(s.w, text)
	return err
}

// File writes the digest to Path, replacing previous content.
type File struct {
	Path string
}

func (s *File) Name() string { return NameFile }

func (s *File) Deliver(_ context.Context, text string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return os.WriteFile(s.Path, []byte(text), 0o644)
}

// Clipboard copies the digest to the system clipboard.
type Clipboard struct {
	write func(string) error
}

func NewClipboard() *Clipboard {
	return &Clipboard{write: func(text string) error {
		if clipboard.Unsupported {
			return fmt.Errorf("clipboard not available on this system")
		}
		return clipboard.WriteAll(text)
	}}
}

func (s *Clipboard) Name() string { return NameClipboard }

func (s *Clipboard) Deliver(_ context.Context, text string) error {
	return s.write(text)
}
