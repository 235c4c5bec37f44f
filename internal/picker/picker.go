// Package picker defines the file-selection collaborator the upload flow
// invokes when the operator chooses a replacement image. Selection is scoped
// to image mime types; a cancelled selection is a silent no-op, reported via
// ErrSelectionCancelled and never surfaced as an operator-facing error.
package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ErrSelectionCancelled signals that the operator dismissed the file picker.
var ErrSelectionCancelled = errors.New("file selection cancelled")

// Selection describes a chosen file: a content reference the filesrc
// resolvers understand, a display name and the declared mime type.
type Selection struct {
	Ref  string
	Name string
	MIME string
}

// Picker is the external file-selection capability.
type Picker interface {
	Pick(ctx context.Context) (Selection, error)
}

// PickerFunc adapts a function to the Picker interface.
type PickerFunc func(ctx context.Context) (Selection, error)

func (f PickerFunc) Pick(ctx context.Context) (Selection, error) { return f(ctx) }

// LocalPicker selects a pre-chosen local path, the flow used by the CLI
// where the operator names the file up front. An empty path means the
// operator picked nothing.
type LocalPicker struct {
	Path string
}

// NewLocalPicker returns a picker that selects path.
func NewLocalPicker(path string) *LocalPicker {
	return &LocalPicker{Path: path}
}

// Pick validates that the path holds a decodable image and returns the
// selection. The declared mime type is sniffed from magic bytes; when the
// format cannot be determined it defaults to the generic image type.
func (p *LocalPicker) Pick(_ context.Context) (Selection, error) {
	if p.Path == "" {
		return Selection{}, ErrSelectionCancelled
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Selection{}, fmt.Errorf("reading selected file: %w", err)
	}

	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return Selection{}, fmt.Errorf("selected file %s is not a decodable image: %w", p.Path, err)
	}

	mime := SniffMIME(data)
	if mime == "" {
		mime = "image/*"
	}

	return Selection{
		Ref:  p.Path,
		Name: filepath.Base(p.Path),
		MIME: mime,
	}, nil
}
