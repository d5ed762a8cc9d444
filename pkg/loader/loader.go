// Package loader resolves document sources to plain text. Implementations
// load from object storage, the web or memory; the PDF loader stacks on
// top of another loader to turn binary originals into text.
package loader

import (
	"context"
	"fmt"
)

type SourceType string

const (
	SourceTypePDF  SourceType = "pdf"
	SourceTypeWeb  SourceType = "web"
	SourceTypeText SourceType = "text"
)

// SourceFile points at one document original. Path is an object key, a URL
// or a file name depending on the loader.
type SourceFile struct {
	ID     string
	Path   string
	Type   SourceType
	Loader SourceLoader
}

// GetText resolves the file to plain text through its loader.
func (f *SourceFile) GetText(ctx context.Context) ([]byte, error) {
	if f.Loader == nil {
		return nil, fmt.Errorf("source %q has no loader", f.ID)
	}
	return f.Loader.GetFileText(ctx, *f)
}

// SourceLoader loads the text content of a SourceFile. Implementations may
// cache; CacheKey is the canonical key.
type SourceLoader interface {
	GetFileText(ctx context.Context, file SourceFile) ([]byte, error)
}

func CacheKey(file SourceFile) string {
	return fmt.Sprintf("%s:%s", file.ID, file.Path)
}

// BytesLoader serves content already held in memory, used for direct
// uploads before they reach object storage.
type BytesLoader struct {
	Content []byte
}

func (l BytesLoader) GetFileText(ctx context.Context, file SourceFile) ([]byte, error) {
	return l.Content, nil
}
