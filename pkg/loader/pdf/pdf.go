package pdf

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/conceptlab/genea/pkg/loader"
)

// PDFLoader turns PDF originals into text. It wraps another loader that
// provides the raw PDF bytes, typically the S3 loader.
type PDFLoader struct {
	source loader.SourceLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

func NewPDFLoader(source loader.SourceLoader) *PDFLoader {
	return &PDFLoader{
		source: source,
		cache:  make(map[string][]byte),
	}
}

// GetFileText loads the PDF bytes through the wrapped loader and extracts
// their text. Concurrent requests for the same file share one extraction.
func (l *PDFLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := l.source.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := parsePDF(content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
