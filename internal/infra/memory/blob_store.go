package memory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"devexchange-service/internal/domain"
)

// BlobStore keeps blobs in memory and hands out URLs under baseURL.
type BlobStore struct {
	baseURL string

	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{baseURL: strings.TrimRight(baseURL, "/"), blobs: make(map[string][]byte)}
}

func blobKey(container, name string) string {
	return container + "/" + name
}

func (b *BlobStore) Upload(_ context.Context, container, name, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read blob body: %w", err)
	}
	b.mu.Lock()
	b.blobs[blobKey(container, name)] = data
	b.mu.Unlock()
	return b.baseURL + "/" + url.PathEscape(container) + "/" + url.PathEscape(name), nil
}

func (b *BlobStore) Download(_ context.Context, container, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[blobKey(container, name)]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *BlobStore) Delete(_ context.Context, container, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := blobKey(container, name)
	if _, ok := b.blobs[key]; !ok {
		return domain.ErrBlobNotFound
	}
	delete(b.blobs, key)
	return nil
}

// Exists reports whether a blob is stored.
func (b *BlobStore) Exists(container, name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.blobs[blobKey(container, name)]
	return ok
}

// BlobRoute is the mux pattern ServeHTTP expects, matching the default
// baseURL of http://host/blobs.
const BlobRoute = "GET /blobs/{container}/{name}"

// ServeHTTP serves the blob named by the container and name path values so
// the URLs returned by Upload resolve.
func (b *BlobStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := b.Download(r.Context(), r.PathValue("container"), r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}
