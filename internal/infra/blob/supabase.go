package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"devexchange-service/internal/domain"
	storage_go "github.com/supabase-community/storage-go"
)

// Supabase stores blobs in one Supabase storage bucket. A container maps to a
// folder inside the bucket.
type Supabase struct {
	client *storage_go.Client
	bucket string
}

// NewSupabase builds a store for the project at url, e.g. https://xyz.supabase.co.
func NewSupabase(url, key, bucket string) *Supabase {
	client := storage_go.NewClient(strings.TrimRight(url, "/")+"/storage/v1", key, nil)
	return &Supabase{client: client, bucket: bucket}
}

func objectPath(container, name string) string {
	return container + "/" + name
}

func (s *Supabase) Upload(ctx context.Context, container, name, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	path := objectPath(container, name)
	if _, err := s.client.UploadFile(s.bucket, path, body, storage_go.FileOptions{ContentType: &contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", path, classify(err))
	}
	return s.client.GetPublicUrl(s.bucket, path).SignedURL, nil
}

func (s *Supabase) Download(ctx context.Context, container, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := objectPath(container, name)
	data, err := s.client.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, classify(err))
	}
	// Missing objects come back as a JSON error body on some storage versions.
	if looksLikeNotFound(data) {
		return nil, domain.ErrBlobNotFound
	}
	return data, nil
}

func (s *Supabase) Delete(ctx context.Context, container, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := objectPath(container, name)
	if _, err := s.client.RemoveFile(s.bucket, []string{path}); err != nil {
		return fmt.Errorf("delete %s: %w", path, classify(err))
	}
	return nil
}

// notFoundMessages are the messages storage sends for a missing object. The
// client drops the body's statusCode, so these are matched whole.
var notFoundMessages = map[string]bool{
	"object not found":           true,
	"not_found":                  true,
	"the resource was not found": true,
}

// classify maps storage API errors reporting a missing object to ErrBlobNotFound.
func classify(err error) error {
	var serr *storage_go.StorageError
	if !errors.As(err, &serr) {
		return err
	}
	if serr.Status == http.StatusNotFound {
		return domain.ErrBlobNotFound
	}
	if serr.Status == 0 && notFoundMessages[strings.ToLower(strings.TrimSpace(serr.Message))] {
		return domain.ErrBlobNotFound
	}
	return err
}

// errorBody is the JSON document storage answers with instead of object bytes.
type errorBody struct {
	StatusCode json.RawMessage `json:"statusCode"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
}

func looksLikeNotFound(data []byte) bool {
	if len(data) == 0 || len(data) > 512 || data[0] != '{' {
		return false
	}
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return false
	}
	code := strings.Trim(string(body.StatusCode), `"`)
	return code == "404" || strings.EqualFold(body.Error, "not_found")
}
