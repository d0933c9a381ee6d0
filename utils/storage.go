package utils

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"technova/config"
)

// Storage is the blob store consumed by the submission and pass flows.
// Upload returns a URL the client can fetch; Delete takes that URL back.
type Storage interface {
	Upload(fileName string, r io.Reader) (string, error)
	Delete(fileURL string) error
}

// NewStorage builds the storage backend named by the configuration.
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "http":
		return &HTTPStorage{
			endpoint: strings.TrimRight(cfg.Endpoint, "/"),
			apiKey:   cfg.APIKey,
			client:   &fasthttp.Client{},
		}, nil
	case "disk", "":
		if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		return &DiskStorage{dir: cfg.LocalDir, publicURL: strings.TrimRight(cfg.PublicURL, "/")}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// objectName keeps the original extension but replaces the name with a UUID
// so uploads never collide or leak the uploader's file names.
func objectName(fileName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
}

// DiskStorage writes blobs under a local directory and serves them through
// the app's static route.
type DiskStorage struct {
	dir       string
	publicURL string
}

func (s *DiskStorage) Upload(fileName string, r io.Reader) (string, error) {
	name := objectName(fileName)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return s.publicURL + "/" + name, nil
}

func (s *DiskStorage) Delete(fileURL string) error {
	name := path.Base(fileURL)
	if name == "." || name == "/" {
		return fmt.Errorf("invalid file URL %q", fileURL)
	}
	return os.Remove(filepath.Join(s.dir, name))
}

// HTTPStorage pushes blobs to an external storage service over its REST API.
type HTTPStorage struct {
	endpoint string
	apiKey   string
	client   *fasthttp.Client
}

func (s *HTTPStorage) Upload(fileName string, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	name := objectName(fileName)
	url := s.endpoint + "/" + name

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPut)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.SetContentType("application/octet-stream")
	req.SetBody(body)

	if err := s.client.Do(req, resp); err != nil {
		return "", err
	}
	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("storage upload failed with status %d", resp.StatusCode())
	}
	return url, nil
}

func (s *HTTPStorage) Delete(fileURL string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fileURL)
	req.Header.SetMethod(fasthttp.MethodDelete)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	if err := s.client.Do(req, resp); err != nil {
		return err
	}
	if resp.StatusCode() >= 300 && resp.StatusCode() != fasthttp.StatusNotFound {
		return fmt.Errorf("storage delete failed with status %d", resp.StatusCode())
	}
	return nil
}
