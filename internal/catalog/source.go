package catalog

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"
)

// maxDocumentSize bounds how much of a remote catalog is read.
const maxDocumentSize = 4 << 20

// HTTPSource fetches the catalog document over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Fetch downloads the document. Non-2xx responses are errors.
func (h HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

func (h HTTPSource) String() string { return h.URL }

// FSSource reads the catalog document from a file system, typically the
// binary's embedded static assets.
type FSSource struct {
	FS   fs.FS
	Path string
}

// Fetch reads the file.
func (f FSSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(f.FS, f.Path)
}

func (f FSSource) String() string { return "fs:" + f.Path }
