// Package filesrc resolves a selected file reference into raw content ready
// to attach to a multipart upload. Two resolver variants exist: PathResolver
// for local filesystem paths and BlobResolver for addressable blob URLs
// handed back by browser-like pickers. Detect chooses between them once per
// selection.
package filesrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// File is a resolved file: display name, declared mime type and raw bytes.
type File struct {
	Name    string
	MIME    string
	Content []byte
}

// Resolver turns a file reference into a File.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (File, error)
}

// Detect probes the reference and picks the resolver variant for it:
// http(s) and blob-style references resolve over the network, everything
// else is treated as a local path.
func Detect(ref string) Resolver {
	if u, err := url.Parse(ref); err == nil {
		switch u.Scheme {
		case "http", "https", "blob":
			return &BlobResolver{}
		}
	}
	return &PathResolver{}
}

// PathResolver reads file content from the local filesystem.
type PathResolver struct{}

// Resolve reads the file at ref. The mime type is left for the caller to
// fill from the selection; the name defaults to the path's base.
func (*PathResolver) Resolve(_ context.Context, ref string) (File, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return File{}, fmt.Errorf("reading file %s: %w", ref, err)
	}
	return File{Name: filepath.Base(ref), Content: data}, nil
}

// BlobResolver fetches file content from an addressable blob reference.
type BlobResolver struct {
	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

// Resolve fetches ref and returns its body. The response Content-Type is
// used as the declared mime type when present. Blob references wrap the
// fetchable URL ("blob:http://..."); the wrapper is stripped before the
// request since the transport only speaks http(s).
func (b *BlobResolver) Resolve(ctx context.Context, ref string) (File, error) {
	client := b.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	ref = strings.TrimPrefix(ref, "blob:")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return File{}, fmt.Errorf("building blob request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("fetching blob %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return File{}, fmt.Errorf("fetching blob %s: unexpected status %d", ref, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return File{}, fmt.Errorf("reading blob body: %w", err)
	}

	name := filepath.Base(ref)
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		name = filepath.Base(u.Path)
	}

	return File{
		Name:    name,
		MIME:    resp.Header.Get("Content-Type"),
		Content: data,
	}, nil
}
