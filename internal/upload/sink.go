// Package upload implements the client side of the managed-store upload
// sink: a multipart POST carrying the replacement image and the row id it
// belongs to. The sink applies no retry and no timeout of its own; transport
// behavior is whatever the configured http.Client provides.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/leca/image-triage/internal/filesrc"
	"github.com/leca/image-triage/internal/model"
)

// ErrUploadRejected signals that the endpoint answered but did not accept
// the upload: a non-2xx status, an undecodable body, or status != "ok".
var ErrUploadRejected = errors.New("upload rejected")

// Sink posts replacement images to the managed store.
type Sink struct {
	// Endpoint is the full upload URL, e.g. "http://localhost:8786/upload".
	Endpoint string
	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

// NewSink returns a Sink posting to endpoint.
func NewSink(endpoint string) *Sink {
	return &Sink{Endpoint: endpoint}
}

// Upload submits the file for rowID and returns the sink's acknowledgement.
// The multipart body carries exactly two parts: "file" (the image bytes,
// filename and content type taken from f) and "row_id".
func (s *Sink) Upload(ctx context.Context, rowID string, f filesrc.File) (model.UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreatePart(fileHeader(f))
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(f.Content); err != nil {
		return model.UploadResult{}, fmt.Errorf("writing file part: %w", err)
	}
	if err := w.WriteField("row_id", rowID); err != nil {
		return model.UploadResult{}, fmt.Errorf("writing row_id part: %w", err)
	}
	if err := w.Close(); err != nil {
		return model.UploadResult{}, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, &buf)
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("posting upload for row %s: %w", rowID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("reading upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.UploadResult{}, fmt.Errorf("%w: status %d", ErrUploadRejected, resp.StatusCode)
	}

	var res model.UploadResult
	if err := json.Unmarshal(body, &res); err != nil {
		return model.UploadResult{}, fmt.Errorf("%w: undecodable response body", ErrUploadRejected)
	}
	if res.Status != model.StatusOK {
		return res, fmt.Errorf("%w: status %q", ErrUploadRejected, res.Status)
	}
	return res, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// fileHeader builds the MIME header for the "file" part, escaping the
// filename the same way multipart.Writer.CreateFormFile does. A missing
// mime type defaults to the generic image type.
func fileHeader(f filesrc.File) textproto.MIMEHeader {
	name := f.Name
	if name == "" {
		name = "file"
	}
	ct := f.MIME
	if ct == "" {
		ct = "image/*"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", ct)
	return h
}
