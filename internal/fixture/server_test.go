package fixture_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leca/image-triage/internal/fixture"
	"github.com/leca/image-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer creates a fixture server backed by in-memory SQLite and a
// temporary blob directory.
func testServer(t *testing.T) (*httptest.Server, *fixture.RowStore) {
	t.Helper()

	rows, err := fixture.NewRowStore("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { rows.Close() })

	blobs := fixture.NewBlobStore(t.TempDir())

	srv := fixture.NewServer(rows, blobs, "")
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	srv.BaseURL = ts.URL

	return ts, rows
}

// multipartUpload builds a multipart body with a file part and a row_id field.
func multipartUpload(t *testing.T, rowID string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "replacement.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("row_id", rowID))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestHealth(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestListRows(t *testing.T) {
	ts, rows := testServer(t)
	require.NoError(t, rows.Seed([]model.ImageRow{
		{ID: "lr-2", Subject: "list-subj", OrderKey: "2", ExternalImageURL: model.StringPtr("http://x/2.jpg")},
		{ID: "lr-1", Subject: "list-subj", OrderKey: "1"},
		{ID: "lr-other", Subject: "other-subj", OrderKey: "1"},
	}))

	resp, err := http.Get(ts.URL + "/rows?subject=list-subj")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rows []model.ImageRow `json:"rows"`
	}
	decodeBody(t, resp, &body)

	require.Len(t, body.Rows, 2)
	// Ordered by order_key.
	assert.Equal(t, "lr-1", body.Rows[0].ID)
	assert.Equal(t, "lr-2", body.Rows[1].ID)
}

func TestListRowsRequiresSubject(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/rows")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "error", body.Status)
	assert.NotEmpty(t, body.Message)
}

func TestListRowsEmptySubjectIsEmptyList(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/rows?subject=deserted")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rows []model.ImageRow `json:"rows"`
	}
	decodeBody(t, resp, &body)
	require.NotNil(t, body.Rows)
	assert.Empty(t, body.Rows)
}

func TestUpload(t *testing.T) {
	ts, rows := testServer(t)
	require.NoError(t, rows.Seed([]model.ImageRow{
		{ID: "up-1", Subject: "up-subj", OrderKey: "1", ExternalImageURL: model.StringPtr("http://x/1.jpg")},
	}))

	body, contentType := multipartUpload(t, "up-1", pngBytes(t))
	resp, err := http.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.UploadResult
	decodeBody(t, resp, &res)
	assert.Equal(t, model.StatusOK, res.Status)

	// The row now carries the stored-image URL.
	row, err := rows.GetRow("up-1")
	require.NoError(t, err)
	require.NotNil(t, row.StoredImageURL)
	assert.Equal(t, ts.URL+"/blob/up-1", *row.StoredImageURL)

	// The stored bytes are served back.
	blobResp, err := http.Get(*row.StoredImageURL)
	require.NoError(t, err)
	defer blobResp.Body.Close()
	assert.Equal(t, http.StatusOK, blobResp.StatusCode)
	got, err := io.ReadAll(blobResp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), got)
}

func TestUploadRejectsNonImage(t *testing.T) {
	ts, rows := testServer(t)
	require.NoError(t, rows.Seed([]model.ImageRow{
		{ID: "up-txt", Subject: "up-subj2", OrderKey: "1"},
	}))

	body, contentType := multipartUpload(t, "up-txt", []byte("plain text"))
	resp, err := http.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUploadUnknownRow(t *testing.T) {
	ts, _ := testServer(t)

	body, contentType := multipartUpload(t, "up-missing", pngBytes(t))
	resp, err := http.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadMissingRowID(t *testing.T) {
	ts, _ := testServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "replacement.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(ts.URL+"/upload", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBlobNotFound(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/blob/unknown-row")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
