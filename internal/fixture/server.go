package fixture

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leca/image-triage/internal/model"
)

// Server exposes the row-backend and upload-sink contracts over HTTP.
type Server struct {
	Rows    *RowStore
	Blobs   *BlobStore
	BaseURL string
	Router  chi.Router
}

// NewServer creates a Server with a fully configured chi router. baseURL is
// used to build the stored-image URLs handed back on subsequent fetches.
func NewServer(rows *RowStore, blobs *BlobStore, baseURL string) *Server {
	s := &Server{
		Rows:    rows,
		Blobs:   blobs,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}

	r := chi.NewRouter()

	// CORS — the triage screen runs in a browser during development.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:         300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/rows", s.handleListRows)
	r.Post("/upload", s.handleUpload)
	r.Get("/blob/{row_id}", s.handleBlob)

	s.Router = r
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListRows handles GET /rows?subject=<s>.
func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: subject")
		return
	}

	rows, err := s.Rows.ListBySubject(subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rows")
		return
	}

	// Ensure non-nil slice for JSON serialisation.
	if rows == nil {
		rows = []model.ImageRow{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
}

// handleUpload handles POST /upload -- multipart with parts "file" and "row_id".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	rowID := r.FormValue("row_id")
	if rowID == "" {
		writeError(w, http.StatusBadRequest, "missing required field: row_id")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing required field: file")
		return
	}
	defer file.Close()

	if _, err := s.Rows.GetRow(rowID); err != nil {
		writeError(w, http.StatusNotFound, "row not found")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "file is not a decodable image")
		return
	}

	if _, err := s.Blobs.Store(rowID, bytes.NewReader(data)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	storedURL := s.BaseURL + "/blob/" + rowID
	if err := s.Rows.SetStoredURL(rowID, storedURL); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record stored image")
		return
	}

	writeJSON(w, http.StatusOK, model.UploadResult{Status: model.StatusOK})
}

// handleBlob serves the stored bytes for GET /blob/{row_id}.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	rowID := chi.URLParam(r, "row_id")

	blob, err := s.Blobs.Retrieve(rowID)
	if err != nil {
		writeError(w, http.StatusNotFound, "blob not found")
		return
	}
	defer blob.Close()

	// Headers are already out if the copy fails midway; nothing to recover.
	_, _ = io.Copy(w, blob)
}
