package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-file-exchange/internal/application/capability"
	fileapp "github.com/go-file-exchange/internal/application/file"
	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/transport/http/middleware"
)

// multipartOverhead is allowed on top of the file itself for boundaries and headers.
const multipartOverhead = 1 << 20

// FileHandler handles upload, listing and delivery endpoints.
type FileHandler struct {
	files         fileapp.Service
	caps          capability.Service
	maxFileSize   int64
	publicBaseURL string
}

func NewFileHandler(files fileapp.Service, caps capability.Service, maxFileSize int64, publicBaseURL string) *FileHandler {
	return &FileHandler{files: files, caps: caps, maxFileSize: maxFileSize, publicBaseURL: publicBaseURL}
}

// Upload accepts a multipart form with a single "file" field. Ops only.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	uploaded, err := h.files.Upload(r.Context(), fileapp.UploadInput{
		Content:    f,
		Filename:   header.Filename,
		Size:       header.Size,
		UploaderID: u.UserID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UploadEnvelope{Message: "File uploaded successfully", File: uploaded})
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if files == nil {
		files = []domain.File{}
	}
	writeJSON(w, http.StatusOK, FileListEnvelope{Files: files, Total: len(files)})
}

// DownloadLink issues a single-use delivery URL for the calling client.
func (h *FileHandler) DownloadLink(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	link, err := h.caps.Issue(r.Context(), chi.URLParam(r, "file_id"), u.UserID, baseURL(h.publicBaseURL, r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DownloadLinkEnvelope{
		DownloadLink: link.URL,
		ExpiresAt:    link.ExpiresAt,
		Message:      "success",
	})
}

// Download redeems a delivery token and streams the file. The token is the
// only credential.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	d, err := h.caps.Redeem(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	defer d.Content.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.File.OriginalFilename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, d.Content); err != nil {
		slog.Warn("download interrupted", "file_id", d.File.FileID, "err", err)
	}
}
