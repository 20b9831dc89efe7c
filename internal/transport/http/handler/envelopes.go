package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// CreatedUserEnvelope wraps signup and ops-user creation responses.
type CreatedUserEnvelope struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// TokenEnvelope wraps login responses.
type TokenEnvelope struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UploadEnvelope wraps upload responses.
type UploadEnvelope struct {
	Message string       `json:"message"`
	File    *domain.File `json:"file"`
}

// FileListEnvelope wraps file list responses.
type FileListEnvelope struct {
	Files []domain.File `json:"files"`
	Total int           `json:"total"`
}

// DownloadLinkEnvelope wraps a freshly issued delivery URL.
type DownloadLinkEnvelope struct {
	DownloadLink string    `json:"download_link"`
	ExpiresAt    time.Time `json:"expires_at"`
	Message      string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	middleware.WriteJSONError(w, status, msg)
}

// writeDomainError maps service errors onto the HTTP status table.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// maxJSONBody caps request bodies on JSON endpoints.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
}

// baseURL is where links handed to clients point. A configured public URL
// wins; otherwise it is derived from the request as seen by the proxy.
func baseURL(public string, r *http.Request) string {
	if public != "" {
		return public
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
