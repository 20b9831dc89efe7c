package handler

import (
	"net/http"

	"github.com/go-file-exchange/internal/application/auth"
	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/validate"
)

// SessionHandler issues bearer tokens.
type SessionHandler struct {
	svc auth.Service
}

func NewSessionHandler(svc auth.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tok, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{AccessToken: tok, TokenType: "bearer"})
}
