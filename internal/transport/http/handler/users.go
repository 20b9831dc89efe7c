package handler

import (
	"fmt"
	"net/http"

	"github.com/go-file-exchange/internal/application/user"
	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/validate"
)

// UserHandler handles account creation endpoints.
type UserHandler struct {
	svc           user.Service
	publicBaseURL string
}

func NewUserHandler(svc user.Service, publicBaseURL string) *UserHandler {
	return &UserHandler{svc: svc, publicBaseURL: publicBaseURL}
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCreateUser(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Signup(r.Context(), req, baseURL(h.publicBaseURL, r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedUserEnvelope{
		Message: "User created successfully. Please check your email to verify your account.",
		UserID:  u.UserID,
	})
}

// CreateOpsUser must be mounted behind middleware.RequireBootstrapToken.
func (h *UserHandler) CreateOpsUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCreateUser(w, r)
	if !ok {
		return
	}
	u, err := h.svc.CreateOpsUser(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedUserEnvelope{Message: "Ops user created successfully", UserID: u.UserID})
}

func decodeCreateUser(w http.ResponseWriter, r *http.Request) (domain.CreateUserRequest, bool) {
	var req domain.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := validate.Struct(&req); err != nil {
		writeDomainError(w, r, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest))
		return req, false
	}
	return req, true
}
