package handler

import (
	"net/http"

	"github.com/go-file-exchange/internal/application/auth"
	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/validate"
)

// EmailConfirmHandler handles the email verification flow.
type EmailConfirmHandler struct {
	svc           auth.Service
	publicBaseURL string
}

func NewEmailConfirmHandler(svc auth.Service, publicBaseURL string) *EmailConfirmHandler {
	return &EmailConfirmHandler{svc: svc, publicBaseURL: publicBaseURL}
}

// Verify is the target of the link in the verification email.
func (h *EmailConfirmHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email, token := q.Get("email"), q.Get("token")
	if email == "" || token == "" {
		writeError(w, http.StatusBadRequest, "email and token are required")
		return
	}
	already, err := h.svc.VerifyEmail(r.Context(), email, token)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if already {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Email already verified"})
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Email verified successfully"})
}

// Resend answers the same way whether or not anything was sent.
func (h *EmailConfirmHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendVerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ResendVerification(r.Context(), req.Email, baseURL(h.publicBaseURL, r)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Message: "If the account exists and is not yet verified, a new verification email has been sent.",
	})
}
