package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kestrelsec/authplane"
)

// AccessValidator is the slice of the engine the handler needs.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, accessToken string) (*authplane.Identity, error)
}

// Rejection reason codes on the wire.
const (
	ReasonTokenExpired   = "token_expired"
	ReasonTokenInvalid   = "token_invalid"
	ReasonSessionInvalid = "session_invalid"
)

type verifyRequest struct {
	Token string `json:"token"`
}

// VerifyResponse is the wire shape for both accept and reject.
type VerifyResponse struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	Principal *Principal `json:"principal,omitempty"`
}

// Principal is the identity slice exposed to dependent services.
type Principal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

// Handler serves POST verification requests for dependent services.
type Handler struct {
	validator AccessValidator
	logger    *slog.Logger
}

func NewHandler(validator AccessValidator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{validator: validator, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, VerifyResponse{Valid: false, Reason: ReasonTokenInvalid})
		return
	}

	identity, err := h.validator.ValidateAccess(r.Context(), req.Token)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, VerifyResponse{
			Valid: true,
			Principal: &Principal{
				ID:        identity.UserID,
				Email:     identity.Email,
				Username:  identity.Username,
				SessionID: identity.SessionID,
			},
		})
	case errors.Is(err, authplane.ErrStoreUnavailable):
		// Unavailability is not a verdict. Dependents retry or reject
		// on their own policy.
		h.logger.Error("verification unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, VerifyResponse{Valid: false})
	case errors.Is(err, authplane.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false, Reason: ReasonTokenExpired})
	case errors.Is(err, authplane.ErrSessionInvalid):
		writeJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false, Reason: ReasonSessionInvalid})
	default:
		writeJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false, Reason: ReasonTokenInvalid})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
