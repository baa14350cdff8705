package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AlexZinkM/self-custody/internal/confirm"
	"github.com/AlexZinkM/self-custody/internal/custody"
	"github.com/AlexZinkM/self-custody/internal/model"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"

	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

var (
	errNotFound    = errors.New("session not found")
	errRateLimited = errors.New("too many reveal attempts, wait before trying again")
	errBadRequest  = errors.New("invalid request body")
)

// Actions tell the client what the user can do next
const (
	actionRetry   = "retry"
	actionReEnter = "re-enter"
	actionRestart = "restart"
	actionSupport = "contact_support"
)

// supportMessage is shown once a migration is unrecoverable
const supportMessage = "Your custodial key could not be decrypted. Contact support to restore access to this account."

type errorMapping struct {
	target error
	status int
	code   string
	action string
}

// errorMappings is checked in order; the first errors.Is match wins
var errorMappings = []errorMapping{
	{errNotFound, http.StatusNotFound, "not_found", actionRestart},
	{custody.ErrClosed, http.StatusNotFound, "not_found", actionRestart},
	{errRateLimited, http.StatusTooManyRequests, "rate_limited", actionRetry},
	{errBadRequest, http.StatusBadRequest, "bad_request", actionReEnter},
	{solana.ErrEntropyUnavailable, http.StatusServiceUnavailable, "entropy_unavailable", actionSupport},
	{solana.ErrInvalidMnemonic, http.StatusBadRequest, "invalid_mnemonic", actionReEnter},
	{vault.ErrHandleExpired, http.StatusGone, "handle_expired", actionRestart},
	{vault.ErrSecretLive, http.StatusConflict, "secret_live", actionRestart},
	{confirm.ErrConfirmationMismatch, http.StatusUnprocessableEntity, "confirmation_mismatch", actionReEnter},
	{confirm.ErrAcknowledgementRequired, http.StatusUnprocessableEntity, "acknowledgement_required", actionReEnter},
	{custody.ErrConsentRequired, http.StatusUnprocessableEntity, "consent_required", actionReEnter},
	{custody.ErrUnrecoverable, http.StatusBadGateway, "unrecoverable", actionSupport},
	{custody.ErrRevealFailed, http.StatusBadGateway, "reveal_failed", actionRetry},
	{custody.ErrAttachFailed, http.StatusBadGateway, "attach_failed", actionRetry},
	{custody.ErrNoBackend, http.StatusServiceUnavailable, "not_configured", actionSupport},
	{custody.ErrBusy, http.StatusConflict, "busy", actionRetry},
	{custody.ErrInvalidState, http.StatusConflict, "invalid_state", actionRestart},
}

func classify(err error) (status int, code, action string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.action
		}
	}
	return http.StatusInternalServerError, "internal", actionRetry
}

// writeJSON writes a JSON response. Nothing served here may be cached.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, action := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err))
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code, Action: action})
}

// decode reads a JSON body; an empty body leaves v untouched
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errBadRequest
	}
	return nil
}
