package handler

import (
	"fmt"
	"net/http"

	"github.com/AlexZinkM/self-custody/internal/confirm"
	"github.com/AlexZinkM/self-custody/internal/custody"
	"github.com/AlexZinkM/self-custody/internal/model"
	"github.com/AlexZinkM/self-custody/solana"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// StartMigration handles POST /migration
// @Summary      Start migration session
// @Description  Opens a custodial to self-custody migration for the calling account
// @Tags         migration
// @Accept       json
// @Produce      json
// @Param        request  body      model.StartMigrationRequest  true  "Whether the account still has a custodial key"
// @Success      201      {object}  model.MigrationResponse
// @Router       /migration [post]
func (h *Handler) StartMigration(w http.ResponseWriter, r *http.Request) {
	var req model.StartMigrationRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m := &migrationSession{
		Migration: custody.NewMigration(req.HasCustodialKey, h.backendFor(r), h.flow),
		limiter:   rate.NewLimiter(rate.Every(h.revealInterval), h.revealBurst),
	}
	id := h.migrations.add(m)
	writeJSON(w, http.StatusCreated, migrationResponse(id, m.Migration))
}

// GetMigration handles GET /migration/{id}
// @Summary      Get migration session
// @Tags         migration
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  model.MigrationResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /migration/{id} [get]
func (h *Handler) GetMigration(w http.ResponseWriter, r *http.Request) {
	m, err := h.migration(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, migrationResponse(mux.Vars(r)["id"], m.Migration))
}

// RevealKey handles POST /migration/{id}/reveal
// @Summary      Reveal custodial private key
// @Description  Requires the exact sentence "I understand the risks". A server-side failure ends the migration.
// @Tags         migration
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Session ID"
// @Param        request  body      model.RevealRequest  true  "Consent sentence"
// @Success      200      {object}  model.MigrationResponse
// @Failure      422      {object}  model.ErrorResponse
// @Failure      429      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /migration/{id}/reveal [post]
func (h *Handler) RevealKey(w http.ResponseWriter, r *http.Request) {
	m, err := h.migration(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.RevealRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Confirmation != custody.RevealPhrase {
		h.writeError(w, r, custody.ErrConsentRequired)
		return
	}
	// only a reveal that can reach the backend spends a token
	if m.State() == custody.StatePendingReveal && !m.limiter.Allow() {
		h.writeError(w, r, errRateLimited)
		return
	}
	if _, err := m.RequestReveal(r.Context(), req.Confirmation); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, migrationResponse(mux.Vars(r)["id"], m.Migration))
}

// GetSecret handles GET /migration/{id}/secret
// @Summary      Show revealed custodial key
// @Tags         migration
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  model.SecretResponse
// @Failure      410  {object}  model.ErrorResponse
// @Router       /migration/{id}/secret [get]
func (h *Handler) GetSecret(w http.ResponseWriter, r *http.Request) {
	m, err := h.migration(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hd, err := m.Secret()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	secret, err := hd.Read()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SecretResponse{Kind: string(hd.Kind()), Secret: secret})
}

// HideSecret handles POST /migration/{id}/hide
// @Summary      Hide revealed custodial key
// @Description  Scrubs the key. Revealing it again is not possible in this session.
// @Tags         migration
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  model.MigrationResponse
// @Router       /migration/{id}/hide [post]
func (h *Handler) HideSecret(w http.ResponseWriter, r *http.Request) {
	m, err := h.migration(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m.Hide()
	writeJSON(w, http.StatusOK, migrationResponse(mux.Vars(r)["id"], m.Migration))
}

// ConfirmMigration handles POST /migration/{id}/confirm
// @Summary      Confirm custodial key was saved
// @Tags         migration
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Session ID"
// @Param        request  body      confirm.ImportAcknowledgements  true  "Acknowledgements"
// @Success      200      {object}  model.MigrationResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /migration/{id}/confirm [post]
func (h *Handler) ConfirmMigration(w http.ResponseWriter, r *http.Request) {
	m, err := h.migration(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req confirm.ImportAcknowledgements
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := m.Confirm(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, migrationResponse(mux.Vars(r)["id"], m.Migration))
}

// BackupMigration handles POST /migration/{id}/backup
// @Summary      Download encrypted custodial key backup
// @Tags         migration
// @Accept       json
// @Produce      octet-stream
// @Param        id       path      string               true  "Session ID"
// @Param        request  body      model.BackupRequest  true  "Backup password"
// @Success      200
// @Failure      410      {object}  model.ErrorResponse
// @Router       /migration/{id}/backup [post]
func (h *Handler) BackupMigration(w http.ResponseWriter, r *http.Request) {
	m, err := h.migration(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.backup(w, r, m.Backup)
}

// AttachMigration handles POST /migration/{id}/attach
// @Summary      Attach self-custody public key
// @Description  Registers the new public key; on success the custodial key is scrubbed
// @Tags         migration
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Session ID"
// @Param        request  body      model.AttachRequest  true  "New public key"
// @Success      200      {object}  model.MigrationResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /migration/{id}/attach [post]
func (h *Handler) AttachMigration(w http.ResponseWriter, r *http.Request) {
	m, err := h.migration(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.AttachRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	pub, err := solana.ParsePublicKey(req.PublicKey)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := m.Attach(r.Context(), pub); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, migrationResponse(mux.Vars(r)["id"], m.Migration))
}

// CloseMigration handles DELETE /migration/{id}
// @Summary      Close migration session
// @Description  Scrubs the custodial key before responding
// @Tags         migration
// @Param        id   path      string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  model.ErrorResponse
// @Router       /migration/{id} [delete]
func (h *Handler) CloseMigration(w http.ResponseWriter, r *http.Request) {
	if !h.migrations.remove(mux.Vars(r)["id"]) {
		h.writeError(w, r, errNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

func migrationResponse(id string, m *custody.Migration) model.MigrationResponse {
	resp := model.MigrationResponse{SessionID: id, State: string(m.State())}
	if pub := m.AttachedKey(); !pub.IsZero() {
		resp.PublicKey = pub.String()
	}
	if resp.State == string(custody.StateUnrecoverable) {
		resp.Support = supportMessage
	}
	return resp
}
