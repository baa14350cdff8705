package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/AlexZinkM/self-custody/internal/common"
	"github.com/AlexZinkM/self-custody/internal/custody"
	"github.com/AlexZinkM/self-custody/internal/model"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gorilla/mux"
)

// CreateWallet handles POST /wallet/create
// @Summary      Start create-wallet session
// @Description  Generates a new 12-word recovery phrase and the positions the user must re-enter
// @Tags         wallet
// @Produce      json
// @Success      201  {object}  model.CreateSessionResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /wallet/create [post]
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	c := custody.NewCreation(h.backendFor(r), h.flow)
	hd, err := c.Generate()
	if err != nil {
		c.Close()
		h.writeError(w, r, err)
		return
	}

	words, err := readWords(hd)
	if err != nil {
		c.Close()
		h.writeError(w, r, err)
		return
	}
	id := h.creations.add(c)

	resp := creationResponse(id, c)
	resp.Words = words
	writeJSON(w, http.StatusCreated, resp)
}

// GetCreation handles GET /wallet/create/{id}
// @Summary      Get create-wallet session
// @Description  Returns state and challenge positions. Never returns the phrase.
// @Tags         wallet
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  model.CreateSessionResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet/create/{id} [get]
func (h *Handler) GetCreation(w http.ResponseWriter, r *http.Request) {
	c, err := h.creation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creationResponse(mux.Vars(r)["id"], c))
}

// GetPhrase handles GET /wallet/create/{id}/phrase
// @Summary      Show recovery phrase
// @Tags         wallet
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  model.CreateSessionResponse
// @Failure      410  {object}  model.ErrorResponse
// @Router       /wallet/create/{id}/phrase [get]
func (h *Handler) GetPhrase(w http.ResponseWriter, r *http.Request) {
	c, err := h.creation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hd, err := c.Phrase()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	words, err := readWords(hd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := creationResponse(mux.Vars(r)["id"], c)
	resp.Words = words
	writeJSON(w, http.StatusOK, resp)
}

// RestartCreation handles POST /wallet/create/{id}/restart
// @Summary      Generate a different phrase
// @Description  Discards the unconfirmed phrase and generates a new one with a new challenge
// @Tags         wallet
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  model.CreateSessionResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/create/{id}/restart [post]
func (h *Handler) RestartCreation(w http.ResponseWriter, r *http.Request) {
	c, err := h.creation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hd, err := c.Restart()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	words, err := readWords(hd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := creationResponse(mux.Vars(r)["id"], c)
	resp.Words = words
	writeJSON(w, http.StatusOK, resp)
}

// ConfirmCreation handles POST /wallet/create/{id}/confirm
// @Summary      Confirm recovery phrase
// @Description  Checks the acknowledgements and the re-entered words, then derives the public key
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Session ID"
// @Param        request  body      model.ConfirmCreateRequest  true  "Acknowledgements and answers"
// @Success      200      {object}  model.KeyResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /wallet/create/{id}/confirm [post]
func (h *Handler) ConfirmCreation(w http.ResponseWriter, r *http.Request) {
	c, err := h.creation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.ConfirmCreateRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	pub, err := c.Confirm(req.Acknowledgements, model.AnswerMap(req.Answers))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeKey(w, r, pub)
}

// BackupCreation handles POST /wallet/create/{id}/backup
// @Summary      Download encrypted phrase backup
// @Description  Returns the phrase sealed in a password-protected .cwt file
// @Tags         wallet
// @Accept       json
// @Produce      octet-stream
// @Param        id       path      string               true  "Session ID"
// @Param        request  body      model.BackupRequest  true  "Backup password"
// @Success      200
// @Failure      410      {object}  model.ErrorResponse
// @Router       /wallet/create/{id}/backup [post]
func (h *Handler) BackupCreation(w http.ResponseWriter, r *http.Request) {
	c, err := h.creation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.backup(w, r, c.Backup)
}

// AttachCreation handles POST /wallet/create/{id}/attach
// @Summary      Attach new wallet
// @Description  Registers the confirmed public key with the backend and scrubs the phrase
// @Tags         wallet
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  model.KeyResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /wallet/create/{id}/attach [post]
func (h *Handler) AttachCreation(w http.ResponseWriter, r *http.Request) {
	c, err := h.creation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := c.Attach(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeKey(w, r, c.PublicKey())
}

// CloseCreation handles DELETE /wallet/create/{id}
// @Summary      Close create-wallet session
// @Description  Scrubs the phrase before responding
// @Tags         wallet
// @Param        id   path      string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet/create/{id} [delete]
func (h *Handler) CloseCreation(w http.ResponseWriter, r *http.Request) {
	if !h.creations.remove(mux.Vars(r)["id"]) {
		h.writeError(w, r, errNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

// ImportWallet handles POST /wallet/import
// @Summary      Import wallet from recovery phrase
// @Description  Derives the public key of an existing phrase. The phrase is not kept.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportRequest  true  "Recovery phrase"
// @Success      200      {object}  model.KeyResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /wallet/import [post]
func (h *Handler) ImportWallet(w http.ResponseWriter, r *http.Request) {
	var req model.ImportRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	phrase := []byte(common.NormalizePhrase(req.Mnemonic))
	req.Mnemonic = ""

	var pub solanago.PublicKey
	err := vault.New().Hold(vault.KindMnemonic, phrase, func(hd *vault.Handle) error {
		return hd.Use(func(secret []byte) error {
			var derr error
			pub, derr = solana.DerivePublicKey(string(secret))
			return derr
		})
	})
	if err != nil {
		if errors.Is(err, vault.ErrEmptySecret) {
			err = solana.ErrInvalidMnemonic
		}
		h.writeError(w, r, err)
		return
	}
	h.writeKey(w, r, pub)
}

func (h *Handler) writeKey(w http.ResponseWriter, r *http.Request, pub solanago.PublicKey) {
	qr, err := solana.AddressQR(pub.String())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.KeyResponse{PublicKey: pub.String(), QR: qr})
}

// backup seals a session secret and sends it as a file download
func (h *Handler) backup(w http.ResponseWriter, r *http.Request, seal func([]byte) ([]byte, error)) {
	var req model.BackupRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	password := []byte(req.Password)
	req.Password = ""
	defer clear(password)
	if len(password) == 0 {
		h.writeError(w, r, fmt.Errorf("%w: password is required", errBadRequest))
		return
	}

	file, err := seal(password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="wallet-backup.cwt"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(file)
}

func creationResponse(id string, c *custody.Creation) model.CreateSessionResponse {
	resp := model.CreateSessionResponse{SessionID: id, State: string(c.State())}
	if ch, err := c.Challenge(); err == nil {
		resp.Challenge = model.ChallengeFrom(ch)
	}
	if pub := c.PublicKey(); !pub.IsZero() {
		resp.PublicKey = pub.String()
	}
	return resp
}

// readWords renders the phrase for display. The strings are dropped with the response.
func readWords(hd *vault.Handle) ([]string, error) {
	var words []string
	err := hd.Use(func(secret []byte) error {
		words = common.Words(secret)
		return nil
	})
	return words, err
}
