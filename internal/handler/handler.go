package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/self-custody/internal/client"
	"github.com/AlexZinkM/self-custody/internal/custody"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the session handlers
type Options struct {
	Backend        *client.BackendClient // nil: wallets can be created but not attached
	Flow           custody.Options
	SessionTTL     time.Duration
	RevealInterval time.Duration // one reveal attempt per interval per session
	RevealBurst    int
	Logger         *zap.Logger
}

// Handler serves the create-wallet and migration sessions. One session is one
// modal instance: closing it (DELETE or idle eviction) scrubs its secret.
type Handler struct {
	backend        *client.BackendClient
	flow           custody.Options
	revealInterval time.Duration
	revealBurst    int
	log            *zap.Logger

	creations  *store[*custody.Creation]
	migrations *store[*migrationSession]
}

// migrationSession pairs a migration with its reveal limiter
type migrationSession struct {
	*custody.Migration
	limiter *rate.Limiter
}

// New creates a Handler with config values
func New(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = time.Minute
	}
	if opts.RevealBurst <= 0 {
		opts.RevealBurst = 3
	}
	log := opts.Logger.Named("handler")
	opts.Flow.Logger = opts.Logger
	return &Handler{
		backend:        opts.Backend,
		flow:           opts.Flow,
		revealInterval: opts.RevealInterval,
		revealBurst:    opts.RevealBurst,
		log:            log,
		creations:      newStore[*custody.Creation](opts.SessionTTL),
		migrations:     newStore[*migrationSession](opts.SessionTTL),
	}
}

// Register adds the session routes to r
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/wallet/create", h.CreateWallet).Methods(http.MethodPost)
	r.HandleFunc("/wallet/create/{id}", h.GetCreation).Methods(http.MethodGet)
	r.HandleFunc("/wallet/create/{id}", h.CloseCreation).Methods(http.MethodDelete)
	r.HandleFunc("/wallet/create/{id}/phrase", h.GetPhrase).Methods(http.MethodGet)
	r.HandleFunc("/wallet/create/{id}/restart", h.RestartCreation).Methods(http.MethodPost)
	r.HandleFunc("/wallet/create/{id}/confirm", h.ConfirmCreation).Methods(http.MethodPost)
	r.HandleFunc("/wallet/create/{id}/backup", h.BackupCreation).Methods(http.MethodPost)
	r.HandleFunc("/wallet/create/{id}/attach", h.AttachCreation).Methods(http.MethodPost)
	r.HandleFunc("/wallet/import", h.ImportWallet).Methods(http.MethodPost)

	r.HandleFunc("/migration", h.StartMigration).Methods(http.MethodPost)
	r.HandleFunc("/migration/{id}", h.GetMigration).Methods(http.MethodGet)
	r.HandleFunc("/migration/{id}", h.CloseMigration).Methods(http.MethodDelete)
	r.HandleFunc("/migration/{id}/reveal", h.RevealKey).Methods(http.MethodPost)
	r.HandleFunc("/migration/{id}/secret", h.GetSecret).Methods(http.MethodGet)
	r.HandleFunc("/migration/{id}/hide", h.HideSecret).Methods(http.MethodPost)
	r.HandleFunc("/migration/{id}/confirm", h.ConfirmMigration).Methods(http.MethodPost)
	r.HandleFunc("/migration/{id}/backup", h.BackupMigration).Methods(http.MethodPost)
	r.HandleFunc("/migration/{id}/attach", h.AttachMigration).Methods(http.MethodPost)
}

// Janitor closes idle sessions until ctx is done, then closes the rest
func (h *Handler) Janitor(ctx context.Context, every time.Duration) {
	janitor(ctx, every, func(now time.Time) {
		n := h.creations.evict(now) + h.migrations.evict(now)
		if n > 0 {
			h.log.Info("idle sessions closed", zap.Int("count", n))
		}
	})
	h.Close()
}

// Close scrubs every open session
func (h *Handler) Close() {
	h.creations.closeAll()
	h.migrations.closeAll()
}

// backendFor returns the backend acting for the caller. A bearer token on the
// request replaces the configured one so each user reaches their own account.
func (h *Handler) backendFor(r *http.Request) custody.Backend {
	if h.backend == nil {
		return nil
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && strings.TrimSpace(token) != "" {
		return h.backend.WithToken(strings.TrimSpace(token))
	}
	return h.backend
}

func (h *Handler) creation(r *http.Request) (*custody.Creation, error) {
	c, ok := h.creations.get(mux.Vars(r)["id"])
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (h *Handler) migration(r *http.Request) (*migrationSession, error) {
	m, ok := h.migrations.get(mux.Vars(r)["id"])
	if !ok {
		return nil, errNotFound
	}
	return m, nil
}
