package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/rbac"
)

// Ledger is the slice of the engine the routes use.
type Ledger interface {
	TreeFromMaster(ctx context.Context, key string, entity uuid.UUID) (*ledger.Node, error)
	ListFromMaster(ctx context.Context, key string, entity uuid.UUID, onlyLeaves bool) ([]ledger.Item, error)
	ListFromEntity(ctx context.Context, entity uuid.UUID) ([]ledger.Item, error)
	ListFromEntityAndType(ctx context.Context, entity uuid.UUID, t models.AccountType) ([]ledger.Item, error)
	JournalEntries(ctx context.Context, f ledger.JournalFilter) ([]ledger.JournalEntry, error)
	AddTransaction(ctx context.Context, journal models.Journal, lines []models.LedgerLine) (uuid.UUID, error)
}

// Balances serves account balances, usually through the balance cache.
type Balances interface {
	AllAccountAmounts(ctx context.Context, entity uuid.UUID) (ledger.Balances, error)
	Invalidate(ctx context.Context, entity uuid.UUID) error
}

// Authorizer decides whether a user may act on an entity.
type Authorizer interface {
	Authorize(ctx context.Context, user, entity uuid.UUID) error
	Entities(ctx context.Context, user uuid.UUID) ([]models.Entity, error)
}

// Idempotency remembers journal posts by client supplied key.
type Idempotency interface {
	Claim(ctx context.Context, scope, key string) (result string, claimed bool, err error)
	Complete(ctx context.Context, scope, key, result string) error
	Release(ctx context.Context, scope, key string) error
}

// Handler wires the ledger JSON endpoints.
type Handler struct {
	logger      *slog.Logger
	ledger      Ledger
	balances    Balances
	auth        Authorizer
	idempotency Idempotency
	validator   *validator.Validate
	postLimit   func(http.Handler) http.Handler
}

// NewHandler constructs the ledger handler. postsPerMinute bounds journal
// posts per user; zero disables the bound.
func NewHandler(logger *slog.Logger, l Ledger, balances Balances, auth Authorizer, postsPerMinute int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		ledger:    l,
		balances:  balances,
		auth:      auth,
		validator: validator.New(),
		postLimit: func(next http.Handler) http.Handler { return next },
	}
	if postsPerMinute > 0 {
		h.postLimit = httprate.Limit(postsPerMinute, time.Minute, httprate.WithKeyFuncs(postKey))
	}
	return h
}

// WithIdempotency enables replay of journal posts carrying an
// Idempotency-Key header.
func (h *Handler) WithIdempotency(i Idempotency) *Handler {
	h.idempotency = i
	return h
}

func postKey(r *http.Request) (string, error) {
	if user, ok := rbac.UserFromContext(r.Context()); ok {
		return "user:" + user.String(), nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr, nil
	}
	return "ip:" + host, nil
}

// MountRoutes registers the ledger routes. Every route needs an identity.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/entities", h.listEntities)
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/master", h.masterAccounts)
		r.Get("/amounts", h.accountAmounts)
		r.Get("/list", h.listAccounts)
	})
	r.Route("/journal", func(r chi.Router) {
		r.Get("/", h.listJournal)
		r.With(h.postLimit).Post("/", h.postJournal)
	})
}

// authorize resolves the acting user and checks them against entity.
func (h *Handler) authorize(r *http.Request, entity uuid.UUID) (uuid.UUID, error) {
	user, err := rbac.RequireUser(r.Context())
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.auth.Authorize(r.Context(), user, entity); err != nil {
		return uuid.Nil, err
	}
	return user, nil
}

// fail logs server faults and writes the mapped problem response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	mapped := mapError(err)
	if status, _ := httpx.StatusOf(mapped); status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "ledger request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	} else if errors.Is(err, rbac.ErrForbidden) {
		h.logger.WarnContext(r.Context(), "ledger request forbidden", slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, mapped)
}
