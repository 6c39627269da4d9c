package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
	"github.com/odyssey-erp/odyssey-ledger/internal/rbac"
)

func mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrDomain):
		return httpx.Wrap(httpx.ErrUnprocessable, ledger.Reason(err))
	case errors.Is(err, query.ErrValidation):
		return httpx.Wrap(httpx.ErrValidation, err.Error())
	case errors.Is(err, db.ErrConflict):
		return httpx.Wrap(httpx.ErrDuplicate, "record already exists")
	case errors.Is(err, db.ErrForeignKey):
		return httpx.Wrap(httpx.ErrValidation, "referenced record does not exist")
	case errors.Is(err, fetch.ErrNoRecords):
		return httpx.Wrap(httpx.ErrNotFound, "no matching records")
	}
	return err
}

func badRequest(format string, args ...any) error {
	return httpx.Wrap(httpx.ErrValidation, fmt.Sprintf(format, args...))
}

func entityParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("entity_id"))
	if raw == "" {
		return uuid.Nil, badRequest("entity_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("entity_id %q is not a valid id", raw)
	}
	return id, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("%s must be true or false", name)
	}
	return v, nil
}

func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, badRequest("%s must be RFC3339 or YYYY-MM-DD", name)
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	user, err := rbac.RequireUser(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entities, err := h.auth.Entities(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entities)
}

// masterAccounts renders the hierarchy below a master account. With
// flat=true the hierarchy is listed in pre-order instead.
func (h *Handler) masterAccounts(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.authorize(r, entity); err != nil {
		h.fail(w, r, err)
		return
	}
	key := strings.TrimSpace(r.URL.Query().Get("type"))
	if key == "" {
		h.fail(w, r, badRequest("type is required"))
		return
	}
	flat, err := boolParam(r, "flat")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	leaves, err := boolParam(r, "leaves_only")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if flat || leaves {
		items, err := h.ledger.ListFromMaster(r.Context(), key, entity, leaves)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, items)
		return
	}
	tree, err := h.ledger.TreeFromMaster(r.Context(), key, entity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) accountAmounts(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.authorize(r, entity); err != nil {
		h.fail(w, r, err)
		return
	}
	balances, err := h.balances.AllAccountAmounts(r.Context(), entity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balances)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.authorize(r, entity); err != nil {
		h.fail(w, r, err)
		return
	}
	var items []ledger.Item
	if typ := strings.TrimSpace(r.URL.Query().Get("type")); typ != "" {
		items, err = h.ledger.ListFromEntityAndType(r.Context(), entity, models.AccountType(strings.ToUpper(typ)))
	} else {
		items, err = h.ledger.ListFromEntity(r.Context(), entity)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) listJournal(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.authorize(r, entity); err != nil {
		h.fail(w, r, err)
		return
	}
	filter := ledger.JournalFilter{Entity: entity, AccountName: strings.TrimSpace(r.URL.Query().Get("account"))}
	if raw := r.URL.Query().Get("max_rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(w, r, badRequest("max_rows must be a positive integer"))
			return
		}
		filter.MaxRows = n
	}
	if filter.Start, err = timeParam(r, "start"); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.Stop, err = timeParam(r, "stop"); err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := h.ledger.JournalEntries(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

type postLineRequest struct {
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction" validate:"required,oneof=DEBIT CREDIT"`
}

type postJournalRequest struct {
	EntityID    uuid.UUID         `json:"entity_id" validate:"required"`
	Timestamp   *time.Time        `json:"timestamp"`
	Description string            `json:"description" validate:"required,max=500"`
	Vendor      *string           `json:"vendor" validate:"omitempty,max=200"`
	Lines       []postLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// Headers used for idempotent journal posts.
const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
)

type postJournalResponse struct {
	ID uuid.UUID `json:"id"`
}

func (h *Handler) postJournal(w http.ResponseWriter, r *http.Request) {
	var req postJournalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.fail(w, r, validationError(err))
		return
	}
	user, err := h.authorize(r, req.EntityID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	journal := models.Journal{
		EntityID:    req.EntityID,
		CreatedBy:   user,
		Description: req.Description,
		Vendor:      req.Vendor,
	}
	if req.Timestamp != nil {
		journal.Timestamp = req.Timestamp.UTC()
	}
	lines := make([]models.LedgerLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = models.LedgerLine{AccountID: l.AccountID, Amount: l.Amount, Direction: models.Direction(l.Direction)}
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	scope := user.String() + ":" + req.EntityID.String()
	if key != "" && h.idempotency != nil {
		prev, claimed, err := h.idempotency.Claim(r.Context(), scope, key)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !claimed {
			id, err := uuid.Parse(prev)
			if err != nil {
				h.fail(w, r, fmt.Errorf("idempotency: stored result %q: %w", prev, err))
				return
			}
			w.Header().Set(IdempotentReplayedHeader, "true")
			httpx.JSON(w, http.StatusOK, postJournalResponse{ID: id})
			return
		}
	}

	id, err := h.ledger.AddTransaction(r.Context(), journal, lines)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if rerr := h.idempotency.Release(r.Context(), scope, key); rerr != nil {
				h.logger.WarnContext(r.Context(), "idempotency release failed", slog.Any("error", rerr))
			}
		}
		h.fail(w, r, err)
		return
	}
	if key != "" && h.idempotency != nil {
		if cerr := h.idempotency.Complete(r.Context(), scope, key, id.String()); cerr != nil {
			h.logger.WarnContext(r.Context(), "idempotency completion failed", slog.Any("error", cerr))
		}
	}
	if err := h.balances.Invalidate(r.Context(), req.EntityID); err != nil {
		h.logger.WarnContext(r.Context(), "balance cache invalidation failed",
			slog.String("entity_id", req.EntityID.String()),
			slog.Any("error", err),
		)
	}
	httpx.JSON(w, http.StatusCreated, postJournalResponse{ID: id})
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return badRequest("%v", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return badRequest("%s", strings.Join(parts, "; "))
}
