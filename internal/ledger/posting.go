package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/insert"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// CheckBalanced verifies lines are non-empty, well formed and that debits
// equal credits exactly.
func CheckBalanced(lines []models.LedgerLine) error {
	if len(lines) == 0 {
		return domainError(ReasonNoLines)
	}
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Amount.IsNegative() {
			return domainError(ReasonNegativeAmount)
		}
		switch l.Direction {
		case models.Debit:
			debits = debits.Add(l.Amount)
		case models.Credit:
			credits = credits.Add(l.Amount)
		default:
			return domainError(ReasonBadDirection)
		}
	}
	if !debits.Equal(credits) {
		return domainErrorf("%s: debits %s, credits %s", ReasonUnbalanced, debits.StringFixed(2), credits.StringFixed(2))
	}
	return nil
}

// AddTransaction posts journal with lines and returns the journal id. The
// balance check and the line account check run before anything is written;
// every line account must belong to the journal's entity. The journal is inserted
// invalid, its lines are inserted one at a time, and the journal is flipped
// valid last. Without atomic posting a failure part way leaves an invalid
// journal behind; balances never count it.
func (e *Engine) AddTransaction(ctx context.Context, journal models.Journal, lines []models.LedgerLine) (uuid.UUID, error) {
	if err := CheckBalanced(lines); err != nil {
		return uuid.Nil, err
	}
	if err := e.checkLineAccounts(ctx, journal.EntityID, lines); err != nil {
		return uuid.Nil, err
	}
	journal.ID = uuid.Nil
	journal.Valid = false
	if journal.Timestamp.IsZero() {
		journal.Timestamp = e.now().UTC()
	}

	if e.tx == nil {
		return e.post(ctx, e.insert, journal, lines)
	}
	var id uuid.UUID
	err := e.tx.WithTx(ctx, func(ctx context.Context, ex db.Executor) error {
		var err error
		id, err = e.post(ctx, e.insert.WithExecutor(ex), journal, lines)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// checkLineAccounts reads the distinct line accounts of entity in one
// statement and rejects any account the read did not return.
func (e *Engine) checkLineAccounts(ctx context.Context, entity uuid.UUID, lines []models.LedgerLine) error {
	pending := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := pending[l.AccountID]; ok {
			continue
		}
		pending[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID.String())
	}
	sort.Strings(ids)

	res, err := e.fetch.FetchWhere(ctx, []query.ColumnRef{models.AccountID}, models.Account{}, query.Where{
		models.AccountEntityID: entity,
		models.AccountID:       query.In(ids),
	})
	if err != nil && !errors.Is(err, fetch.ErrNoRecords) {
		return fmt.Errorf("ledger: load line accounts: %w", err)
	}
	for _, row := range res.Rows {
		id, err := row.UUID(models.AccountID)
		if err != nil {
			return fmt.Errorf("ledger: load line accounts: %w", err)
		}
		delete(pending, id)
	}
	for _, raw := range ids {
		if _, missing := pending[uuid.MustParse(raw)]; missing {
			return domainErrorf("%s: %s", ReasonAccountNotFound, raw)
		}
	}
	return nil
}

func (e *Engine) post(ctx context.Context, ins *insert.Service, journal models.Journal, lines []models.LedgerLine) (uuid.UUID, error) {
	id, err := ins.InsertReturnID(ctx, journal)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ledger: insert journal: %w", err)
	}

	for i, line := range lines {
		line.ID = uuid.Nil
		line.JournalID = id
		if err := ins.Insert(ctx, line); err != nil {
			e.abandoned(ctx, id, i, err)
			return uuid.Nil, fmt.Errorf("ledger: insert line %d of journal %s: %w", i+1, id, err)
		}
	}

	n, err := ins.Update(ctx, models.Journal{}, map[string]any{"valid": true}, query.Where{models.JournalID: id})
	if err != nil {
		e.abandoned(ctx, id, len(lines), err)
		return uuid.Nil, fmt.Errorf("ledger: validate journal %s: %w", id, err)
	}
	if n != 1 {
		return uuid.Nil, fmt.Errorf("%w: validating journal %s touched %d rows", ErrLogic, id, n)
	}

	e.logger.InfoContext(ctx, "journal posted",
		slog.String("journal_id", id.String()),
		slog.String("entity_id", journal.EntityID.String()),
		slog.Int("lines", len(lines)),
	)
	return id, nil
}

func (e *Engine) abandoned(ctx context.Context, id uuid.UUID, written int, err error) {
	if e.tx != nil {
		return
	}
	e.logger.WarnContext(ctx, "journal left invalid",
		slog.String("journal_id", id.String()),
		slog.Int("lines_written", written),
		slog.Any("error", err),
	)
}
