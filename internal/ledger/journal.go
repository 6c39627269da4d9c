package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// DefaultJournalRows caps a journal listing when the caller sets no limit.
const DefaultJournalRows = 10000

// JournalFilter selects journal lines for listing. Zero values are ignored.
type JournalFilter struct {
	Entity      uuid.UUID
	MaxRows     int
	Start       *time.Time
	Stop        *time.Time
	AccountName string
}

// LineSummary is one leg of a listed journal.
type LineSummary struct {
	Amount  decimal.Decimal `json:"amount"`
	Account string          `json:"account"`
}

// JournalEntry is one listed journal with its legs split by direction.
type JournalEntry struct {
	ID          uuid.UUID     `json:"id"`
	Date        time.Time     `json:"date"`
	User        string        `json:"user"`
	Vendor      *string       `json:"vendor"`
	Description string        `json:"description"`
	Credits     []LineSummary `json:"credits"`
	Debits      []LineSummary `json:"debits"`
}

var journalColumns = []query.ColumnRef{
	models.JournalID,
	models.JournalDescription,
	models.JournalVendor,
	models.JournalTimestamp,
	models.PersonFirstName,
	models.PersonLastName,
	models.LedgerAmount,
	models.LedgerDirection,
	models.AccountName,
}

var journalJoins = []query.Join{
	query.InnerJoin(models.LedgerLine{}, models.LedgerJournalID, models.JournalID),
	query.InnerJoin(models.Account{}, models.LedgerAccountID, models.AccountID),
	query.InnerJoin(models.Person{}, models.JournalCreatedBy, models.PersonID),
}

func (f JournalFilter) where() (query.Where, error) {
	where := query.Where{models.JournalEntityID: f.Entity, models.JournalValid: true}
	switch {
	case f.Start != nil && f.Stop != nil:
		if f.Start.After(*f.Stop) {
			return nil, domainError(ReasonBadWindow)
		}
		where[models.JournalTimestamp] = query.Between(*f.Start, *f.Stop)
	case f.Start != nil:
		where[models.JournalTimestamp] = query.Gt(*f.Start)
	case f.Stop != nil:
		where[models.JournalTimestamp] = query.Lt(*f.Stop)
	}
	if f.AccountName != "" {
		where[models.AccountName] = f.AccountName
	}
	return where, nil
}

// JournalEntries lists the entity's valid journals, newest first, with their
// legs grouped into debits and credits.
func (e *Engine) JournalEntries(ctx context.Context, f JournalFilter) ([]JournalEntry, error) {
	limit := f.MaxRows
	if limit <= 0 {
		limit = DefaultJournalRows
	}
	where, err := f.where()
	if err != nil {
		return nil, err
	}

	res, err := e.fetch.FetchJoinWhere(ctx, journalColumns, models.Journal{}, journalJoins, where,
		fetch.WithOrderBy(query.Desc(models.JournalTimestamp)),
		fetch.WithLimit(limit),
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return nil, domainError(ReasonNoJournalEntries)
	}
	if err != nil {
		return nil, err
	}
	if res.Len() == limit {
		e.logger.WarnContext(ctx, "journal listing hit the row limit",
			slog.String("entity_id", f.Entity.String()),
			slog.Int("limit", limit),
		)
	}

	var order []uuid.UUID
	byID := make(map[uuid.UUID]*JournalEntry)
	for _, row := range res.Rows {
		id, err := row.UUID(models.JournalID)
		if err != nil {
			return nil, err
		}
		entry, ok := byID[id]
		if !ok {
			if entry, err = newJournalEntry(id, row); err != nil {
				return nil, err
			}
			byID[id] = entry
			order = append(order, id)
		}

		amount, err := row.Decimal(models.LedgerAmount)
		if err != nil {
			return nil, err
		}
		account, err := row.String(models.AccountName)
		if err != nil {
			return nil, err
		}
		dir, err := row.String(models.LedgerDirection)
		if err != nil {
			return nil, err
		}
		line := LineSummary{Amount: amount, Account: account}
		if models.Direction(dir) == models.Credit {
			entry.Credits = append(entry.Credits, line)
		} else {
			entry.Debits = append(entry.Debits, line)
		}
	}

	out := make([]JournalEntry, len(order))
	for i, id := range order {
		out[i] = *byID[id]
	}
	return out, nil
}

func newJournalEntry(id uuid.UUID, row fetch.Row) (*JournalEntry, error) {
	ts, err := row.Time(models.JournalTimestamp)
	if err != nil {
		return nil, err
	}
	first, err := row.String(models.PersonFirstName)
	if err != nil {
		return nil, err
	}
	last, err := row.String(models.PersonLastName)
	if err != nil {
		return nil, err
	}
	desc, err := row.String(models.JournalDescription)
	if err != nil {
		return nil, err
	}
	entry := &JournalEntry{
		ID:          id,
		Date:        ts,
		User:        first + " " + last,
		Description: desc,
		Credits:     []LineSummary{},
		Debits:      []LineSummary{},
	}
	if row.Has(models.JournalVendor) {
		vendor, err := row.String(models.JournalVendor)
		if err != nil {
			return nil, err
		}
		entry.Vendor = &vendor
	}
	return entry, nil
}

var countJournals = query.Agg(query.COUNT, models.JournalID)

// OrphanedJournals counts the entity's journals that are still invalid and
// older than cutoff. These are posts that never completed.
func (e *Engine) OrphanedJournals(ctx context.Context, entity uuid.UUID, cutoff time.Time) (int64, error) {
	res, err := e.fetch.FetchWhere(ctx,
		[]query.ColumnRef{countJournals},
		models.Journal{},
		query.Where{
			models.JournalEntityID:  entity,
			models.JournalValid:     false,
			models.JournalTimestamp: query.Lt(cutoff),
		},
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return res.First().Int64(countJournals)
}

// Entities lists every entity in name order.
func (e *Engine) Entities(ctx context.Context) ([]models.Entity, error) {
	out, err := fetch.FetchRecords[models.Entity](ctx, e.fetch, nil, fetch.WithOrderBy(query.Asc(models.EntityName)))
	if errors.Is(err, fetch.ErrNoRecords) {
		return nil, nil
	}
	return out, err
}

// EntitiesByID reads the entities named by ids concurrently, in ids order. An
// unknown id is a domain error.
func (e *Engine) EntitiesByID(ctx context.Context, ids []uuid.UUID) ([]models.Entity, error) {
	out, err := fetch.FetchRecordsByIDs[models.Entity](ctx, e.fetch, ids)
	if errors.Is(err, fetch.ErrNoRecords) {
		return nil, domainErrorf("%s: %v", ReasonEntityNotFound, ids)
	}
	return out, err
}
