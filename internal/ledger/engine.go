package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/insert"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// TxRunner runs fn inside one store transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, db.Executor) error) error
}

// Balances maps account ids to signed balances. Accounts without postings
// are absent.
type Balances map[uuid.UUID]decimal.Decimal

// Get returns the balance of id, zero when absent.
func (b Balances) Get(id uuid.UUID) decimal.Decimal {
	return b[id]
}

// Engine implements the account hierarchy, balance and posting rules.
type Engine struct {
	fetch   *fetch.Service
	insert  *insert.Service
	tx      TxRunner
	masters map[string]MasterAccount
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithAtomicPosting wraps every AddTransaction in a transaction from tx.
func WithAtomicPosting(tx TxRunner) Option {
	return func(e *Engine) { e.tx = tx }
}

// WithMasterAccounts replaces the master account table.
func WithMasterAccounts(masters map[string]MasterAccount) Option {
	return func(e *Engine) { e.masters = masters }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for journals without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires the engine over the fetch and insert services.
func NewEngine(f *fetch.Service, ins *insert.Service, opts ...Option) *Engine {
	e := &Engine{
		fetch:   f,
		insert:  ins,
		masters: DefaultMasterAccounts,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Masters returns the master account table in use.
func (e *Engine) Masters() map[string]MasterAccount {
	return e.masters
}

func (e *Engine) masterName(key string) (string, error) {
	m, ok := e.masters[key]
	if !ok {
		return "", domainError(ReasonInvalidMasterKey)
	}
	return m.Name, nil
}

// loadChart reads the entity's whole account list once, in name order.
func (e *Engine) loadChart(ctx context.Context, entity uuid.UUID) (*chart, error) {
	res, err := e.fetch.FetchWhere(ctx,
		[]query.ColumnRef{models.AccountID, models.AccountName, models.AccountParentID},
		models.Account{},
		query.Where{models.AccountEntityID: entity},
		fetch.WithOrderBy(query.Asc(models.AccountName)),
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return nil, domainError(ReasonNoEntityAccounts)
	}
	if err != nil {
		return nil, err
	}
	entries := make([]chartEntry, 0, res.Len())
	for _, row := range res.Rows {
		id, err := row.UUID(models.AccountID)
		if err != nil {
			return nil, err
		}
		name, err := row.String(models.AccountName)
		if err != nil {
			return nil, err
		}
		parent, err := row.NullUUID(models.AccountParentID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, chartEntry{ID: id, Name: name, ParentID: parent})
	}
	return newChart(entries), nil
}

// TreeFromAccount renders the hierarchy rooted at account.
func (e *Engine) TreeFromAccount(ctx context.Context, account, entity uuid.UUID) (*Node, error) {
	c, err := e.loadChart(ctx, entity)
	if err != nil {
		return nil, err
	}
	root, ok := c.find(account)
	if !ok {
		return nil, domainError(ReasonTreeRootNotFound)
	}
	return c.tree(root)
}

// MasterAccountID resolves a master category key to the entity's account id.
func (e *Engine) MasterAccountID(ctx context.Context, key string, entity uuid.UUID) (uuid.UUID, error) {
	name, err := e.masterName(key)
	if err != nil {
		return uuid.Nil, err
	}
	res, err := e.fetch.FetchWhere(ctx,
		[]query.ColumnRef{models.AccountID},
		models.Account{},
		query.Where{models.AccountName: name, models.AccountEntityID: entity},
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return uuid.Nil, domainError(ReasonMasterNotFound)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return res.First().UUID(models.AccountID)
}

// TreeFromMaster renders the hierarchy below the entity's master account for
// key.
func (e *Engine) TreeFromMaster(ctx context.Context, key string, entity uuid.UUID) (*Node, error) {
	id, err := e.MasterAccountID(ctx, key, entity)
	if err != nil {
		return nil, err
	}
	return e.TreeFromAccount(ctx, id, entity)
}

// ListFromMaster flattens the hierarchy below the entity's master account for
// key. With onlyLeaves set, accounts that have children are left out.
func (e *Engine) ListFromMaster(ctx context.Context, key string, entity uuid.UUID, onlyLeaves bool) ([]Item, error) {
	name, err := e.masterName(key)
	if err != nil {
		return nil, err
	}
	c, err := e.loadChart(ctx, entity)
	if err != nil {
		return nil, err
	}
	root, ok := c.findName(name)
	if !ok {
		return nil, domainError(ReasonTreeRootNotFound)
	}
	return c.list(root, onlyLeaves)
}

// ListFromEntity lists every account of the entity in name order.
func (e *Engine) ListFromEntity(ctx context.Context, entity uuid.UUID) ([]Item, error) {
	return e.listWhere(ctx, entity, query.Where{models.AccountEntityID: entity})
}

// ListFromEntityAndType lists the entity's accounts of type t in name order.
func (e *Engine) ListFromEntityAndType(ctx context.Context, entity uuid.UUID, t models.AccountType) ([]Item, error) {
	if !t.Valid() {
		return nil, domainError(ReasonUnknownAccountType)
	}
	return e.listWhere(ctx, entity, query.Where{models.AccountEntityID: entity, models.AccountTypeCol: t})
}

func (e *Engine) listWhere(ctx context.Context, entity uuid.UUID, where query.Where) ([]Item, error) {
	res, err := e.fetch.FetchWhere(ctx,
		[]query.ColumnRef{models.AccountID, models.AccountName},
		models.Account{},
		where,
		fetch.WithOrderBy(query.Asc(models.AccountName)),
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return nil, domainErrorf("No accounts found matching entity id %s", entity)
	}
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, res.Len())
	for _, row := range res.Rows {
		id, err := row.UUID(models.AccountID)
		if err != nil {
			return nil, err
		}
		name, err := row.String(models.AccountName)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{Name: name, ID: id})
	}
	return items, nil
}

var sumAmount = query.Agg(query.SUM, models.LedgerAmount)

// AllAccountAmounts returns the signed balance of every account of the
// entity that has postings in a valid journal.
func (e *Engine) AllAccountAmounts(ctx context.Context, entity uuid.UUID) (Balances, error) {
	res, err := e.fetch.FetchJoinWhere(ctx,
		[]query.ColumnRef{models.AccountID, models.AccountTypeCol, models.LedgerDirection, sumAmount},
		models.LedgerLine{},
		[]query.Join{
			query.InnerJoin(models.Account{}, models.AccountID, models.LedgerAccountID),
			query.InnerJoin(models.Journal{}, models.JournalID, models.LedgerJournalID),
		},
		query.Where{models.AccountEntityID: entity, models.JournalValid: true},
		fetch.WithGroupBy(models.AccountID, models.AccountTypeCol, models.LedgerDirection),
		fetch.WithOrderBy(query.Asc(models.AccountID), query.Asc(models.LedgerDirection)),
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return Balances{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make(Balances)
	for _, row := range res.Rows {
		id, err := row.UUID(models.AccountID)
		if err != nil {
			return nil, err
		}
		typ, err := row.String(models.AccountTypeCol)
		if err != nil {
			return nil, err
		}
		dir, err := row.String(models.LedgerDirection)
		if err != nil {
			return nil, err
		}
		sum, err := row.Decimal(sumAmount)
		if err != nil {
			return nil, err
		}
		sign, err := SignScalar(models.AccountType(typ), models.Direction(dir))
		if err != nil {
			return nil, err
		}
		out[id] = out[id].Add(sum.Mul(decimal.NewFromInt(int64(sign))))
	}
	return out, nil
}
