package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/insert"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

const (
	chartSQL = `SELECT "account"."id" AS "account.id", "account"."name" AS "account.name", ` +
		`"account"."parent_account_id" AS "account.parent_account_id" FROM "account" ` +
		`WHERE "account"."entity_id" = $1 ORDER BY "account"."name" ASC`
	masterSQL   = `SELECT "account"."id" AS "account.id" FROM "account" WHERE "account"."entity_id" = $1 AND "account"."name" = $2`
	balancesSQL = `SELECT "account"."id" AS "account.id", "account"."type" AS "account.type", ` +
		`"ledger"."direction" AS "ledger.direction", SUM("ledger"."amount") AS "SUM.ledger.amount" ` +
		`FROM "ledger" INNER JOIN "account" ON "account"."id" = "ledger"."account_id" ` +
		`INNER JOIN "journal" ON "journal"."id" = "ledger"."journal_id" ` +
		`WHERE "account"."entity_id" = $1 AND "journal"."valid" = $2 ` +
		`GROUP BY "account"."id", "account"."type", "ledger"."direction" ` +
		`ORDER BY "account"."id" ASC, "ledger"."direction" ASC`
	insertJournalSQL = `INSERT INTO "journal" ("entity_id", "created_by", "timestamp", "description", "valid") ` +
		`VALUES ($1, $2, $3, $4, $5) RETURNING "id"`
	insertLineSQL   = `INSERT INTO "ledger" ("journal_id", "account_id", "amount", "direction") VALUES ($1, $2, $3, $4)`
	validateSQL     = `UPDATE "journal" SET "valid" = $1 WHERE "journal"."id" = $2`
	lineAccountsSQL = `SELECT "account"."id" AS "account.id" FROM "account" ` +
		`WHERE "account"."entity_id" = $1 AND "account"."id" = ANY($2)`
	chartColumns    = "account.id,account.name,account.parent_account_id"
	balanceColumns  = "account.id,account.type,ledger.direction,SUM.ledger.amount"
	testDescription = "Initial investment"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type harness struct {
	engine *Engine
	mock   sqlmock.Sqlmock
	pool   *sqlx.DB
}

func newHarness(t *testing.T, atomic bool) *harness {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	pool := sqlx.NewDb(raw, "pgx")

	opts := []Option{WithClock(func() time.Time { return fixedNow })}
	if atomic {
		opts = append(opts, WithAtomicPosting(db.NewStore(pool, nil)))
	}
	engine := NewEngine(fetch.NewService(pool, nil), insert.NewService(pool, nil), opts...)
	return &harness{engine: engine, mock: mock, pool: pool}
}

func chartRows(entries ...chartEntry) *sqlmock.Rows {
	rows := sqlmock.NewRows(strings.Split(chartColumns, ","))
	for _, e := range entries {
		var parent any
		if e.ParentID != nil {
			parent = e.ParentID.String()
		}
		rows.AddRow(e.ID.String(), e.Name, parent)
	}
	return rows
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestSignScalar(t *testing.T) {
	cases := []struct {
		typ  models.AccountType
		dir  models.Direction
		want int
	}{
		{models.AccountAsset, models.Debit, 1},
		{models.AccountAsset, models.Credit, -1},
		{models.AccountLiability, models.Credit, 1},
		{models.AccountLiability, models.Debit, -1},
		{models.AccountExpense, models.Debit, 1},
		{models.AccountIncome, models.Credit, 1},
		{models.AccountIncome, models.Debit, -1},
		{models.AccountEquity, models.Credit, 1},
		{models.AccountDividend, models.Debit, 1},
		{models.AccountDividend, models.Credit, -1},
		{models.AccountIncomeSummary, models.Credit, 1},
	}
	for _, tc := range cases {
		got, err := SignScalar(tc.typ, tc.dir)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%s %s", tc.typ, tc.dir)
	}

	_, err := SignScalar("REVENUE", models.Debit)
	require.ErrorIs(t, err, ErrLogic)
	_, err = SignScalar(models.AccountAsset, "SIDEWAYS")
	require.ErrorIs(t, err, ErrLogic)
}

func TestTreeFromAccountBuildsNameOrderedHierarchy(t *testing.T) {
	h := newHarness(t, false)
	entity := uuid.New()
	assets, bank, cash, checking, equity := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	h.mock.ExpectQuery(chartSQL).WithArgs(entity).WillReturnRows(chartRows(
		chartEntry{ID: bank, Name: "Bank", ParentID: ptr(assets)},
		chartEntry{ID: cash, Name: "Cash", ParentID: ptr(assets)},
		chartEntry{ID: equity, Name: "Equity (Master)"},
		chartEntry{ID: assets, Name: "Short Term Assets (Master)"},
		chartEntry{ID: checking, Name: "WF Checking", ParentID: ptr(bank)},
	))

	tree, err := h.engine.TreeFromAccount(context.Background(), assets, entity)
	require.NoError(t, err)
	require.Equal(t, "Short Term Assets (Master)", tree.Name)
	require.Len(t, tree.Children, 2)
	require.Equal(t, "Bank", tree.Children[0].Name)
	require.Equal(t, "Cash", tree.Children[1].Name)
	require.Equal(t, checking, tree.Children[0].Children[0].ID)
	require.Empty(t, tree.Children[1].Children)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestTreeRoundTripReproducesEdges(t *testing.T) {
	root := uuid.New()
	entries := []chartEntry{{ID: root, Name: "A"}}
	parents := map[uuid.UUID]uuid.UUID{}
	// three levels, fan-out of three
	frontier := []uuid.UUID{root}
	for depth := 0; depth < 3; depth++ {
		var next []uuid.UUID
		for _, p := range frontier {
			for k := 0; k < 3; k++ {
				id := uuid.New()
				entries = append(entries, chartEntry{ID: id, Name: id.String(), ParentID: ptr(p)})
				parents[id] = p
				next = append(next, id)
			}
		}
		frontier = next
	}
	unrelated := uuid.New()
	entries = append(entries, chartEntry{ID: unrelated, Name: "Z"})

	c := newChart(entries)
	idx, ok := c.find(root)
	require.True(t, ok)
	tree, err := c.tree(idx)
	require.NoError(t, err)

	got := map[uuid.UUID]uuid.UUID{}
	stack := []*Node{tree}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range n.Children {
			got[child.ID] = n.ID
			stack = append(stack, child)
		}
	}
	require.Equal(t, parents, got)
	require.Len(t, tree.Flatten(), len(entries)-1)
}

func TestChartDetectsCycles(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c := newChart([]chartEntry{
		{ID: a, Name: "A", ParentID: ptr(b)},
		{ID: b, Name: "B", ParentID: ptr(a)},
	})
	_, err := c.tree(0)
	require.ErrorIs(t, err, ErrLogic)
	_, err = c.list(0, false)
	require.ErrorIs(t, err, ErrLogic)
}

func TestTreeFromAccountErrors(t *testing.T) {
	h := newHarness(t, false)
	entity := uuid.New()

	h.mock.ExpectQuery(chartSQL).WithArgs(entity).WillReturnRows(sqlmock.NewRows([]string{"account.id"}))
	_, err := h.engine.TreeFromAccount(context.Background(), uuid.New(), entity)
	require.ErrorIs(t, err, ErrDomain)
	require.Equal(t, ReasonNoEntityAccounts, Reason(err))

	h.mock.ExpectQuery(chartSQL).WithArgs(entity).WillReturnRows(chartRows(chartEntry{ID: uuid.New(), Name: "Cash"}))
	_, err = h.engine.TreeFromAccount(context.Background(), uuid.New(), entity)
	require.Equal(t, ReasonTreeRootNotFound, Reason(err))
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestTreeFromMasterMissingAccount(t *testing.T) {
	h := newHarness(t, false)
	entity := uuid.New()
	h.mock.ExpectQuery(masterSQL).
		WithArgs(entity, "Long Term Assets (Master)").
		WillReturnRows(sqlmock.NewRows([]string{"account.id"}))

	_, err := h.engine.TreeFromMaster(context.Background(), "ASSET_LONG", entity)
	require.ErrorIs(t, err, ErrDomain)
	require.Equal(t, "Couldn't find master account", err.Error())
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestTreeFromMasterUnknownKey(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.engine.TreeFromMaster(context.Background(), "ASSET_MEDIUM", uuid.New())
	require.Equal(t, ReasonInvalidMasterKey, Reason(err))
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestTreeFromMasterResolvesAndDelegates(t *testing.T) {
	h := newHarness(t, false)
	entity, master, child := uuid.New(), uuid.New(), uuid.New()
	h.mock.ExpectQuery(masterSQL).
		WithArgs(entity, "Equity (Master)").
		WillReturnRows(sqlmock.NewRows([]string{"account.id"}).AddRow(master.String()))
	h.mock.ExpectQuery(chartSQL).WithArgs(entity).WillReturnRows(chartRows(
		chartEntry{ID: master, Name: "Equity (Master)"},
		chartEntry{ID: child, Name: "Tegan & Adriane", ParentID: ptr(master)},
	))

	tree, err := h.engine.TreeFromMaster(context.Background(), "EQUITY", entity)
	require.NoError(t, err)
	require.Equal(t, master, tree.ID)
	require.Equal(t, []Item{{Name: "Equity (Master)", ID: master}, {Name: "Tegan & Adriane", ID: child}}, tree.Flatten())
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestListFromMaster(t *testing.T) {
	entity := uuid.New()
	master, bank, checking, cash := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	rows := func() *sqlmock.Rows {
		return chartRows(
			chartEntry{ID: bank, Name: "Bank", ParentID: ptr(master)},
			chartEntry{ID: cash, Name: "Cash", ParentID: ptr(master)},
			chartEntry{ID: master, Name: "Short Term Assets (Master)"},
			chartEntry{ID: checking, Name: "WF Checking", ParentID: ptr(bank)},
		)
	}

	h := newHarness(t, false)
	h.mock.ExpectQuery(chartSQL).WithArgs(entity).WillReturnRows(rows())
	all, err := h.engine.ListFromMaster(context.Background(), "ASSET_SHORT", entity, false)
	require.NoError(t, err)
	require.Equal(t, []Item{
		{Name: "Short Term Assets (Master)", ID: master},
		{Name: "Bank", ID: bank},
		{Name: "WF Checking", ID: checking},
		{Name: "Cash", ID: cash},
	}, all)

	h.mock.ExpectQuery(chartSQL).WithArgs(entity).WillReturnRows(rows())
	leaves, err := h.engine.ListFromMaster(context.Background(), "ASSET_SHORT", entity, true)
	require.NoError(t, err)
	require.Equal(t, []Item{{Name: "WF Checking", ID: checking}, {Name: "Cash", ID: cash}}, leaves)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestListFromEntityAndType(t *testing.T) {
	h := newHarness(t, false)
	entity, id := uuid.New(), uuid.New()
	h.mock.ExpectQuery(`SELECT "account"."id" AS "account.id", "account"."name" AS "account.name" FROM "account" `+
		`WHERE "account"."entity_id" = $1 AND "account"."type" = $2 ORDER BY "account"."name" ASC`).
		WithArgs(entity, "EQUITY").
		WillReturnRows(sqlmock.NewRows([]string{"account.id", "account.name"}).AddRow(id.String(), "Equity (Master)"))

	items, err := h.engine.ListFromEntityAndType(context.Background(), entity, models.AccountEquity)
	require.NoError(t, err)
	require.Equal(t, []Item{{Name: "Equity (Master)", ID: id}}, items)

	_, err = h.engine.ListFromEntityAndType(context.Background(), entity, "REVENUE")
	require.Equal(t, ReasonUnknownAccountType, Reason(err))
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAllAccountAmountsAppliesSigns(t *testing.T) {
	h := newHarness(t, false)
	entity, cash, equity, expense := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	h.mock.ExpectQuery(balancesSQL).WithArgs(entity, true).WillReturnRows(
		sqlmock.NewRows([]string{"account.id", "account.type", "ledger.direction", "SUM.ledger.amount"}).
			AddRow(cash.String(), "ASSET", "CREDIT", "5100.00").
			AddRow(cash.String(), "ASSET", "DEBIT", "150000.00").
			AddRow(equity.String(), "EQUITY", "CREDIT", "150000.00").
			AddRow(expense.String(), "EXPENSE", "DEBIT", "5100.00"))

	balances, err := h.engine.AllAccountAmounts(context.Background(), entity)
	require.NoError(t, err)
	require.Len(t, balances, 3)
	require.Equal(t, "144900", balances[cash].String())
	require.Equal(t, "150000", balances[equity].String())
	require.Equal(t, "5100", balances[expense].String())
	require.True(t, balances.Get(uuid.New()).IsZero())
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAllAccountAmountsWithoutPostings(t *testing.T) {
	h := newHarness(t, false)
	entity := uuid.New()
	h.mock.ExpectQuery(balancesSQL).WithArgs(entity, true).WillReturnRows(sqlmock.NewRows([]string{"account.id"}))

	balances, err := h.engine.AllAccountAmounts(context.Background(), entity)
	require.NoError(t, err)
	require.Empty(t, balances)
}

func TestCheckBalanced(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	require.NoError(t, CheckBalanced([]models.LedgerLine{
		{AccountID: a, Direction: models.Debit, Amount: decimal.RequireFromString("100000")},
		{AccountID: b, Direction: models.Credit, Amount: decimal.RequireFromString("100000.00")},
	}))
	require.NoError(t, CheckBalanced([]models.LedgerLine{
		{AccountID: a, Direction: models.Debit, Amount: decimal.RequireFromString("0.10")},
		{AccountID: a, Direction: models.Debit, Amount: decimal.RequireFromString("0.20")},
		{AccountID: b, Direction: models.Credit, Amount: decimal.RequireFromString("0.30")},
	}))

	err := CheckBalanced([]models.LedgerLine{
		{AccountID: a, Direction: models.Debit, Amount: decimal.NewFromInt(100)},
		{AccountID: b, Direction: models.Credit, Amount: decimal.NewFromInt(99)},
	})
	require.ErrorIs(t, err, ErrDomain)
	require.Contains(t, err.Error(), ReasonUnbalanced)

	require.Equal(t, ReasonNoLines, Reason(CheckBalanced(nil)))
	require.Equal(t, ReasonNegativeAmount, Reason(CheckBalanced([]models.LedgerLine{
		{Direction: models.Debit, Amount: decimal.NewFromInt(-5)},
		{Direction: models.Credit, Amount: decimal.NewFromInt(-5)},
	})))
	require.Equal(t, ReasonBadDirection, Reason(CheckBalanced([]models.LedgerLine{{Direction: "UP"}})))
}

// postedLine is what the store would hold after a successful post.
type postedLine struct {
	account   uuid.UUID
	typ       models.AccountType
	direction models.Direction
	amount    decimal.Decimal
}

// balanceRows aggregates posted lines the way the grouped read does.
func balanceRows(lines []postedLine) *sqlmock.Rows {
	type key struct {
		account uuid.UUID
		dir     models.Direction
	}
	sums := map[key]decimal.Decimal{}
	types := map[uuid.UUID]models.AccountType{}
	var order []key
	for _, l := range lines {
		k := key{l.account, l.direction}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] = sums[k].Add(l.amount)
		types[l.account] = l.typ
	}
	rows := sqlmock.NewRows(strings.Split(balanceColumns, ","))
	for _, k := range order {
		rows.AddRow(k.account.String(), string(types[k.account]), string(k.dir), sums[k].StringFixed(2))
	}
	return rows
}

// expectLineAccounts expects the ownership read for lines and answers with
// owned.
func expectLineAccounts(mock sqlmock.Sqlmock, entity uuid.UUID, lines []models.LedgerLine, owned ...uuid.UUID) {
	seen := map[uuid.UUID]bool{}
	var ids []string
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID.String())
		}
	}
	sort.Strings(ids)
	rows := sqlmock.NewRows([]string{"account.id"})
	for _, id := range owned {
		rows.AddRow(id.String())
	}
	mock.ExpectQuery(lineAccountsSQL).WithArgs(entity, pq.Array(ids)).WillReturnRows(rows)
}

func lineAccounts(lines []models.LedgerLine) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.AccountID)
	}
	return out
}

func expectPost(mock sqlmock.Sqlmock, entity, person, journal uuid.UUID, lines []models.LedgerLine) {
	mock.ExpectQuery(insertJournalSQL).
		WithArgs(entity, person, fixedNow, testDescription, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(journal.String()))
	for _, l := range lines {
		mock.ExpectExec(insertLineSQL).
			WithArgs(journal, l.AccountID, l.Amount.String(), string(l.Direction)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(validateSQL).WithArgs(true, journal).WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestPostingScenario(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	entity, person, journal := uuid.New(), uuid.New(), uuid.New()
	checking, partners := uuid.New(), uuid.New()

	lines := []models.LedgerLine{
		{AccountID: checking, Direction: models.Debit, Amount: decimal.RequireFromString("100000.00")},
		{AccountID: partners, Direction: models.Credit, Amount: decimal.RequireFromString("100000.00")},
	}
	expectLineAccounts(h.mock, entity, lines, checking, partners)
	expectPost(h.mock, entity, person, journal, lines)

	id, err := h.engine.AddTransaction(ctx, models.Journal{
		EntityID: entity, CreatedBy: person, Description: testDescription,
	}, lines)
	require.NoError(t, err)
	require.Equal(t, journal, id)

	store := []postedLine{
		{account: checking, typ: models.AccountAsset, direction: models.Debit, amount: lines[0].Amount},
		{account: partners, typ: models.AccountEquity, direction: models.Credit, amount: lines[1].Amount},
	}
	h.mock.ExpectQuery(balancesSQL).WithArgs(entity, true).WillReturnRows(balanceRows(store))
	balances, err := h.engine.AllAccountAmounts(ctx, entity)
	require.NoError(t, err)
	hundredK := decimal.RequireFromString("100000.00")
	require.True(t, hundredK.Equal(balances[checking]))
	require.True(t, hundredK.Equal(balances[partners]))

	// An unbalanced post is rejected before any statement runs.
	_, err = h.engine.AddTransaction(ctx, models.Journal{EntityID: entity, CreatedBy: person, Description: "Bad"},
		[]models.LedgerLine{
			{AccountID: checking, Direction: models.Debit, Amount: decimal.NewFromInt(50)},
			{AccountID: partners, Direction: models.Credit, Amount: decimal.NewFromInt(40)},
		})
	require.ErrorIs(t, err, ErrDomain)

	h.mock.ExpectQuery(balancesSQL).WithArgs(entity, true).WillReturnRows(balanceRows(store))
	after, err := h.engine.AllAccountAmounts(ctx, entity)
	require.NoError(t, err)
	require.True(t, hundredK.Equal(after[checking]))
	require.True(t, hundredK.Equal(after[partners]))
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddTransactionStopsAtFailedLine(t *testing.T) {
	h := newHarness(t, false)
	entity, person, journal := uuid.New(), uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()
	boom := errors.New("connection reset")
	lines := []models.LedgerLine{
		{AccountID: a, Direction: models.Debit, Amount: decimal.NewFromInt(10)},
		{AccountID: b, Direction: models.Credit, Amount: decimal.NewFromInt(10)},
	}

	expectLineAccounts(h.mock, entity, lines, a, b)
	h.mock.ExpectQuery(insertJournalSQL).
		WithArgs(entity, person, fixedNow, testDescription, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(journal.String()))
	h.mock.ExpectExec(insertLineSQL).WithArgs(journal, a, "10", "DEBIT").WillReturnResult(sqlmock.NewResult(0, 1))
	h.mock.ExpectExec(insertLineSQL).WithArgs(journal, b, "10", "CREDIT").WillReturnError(boom)

	_, err := h.engine.AddTransaction(context.Background(), models.Journal{
		EntityID: entity, CreatedBy: person, Description: testDescription,
	}, lines)
	require.ErrorIs(t, err, boom)
	// the validity flip never runs
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddTransactionAtomicCommits(t *testing.T) {
	h := newHarness(t, true)
	entity, person, journal := uuid.New(), uuid.New(), uuid.New()
	lines := []models.LedgerLine{
		{AccountID: uuid.New(), Direction: models.Debit, Amount: decimal.NewFromInt(5000)},
		{AccountID: uuid.New(), Direction: models.Credit, Amount: decimal.NewFromInt(5000)},
	}
	expectLineAccounts(h.mock, entity, lines, lineAccounts(lines)...)
	h.mock.ExpectBegin()
	expectPost(h.mock, entity, person, journal, lines)
	h.mock.ExpectCommit()

	id, err := h.engine.AddTransaction(context.Background(), models.Journal{
		EntityID: entity, CreatedBy: person, Description: testDescription,
	}, lines)
	require.NoError(t, err)
	require.Equal(t, journal, id)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddTransactionAtomicRollsBack(t *testing.T) {
	h := newHarness(t, true)
	entity, person, journal := uuid.New(), uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()
	lines := []models.LedgerLine{
		{AccountID: a, Direction: models.Debit, Amount: decimal.NewFromInt(1)},
		{AccountID: b, Direction: models.Credit, Amount: decimal.NewFromInt(1)},
	}

	expectLineAccounts(h.mock, entity, lines, a, b)
	h.mock.ExpectBegin()
	h.mock.ExpectQuery(insertJournalSQL).
		WithArgs(entity, person, fixedNow, testDescription, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(journal.String()))
	h.mock.ExpectExec(insertLineSQL).WithArgs(journal, a, "1", "DEBIT").WillReturnError(errors.New("fk"))
	h.mock.ExpectRollback()

	_, err := h.engine.AddTransaction(context.Background(), models.Journal{
		EntityID: entity, CreatedBy: person, Description: testDescription,
	}, lines)
	require.Error(t, err)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddTransactionRejectsForeignAccounts(t *testing.T) {
	entity, person := uuid.New(), uuid.New()
	own, foreign := uuid.New(), uuid.New()
	lines := []models.LedgerLine{
		{AccountID: own, Direction: models.Debit, Amount: decimal.NewFromInt(25)},
		{AccountID: foreign, Direction: models.Credit, Amount: decimal.NewFromInt(20)},
		{AccountID: own, Direction: models.Credit, Amount: decimal.NewFromInt(5)},
	}

	for _, atomic := range []bool{false, true} {
		h := newHarness(t, atomic)
		// only own is returned; nothing is written afterwards
		expectLineAccounts(h.mock, entity, lines, own)

		_, err := h.engine.AddTransaction(context.Background(), models.Journal{
			EntityID: entity, CreatedBy: person, Description: testDescription,
		}, lines)
		require.ErrorIs(t, err, ErrDomain)
		require.Contains(t, Reason(err), ReasonAccountNotFound)
		require.Contains(t, Reason(err), foreign.String())
		require.NoError(t, h.mock.ExpectationsWereMet())
	}
}

func TestAddTransactionRejectsUnknownAccounts(t *testing.T) {
	h := newHarness(t, false)
	entity := uuid.New()
	lines := []models.LedgerLine{
		{AccountID: uuid.New(), Direction: models.Debit, Amount: decimal.NewFromInt(1)},
		{AccountID: uuid.New(), Direction: models.Credit, Amount: decimal.NewFromInt(1)},
	}
	expectLineAccounts(h.mock, entity, lines)

	_, err := h.engine.AddTransaction(context.Background(), models.Journal{
		EntityID: entity, CreatedBy: uuid.New(), Description: testDescription,
	}, lines)
	require.ErrorIs(t, err, ErrDomain)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddTransactionAccountReadFailure(t *testing.T) {
	h := newHarness(t, false)
	entity := uuid.New()
	lines := []models.LedgerLine{
		{AccountID: uuid.New(), Direction: models.Debit, Amount: decimal.NewFromInt(1)},
		{AccountID: uuid.New(), Direction: models.Credit, Amount: decimal.NewFromInt(1)},
	}
	boom := errors.New("connection reset")
	h.mock.ExpectQuery(lineAccountsSQL).WillReturnError(boom)

	_, err := h.engine.AddTransaction(context.Background(), models.Journal{
		EntityID: entity, CreatedBy: uuid.New(), Description: testDescription,
	}, lines)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrDomain)
	require.NoError(t, h.mock.ExpectationsWereMet())
}
