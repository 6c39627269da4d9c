package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
)

// Entry is a two-legged transaction naming its accounts.
type Entry struct {
	Description string
	Date        time.Time
	Amount      decimal.Decimal
	Debit       string
	Credit      string
}

// DemoJournal is a short history against the demo chart.
var DemoJournal = []Entry{
	{Description: "Owners put money into business", Date: day(2025, 1, 1), Amount: decimal.NewFromInt(100000), Credit: "Tegan & Adriane", Debit: "WF Checking"},
	{Description: "Business buys a vehicle", Date: day(2025, 1, 2), Amount: decimal.NewFromInt(50000), Credit: "WF Checking", Debit: "Snowy"},
	{Description: "Vehicle depreciates", Date: day(2025, 1, 3), Amount: decimal.NewFromInt(5000), Credit: "Snowy", Debit: "Snowy (E)"},
	{Description: "Change oil in Snowy", Date: day(2025, 1, 4), Amount: decimal.NewFromInt(100), Credit: "WF Checking", Debit: "Snowy (E)"},
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Poster resolves account names and posts journals.
type Poster interface {
	ListFromEntity(ctx context.Context, entity uuid.UUID) ([]ledger.Item, error)
	AddTransaction(ctx context.Context, journal models.Journal, lines []models.LedgerLine) (uuid.UUID, error)
}

// PostEntries posts each entry for entity as user and returns the journal ids.
// Every account name is resolved before the first post.
func PostEntries(ctx context.Context, p Poster, entity, user uuid.UUID, entries []Entry) ([]uuid.UUID, error) {
	items, err := p.ListFromEntity(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("seed: list accounts: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(items))
	for _, it := range items {
		byName[it.Name] = it.ID
	}
	resolve := func(name string) (uuid.UUID, error) {
		id, ok := byName[name]
		if !ok {
			return uuid.Nil, fmt.Errorf("seed: account %q is not in the chart", name)
		}
		return id, nil
	}

	type posting struct {
		journal models.Journal
		lines   []models.LedgerLine
	}
	postings := make([]posting, 0, len(entries))
	for _, e := range entries {
		debit, err := resolve(e.Debit)
		if err != nil {
			return nil, err
		}
		credit, err := resolve(e.Credit)
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting{
			journal: models.Journal{EntityID: entity, CreatedBy: user, Timestamp: e.Date, Description: e.Description},
			lines: []models.LedgerLine{
				{AccountID: debit, Amount: e.Amount, Direction: models.Debit},
				{AccountID: credit, Amount: e.Amount, Direction: models.Credit},
			},
		})
	}

	ids := make([]uuid.UUID, 0, len(postings))
	for i, ps := range postings {
		id, err := p.AddTransaction(ctx, ps.journal, ps.lines)
		if err != nil {
			return ids, fmt.Errorf("seed: post %q: %w", entries[i].Description, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
