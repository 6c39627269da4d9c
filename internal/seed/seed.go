// Package seed populates a store with a chart of accounts, a development user
// and a sample journal.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/insert"
	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// Seeder writes seed data through the insert service.
type Seeder struct {
	insert  *insert.Service
	masters map[string]ledger.MasterAccount
	newID   func() uuid.UUID
	logger  *slog.Logger
}

// NewSeeder constructs a seeder. A nil masters map means
// ledger.DefaultMasterAccounts.
func NewSeeder(ins *insert.Service, masters map[string]ledger.MasterAccount, logger *slog.Logger) *Seeder {
	if masters == nil {
		masters = ledger.DefaultMasterAccounts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{insert: ins, masters: masters, newID: uuid.New, logger: logger}
}

// Accounts lays out the accounts of entity: one root per master account and
// the chart below them, every account carrying its master's type. Ids are
// generated here so children can reference their parents within one batch.
// Roots come back in master key order and children in pre-order.
func (s *Seeder) Accounts(entity uuid.UUID, chart Chart) (roots, children []models.Account) {
	keys := make([]string, 0, len(s.masters))
	for key := range s.masters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var walk func(nodes []ChartNode, parent uuid.UUID, t models.AccountType)
	walk = func(nodes []ChartNode, parent uuid.UUID, t models.AccountType) {
		for _, n := range nodes {
			p := parent
			acct := models.Account{ID: s.newID(), EntityID: entity, Name: n.Name, Type: t, ParentAccountID: &p}
			children = append(children, acct)
			walk(n.Children, acct.ID, t)
		}
	}
	for _, key := range keys {
		m := s.masters[key]
		root := models.Account{ID: s.newID(), EntityID: entity, Name: m.Name, Type: m.Type}
		roots = append(roots, root)
		walk(chart[key], root.ID, m.Type)
	}
	return roots, children
}

// SeedChart creates an entity named name with its master accounts and chart.
// Roots and sub-accounts go in as two bulk inserts since their non-null field
// sets differ.
func (s *Seeder) SeedChart(ctx context.Context, name string, chart Chart) (uuid.UUID, error) {
	entity, err := s.insert.InsertReturnID(ctx, models.Entity{Name: name})
	if err != nil {
		return uuid.Nil, fmt.Errorf("seed: create entity %q: %w", name, err)
	}

	roots, children := s.Accounts(entity, chart)
	if _, err := s.insert.BulkInsert(ctx, records(roots)); err != nil {
		return uuid.Nil, fmt.Errorf("seed: insert master accounts: %w", err)
	}
	if len(children) > 0 {
		if _, err := s.insert.BulkInsert(ctx, records(children)); err != nil {
			return uuid.Nil, fmt.Errorf("seed: insert accounts: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "seeded chart",
		slog.String("entity_id", entity.String()),
		slog.String("entity", name),
		slog.Int("accounts", len(roots)+len(children)),
	)
	return entity, nil
}

func records(accts []models.Account) []query.Record {
	out := make([]query.Record, len(accts))
	for i, a := range accts {
		out[i] = a
	}
	return out
}
