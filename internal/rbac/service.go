package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/insert"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// Service answers entity membership questions from person_entity_junction.
type Service struct {
	fetch  *fetch.Service
	insert *insert.Service
}

// NewService constructs a Service. ins may be nil when grants are not needed.
func NewService(f *fetch.Service, ins *insert.Service) *Service {
	return &Service{fetch: f, insert: ins}
}

// UserInEntity reports whether user is linked to entity.
func (s *Service) UserInEntity(ctx context.Context, user, entity uuid.UUID) (bool, error) {
	_, err := s.fetch.FetchWhere(ctx,
		[]query.ColumnRef{models.JunctionID},
		models.PersonEntityJunction{},
		query.Where{models.JunctionPersonID: user, models.JunctionEntityID: entity},
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Authorize returns ErrForbidden unless user is linked to entity.
func (s *Service) Authorize(ctx context.Context, user, entity uuid.UUID) error {
	ok, err := s.UserInEntity(ctx, user, entity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// Entities lists the entities user is linked to, in name order.
func (s *Service) Entities(ctx context.Context, user uuid.UUID) ([]models.Entity, error) {
	out, err := fetch.FetchRecordsJoin[models.Entity](ctx, s.fetch,
		[]query.Join{query.InnerJoin(models.PersonEntityJunction{}, models.JunctionEntityID, models.EntityID)},
		query.Where{models.JunctionPersonID: user},
		fetch.WithOrderBy(query.Asc(models.EntityName)),
	)
	if errors.Is(err, fetch.ErrNoRecords) {
		return []models.Entity{}, nil
	}
	return out, err
}

// Grant links user to entity.
func (s *Service) Grant(ctx context.Context, user, entity uuid.UUID) error {
	if s.insert == nil {
		return errors.New("rbac: grants not configured")
	}
	return s.insert.Insert(ctx, models.PersonEntityJunction{PersonID: user, EntityID: entity})
}
