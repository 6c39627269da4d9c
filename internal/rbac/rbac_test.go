package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/insert"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

const membershipSQL = `SELECT "person_entity_junction"."id" AS "person_entity_junction.id" FROM "person_entity_junction" ` +
	`WHERE "person_entity_junction"."entity_id" = $1 AND "person_entity_junction"."person_id" = $2`

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	pool := sqlx.NewDb(raw, "pgx")
	return NewService(fetch.NewService(pool, nil), insert.NewService(pool, nil)), mock
}

func TestUserInEntity(t *testing.T) {
	svc, mock := newService(t)
	user, entity := uuid.New(), uuid.New()

	mock.ExpectQuery(membershipSQL).WithArgs(entity, user).
		WillReturnRows(sqlmock.NewRows([]string{"person_entity_junction.id"}).AddRow(uuid.NewString()))
	ok, err := svc.UserInEntity(context.Background(), user, entity)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectQuery(membershipSQL).WithArgs(entity, user).
		WillReturnRows(sqlmock.NewRows([]string{"person_entity_junction.id"}))
	ok, err = svc.UserInEntity(context.Background(), user, entity)
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectQuery(membershipSQL).WithArgs(entity, user).
		WillReturnRows(sqlmock.NewRows([]string{"person_entity_junction.id"}))
	err = svc.Authorize(context.Background(), user, entity)
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitiesForUser(t *testing.T) {
	svc, mock := newService(t)
	user, entity := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT "entity"."id" AS "entity.id", "entity"."name" AS "entity.name", ` +
		`"entity"."description" AS "entity.description" FROM "entity" ` +
		`INNER JOIN "person_entity_junction" ON "person_entity_junction"."entity_id" = "entity"."id" ` +
		`WHERE "person_entity_junction"."person_id" = $1 ORDER BY "entity"."name" ASC`).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows([]string{"entity.id", "entity.name", "entity.description"}).
			AddRow(entity.String(), "Acme", nil))

	entities, err := svc.Entities(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Equal(t, "Acme", entities[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGrant(t *testing.T) {
	svc, mock := newService(t)
	user, entity := uuid.New(), uuid.New()
	mock.ExpectExec(`INSERT INTO "person_entity_junction" ("person_id", "entity_id") VALUES ($1, $2)`).
		WithArgs(user, entity).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Grant(context.Background(), user, entity))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifyMiddleware(t *testing.T) {
	mw := Middleware{Header: "X-Person"}
	user := uuid.New()

	var seen uuid.UUID
	var present bool
	handler := mw.Identify(mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, present = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Person", user.String())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.True(t, present)
	require.Equal(t, user, seen)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Person", "not-a-uuid")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireUserFromContext(t *testing.T) {
	_, err := RequireUser(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)

	user := uuid.New()
	got, err := RequireUser(WithUser(context.Background(), user))
	require.NoError(t, err)
	require.Equal(t, user, got)
}
