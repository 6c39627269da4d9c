package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-ledger/internal/models"
)

// DevUser describes a person created for local development.
type DevUser struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Level     int
}

// DefaultDevUser returns the sample development person with password.
func DefaultDevUser(password string) DevUser {
	return DevUser{FirstName: "Tegan", LastName: "Counts", Email: "foo@bar.com", Password: password, Level: 1}
}

// Granter links a person to an entity.
type Granter interface {
	Grant(ctx context.Context, user, entity uuid.UUID) error
}

// SeedUser creates an active person with a bcrypt-hashed password and grants
// them every entity given.
func (s *Seeder) SeedUser(ctx context.Context, u DevUser, grants Granter, entities ...uuid.UUID) (uuid.UUID, error) {
	if strings.TrimSpace(u.Email) == "" {
		return uuid.Nil, errors.New("seed: user email is required")
	}
	if u.Password == "" {
		return uuid.Nil, errors.New("seed: user password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("seed: hash password: %w", err)
	}

	id, err := s.insert.InsertReturnID(ctx, models.Person{
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Level:          u.Level,
		Active:         true,
		HashedPassword: string(hash),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("seed: create user %s: %w", u.Email, err)
	}

	for _, entity := range entities {
		if grants == nil {
			return id, errors.New("seed: no granter for entity access")
		}
		if err := grants.Grant(ctx, id, entity); err != nil {
			return id, fmt.Errorf("seed: grant %s: %w", entity, err)
		}
	}
	s.logger.InfoContext(ctx, "seeded user", slog.String("user_id", id.String()), slog.Int("entities", len(entities)))
	return id, nil
}
