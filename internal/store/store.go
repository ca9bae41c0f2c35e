// Package store is the credential store: persistent user records looked up
// by email and by store-generated id.
package store

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	"AUTHGATE/internal/config"
	"AUTHGATE/internal/models"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned by Create when the email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserStore persists user records.
type UserStore interface {
	// FindByEmail returns the user with exactly this email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID returns the user with this id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// Create inserts a user and returns it with ID and CreatedAt populated.
	// Returns ErrDuplicateEmail if the email is already stored.
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Open connects to the backend selected by the scheme of cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseConfig) (UserStore, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, oops.Code("STORE_INVALID_URL").Wrap(err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return OpenPostgres(ctx, cfg)
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, oops.Code("STORE_UNSUPPORTED_SCHEME").
			With("scheme", u.Scheme).
			Errorf("unsupported database scheme %q", u.Scheme)
	}
}

// Migrate brings the backend schema up to date: goose migrations for
// Postgres, indexes for MongoDB, nothing for the in-memory store.
func Migrate(ctx context.Context, s UserStore) error {
	switch st := s.(type) {
	case *PostgresStore:
		return st.Migrate(ctx)
	case *MongoStore:
		return st.EnsureIndexes(ctx)
	default:
		return nil
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
