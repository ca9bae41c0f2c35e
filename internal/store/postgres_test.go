package store

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AUTHGATE/internal/store/migrations"
)

var userColumns = []string{"id", "name", "email", "password_hash", "created_at"}

func TestPostgresStore_FindByEmail(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantName  string
		wantErrIs error
		errMsg    string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumns).
					AddRow("3f1c0a5e-0000-4000-8000-000000000001", "A", "a@x.com", "$2a$10$hash", created)
				mock.ExpectQuery(`FROM users WHERE email = \$1`).
					WithArgs("a@x.com").
					WillReturnRows(rows)
			},
			wantName: "A",
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users WHERE email = \$1`).
					WithArgs("a@x.com").
					WillReturnRows(pgxmock.NewRows(userColumns))
			},
			wantErrIs: ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users WHERE email = \$1`).
					WithArgs("a@x.com").
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			s := NewPostgresStore(mock, time.Second)
			got, err := s.FindByEmail(context.Background(), "a@x.com")

			switch {
			case tt.wantErrIs != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrNotFound)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantName, got.Name)
				assert.Equal(t, "a@x.com", got.Email)
				assert.Equal(t, created, got.CreatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresStore_FindByID(t *testing.T) {
	id := uuid.New().String()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(id, "A", "a@x.com", "h", time.Now()))

		got, err := NewPostgresStore(mock, 0).FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(userColumns))

		_, err = NewPostgresStore(mock, 0).FindByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id skips the query", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = NewPostgresStore(mock, 0).FindByID(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErrIs error
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), "A", "a@x.com", "$2a$10$hash", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "unique violation",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), "A", "a@x.com", "$2a$10$hash", pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
			},
			wantErrIs: ErrDuplicateEmail,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), "A", "a@x.com", "$2a$10$hash", pgxmock.AnyArg()).
					WillReturnError(errors.New("connection reset"))
			},
			errMsg: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewPostgresStore(mock, time.Second).Create(context.Background(), "A", "a@x.com", "$2a$10$hash")

			switch {
			case tt.wantErrIs != nil:
				assert.ErrorIs(t, err, tt.wantErrIs)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrDuplicateEmail)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				_, parseErr := uuid.Parse(got.ID)
				assert.NoError(t, parseErr)
				assert.Equal(t, "A", got.Name)
				assert.False(t, got.CreatedAt.IsZero())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("db down"))

	err = NewPostgresStore(mock, 0).Ping(context.Background())
	assert.EqualError(t, err, "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateRequiresPool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	err = NewPostgresStore(mock, 0).Migrate(context.Background())
	assert.Error(t, err)
}

func TestRunMigrations(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, runMigrations(context.Background(), nil))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err := runMigrations(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMigrationsEmbedUniqueEmailIndex(t *testing.T) {
	b, err := fs.ReadFile(migrations.FS, "00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.Contains(t, string(b), "CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)")
}
