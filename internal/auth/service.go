package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/samber/oops"

	"AUTHGATE/internal/models"
	"AUTHGATE/internal/store"
)

// Service provides the register and login flows over a credential store.
type Service struct {
	users  store.UserStore
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

// NewService creates a new Service.
func NewService(users store.UserStore, hasher PasswordHasher) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
	}
}

// Register creates an account for email unless one already exists.
// Returns ErrEmailTaken when the email is registered, including when a
// concurrent registration wins the race to the unique index.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, oops.Code("AUTH_EMAIL_TAKEN").With("email", email).Wrap(ErrEmailTaken)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := s.users.Create(ctx, name, email, digest)
	if errors.Is(err, store.ErrDuplicateEmail) {
		return nil, oops.Code("AUTH_EMAIL_TAKEN").With("email", email).Wrap(ErrEmailTaken)
	}
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}
	return user, nil
}

// Login checks email and password. Unknown emails return ErrUnknownEmail and
// wrong passwords ErrInvalidCredentials; callers that must not reveal which
// one happened can treat both the same. A password verification runs in
// both cases so the two outcomes take comparable time.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, lookupErr := s.users.FindByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, store.ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by email").
			Wrap(lookupErr)
	}

	if lookupErr != nil {
		if dummy, err := s.dummy(); err == nil {
			_, _ = s.hasher.Verify(password, dummy)
		}
		return nil, oops.Code("AUTH_UNKNOWN_EMAIL").Wrap(ErrUnknownEmail)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !ok {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").
			With("user_id", user.ID).
			Wrap(ErrInvalidCredentials)
	}
	return user, nil
}

// dummy returns a digest of a random secret, hashed with the same
// hasher, for verifying against when the email is unknown.
func (s *Service) dummy() (string, error) {
	s.dummyOnce.Do(func() {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			s.dummyErr = err
			return
		}
		s.dummyHash, s.dummyErr = s.hasher.Hash(hex.EncodeToString(buf))
	})
	return s.dummyHash, s.dummyErr
}
