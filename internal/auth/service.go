package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/docaidkit/medkit/internal/domain/account"
	"github.com/docaidkit/medkit/internal/domain/session"
	"github.com/docaidkit/medkit/internal/security"
	"github.com/docaidkit/medkit/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountSuspended   = errors.New("account is suspended")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
)

type Service struct {
	users    *store.UsersStore
	sessions *store.SessionsStore
	log      *slog.Logger
}

func NewService(users *store.UsersStore, sessions *store.SessionsStore, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		log:      log,
	}
}

// Login authenticates against the user store and persists the session
// snapshot. The suspended check runs only after the credentials matched,
// so a wrong password on a suspended account still reads as invalid
// credentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	found, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := security.CheckPassword(found.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	if found.Status == account.StatusSuspended {
		return "", ErrAccountSuspended
	}

	sess := session.Session{
		Email:  found.Email,
		Role:   found.Role,
		UserID: found.ID,
		Name:   found.Name,
	}

	if err := s.sessions.Set(ctx, sess); err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "login", "user_id", found.ID, "role", found.Role)

	return found.Role, nil
}

// Logout clears the session unconditionally.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func (s *Service) Session(ctx context.Context) (session.Session, error) {
	return s.sessions.Current(ctx)
}

func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, err := s.sessions.Current(ctx)
	return err == nil
}

// UpdateProfile renames the account and, when the active session belongs
// to the same user, re-syncs the denormalized session name. This is the
// one place session staleness gets corrected.
func (s *Service) UpdateProfile(ctx context.Context, userID, name string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	if err := s.users.Update(ctx, userID, account.UpdateParams{Name: &name}); err != nil {
		return err
	}

	sess, err := s.sessions.Current(ctx)

	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			return nil
		}
		return err
	}

	if sess.UserID != userID {
		return nil
	}

	sess.Name = name

	return s.sessions.Set(ctx, sess)
}

// UpdatePassword verifies the current password before overwriting. The
// active session is left alone either way.
func (s *Service) UpdatePassword(ctx context.Context, userID, current, next string) error {
	found, err := s.users.GetByID(ctx, userID)

	if err != nil {
		return err
	}

	if err := security.CheckPassword(found.PasswordHash, current); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := security.HashPassword(next)

	if err != nil {
		return err
	}

	return s.users.Update(ctx, userID, account.UpdateParams{PasswordHash: &hash})
}
