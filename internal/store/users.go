package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/docaidkit/medkit/internal/domain/account"
	"github.com/docaidkit/medkit/internal/observability"
	"github.com/docaidkit/medkit/internal/security"
	"github.com/docaidkit/medkit/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

// UsersStore keeps the whole account list as one JSON document under the
// "users" key. Every operation is a synchronous read-modify-write against
// that single record.
type UsersStore struct {
	st   storage.Storage
	prom *observability.Prom
}

func NewUsersStore(st storage.Storage, prom *observability.Prom) *UsersStore {
	return &UsersStore{st: st, prom: prom}
}

func (s *UsersStore) observe(op string, fn func() error) error {
	if s.prom != nil {
		return s.prom.ObserveStore(op, fn)
	}
	return fn()
}

// storedAccount is the persisted record shape. The domain type hides the
// password from JSON on purpose, so persistence gets its own codec.
type storedAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toStored(a account.Account) storedAccount {
	return storedAccount{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Password:  a.PasswordHash,
		Role:      a.Role,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

func fromStored(rec storedAccount) account.Account {
	return account.Account{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.Password,
		Role:         rec.Role,
		Status:       rec.Status,
		CreatedAt:    rec.CreatedAt,
	}
}

func (s *UsersStore) load(ctx context.Context) ([]storedAccount, error) {
	var raw []byte

	err := s.observe("users.load", func() error {
		var err error
		raw, err = s.st.Get(ctx, storage.KeyUsers)
		return err
	})

	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return []storedAccount{}, nil
		}
		return nil, err
	}

	var records []storedAccount

	if err := json.Unmarshal(raw, &records); err != nil {
		// unparseable state reads as empty, matching the permissive
		// read semantics of the storage layer
		return []storedAccount{}, nil
	}

	return records, nil
}

func (s *UsersStore) save(ctx context.Context, records []storedAccount) error {
	raw, err := json.Marshal(records)

	if err != nil {
		return err
	}

	return s.observe("users.save", func() error {
		return s.st.Set(ctx, storage.KeyUsers, raw)
	})
}

func (s *UsersStore) List(ctx context.Context) ([]account.Account, error) {
	records, err := s.load(ctx)

	if err != nil {
		return nil, err
	}

	accounts := make([]account.Account, 0, len(records))

	for _, rec := range records {
		accounts = append(accounts, fromStored(rec))
	}

	return accounts, nil
}

func (s *UsersStore) GetByID(ctx context.Context, id string) (account.Account, error) {
	records, err := s.load(ctx)

	if err != nil {
		return account.Account{}, err
	}

	for _, rec := range records {
		if rec.ID == id {
			return fromStored(rec), nil
		}
	}

	return account.Account{}, ErrUserNotFound
}

// GetByEmail matches on the normalized form of both sides.
func (s *UsersStore) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	records, err := s.load(ctx)

	if err != nil {
		return account.Account{}, err
	}

	normalized := account.NormalizeEmail(email)

	for _, rec := range records {
		if account.NormalizeEmail(rec.Email) == normalized {
			return fromStored(rec), nil
		}
	}

	return account.Account{}, ErrUserNotFound
}

// Create assigns a fresh id and timestamp and appends. Email uniqueness is
// enforced here under normalized comparison.
func (s *UsersStore) Create(ctx context.Context, params account.CreateParams) (account.Account, error) {
	records, err := s.load(ctx)

	if err != nil {
		return account.Account{}, err
	}

	normalized := account.NormalizeEmail(params.Email)

	for _, rec := range records {
		if account.NormalizeEmail(rec.Email) == normalized {
			return account.Account{}, ErrEmailTaken
		}
	}

	a := account.Account{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		Status:       params.Status,
		CreatedAt:    time.Now().UTC(),
	}

	records = append(records, toStored(a))

	if err := s.save(ctx, records); err != nil {
		return account.Account{}, err
	}

	return a, nil
}

// Update merges non-nil fields into the matching account. A missing id is
// a silent no-op, not an error.
func (s *UsersStore) Update(ctx context.Context, id string, params account.UpdateParams) error {
	records, err := s.load(ctx)

	if err != nil {
		return err
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}

		if params.Name != nil {
			records[i].Name = *params.Name
		}
		if params.Email != nil {
			records[i].Email = *params.Email
		}
		if params.PasswordHash != nil {
			records[i].Password = *params.PasswordHash
		}
		if params.Role != nil {
			records[i].Role = *params.Role
		}
		if params.Status != nil {
			records[i].Status = *params.Status
		}

		return s.save(ctx, records)
	}

	return nil
}

// Delete removes the matching account. A missing id is a silent no-op.
func (s *UsersStore) Delete(ctx context.Context, id string) error {
	records, err := s.load(ctx)

	if err != nil {
		return err
	}

	filtered := records[:0]
	found := false

	for _, rec := range records {
		if rec.ID == id {
			found = true
			continue
		}
		filtered = append(filtered, rec)
	}

	if !found {
		return nil
	}

	return s.save(ctx, filtered)
}

// SeedAccount is a bootstrap account ensured at process start.
type SeedAccount struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// SeedDefaults upserts the bootstrap accounts, checked by exact email
// match. It writes once, and only when at least one account was missing,
// so running it repeatedly never duplicates seeds.
func (s *UsersStore) SeedDefaults(ctx context.Context, seeds []SeedAccount) error {
	records, err := s.load(ctx)

	if err != nil {
		return err
	}

	changed := false

	for _, seed := range seeds {
		exists := false

		for _, rec := range records {
			if rec.Email == seed.Email {
				exists = true
				break
			}
		}

		if exists {
			continue
		}

		hash, err := security.HashPassword(seed.Password)

		if err != nil {
			return err
		}

		records = append(records, storedAccount{
			ID:        uuid.NewString(),
			Name:      seed.Name,
			Email:     seed.Email,
			Password:  hash,
			Role:      seed.Role,
			Status:    account.StatusActive,
			CreatedAt: time.Now().UTC(),
		})

		changed = true
	}

	if !changed {
		return nil
	}

	return s.save(ctx, records)
}
