package account

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage for tests and local development.
// It mirrors the transactional semantics of PGStorage under a single lock.
type MemoryStorage struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]Account
	tokens   map[uuid.UUID]VerificationToken
	events   map[string]struct{}
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		nextID:   1,
		accounts: make(map[int64]Account),
		tokens:   make(map[uuid.UUID]VerificationToken),
		events:   make(map[string]struct{}),
	}
}

func (s *MemoryStorage) CreateAccount(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return ErrEmailTaken
		}
	}

	a.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.accounts[a.ID] = *a
	return nil
}

func (s *MemoryStorage) GetAccount(ctx context.Context, id int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *MemoryStorage) getLocked(id int64) (*Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Role = normalizeRole(string(a.Role))
	return &a, nil
}

func (s *MemoryStorage) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == email {
			a.Role = normalizeRole(string(a.Role))
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpdateAccount(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range s.accounts {
		if id != a.ID && other.Email == a.Email {
			return ErrEmailTaken
		}
	}

	stored.Email = a.Email
	stored.Name = a.Name
	stored.Furigana = a.Furigana
	stored.PhoneNumber = a.PhoneNumber
	stored.Address = a.Address
	stored.Age = a.Age
	stored.Occupation = a.Occupation
	stored.UpdatedAt = time.Now().UTC()
	s.accounts[a.ID] = stored
	return nil
}

func (s *MemoryStorage) UpdateRole(ctx context.Context, id int64, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Role = role
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func (s *MemoryStorage) ClearBilling(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Role = RoleFree
	a.StripeCustomerID = ""
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func (s *MemoryStorage) ApplyCheckoutCompleted(ctx context.Context, eventID string, accountID int64, customerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.events[eventID]; seen {
		return false, nil
	}

	a, ok := s.accounts[accountID]
	if !ok {
		return false, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}

	s.events[eventID] = struct{}{}
	a.StripeCustomerID = customerID
	a.Role = RolePremium
	a.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = a
	return true, nil
}

func (s *MemoryStorage) DeleteAccount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	for token, t := range s.tokens {
		if t.AccountID == id {
			delete(s.tokens, token)
		}
	}
	delete(s.accounts, id)
	return nil
}

func (s *MemoryStorage) CreateVerificationToken(ctx context.Context, t *VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.CreatedAt = time.Now().UTC()
	s.tokens[t.Token] = *t
	return nil
}

func (s *MemoryStorage) GetVerificationToken(ctx context.Context, token uuid.UUID) (*VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &t, nil
}

func (s *MemoryStorage) MarkVerified(ctx context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.Verified = true
	a.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = a
	return nil
}

var _ Storage = (*MemoryStorage)(nil)
