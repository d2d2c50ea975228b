package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"gemchat/internal/modules/auth/domain"
)

var (
	ErrNotFound   = errors.New("not_found")
	ErrEmailTaken = errors.New("email_taken")
)

type memUserRepo struct {
	mu      sync.RWMutex
	users   map[string]*domain.User // id -> user
	byEmail map[string]string       // email -> id
}

func NewMemUserRepo() domain.UserRepo {
	return &memUserRepo{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *memUserRepo) Create(p domain.CreateUserParams) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[p.Email]; ok {
		return nil, ErrEmailTaken
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID: uuid.New().String(), Email: p.Email, PasswordHash: p.PasswordHash,
		CreatedAt: now, UpdatedAt: now,
	}
	r.users[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

func (r *memUserRepo) GetByID(id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) ExistsByEmail(email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *memUserRepo) UpdatePassword(userID string, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = newHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memUserRepo) UpdateAPIKey(userID string, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.APIKey = key
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// MemCodeStore — коды в памяти процесса. Запись на получателя ровно одна,
// Put перезаписывает. Sweep удаляет просроченные записи независимо от чтений.
type MemCodeStore struct {
	mu    sync.Mutex
	codes map[string]domain.VerificationCode
	ttl   time.Duration
	now   func() time.Time
}

func NewMemCodeStore(ttl time.Duration) *MemCodeStore {
	return &MemCodeStore{
		codes: make(map[string]domain.VerificationCode),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemCodeStore) Get(recipient string) (domain.VerificationCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[recipient]
	return c, ok
}

func (s *MemCodeStore) Put(recipient string, c domain.VerificationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[recipient] = c
}

func (s *MemCodeStore) Delete(recipient string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, recipient)
}

func (s *MemCodeStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for recipient, c := range s.codes {
		if now.Sub(c.CreatedAt) > s.ttl {
			delete(s.codes, recipient)
			removed++
		}
	}
	return removed
}

// Run гоняет очистку по тикеру до отмены контекста.
func (s *MemCodeStore) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

func (s *MemCodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}
