package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
)

type MemoryUserRepository struct {
	users    map[domain.UserID]*domain.User
	byEmail  map[string]domain.UserID
	byHandle map[string]domain.UserID
	mu       sync.RWMutex
}

func NewMemoryUserRepository() ports.UserRepository {
	return &MemoryUserRepository{
		users:    make(map[domain.UserID]*domain.User),
		byEmail:  make(map[string]domain.UserID),
		byHandle: make(map[string]domain.UserID),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("user already exists: %d", user.ID)
	}
	if _, exists := r.byEmail[normalizeEmail(user.Email)]; exists {
		return domain.ErrEmailTaken
	}
	if _, exists := r.byHandle[user.Handle]; exists {
		return domain.ErrHandleTaken
	}

	r.users[user.ID] = user.Clone()
	r.byEmail[normalizeEmail(user.Email)] = user.ID
	r.byHandle[user.Handle] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[normalizeEmail(email)]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return r.users[id].Clone(), nil
}

func (r *MemoryUserRepository) GetByHandle(ctx context.Context, handle string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byHandle[handle]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return r.users[id].Clone(), nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.users[user.ID]
	if !exists {
		return domain.ErrUserNotFound
	}

	newEmail := normalizeEmail(user.Email)
	if newEmail != normalizeEmail(current.Email) {
		if _, taken := r.byEmail[newEmail]; taken {
			return domain.ErrEmailTaken
		}
		delete(r.byEmail, normalizeEmail(current.Email))
		r.byEmail[newEmail] = user.ID
	}
	if user.Handle != current.Handle {
		if _, taken := r.byHandle[user.Handle]; taken {
			return domain.ErrHandleTaken
		}
		delete(r.byHandle, current.Handle)
		r.byHandle[user.Handle] = user.ID
	}

	r.users[user.ID] = user.Clone()
	return nil
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) ReplaceAll(ctx context.Context, users []*domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[domain.UserID]*domain.User, len(users))
	r.byEmail = make(map[string]domain.UserID, len(users))
	r.byHandle = make(map[string]domain.UserID, len(users))
	for _, user := range users {
		r.users[user.ID] = user.Clone()
		r.byEmail[normalizeEmail(user.Email)] = user.ID
		r.byHandle[user.Handle] = user.ID
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
