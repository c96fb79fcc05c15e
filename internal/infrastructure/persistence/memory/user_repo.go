// Package memory implements goroutine-safe in-memory repositories.
// Used when no database is configured and by application tests.
// Every read and write copies the aggregate so callers never share state
// with the store.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
)

// UserRepository stores users by ID with an e-mail index.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*user.User
	byEmail map[string]string
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*user.User),
		byEmail: make(map[string]string),
	}
}

// Create implements user.Repository.
func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email.String())
	if _, exists := r.byEmail[email]; exists {
		return shared.ErrUserAlreadyExists
	}
	if _, exists := r.byID[u.ID]; exists {
		return shared.ErrUserAlreadyExists
	}

	r.byID[u.ID] = cloneUser(u)
	r.byEmail[email] = u.ID
	return nil
}

// GetByID implements user.Repository.
func (r *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// GetByEmail implements user.Repository.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

// Update implements user.Repository.
func (r *UserRepository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[u.ID]
	if !ok {
		return shared.ErrUserNotFound
	}
	delete(r.byEmail, strings.ToLower(old.Email.String()))
	r.byID[u.ID] = cloneUser(u)
	r.byEmail[strings.ToLower(u.Email.String())] = u.ID
	return nil
}

func cloneUser(u *user.User) *user.User {
	c := *u
	if u.Mentor != nil {
		m := *u.Mentor
		m.Technologies = append([]shared.Technology(nil), u.Mentor.Technologies...)
		c.Mentor = &m
	}
	if u.Mentee != nil {
		m := *u.Mentee
		c.Mentee = &m
	}
	return &c
}
