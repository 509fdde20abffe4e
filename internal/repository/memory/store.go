// Package memory holds process-local implementations of the user and todo
// stores. Each operation runs under one lock, so the owner check and the
// mutation are a single step just as with the Postgres statements.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo-api/internal/apperror"
	"todo-api/internal/models"
)

type Users struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

func NewUsers() *Users {
	return &Users{byEmail: make(map[string]models.User)}
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return apperror.DuplicateEmail()
	}
	user.ID = uuid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.byEmail[user.Email] = *user
	return nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return &u, nil
}

// Todos keeps rows in insertion order.
type Todos struct {
	mu   sync.RWMutex
	rows []models.Todo
}

func NewTodos() *Todos {
	return &Todos{}
}

func (s *Todos) List(_ context.Context, ownerID string, filter models.TodoFilter, page models.Page) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Todo, 0)
	skipped := 0
	for _, t := range s.rows {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		if skipped < page.Offset {
			skipped++
			continue
		}
		if page.Limit > 0 && len(out) == page.Limit {
			break
		}
		out = append(out, clone(t))
	}
	return out, nil
}

func (s *Todos) Get(_ context.Context, ownerID, id string) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(ownerID, id)
	if i < 0 {
		return nil, apperror.NotFound("todo")
	}
	t := clone(s.rows[i])
	return &t, nil
}

func (s *Todos) Create(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo.ID = uuid.New().String()
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	s.rows = append(s.rows, clone(*todo))
	return nil
}

func (s *Todos) Update(_ context.Context, ownerID, id string, patch models.TodoPatch) (*models.Todo, error) {
	return s.mutate(ownerID, id, func(t *models.Todo) {
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			d := *patch.Description
			t.Description = &d
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
	})
}

func (s *Todos) Toggle(_ context.Context, ownerID, id string) (*models.Todo, error) {
	return s.mutate(ownerID, id, func(t *models.Todo) {
		t.Completed = !t.Completed
	})
}

func (s *Todos) Delete(_ context.Context, ownerID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(ownerID, id)
	if i < 0 {
		return false, nil
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return true, nil
}

func (s *Todos) mutate(ownerID, id string, fn func(t *models.Todo)) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(ownerID, id)
	if i < 0 {
		return nil, apperror.NotFound("todo")
	}
	fn(&s.rows[i])
	s.rows[i].UpdatedAt = time.Now().UTC()
	t := clone(s.rows[i])
	return &t, nil
}

// index must be called with mu held.
func (s *Todos) index(ownerID, id string) int {
	return slices.IndexFunc(s.rows, func(t models.Todo) bool {
		return t.ID == id && t.OwnerID == ownerID
	})
}

func clone(t models.Todo) models.Todo {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	return t
}
