package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"todo-api/internal/apperror"
	"todo-api/internal/cache"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

const (
	MaxListLimit         = 100
	MaxTitleLength       = 255
	MaxDescriptionLength = 2000
)

// TodoRepository stores todos. Every method takes the owner id and must
// apply it in the same statement as the read or write, returning
// apperror.ErrNotFound when no row owned by ownerID matches.
type TodoRepository interface {
	List(ctx context.Context, ownerID string, filter models.TodoFilter, page models.Page) ([]models.Todo, error)
	Get(ctx context.Context, ownerID, id string) (*models.Todo, error)
	Create(ctx context.Context, todo *models.Todo) error
	Update(ctx context.Context, ownerID, id string, patch models.TodoPatch) (*models.Todo, error)
	Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}

// ListCache holds list pages per owner. Implementations swallow their own
// failures; a miss is always safe. Generation must be read before the page
// is loaded from storage and its value put in the key; Invalidate must move
// the owner to a new generation.
type ListCache interface {
	Generation(ctx context.Context, ownerID string) (int64, bool)
	GetList(ctx context.Context, k cache.ListKey) ([]models.Todo, bool)
	SetList(ctx context.Context, k cache.ListKey, todos []models.Todo)
	Invalidate(ctx context.Context, ownerID string)
}

type EventPublisher interface {
	PublishTodoEvent(ctx context.Context, evt models.TodoEvent) error
}

type TodoService struct {
	repo   TodoRepository
	cache  ListCache
	events EventPublisher
	lists  singleflight.Group

	// writeCounts counts committed writes per owner (*atomic.Int64) so a list
	// issued after a write never joins a query that started before it.
	writeCounts sync.Map
}

type TodoOption func(*TodoService)

func WithCache(c ListCache) TodoOption {
	return func(s *TodoService) { s.cache = c }
}

func WithEvents(p EventPublisher) TodoOption {
	return func(s *TodoService) { s.events = p }
}

func NewTodoService(repo TodoRepository, opts ...TodoOption) *TodoService {
	s := &TodoService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns ownerID's todos in insertion order. Limit 0 means no limit.
// Concurrent identical misses share one storage query.
func (s *TodoService) List(ctx context.Context, ownerID string, filter models.TodoFilter, page models.Page) ([]models.Todo, error) {
	if page.Limit < 0 || page.Limit > MaxListLimit {
		return nil, apperror.Validation("limit", fmt.Sprintf("limit must be at most %d", MaxListLimit))
	}
	if page.Offset < 0 {
		return nil, apperror.Validation("offset", "offset must be >= 0")
	}

	key := cache.ListKey{OwnerID: ownerID, Filter: filter, Page: page}
	cacheable := false
	if s.cache != nil {
		if gen, ok := s.cache.Generation(ctx, ownerID); ok {
			key.Gen, cacheable = gen, true
			if todos, hit := s.cache.GetList(ctx, key); hit {
				return todos, nil
			}
		}
	}

	flight := key.String() + ":w=" + strconv.FormatInt(s.writes(ownerID).Load(), 10)
	v, err, _ := s.lists.Do(flight, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		todos, err := s.repo.List(shared, ownerID, filter, page)
		if err != nil {
			return nil, err
		}
		if cacheable {
			s.cache.SetList(shared, key, todos)
		}
		return todos, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Todo)), nil
}

func (s *TodoService) Get(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, apperror.NotFound("todo")
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *TodoService) Create(ctx context.Context, ownerID, title string, description *string) (*models.Todo, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	todo := &models.Todo{OwnerID: ownerID, Title: title, Description: description}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, err
	}
	s.changed(ctx, models.EventTodoCreated, todo)
	return todo, nil
}

// Update applies only the non-nil fields of patch. An empty patch still
// refreshes updated_at.
func (s *TodoService) Update(ctx context.Context, ownerID, id string, patch models.TodoPatch) (*models.Todo, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, apperror.NotFound("todo")
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if err := validateDescription(patch.Description); err != nil {
		return nil, err
	}
	todo, err := s.repo.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, models.EventTodoUpdated, todo)
	return todo, nil
}

func (s *TodoService) Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, apperror.NotFound("todo")
	}
	todo, err := s.repo.Toggle(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, models.EventTodoToggled, todo)
	return todo, nil
}

// Delete reports whether a todo owned by ownerID was removed.
func (s *TodoService) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	id, ok := canonicalID(id)
	if !ok {
		return false, nil
	}
	deleted, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil || !deleted {
		return false, err
	}
	s.changed(ctx, models.EventTodoDeleted, &models.Todo{ID: id, OwnerID: ownerID})
	return true, nil
}

// changed runs after a committed mutation. Neither step can fail the request.
func (s *TodoService) changed(ctx context.Context, eventType string, todo *models.Todo) {
	s.writes(todo.OwnerID).Add(1)
	if s.cache != nil {
		s.cache.Invalidate(ctx, todo.OwnerID)
	}
	if s.events == nil {
		return
	}
	evt := models.TodoEvent{
		Type:       eventType,
		TodoID:     todo.ID,
		OwnerID:    todo.OwnerID,
		Completed:  todo.Completed,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishTodoEvent(ctx, evt); err != nil {
		logger.Warn(ctx, "Todo event publish failed", "error", err, "type", eventType, "todo_id", todo.ID)
	}
}

func (s *TodoService) writes(ownerID string) *atomic.Int64 {
	v, _ := s.writeCounts.LoadOrStore(ownerID, new(atomic.Int64))
	return v.(*atomic.Int64)
}

// canonicalID reports false for ids that cannot name a stored todo.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperror.Validation("title", "title must not be blank")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperror.Validation("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return apperror.Validation("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}
	return nil
}
