package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-api/internal/cache"
	"todo-api/internal/models"
	"todo-api/internal/repository/memory"
)

// stallingTodos holds its first List call after the rows are read, until
// release is closed.
type stallingTodos struct {
	TodoRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newStallingTodos() *stallingTodos {
	return &stallingTodos{
		TodoRepository: memory.NewTodos(),
		loaded:         make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (s *stallingTodos) List(ctx context.Context, ownerID string, filter models.TodoFilter, page models.Page) ([]models.Todo, error) {
	todos, err := s.TodoRepository.List(ctx, ownerID, filter, page)
	stall := false
	s.once.Do(func() { stall = true })
	if stall {
		close(s.loaded)
		<-s.release
	}
	return todos, err
}

func newRedisCache(t *testing.T) *cache.TodoCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewWithClient(client, time.Minute)
}

// startStalledList begins a List that has read its rows and is waiting.
func startStalledList(t *testing.T, svc *TodoService, repo *stallingTodos) <-chan []models.Todo {
	t.Helper()
	done := make(chan []models.Todo, 1)
	go func() {
		todos, err := svc.List(context.Background(), alice, models.TodoFilter{}, models.Page{})
		assert.NoError(t, err)
		done <- todos
	}()
	select {
	case <-repo.loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("list never reached storage")
	}
	return done
}

func TestList_ReadLoadedBeforeWriteIsNotServedAfterIt(t *testing.T) {
	repo := newStallingTodos()
	svc := NewTodoService(repo, WithCache(newRedisCache(t)))
	ctx := context.Background()

	done := startStalledList(t, svc, repo)

	created, err := svc.Create(ctx, alice, "written while a list was in flight", nil)
	require.NoError(t, err)

	close(repo.release)
	assert.Empty(t, <-done, "the in-flight list saw the rows from before the write")

	list, err := svc.List(ctx, alice, models.TodoFilter{}, models.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestList_AfterWriteDoesNotJoinEarlierQuery(t *testing.T) {
	repo := newStallingTodos()
	svc := NewTodoService(repo)
	ctx := context.Background()

	done := startStalledList(t, svc, repo)

	_, err := svc.Create(ctx, alice, "t", nil)
	require.NoError(t, err)

	list, err := svc.List(ctx, alice, models.TodoFilter{}, models.Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	select {
	case <-done:
		t.Fatal("stalled list finished early")
	default:
	}
	close(repo.release)
	assert.Empty(t, <-done)
}
