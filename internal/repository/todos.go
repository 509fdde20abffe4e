package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"todo-api/internal/apperror"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

const todoColumns = `id, user_id, title, description, completed, created_at, updated_at`

// Todos is the Postgres todo store. Every statement filters on user_id, so
// ownership is decided by the same statement that reads or writes the row.
type Todos struct {
	db *sql.DB
}

func NewTodos(db *sql.DB) *Todos {
	return &Todos{db: db}
}

// List returns the owner's todos in insertion order.
func (r *Todos) List(ctx context.Context, ownerID string, filter models.TodoFilter, page models.Page) ([]models.Todo, error) {
	var sb strings.Builder
	args := []any{ownerID}
	sb.WriteString(`SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1`)
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		sb.WriteString(` AND completed = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY seq ASC`)
	if page.Limit > 0 {
		args = append(args, page.Limit)
		sb.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		sb.WriteString(` OFFSET $` + strconv.Itoa(len(args)))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		logger.Error(ctx, "Repository ListTodos failed", "error", err, "owner_id", ownerID)
		return nil, apperror.Storage("todos.list", err)
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			logger.Error(ctx, "Repository scan todo failed", "error", err)
			return nil, apperror.Storage("todos.list", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("todos.list", err)
	}
	return todos, nil
}

func (r *Todos) Get(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND user_id = $2`, id, ownerID)
	return r.one(ctx, "todos.get", id, row)
}

// Create inserts a new todo owned by todo.OwnerID, assigning its ID and timestamps.
func (r *Todos) Create(ctx context.Context, todo *models.Todo) error {
	todo.ID = uuid.New().String()
	now := now()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, user_id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		todo.ID, todo.OwnerID, todo.Title, nullString(todo.Description), todo.Completed, todo.CreatedAt, todo.UpdatedAt)
	if err != nil {
		logger.Error(ctx, "Repository CreateTodo failed", "error", err, "owner_id", todo.OwnerID)
		return apperror.Storage("todos.create", err)
	}
	return nil
}

// Update applies the supplied fields and refreshes updated_at in one statement.
func (r *Todos) Update(ctx context.Context, ownerID, id string, patch models.TodoPatch) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE todos SET
		   title = COALESCE($1, title),
		   description = CASE WHEN $2 THEN $3 ELSE description END,
		   completed = COALESCE($4, completed),
		   updated_at = $5
		 WHERE id = $6 AND user_id = $7
		 RETURNING `+todoColumns,
		nullString(patch.Title), patch.Description != nil, nullString(patch.Description), nullBool(patch.Completed),
		now(), id, ownerID)
	return r.one(ctx, "todos.update", id, row)
}

// Toggle flips completed in one statement.
func (r *Todos) Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE todos SET completed = NOT completed, updated_at = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING `+todoColumns,
		now(), id, ownerID)
	return r.one(ctx, "todos.toggle", id, row)
}

// Delete removes the todo and reports whether a row owned by ownerID matched.
func (r *Todos) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		logger.Error(ctx, "Repository DeleteTodo failed", "error", err, "id", id)
		return false, apperror.Storage("todos.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Storage("todos.delete", err)
	}
	return n > 0, nil
}

func (r *Todos) one(ctx context.Context, op, id string, row *sql.Row) (*models.Todo, error) {
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("todo")
	}
	if err != nil {
		logger.Error(ctx, "Repository todo query failed", "error", err, "op", op, "id", id)
		return nil, apperror.Storage(op, err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (*models.Todo, error) {
	var (
		t    models.Todo
		desc sql.NullString
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &t.Title, &desc, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// now is truncated to Postgres timestamp precision so values returned from
// Create match later reads.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
