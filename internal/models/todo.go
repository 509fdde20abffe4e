package models

import "time"

// Todo represents a todo item. OwnerID is never exposed over the API.
type Todo struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoFilter narrows a list query. Nil fields are not applied.
type TodoFilter struct {
	Completed *bool
}

// Page bounds a list query. Zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// TodoPatch holds the fields supplied to an update; nil means unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

const (
	EventTodoCreated = "todo.created"
	EventTodoUpdated = "todo.updated"
	EventTodoToggled = "todo.toggled"
	EventTodoDeleted = "todo.deleted"
)

// TodoEvent is the message payload published to Kafka after a committed mutation.
type TodoEvent struct {
	Type       string    `json:"type"`
	TodoID     string    `json:"todo_id"`
	OwnerID    string    `json:"owner_id"`
	Completed  bool      `json:"completed"`
	OccurredAt time.Time `json:"occurred_at"`
}
