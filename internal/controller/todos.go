package controller

import (
	"context"
	"net/http"

	"todo-api/internal/middleware"
	"todo-api/internal/models"

	"github.com/gin-gonic/gin"
)

type Todos interface {
	List(ctx context.Context, ownerID string, filter models.TodoFilter, page models.Page) ([]models.Todo, error)
	Get(ctx context.Context, ownerID, id string) (*models.Todo, error)
	Create(ctx context.Context, ownerID, title string, description *string) (*models.Todo, error)
	Update(ctx context.Context, ownerID, id string, patch models.TodoPatch) (*models.Todo, error)
	Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}

// TodoController serves /todos. Every handler runs behind RequireAuth and
// passes the caller's id down; ownership is enforced below this layer.
type TodoController struct {
	todos Todos
}

func NewTodoController(todos Todos) *TodoController {
	return &TodoController{todos: todos}
}

type listQuery struct {
	Completed *bool `form:"completed"`
	Limit     *int  `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    *int  `form:"offset" binding:"omitempty,min=0"`
}

type createTodoRequest struct {
	Title       string  `json:"title" binding:"required,notblank,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type updateTodoRequest struct {
	Title       *string `json:"title" binding:"omitempty,notblank,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Completed   *bool   `json:"completed"`
}

// List (auth): ?completed=&limit=&offset=, insertion order.
func (h *TodoController) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	var page models.Page
	if q.Limit != nil {
		page.Limit = *q.Limit
	}
	if q.Offset != nil {
		page.Offset = *q.Offset
	}
	todos, err := h.todos.List(c.Request.Context(), middleware.UserID(c), models.TodoFilter{Completed: q.Completed}, page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// Create (auth): returns 201 with the stored todo.
func (h *TodoController) Create(c *gin.Context) {
	var body createTodoRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	todo, err := h.todos.Create(c.Request.Context(), middleware.UserID(c), body.Title, body.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (h *TodoController) Get(c *gin.Context) {
	todo, err := h.todos.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Update (auth): partial update; omitted fields keep their values.
func (h *TodoController) Update(c *gin.Context) {
	var body updateTodoRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	patch := models.TodoPatch{Title: body.Title, Description: body.Description, Completed: body.Completed}
	todo, err := h.todos.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoController) Toggle(c *gin.Context) {
	todo, err := h.todos.Toggle(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Delete (auth): 204 when removed, 404 when nothing owned by the caller matched.
func (h *TodoController) Delete(c *gin.Context) {
	deleted, err := h.todos.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
