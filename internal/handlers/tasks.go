package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-manager/api/internal/models"
)

type TaskService interface {
	Create(ctx context.Context, owner *models.UserProfile, in models.TaskCreate) (*models.Task, error)
	List(ctx context.Context, owner *models.UserProfile, skip, limit int) ([]models.Task, error)
	Get(ctx context.Context, owner *models.UserProfile, id int64) (*models.Task, error)
	Update(ctx context.Context, owner *models.UserProfile, id int64, patch models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, owner *models.UserProfile, id int64) error
}

type TaskHandler struct {
	tasks  TaskService
	logger logrus.FieldLogger
}

func NewTaskHandler(tasks TaskService, logger logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

type listTasksQuery struct {
	Skip  int `form:"skip,default=0" binding:"gte=0"`
	Limit int `form:"limit,default=100" binding:"gte=1"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var in models.TaskCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), user, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var q listTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), user, q.Skip, q.Limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var patch models.TaskUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), user, id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation_error",
			"message": "Request validation failed",
			"details": map[string]string{"id": "must be an integer"},
		})
		return 0, false
	}
	return id, true
}
