package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chat-backend/internal/models"
	"chat-backend/internal/observability"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
)

// ThreadHandler manages thread endpoints.
type ThreadHandler struct {
	threadRepo repositories.ThreadRepository
	userRepo   repositories.UserRepository
	emitter    *telemetry.EventEmitter
	pageSize   int
}

// NewThreadHandler builds a ThreadHandler.
func NewThreadHandler(threadRepo repositories.ThreadRepository, userRepo repositories.UserRepository, emitter *telemetry.EventEmitter, pageSize int) *ThreadHandler {
	return &ThreadHandler{
		threadRepo: threadRepo,
		userRepo:   userRepo,
		emitter:    emitter,
		pageSize:   pageSize,
	}
}

type threadResponse struct {
	ID           int       `json:"id"`
	Participants []int     `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newThreadResponse(thread models.Thread) threadResponse {
	return threadResponse{
		ID:           thread.ID,
		Participants: thread.Participants(),
		CreatedAt:    thread.CreatedAt,
		UpdatedAt:    thread.UpdatedAt,
	}
}

// CreateThread resolves or creates the unique thread for a participant pair.
// Reuse answers 200, first contact answers 201.
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req struct {
		Participants []int `json:"participants" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Participants) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a thread must have exactly 2 participants"})
		return
	}
	if req.Participants[0] == req.Participants[1] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participants must be distinct"})
		return
	}

	userID := c.GetInt("userID")
	other := 0
	switch userID {
	case req.Participants[0]:
		other = req.Participants[1]
	case req.Participants[1]:
		other = req.Participants[0]
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "one of participants must be the requesting user"})
		return
	}

	if _, err := h.userRepo.GetUser(c.Request.Context(), other); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown participant"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify participant"})
		return
	}

	thread, created, err := h.threadRepo.ResolveOrCreate(c.Request.Context(), userID, other)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create thread"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		observability.IncThreadCreated()
		h.emitter.Emit(c.Request.Context(), "thread.created", eventMeta(c), gin.H{"thread_id": thread.ID, "participants": thread.Participants()})
	}

	c.JSON(status, newThreadResponse(thread))
}

// ListThreads returns the caller's threads, most recently active first.
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	userID := c.GetInt("userID")
	limit, offset := paginationParams(c, h.pageSize)

	threads, total, err := h.threadRepo.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load threads"})
		return
	}

	responses := make([]threadResponse, 0, len(threads))
	for _, thread := range threads {
		responses = append(responses, newThreadResponse(thread))
	}

	c.JSON(http.StatusOK, gin.H{"count": total, "threads": responses})
}

// DeleteThread removes one of the caller's threads and all its messages.
// A thread the caller is not part of reads as missing.
func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	threadID, err := strconv.Atoi(c.Param("thread_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}
	userID := c.GetInt("userID")

	if err := h.threadRepo.DeleteForUser(c.Request.Context(), threadID, userID); err != nil {
		if errors.Is(err, repositories.ErrThreadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete thread"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "thread.deleted", eventMeta(c), gin.H{"thread_id": threadID})
	c.Status(http.StatusNoContent)
}
