package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-backend/internal/observability"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
)

// MessageHandler manages message endpoints.
type MessageHandler struct {
	threadRepo  repositories.ThreadRepository
	messageRepo repositories.MessageRepository
	emitter     *telemetry.EventEmitter
	pageSize    int
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(threadRepo repositories.ThreadRepository, messageRepo repositories.MessageRepository, emitter *telemetry.EventEmitter, pageSize int) *MessageHandler {
	return &MessageHandler{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		emitter:     emitter,
		pageSize:    pageSize,
	}
}

// CreateMessage appends a message to a thread the caller participates in.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req struct {
		ThreadID int    `json:"thread_id" binding:"required"`
		Text     string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	thread, err := h.threadRepo.GetThread(c.Request.Context(), req.ThreadID)
	if err != nil {
		if errors.Is(err, repositories.ErrThreadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load thread"})
		return
	}
	if !thread.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a thread participant"})
		return
	}

	msg, err := h.messageRepo.Create(c.Request.Context(), thread.ID, userID, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	observability.IncMessageCreated()
	h.emitter.Emit(c.Request.Context(), "message.created", eventMeta(c), gin.H{"message_id": msg.ID, "thread_id": msg.ThreadID})
	c.JSON(http.StatusCreated, msg)
}

// ListThreadMessages returns thread messages, oldest first.
func (h *MessageHandler) ListThreadMessages(c *gin.Context) {
	threadID, err := strconv.Atoi(c.Param("thread_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}

	userID := c.GetInt("userID")
	thread, err := h.threadRepo.GetThread(c.Request.Context(), threadID)
	if err != nil {
		if errors.Is(err, repositories.ErrThreadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load thread"})
		return
	}
	if !thread.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a thread participant"})
		return
	}

	limit, offset := paginationParams(c, h.pageSize)
	msgs, total, err := h.messageRepo.ListForThread(c.Request.Context(), threadID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": total, "messages": msgs})
}

// SetReadStatus flips the read flag on a message. Any participant may do
// this, the sender included; repeating a value is a no-op.
func (h *MessageHandler) SetReadStatus(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		IsRead *bool `json:"is_read" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}

	member, err := h.threadRepo.IsParticipant(c.Request.Context(), msg.ThreadID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a thread participant"})
		return
	}

	updated, err := h.messageRepo.SetReadStatus(c.Request.Context(), messageID, *req.IsRead)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update message"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "message.read", eventMeta(c), gin.H{"message_id": updated.ID, "is_read": updated.IsRead})
	c.JSON(http.StatusOK, updated)
}

// UnreadCount reports how many unread messages await the caller across all
// their threads, excluding messages they authored.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.messageRepo.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread messages"})
		return
	}

	observability.IncUnreadLookup()
	c.JSON(http.StatusOK, gin.H{"count": count})
}
