package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/echocare/internal/chat"
	"github.com/suPer8Hu/echocare/internal/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type chatReq struct {
	Message string `json:"message"`
}

// Chat is the legacy single-chat endpoint: {message} -> {response}.
func (h *Handler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json")
		return
	}

	reply, err := h.ChatSvc.Reply(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			common.Fail(c, http.StatusBadRequest, "message_required")
			return
		}
		h.Log.Warn("chat reply failed", zap.Error(err))
		common.Fail(c, http.StatusBadGateway, "reply_failed")
		return
	}
	common.OK(c, gin.H{"response": reply})
}

func (h *Handler) CreateChatJob(c *gin.Context) {
	if h.Rabbit == nil {
		common.Fail(c, http.StatusServiceUnavailable, "jobs_disabled")
		return
	}

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, "idempotency_key_too_long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	j, created, err := h.ChatSvc.Enqueue(c.Request.Context(), req.Message, idempoKeyPtr)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			common.Fail(c, http.StatusBadRequest, "message_required")
			return
		}
		h.Log.Error("create chat job", zap.String("key", idempoKey), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "internal_error")
		return
	}

	// Enqueue only when a new job was created
	if created {
		if err := h.Rabbit.PublishJob(c.Request.Context(), j.ID); err != nil {
			h.Log.Error("publish chat job", zap.String("job_id", j.ID), zap.Error(err))
			common.Fail(c, http.StatusInternalServerError, "enqueue_failed")
			return
		}
	}

	common.OK(c, gin.H{"job_id": j.ID})
}

func (h *Handler) GetChatJob(c *gin.Context) {
	jobID := c.Param("job_id")
	j, err := h.ChatSvc.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "job_not_found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, "internal_error")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":         j.ID,
			"status":     j.Status,
			"done":       j.Done(),
			"response":   j.Reply,
			"error":      j.Error,
			"created_at": j.CreatedAt,
			"updated_at": j.UpdatedAt,
		},
	})
}
