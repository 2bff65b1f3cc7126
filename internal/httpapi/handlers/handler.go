package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/echocare/internal/chat"
	"github.com/suPer8Hu/echocare/internal/config"
	"github.com/suPer8Hu/echocare/internal/httpapi/web"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobPublisher hands a job id to the worker queue.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	ChatSvc *chat.Service
	Rabbit  JobPublisher // nil disables async chat jobs
	Log     *zap.Logger
}

func NewHandler(db *gorm.DB, cfg config.Config, chatSvc *chat.Service, rabbit JobPublisher, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{DB: db, Cfg: cfg, ChatSvc: chatSvc, Rabbit: rabbit, Log: log}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.LoginHTML)
}

func (h *Handler) ChatPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.ChatHTML)
}
