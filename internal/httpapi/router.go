package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/echocare/internal/common"
	"github.com/suPer8Hu/echocare/internal/httpapi/handlers"
	"github.com/suPer8Hu/echocare/internal/httpapi/middleware"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.NoStore())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route_not_found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	r.GET("/ping", h.Ping)

	// pages
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/login") })
	r.GET("/login", h.LoginPage)
	r.GET("/chat", h.ChatPage)

	// auth
	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	authGroup := api.Group("/")
	authGroup.Use(middleware.AuthRequired(h.DB, h.Cfg.JWTSecret))
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.Me)

	// legacy single chat
	r.POST("/chat", h.Chat)
	r.POST("/chat/jobs", h.CreateChatJob)
	r.GET("/chat/jobs/:job_id", h.GetChatJob)
	return r
}
