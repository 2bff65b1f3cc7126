package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/echocare/internal/auth"
	"github.com/suPer8Hu/echocare/internal/common"
	"github.com/suPer8Hu/echocare/internal/httpapi/middleware"
	"github.com/suPer8Hu/echocare/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func bindCredentials(c *gin.Context) (username, password string, ok bool) {
	var req credentialsReq
	_ = c.ShouldBindJSON(&req) // a missing body is the same as empty fields
	username = strings.TrimSpace(req.Username)
	password = strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		common.Fail(c, http.StatusBadRequest, "username_and_password_required")
		return "", "", false
	}
	return username, password, true
}

// issueToken signs a new session token and makes it the user's only valid one.
func (h *Handler) issueToken(c *gin.Context, user *models.User) (string, bool) {
	token, tokenID, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, h.Cfg.TokenTTL)
	if err != nil {
		h.Log.Error("sign token", zap.Uint64("user_id", user.ID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "token_error")
		return "", false
	}
	if err := h.DB.WithContext(c.Request.Context()).Model(user).Update("token_id", tokenID).Error; err != nil {
		h.Log.Error("store token id", zap.Uint64("user_id", user.ID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "db_error")
		return "", false
	}
	return token, true
}

func (h *Handler) Register(c *gin.Context) {
	username, password, ok := bindCredentials(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var cnt int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&cnt).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, "db_error")
		return
	}
	if cnt > 0 {
		common.Fail(c, http.StatusBadRequest, "username_taken")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "hash_error")
		return
	}

	user := models.User{Username: username, PasswordHash: hash}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// lost a race with a concurrent registration of the same name
		common.Fail(c, http.StatusBadRequest, "username_taken")
		return
	}

	token, ok := h.issueToken(c, &user)
	if !ok {
		return
	}
	h.Log.Info("user registered", zap.Uint64("user_id", user.ID), zap.String("username", username))
	common.OK(c, gin.H{"message": "registered", "token": token, "user_id": user.ID})
}

func (h *Handler) Login(c *gin.Context) {
	username, password, ok := bindCredentials(c)
	if !ok {
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		common.Fail(c, http.StatusInternalServerError, "db_error")
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, password) {
		common.Fail(c, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, ok := h.issueToken(c, &user)
	if !ok {
		return
	}
	common.OK(c, gin.H{"message": "logged_in", "token": token, "user_id": user.ID})
}

func (h *Handler) Logout(c *gin.Context) {
	user, _ := c.Get(middleware.UserKey)
	u := user.(*models.User)
	if err := h.DB.WithContext(c.Request.Context()).Model(u).Update("token_id", nil).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, "db_error")
		return
	}
	common.OK(c, gin.H{"message": "logged_out"})
}

func (h *Handler) Me(c *gin.Context) {
	user, _ := c.Get(middleware.UserKey)
	u := user.(*models.User)
	common.OK(c, gin.H{"user_id": u.ID, "username": u.Username, "created_at": u.CreatedAt})
}
