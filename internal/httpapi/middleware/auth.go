package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/suPer8Hu/echocare/internal/auth"
	"github.com/suPer8Hu/echocare/internal/common"
	"github.com/suPer8Hu/echocare/internal/models"
	"gorm.io/gorm"
)

const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

type tokenBody struct {
	Token string `json:"token"`
}

func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c.ContentType() == binding.MIMEJSON {
		var b tokenBody
		if err := c.ShouldBindBodyWith(&b, binding.JSON); err == nil {
			return strings.TrimSpace(b.Token)
		}
	}
	return ""
}

// AuthRequired accepts a bearer token (or a JSON "token" field) whose
// session is still the user's current one.
func AuthRequired(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			common.Fail(c, http.StatusUnauthorized, "auth_required")
			return
		}
		claims, err := auth.ParseJWT(raw, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, "invalid_token")
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				common.Fail(c, http.StatusUnauthorized, "invalid_token")
				return
			}
			common.Fail(c, http.StatusInternalServerError, "db_error")
			return
		}
		if user.TokenID == nil || *user.TokenID != claims.TokenID {
			common.Fail(c, http.StatusUnauthorized, "invalid_token")
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, &user)
		c.Next()
	}
}
