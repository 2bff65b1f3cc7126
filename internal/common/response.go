package common

import (
	"github.com/gin-gonic/gin"
)

// Fail writes the error envelope the pages understand: {"error": code}.
func Fail(c *gin.Context, httpStatus int, code string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{"error": code})
}

// OK writes data as the response body with status 200.
func OK(c *gin.Context, data any) {
	c.JSON(200, data)
}
