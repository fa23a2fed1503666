package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/utils"
)

// Recovery turns a handler panic into a 500 with the usual error body.
func Recovery(l logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				reqID, _ := c.Get("request_id")
				l.WithFields(logrus.Fields{
					"request_id": reqID,
					"panic":      rec,
					"stack":      string(debug.Stack()),
				}).Error("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    utils.CodeInternal,
					"message": "internal error",
				})
			}
		}()
		c.Next()
	}
}
