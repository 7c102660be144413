package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mverhage/bothive/internal/api/dto"
)

// ErrorHandlerMiddleware converts panics and unhandled gin errors into the
// API's success/message envelope instead of a bare 500.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithField("path", c.Request.URL.Path).Errorf("panic in handler: %v", err)
				c.JSON(http.StatusInternalServerError, dto.MessageResponse{
					Success: false,
					Message: "An unexpected error occurred",
				})
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, dto.MessageResponse{
				Success: false,
				Message: c.Errors.Last().Error(),
			})
		}
	}
}
