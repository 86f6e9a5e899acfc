package response

import (
	"os"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, message string) {
	body := gin.H{
		"success": false,
		"error":   message,
	}
	// Stack traces leak internals; only attach them outside production.
	if statusCode >= 500 && os.Getenv("APP_ENV") == "development" {
		body["stack"] = string(debug.Stack())
	}
	c.JSON(statusCode, body)
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func ValidationErrors(c *gin.Context, errs []FieldError) {
	c.JSON(400, gin.H{
		"success": false,
		"errors":  errs,
	})
}
