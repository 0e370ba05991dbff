package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a 200 with data
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Message: "success", Data: data})
}

// Error writes an error reply with status
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Message: message})
}

func BadRequest(c *gin.Context, message string) { Error(c, http.StatusBadRequest, message) }
func NotFound(c *gin.Context, message string)   { Error(c, http.StatusNotFound, message) }

func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal error")
}
