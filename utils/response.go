package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   any    `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

func Single(c *gin.Context, status int, doc any) {
	c.JSON(status, Envelope{Status: StatusSuccess, Data: gin.H{"data": doc}})
}

func List[T any](c *gin.Context, docs []T) {
	n := len(docs)
	c.JSON(http.StatusOK, Envelope{Status: StatusSuccess, Results: &n, Data: gin.H{"docs": docs}})
}

func Data(c *gin.Context, status int, data gin.H) {
	c.JSON(status, Envelope{Status: StatusSuccess, Data: data})
}

func Session(c *gin.Context, status int, token string, user any) {
	c.JSON(status, Envelope{Status: StatusSuccess, Token: token, Data: gin.H{"user": user}})
}

func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Status: StatusSuccess, Message: msg})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// StatusFor gives the envelope status word for an HTTP status code.
func StatusFor(code int) string {
	switch {
	case code >= 500:
		return StatusError
	case code >= 400:
		return StatusFail
	default:
		return StatusSuccess
	}
}
