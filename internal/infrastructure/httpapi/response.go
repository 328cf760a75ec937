package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
