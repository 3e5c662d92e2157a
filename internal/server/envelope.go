package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The API keeps the wire contract the original deployment shipped with:
// mutations answer HTTP 200 and carry the domain outcome in a statusCode
// field in the body, which clients branch on separately from the
// transport status. Read endpoints return plain JSON payloads.

func envelope(c *gin.Context, statusCode int, message string) {
	c.JSON(http.StatusOK, gin.H{"statusCode": statusCode, "message": message})
}

func envelopeWith(c *gin.Context, statusCode int, message string, fields gin.H) {
	body := gin.H{"statusCode": statusCode, "message": message}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"statusCode": http.StatusBadRequest, "message": err.Error()})
}

func internalError(c *gin.Context) {
	envelope(c, http.StatusInternalServerError, "Internal server error")
}
