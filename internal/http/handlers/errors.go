package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindBadRequest:      http.StatusBadRequest,
	domain.KindUnauthorized:    http.StatusUnauthorized,
	domain.KindForbidden:       http.StatusForbidden,
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindConflict:        http.StatusConflict,
	domain.KindTooManyRequests: http.StatusTooManyRequests,
	domain.KindInternal:        http.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status
func StatusFor(err error) int {
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// messages overrides the client text for specific sentinels on one endpoint
type messages map[error]string

func (m messages) lookup(err error) (string, bool) {
	for sentinel, text := range m {
		if errors.Is(err, sentinel) {
			return text, true
		}
	}
	return "", false
}

// ErrorBody writes the failure envelope shared by every endpoint
func ErrorBody(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// respondError writes err with its mapped status. Internal errors are logged
// and never echoed to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error, msgs messages) {
	status := StatusFor(err)

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}

	if text, ok := msgs.lookup(err); ok {
		ErrorBody(c, status, text)
		return
	}
	if status == http.StatusInternalServerError {
		ErrorBody(c, status, "Internal server error")
		return
	}
	ErrorBody(c, status, err.Error())
}

func bindError(c *gin.Context, err error) {
	ErrorBody(c, http.StatusBadRequest, err.Error())
}
