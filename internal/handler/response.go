package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tournament-ledger/internal/handler/middleware"
	"tournament-ledger/internal/model"
	"tournament-ledger/internal/pkg/validation"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func writeSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data})
}

func writeFailure(c *gin.Context, code int, message, detail string) {
	c.AbortWithStatusJSON(code, Response{Message: message, Error: detail})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch model.ErrorKind(err) {
	case model.ErrValidation:
		return http.StatusBadRequest
	case model.ErrConflict:
		return http.StatusConflict
	case model.ErrAuth:
		return http.StatusUnauthorized
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrState:
		return http.StatusConflict
	case model.ErrInsufficientFunds:
		return http.StatusUnprocessableEntity
	case model.ErrBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError replies with the status of err's kind. Errors without a kind
// are logged and hidden from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.KeyRequestID)).
			Str("path", c.FullPath()).
			Msg("Request failed")
		_ = c.Error(err)
		writeFailure(c, status, "Internal server error", http.StatusText(status))
		return
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
		log.Warn().
			Err(err).
			Str("request_id", c.GetString(middleware.KeyRequestID)).
			Str("path", c.FullPath()).
			Msg("Ledger busy")
		writeFailure(c, status, model.ErrLedgerBusy.Error(), model.ErrBusy.Error())
		return
	}
	writeFailure(c, status, err.Error(), model.ErrorKind(err).Error())
}

// bind decodes the JSON body into dst and replies 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if msgs := validation.FormatValidationError(err); msgs != nil {
			writeFailure(c, http.StatusBadRequest, strings.Join(msgs, "; "), model.ErrValidation.Error())
			return false
		}
		writeFailure(c, http.StatusBadRequest, "Invalid request body", model.ErrValidation.Error())
		return false
	}
	return true
}

// pathID parses a numeric path parameter and replies 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(c, http.StatusBadRequest, "Invalid "+name, model.ErrValidation.Error())
		return 0, false
	}
	return id, true
}

// currentUser returns the authenticated user id. Auth runs before every
// handler that calls this, so a miss is a routing bug.
func currentUser(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		writeError(c, errors.New("route is missing auth middleware"))
	}
	return id, ok
}

// statusFilter parses the optional ?status= query.
func statusFilter(c *gin.Context) (model.RequestStatus, bool) {
	switch s := model.RequestStatus(c.Query("status")); s {
	case "", model.RequestPending, model.RequestCompleted, model.RequestRejected:
		return s, true
	default:
		writeFailure(c, http.StatusBadRequest, "status must be Pending, Completed or Rejected", model.ErrValidation.Error())
		return "", false
	}
}
