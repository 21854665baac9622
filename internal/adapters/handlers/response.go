package handlers

import (
	"errors"
	"net/http"

	apperrors "github.com/iwtcode/probeStation/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse возвращает стандартизированный ответ с ошибкой
func (h *Handler) ErrorResponse(c *gin.Context, err error, statusCode int, message string, showError bool) {
	errorMessage := message
	if showError && err != nil {
		errorMessage = message + ": " + err.Error()
	}

	h.logger.Error(message, "error", err, "statusCode", statusCode)
	c.AbortWithStatusJSON(statusCode, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    statusCode,
			"message": errorMessage,
		},
	})
}

// BadRequest возвращает ошибку 400
func (h *Handler) BadRequest(c *gin.Context, err error, message string) {
	if message == "" {
		message = apperrors.BadRequest
	}
	h.ErrorResponse(c, err, http.StatusBadRequest, message, true)
}

// InternalError возвращает ошибку 500
func (h *Handler) InternalError(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusInternalServerError, apperrors.InternalServerError, false)
}

// NotFound возвращает ошибку 404
func (h *Handler) NotFound(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusNotFound, apperrors.NotFound, true)
}

// Conflict возвращает ошибку 409
func (h *Handler) Conflict(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusConflict, apperrors.Conflict, true)
}

// HandleError выбирает код ответа по классу ошибки.
// Ошибки обмена с приборами отдаются с текстом: оператору нужно знать, какой прибор не ответил.
func (h *Handler) HandleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		h.ErrorResponse(c, appErr.Err, appErr.Code, appErr.Message, appErr.IsUserFacing)
	case errors.Is(err, apperrors.ErrConfiguration),
		errors.Is(err, apperrors.ErrSoftLimitExceeded):
		h.BadRequest(c, err, "")
	case errors.Is(err, apperrors.ErrRunNotFound),
		errors.Is(err, apperrors.ErrDataNotFound):
		h.NotFound(c, err)
	case errors.Is(err, apperrors.ErrAlreadyRunning):
		h.Conflict(c, err)
	case errors.Is(err, apperrors.ErrDeviceCommunication),
		errors.Is(err, apperrors.ErrLimitSensorTriggered):
		h.ErrorResponse(c, err, http.StatusBadGateway, "instrument error", true)
	default:
		h.InternalError(c, err)
	}
}
