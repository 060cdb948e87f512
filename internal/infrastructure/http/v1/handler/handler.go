package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/usecase"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate    *validator.Validate
	mapUseCase  *usecase.MapUseCase
	trackLoader usecase.TrackLoader
}

func NewHandler(v *validator.Validate, uc *usecase.MapUseCase, loader usecase.TrackLoader) *Handler {
	return &Handler{
		validate:    v,
		mapUseCase:  uc,
		trackLoader: loader,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

// RespondWithError maps domain errors to status codes.
func (h *Handler) RespondWithError(c *gin.Context, err error) {
	l := loggerFrom(c)

	switch {
	case errors.Is(err, domain.ErrParse):
		// track loader errors carry file system details
		l.Warn("track file rejected", "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "failed to load track file", nil)
	case errors.Is(err, domain.ErrInvalidInput):
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		h.RespondWithJSON(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		l.Warn("request timed out", "path", c.Request.URL.Path)
		h.RespondWithJSON(c, http.StatusGatewayTimeout, "request timed out", nil)
	default:
		l.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.Error(err)
		h.RespondWithInternalServerError(c)
	}
}

// bind decodes the JSON body into req and validates it. It writes the
// error response itself and reports whether the handler may continue.
func (h *Handler) bind(c *gin.Context, req any) bool {
	l := loggerFrom(c)

	if err := c.ShouldBindJSON(req); err != nil {
		l.Warn("failed to decode request body", "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "failed to decode request body", nil)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		l.Warn("request validation failed", "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return false
	}
	return true
}

func loggerFrom(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
