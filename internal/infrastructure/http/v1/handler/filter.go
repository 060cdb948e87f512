package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1/dto"
)

func (h *Handler) Filters(c *gin.Context) {
	active, err := h.mapUseCase.ActiveFilter(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "filters", dto.FiltersResponse{
		Active: active,
		Names:  h.mapUseCase.FilterNames(),
	})
}

func (h *Handler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.mapUseCase.SetFilter(c.Request.Context(), req.Name); err != nil {
		h.RespondWithError(c, err)
		return
	}

	loggerFrom(c).Info("filter changed", "filter", req.Name)
	h.RespondWithJSON(c, http.StatusOK, "filter set", nil)
}
