package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1/dto"
)

// Heatmap returns the input a heatmap generator needs for the current
// selection. An empty body asks for the default resolution.
func (h *Handler) Heatmap(c *gin.Context) {
	var req dto.HeatmapRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	input, err := h.mapUseCase.PrepareHeatmap(c.Request.Context(), req.Width, req.Height)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "heatmap input", input)
}

func (h *Handler) CacheStats(c *gin.Context) {
	stats, err := h.mapUseCase.Stats(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "cache stats", stats)
}
