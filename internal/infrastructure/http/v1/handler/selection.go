package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1/dto"
)

func (h *Handler) Selection(c *gin.Context) {
	view, err := h.mapUseCase.Selection(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "selection", dto.SelectionResponse{
		AspectWidth:  view.AspectWidth,
		AspectHeight: view.AspectHeight,
		ZoomFactor:   view.ZoomFactor,
		Rect:         view.Rect,
		Bounds:       view.Bounds,
	})
}

func (h *Handler) UpdateSelection(c *gin.Context) {
	var req dto.SelectionRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if req.AspectWidth > 0 {
		if err := h.mapUseCase.SetAspectRatio(ctx, req.AspectWidth, req.AspectHeight); err != nil {
			h.RespondWithError(c, err)
			return
		}
	}
	if req.ZoomPercent != nil {
		if err := h.mapUseCase.SetSelectionZoom(ctx, *req.ZoomPercent); err != nil {
			h.RespondWithError(c, err)
			return
		}
	}
	if req.Visible != nil {
		if err := h.mapUseCase.ShowSelection(ctx, *req.Visible); err != nil {
			h.RespondWithError(c, err)
			return
		}
	}

	h.Selection(c)
}
