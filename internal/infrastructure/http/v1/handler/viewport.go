package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/usecase"
)

func (h *Handler) Viewport(c *gin.Context) {
	view, err := h.mapUseCase.Viewport(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "viewport", toViewportResponse(view))
}

func (h *Handler) Pan(c *gin.Context) {
	var req dto.PanRequest
	if !h.bind(c, &req) {
		return
	}

	state, err := h.mapUseCase.PanBy(c.Request.Context(), req.DX, req.DY)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "panned", state)
}

func (h *Handler) Zoom(c *gin.Context) {
	var req dto.ZoomRequest
	if !h.bind(c, &req) {
		return
	}

	if (req.Zoom == nil) == (req.Step == 0) {
		h.RespondWithJSON(c, http.StatusBadRequest, "exactly one of zoom and step is required", nil)
		return
	}
	if (req.CenterX == nil) != (req.CenterY == nil) {
		h.RespondWithJSON(c, http.StatusBadRequest, "center_x and center_y go together", nil)
		return
	}

	ctx := c.Request.Context()
	var (
		state domain.ViewportState
		err   error
	)
	switch {
	case req.Zoom == nil && req.CenterX != nil:
		state, err = h.mapUseCase.ZoomByAt(ctx, req.Step, *req.CenterX, *req.CenterY)
	case req.Zoom == nil:
		state, err = h.mapUseCase.ZoomBy(ctx, req.Step)
	case req.CenterX != nil:
		state, err = h.mapUseCase.ZoomTo(ctx, *req.Zoom, *req.CenterX, *req.CenterY)
	default:
		state, err = h.mapUseCase.ZoomToCenter(ctx, *req.Zoom)
	}
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "zoomed", state)
}

func (h *Handler) Center(c *gin.Context) {
	var req dto.CenterRequest
	if !h.bind(c, &req) {
		return
	}

	state, err := h.mapUseCase.CenterOn(c.Request.Context(), *req.Lat, *req.Lon)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "centered", state)
}

func (h *Handler) Resize(c *gin.Context) {
	var req dto.ResizeRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.mapUseCase.Resize(c.Request.Context(), req.Width, req.Height); err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "resized", nil)
}

func toViewportResponse(view usecase.ViewportView) dto.ViewportResponse {
	tiles := make([]dto.LayoutTile, len(view.Tiles))
	for i, e := range view.Tiles {
		tiles[i] = dto.LayoutTile{
			Z:      e.Key.Zoom,
			X:      e.Key.X,
			Y:      e.Key.Y,
			Left:   e.Left,
			Top:    e.Top,
			Ready:  e.Tile != nil,
			Source: string(e.Source),
			URL:    fmt.Sprintf("/api/v1/tile/%d/%d/%d", e.Key.Zoom, e.Key.X, e.Key.Y),
		}
	}

	return dto.ViewportResponse{
		State:  view.State,
		Width:  view.Width,
		Height: view.Height,
		Filter: view.Filter,
		Tiles:  tiles,
	}
}
