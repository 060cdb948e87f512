package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1/dto"
)

// AddFile indexes a track given inline or loads it from a path.
func (h *Handler) AddFile(c *gin.Context) {
	var req dto.AddFileRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if req.Path == "" {
		if err := h.mapUseCase.AddFile(ctx, req.ID, req.GeoPoints()); err != nil {
			h.RespondWithError(c, err)
			return
		}
		h.RespondWithJSON(c, http.StatusCreated, "file added", nil)
		return
	}

	select {
	case err := <-h.mapUseCase.LoadFile(ctx, req.ID, req.Path, h.trackLoader):
		if err != nil {
			h.RespondWithError(c, err)
			return
		}
	case <-ctx.Done():
		h.RespondWithError(c, ctx.Err())
		return
	}

	h.RespondWithJSON(c, http.StatusCreated, "file loaded", nil)
}

func (h *Handler) RemoveFile(c *gin.Context) {
	id := c.Param("id")
	if err := h.mapUseCase.RemoveFile(c.Request.Context(), id); err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "file removed", nil)
}

func (h *Handler) Files(c *gin.Context) {
	files, err := h.mapUseCase.Files(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "files", dto.FilesResponse{Files: files})
}
