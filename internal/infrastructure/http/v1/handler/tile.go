package handler

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
)

// Tile serves the best available raster for a tile. A tile that is not
// ready yet answers 204 so the client draws a placeholder and retries.
func (h *Handler) Tile(c *gin.Context) {
	l := loggerFrom(c)

	strX := c.Param("x")
	strY := c.Param("y")
	strZ := c.Param("z")

	x, err := strconv.Atoi(strX)
	if err != nil {
		l.Warn("invalid x parameter", "x", strX, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "x should be integer", nil)
		return
	}

	y, err := strconv.Atoi(strY)
	if err != nil {
		l.Warn("invalid y parameter", "y", strY, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "y should be integer", nil)
		return
	}

	z, err := strconv.Atoi(strZ)
	if err != nil {
		l.Warn("invalid z parameter", "z", strZ, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "z should be integer", nil)
		return
	}

	key := domain.TileKey{Zoom: z, X: x, Y: y}
	tile, src, ok, err := h.mapUseCase.GetTile(c.Request.Context(), key)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}
	if !ok {
		l.Debug("tile not ready", "z", z, "x", x, "y", y)
		c.Status(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, tile.Image); err != nil {
		l.Error("failed to encode tile", "z", z, "x", x, "y", y, "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	c.Header("X-Tile-Source", string(src))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
