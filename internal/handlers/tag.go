package handlers

import (
	"net/http"

	"devqa/internal/services"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List 热门标签 (GET /api/tags)
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.Top(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}
