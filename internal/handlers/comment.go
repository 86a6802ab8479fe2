package handlers

import (
	"net/http"

	"devqa/internal/services"
	"devqa/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	Content    string `json:"content" binding:"required"`
	QuestionID *uint  `json:"questionId"`
	AnswerID   *uint  `json:"answerId"`
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// List (GET /api/comments?questionId= or ?answerId=)
func (h *CommentHandler) List(c *gin.Context) {
	var parent services.CommentParent
	for _, p := range []struct {
		key string
		dst **uint
	}{
		{"questionId", &parent.QuestionID},
		{"answerId", &parent.AnswerID},
	} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		id, ok := utils.ParseID(raw)
		if !ok {
			abortError(c, http.StatusBadRequest, "invalid "+p.key)
			return
		}
		*p.dst = &id
	}

	comments, err := h.comments.List(c.Request.Context(), parent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Create (POST /api/comments)
func (h *CommentHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), user.ID, services.CommentParent{
		QuestionID: req.QuestionID,
		AnswerID:   req.AnswerID,
	}, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Update (PUT /api/comments/:id), author only
func (h *CommentHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), user.ID, id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete (DELETE /api/comments/:id), author only
func (h *CommentHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Comment deleted successfully"})
}
