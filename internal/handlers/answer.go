package handlers

import (
	"net/http"

	"devqa/internal/services"
	"devqa/internal/utils"

	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	answers *services.AnswerService
}

func NewAnswerHandler(answers *services.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

type createAnswerRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type updateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}

// List (GET /api/answers?questionId=)
func (h *AnswerHandler) List(c *gin.Context) {
	questionID, ok := utils.ParseID(c.Query("questionId"))
	if !ok {
		abortError(c, http.StatusBadRequest, "invalid request", "questionId is required")
		return
	}
	h.listFor(c, questionID)
}

// ListForQuestion (GET /api/answers/question/:questionId)
func (h *AnswerHandler) ListForQuestion(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}
	h.listFor(c, questionID)
}

func (h *AnswerHandler) listFor(c *gin.Context, questionID uint) {
	answers, err := h.answers.ListForQuestion(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

// Get (GET /api/answers/:id)
func (h *AnswerHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	answer, err := h.answers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Create (POST /api/answers)
func (h *AnswerHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req createAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	answer, err := h.answers.Create(c.Request.Context(), user.ID, req.QuestionID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Update (PUT /api/answers/:id), author only
func (h *AnswerHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	answer, err := h.answers.Update(c.Request.Context(), user.ID, id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Delete (DELETE /api/answers/:id), author only
func (h *AnswerHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.answers.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Answer deleted successfully"})
}

// Accept (PATCH /api/answers/:id/accept), question author only
func (h *AnswerHandler) Accept(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	answer, err := h.answers.Accept(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}
