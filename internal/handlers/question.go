package handlers

import (
	"net/http"
	"strconv"

	"devqa/internal/services"
	"devqa/internal/utils"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questions *services.QuestionService
}

func NewQuestionHandler(questions *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

type createQuestionRequest struct {
	Title   string   `json:"title" binding:"required,min=15"`
	Content string   `json:"content" binding:"required,min=30"`
	Domain  string   `json:"domain" binding:"required"`
	Tags    []string `json:"tags"`
}

type updateQuestionRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Domain  *string  `json:"domain"`
	Tags    []string `json:"tags"`
}

// List (GET /api/questions?query=&tag=&domain=&sort=&page=&perPage=)
// The body is the bare array; the total goes into X-Total-Count.
func (h *QuestionHandler) List(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		query = c.Query("q")
	}
	h.list(c, services.ListQuestionsFilter{
		Query:   query,
		Tag:     c.Query("tag"),
		Domain:  c.Query("domain"),
		Sort:    c.Query("sort"),
		Page:    utils.ParsePositiveInt(c.Query("page"), 1),
		PerPage: utils.ParsePositiveInt(c.Query("perPage"), 0),
	})
}

// Search (GET /api/questions/search/:query)
func (h *QuestionHandler) Search(c *gin.Context) {
	h.list(c, services.ListQuestionsFilter{
		Query:   c.Param("query"),
		Page:    utils.ParsePositiveInt(c.Query("page"), 1),
		PerPage: utils.ParsePositiveInt(c.Query("perPage"), 0),
	})
}

func (h *QuestionHandler) list(c *gin.Context, filter services.ListQuestionsFilter) {
	page, err := h.questions.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(page.Total, 10))
	c.JSON(http.StatusOK, page.Questions)
}

// Get (GET /api/questions/:id)
func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	question, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// Create (POST /api/questions)
func (h *QuestionHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req createQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.questions.Create(c.Request.Context(), user.ID, services.CreateQuestionInput{
		Title:   req.Title,
		Content: req.Content,
		Domain:  req.Domain,
		Tags:    req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// Update (PUT /api/questions/:id), author only
func (h *QuestionHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.questions.Update(c.Request.Context(), user.ID, id, services.UpdateQuestionInput{
		Title:   req.Title,
		Content: req.Content,
		Domain:  req.Domain,
		Tags:    req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// Delete (DELETE /api/questions/:id), author only
func (h *QuestionHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.questions.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Question deleted successfully"})
}
