package handlers

import (
	"net/http"

	"devqa/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type voteRequest struct {
	Value int `json:"value" binding:"required,oneof=1 -1"`
}

type voteResponse struct {
	Success    bool `json:"success"`
	TotalVotes int  `json:"totalVotes"`
}

// Vote returns the handler for POST /api/{questions,answers}/:id/vote.
// Repeating the same value retracts the vote, the opposite value switches it.
func (h *VoteHandler) Vote(kind services.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req voteRequest
		if !bindJSON(c, &req) {
			return
		}

		total, err := h.votes.Cast(c.Request.Context(), user.ID, services.Target{Kind: kind, ID: id}, req.Value)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, voteResponse{Success: true, TotalVotes: total})
	}
}

// State returns the handler for GET /api/{questions,answers}/:id/vote.
func (h *VoteHandler) State(kind services.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		state, err := h.votes.State(c.Request.Context(), user.ID, services.Target{Kind: kind, ID: id})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}
