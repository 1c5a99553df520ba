package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendlens/spendlens/internal/chat"
)

// chatRequest is the body accepted from the dashboard chat panel.
type chatRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// ChatWithData handles POST /api/chat/chat-with-data by relaying the
// question to the upstream service and passing its answer through verbatim.
func (h *Handlers) ChatWithData(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		respondError(c, http.StatusBadRequest, "question is required")
		return
	}

	result := h.chat.Ask(chat.Request{Question: req.Question, Context: req.Context})
	c.Data(result.Status, "application/json", result.Body)
}

// ChatHistory handles GET /api/chat/history. Conversations are not persisted
// server-side; the endpoint exists so clients get a stable empty list.
func (h *Handlers) ChatHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": []interface{}{}})
}
