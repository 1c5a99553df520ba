package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/chat"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/internal/storage"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	repos     Repositories
	analytics *analytics.Service
	chat      *chat.Proxy
	uploads   storage.Store
	logger    *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(repos Repositories, analyticsService *analytics.Service, chatProxy *chat.Proxy, uploads storage.Store, logger *zap.Logger) *Handlers {
	return &Handlers{
		repos:     repos,
		analytics: analyticsService,
		chat:      chatProxy,
		uploads:   uploads,
		logger:    logger,
	}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "spendlens",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// listEnvelope is the shared list response shape.
type listEnvelope struct {
	Data       interface{}           `json:"data"`
	Pagination repository.Pagination `json:"pagination"`
}

// listOptions parses the shared pagination, search and sort query parameters.
func listOptions(c *gin.Context) repository.ListOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	return repository.ListOptions{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Filters:   map[string]string{},
	}
}

// respondList writes the shared list envelope.
func respondList(c *gin.Context, data interface{}, pagination repository.Pagination) {
	c.JSON(http.StatusOK, listEnvelope{Data: data, Pagination: pagination})
}

// respondError writes a JSON error body with the given status.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondRepoError maps repository errors onto HTTP statuses: 404 for a
// missing entity, 500 otherwise.
func (h *Handlers) respondRepoError(c *gin.Context, err error, notFoundMsg string) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, notFoundMsg)
		return
	}
	h.logger.Error("Request failed",
		zap.String("path", c.Request.URL.Path), zap.Error(err))
	respondError(c, http.StatusInternalServerError, "internal server error")
}
