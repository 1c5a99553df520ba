// Package server provides the HTTP API over the invoice analytics data.
// It is a thin adapter layer: handlers translate requests into repository and
// service calls and shape the JSON envelopes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/chat"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/internal/storage"
)

// Repositories bundles the persistence layer handed to the server.
type Repositories struct {
	Vendors   *repository.VendorRepository
	Customers *repository.CustomerRepository
	Invoices  *repository.InvoiceRepository
	LineItems *repository.LineItemRepository
	Documents *repository.DocumentRepository
	Users     *repository.UserRepository
}

// Server is the HTTP server adapter.
type Server struct {
	config     config.ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// New creates the HTTP server with middleware and routes configured.
func New(
	cfg config.ServerConfig,
	repos Repositories,
	analyticsService *analytics.Service,
	chatProxy *chat.Proxy,
	uploads storage.Store,
	logger *zap.Logger,
) *Server {
	router := gin.New()

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: NewHandlers(repos, analyticsService, chatProxy, uploads, logger),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		invoices := api.Group("/invoices")
		{
			invoices.GET("", h.ListInvoices)
			invoices.GET("/:id", h.GetInvoice)
			invoices.POST("", h.CreateInvoice)
			invoices.PUT("/:id", h.UpdateInvoice)
			invoices.DELETE("/:id", h.DeleteInvoice)
		}

		vendors := api.Group("/vendors")
		{
			vendors.GET("", h.ListVendors)
			vendors.GET("/:id", h.GetVendor)
			vendors.POST("", h.CreateVendor)
			vendors.PUT("/:id", h.UpdateVendor)
			vendors.DELETE("/:id", h.DeleteVendor)
		}

		customers := api.Group("/customers")
		{
			customers.GET("", h.ListCustomers)
			customers.GET("/:id", h.GetCustomer)
			customers.POST("", h.CreateCustomer)
			customers.PUT("/:id", h.UpdateCustomer)
			customers.DELETE("/:id", h.DeleteCustomer)
		}

		documents := api.Group("/documents")
		{
			documents.GET("", h.ListDocuments)
			documents.GET("/stats", h.DocumentStats)
			documents.GET("/:id", h.GetDocument)
			documents.POST("/upload", h.UploadDocument)
			documents.DELETE("/:id", h.DeleteDocument)
		}

		users := api.Group("/users")
		{
			users.GET("", h.ListUsers)
			users.GET("/stats", h.UserStats)
			users.GET("/:id", h.GetUser)
			users.POST("", h.CreateUser)
			users.PUT("/:id", h.UpdateUser)
			users.DELETE("/:id", h.DeleteUser)
		}

		analyticsGroup := api.Group("/analytics")
		{
			analyticsGroup.GET("/stats", h.AnalyticsOverview)
			analyticsGroup.GET("/invoice-trends", h.InvoiceTrends)
			analyticsGroup.GET("/vendors/top10", h.TopVendors)
			analyticsGroup.GET("/category-spend", h.CategorySpend)
			analyticsGroup.GET("/cash-outflow", h.CashOutflow)
			analyticsGroup.GET("/departments", h.Departments)
			analyticsGroup.GET("/departments/trends", h.DepartmentTrends)
		}

		chatGroup := api.Group("/chat")
		{
			chatGroup.POST("/chat-with-data", h.ChatWithData)
			chatGroup.GET("/history", h.ChatHistory)
		}
	}
}

// Start runs the HTTP server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
