package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/chat"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/models"
	"github.com/spendlens/spendlens/internal/repository"
	"github.com/spendlens/spendlens/internal/storage"
	"github.com/spendlens/spendlens/pkg/database"
)

type apiEnv struct {
	router *gin.Engine
	repos  Repositories
}

func newAPIEnv(t *testing.T, chatURL string) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations("../../migrations"))

	repos := Repositories{
		Vendors:   repository.NewVendorRepository(db.DB, logger),
		Customers: repository.NewCustomerRepository(db.DB, logger),
		Invoices:  repository.NewInvoiceRepository(db.DB, logger),
		LineItems: repository.NewLineItemRepository(db.DB, logger),
		Documents: repository.NewDocumentRepository(db.DB, logger),
		Users:     repository.NewUserRepository(db.DB, logger),
	}

	analyticsService := analytics.NewService(repos.Invoices, repos.Documents, logger)
	chatProxy := chat.NewProxy(chatURL, "", time.Second, logger)
	uploads := storage.NewUploadStore(t.TempDir(), 1024*1024, logger)

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, repos, analyticsService, chatProxy, uploads, logger)
	return &apiEnv{router: srv.Router(), repos: repos}
}

func (e *apiEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) seedVendor(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, e.repos.Vendors.Create(nil, &models.Vendor{ID: id, Name: name}))
}

func (e *apiEnv) seedInvoice(t *testing.T, id, vendorID string, total float64) {
	t.Helper()
	require.NoError(t, e.repos.Invoices.Create(nil, &models.Invoice{
		ID: id, InvoiceNumber: "N-" + id, VendorID: vendorID,
		IssueDate: time.Now().UTC(), TotalAmount: total, Subtotal: total,
		Currency: "EUR", Status: models.StatusPending,
	}))
}

func TestHealthCheck(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")

	w := env.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestVendorEndpoints(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")

	t.Run("create", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/vendors", gin.H{"name": "Acme GmbH", "category": "Software"})
		require.Equal(t, http.StatusCreated, w.Code)

		var created models.Vendor
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Acme GmbH", created.Name)
	})

	t.Run("create without name is rejected", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/vendors", gin.H{"category": "Software"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list envelope", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/vendors?page=1&limit=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var envelope struct {
			Data       []models.Vendor       `json:"data"`
			Pagination repository.Pagination `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Len(t, envelope.Data, 1)
		assert.Equal(t, 1, envelope.Pagination.Page)
		assert.Equal(t, int64(1), envelope.Pagination.Total)
		assert.Equal(t, 1, envelope.Pagination.Pages)
	})

	t.Run("get missing returns 404", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/vendors/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestVendorDeleteGuard(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")
	env.seedVendor(t, "v1", "Acme")
	env.seedInvoice(t, "i1", "v1", 100)

	w := env.request(t, http.MethodDelete, "/api/vendors/v1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "existing invoices")

	require.NoError(t, env.repos.Invoices.Delete("i1"))
	w = env.request(t, http.MethodDelete, "/api/vendors/v1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInvoiceEndpoints(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")
	env.seedVendor(t, "v1", "Acme")

	t.Run("create with line items", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/invoices", gin.H{
			"invoiceNumber": "INV-1",
			"vendorId":      "v1",
			"totalAmount":   119.0,
			"subtotal":      100.0,
			"taxAmount":     19.0,
			"lineItems": []gin.H{
				{"description": "Licenses", "quantity": 2, "unitPrice": 50, "totalPrice": 100},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var created models.Invoice
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, models.StatusPending, created.Status)
		assert.Equal(t, "EUR", created.Currency)
		assert.Len(t, created.LineItems, 1)
	})

	t.Run("create without vendor is rejected", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/invoices", gin.H{"invoiceNumber": "INV-2"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get returns full graph", func(t *testing.T) {
		invoices, _, err := env.repos.Invoices.List(repository.ListOptions{}, repository.InvoiceFilter{})
		require.NoError(t, err)
		require.NotEmpty(t, invoices)

		w := env.request(t, http.MethodGet, "/api/invoices/"+invoices[0].ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Acme")
	})

	t.Run("delete returns 204", func(t *testing.T) {
		invoices, _, err := env.repos.Invoices.List(repository.ListOptions{}, repository.InvoiceFilter{})
		require.NoError(t, err)
		require.NotEmpty(t, invoices)

		w := env.request(t, http.MethodDelete, "/api/invoices/"+invoices[0].ID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestUserEndpoints(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")

	t.Run("create hashes password", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/users", gin.H{
			"name": "Ana", "email": "ana@example.com", "password": "correct-horse",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "correct-horse")

		user, err := env.repos.Users.GetByEmail("ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, "USER", user.Role)
		assert.True(t, user.IsActive)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/users", gin.H{
			"name": "Ana Again", "email": "ana@example.com", "password": "another-pass",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "already exists")
	})

	t.Run("short password is rejected", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/users", gin.H{
			"name": "Ben", "email": "ben@example.com", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stats", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/users/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats models.UserStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, int64(1), stats.TotalUsers)
	})
}

func TestAnalyticsEndpoints(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")
	env.seedVendor(t, "v1", "Acme")
	env.seedInvoice(t, "i1", "v1", 100)
	env.seedInvoice(t, "i2", "v1", 300)

	t.Run("stats", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/analytics/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats models.OverviewStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 400.0, stats.TotalSpend)
		assert.Equal(t, int64(2), stats.TotalInvoices)
	})

	t.Run("top vendors", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/analytics/vendors/top10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Acme")
	})

	t.Run("departments", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/analytics/departments", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "IT")
		assert.Contains(t, w.Body.String(), "HR")
	})
}

func TestChatEndpoints(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer": "there are 2 invoices"}`))
	}))
	defer upstream.Close()

	env := newAPIEnv(t, upstream.URL)

	t.Run("relays answer", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/chat/chat-with-data", gin.H{"question": "how many invoices?"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "there are 2 invoices")
	})

	t.Run("missing question is rejected", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/chat/chat-with-data", gin.H{"context": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("history is an empty list", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/chat/history", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data": []}`, w.Body.String())
	})
}

func TestChatUpstreamDown(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")

	w := env.request(t, http.MethodPost, "/api/chat/chat-with-data", gin.H{"question": "q"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDocumentUpload(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")

	upload := func(t *testing.T, fieldName, fileName string) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile(fieldName, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 test"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	t.Run("accepts pdf", func(t *testing.T) {
		w := upload(t, "document", "invoice-march.pdf")
		require.Equal(t, http.StatusCreated, w.Code)

		var doc models.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "invoice-march.pdf", doc.FileName)
		assert.Equal(t, models.DocumentTypeInvoice, doc.Type)
		assert.Equal(t, "PENDING", doc.ProcessingStatus)
	})

	t.Run("rejects disallowed extension", func(t *testing.T) {
		w := upload(t, "document", "malware.exe")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing file field", func(t *testing.T) {
		w := upload(t, "wrong-field", "invoice.pdf")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stats", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/documents/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats models.DocumentStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, int64(1), stats.Total)
	})
}

func TestCustomerEndpoints(t *testing.T) {
	env := newAPIEnv(t, "http://127.0.0.1:1")

	w := env.request(t, http.MethodPost, "/api/customers", gin.H{"name": "Globex AG", "country": "DE"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Customer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/customers/%s", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/customers/%s", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
