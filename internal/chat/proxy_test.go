package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProxyRelaysUpstreamAnswer(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody Request

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": "42 invoices", "sql": "SELECT COUNT(*) FROM invoices"}`))
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL, "secret-key", 5*time.Second, zap.NewNop())
	result := proxy.Ask(Request{Question: "how many invoices?", Context: "dashboard"})

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Contains(t, string(result.Body), "42 invoices")
	assert.Equal(t, "/chat", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "how many invoices?", gotBody.Question)
	assert.Equal(t, "dashboard", gotBody.Context)
}

func TestProxyOmitsAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL, "", 5*time.Second, zap.NewNop())
	proxy.Ask(Request{Question: "q"})

	assert.Empty(t, gotAuth)
}

func TestProxyPassesThroughUpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "could not translate question"}`))
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL, "", 5*time.Second, zap.NewNop())
	result := proxy.Ask(Request{Question: "gibberish"})

	assert.Equal(t, http.StatusUnprocessableEntity, result.Status)
	assert.Contains(t, string(result.Body), "could not translate")
}

func TestProxyMapsConnectionErrorsTo503(t *testing.T) {
	// Nothing listens here.
	proxy := NewProxy("http://127.0.0.1:1", "", time.Second, zap.NewNop())
	result := proxy.Ask(Request{Question: "q"})

	assert.Equal(t, http.StatusServiceUnavailable, result.Status)

	var body map[string]string
	require.NoError(t, json.Unmarshal(result.Body, &body))
	assert.Equal(t, "chat service unavailable", body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestProxyMapsTimeoutTo503(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL, "", 20*time.Millisecond, zap.NewNop())
	result := proxy.Ask(Request{Question: "q"})

	assert.Equal(t, http.StatusServiceUnavailable, result.Status)
}

func TestProxyTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	proxy := NewProxy(upstream.URL+"/", "", time.Second, zap.NewNop())
	proxy.Ask(Request{Question: "q"})

	assert.Equal(t, "/chat", gotPath)
}
