// Package chat relays natural-language data questions to the external
// NL-to-SQL service. The relay is deliberately thin: it forwards the question
// and returns whatever the upstream answers, mapping transport failures onto
// stable HTTP statuses.
package chat

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is the payload accepted from the dashboard and forwarded upstream.
type Request struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// Result carries the upstream response for the handler to relay.
type Result struct {
	Status int
	Body   []byte
}

// Proxy forwards chat questions to the configured upstream service.
type Proxy struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewProxy creates a proxy with the given base URL, optional API key and
// request timeout.
func NewProxy(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Proxy {
	return &Proxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Ask forwards the question upstream and returns the response to relay.
// A transport failure maps to 503, a non-2xx upstream status is passed
// through, and anything failing locally maps to 500. The Result is always
// relayable as-is.
func (p *Proxy) Ask(req Request) Result {
	payload, err := json.Marshal(req)
	if err != nil {
		p.logger.Error("Failed to encode chat request", zap.Error(err))
		return errorResult(http.StatusInternalServerError, "chat request failed", "could not encode request")
	}

	httpReq, err := http.NewRequest(http.MethodPost, p.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return errorResult(http.StatusInternalServerError, "chat request failed", err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.logger.Warn("Chat upstream unreachable", zap.Error(err))
		return errorResult(http.StatusServiceUnavailable,
			"chat service unavailable", "the data chat service is not reachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("Failed to read chat response", zap.Error(err))
		return errorResult(http.StatusInternalServerError, "chat request failed", "could not read upstream response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn("Chat upstream error",
			zap.Int("status", resp.StatusCode), zap.Int("body_size", len(body)))
	}
	return Result{Status: resp.StatusCode, Body: body}
}

func errorResult(status int, errMsg, detail string) Result {
	body, _ := json.Marshal(map[string]string{"error": errMsg, "message": detail})
	return Result{Status: status, Body: body}
}
