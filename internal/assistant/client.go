// Package assistant implements the HTTP client for the external reasoning
// backend that powers the chat assistant and the market-research wizard.
//
// The backend exposes three JSON endpoints:
//
//	POST /api/chat        answers a prompt given conversation history
//	POST /api/suggestions returns follow-up question suggestions
//	POST /api/experts     returns expertise keywords matching a query, used
//	                      to surface experts from the local directory
//
// All calls are context-aware and instrumented with OpenTelemetry spans.
// A non-2xx response or transport failure surfaces as ErrUnavailable so the
// service layer can map it to a retryable 502.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnavailable indicates the reasoning backend could not produce an answer
// (transport failure, timeout, or non-2xx status).
var ErrUnavailable = errors.New("assistant backend unavailable")

// HistoryItem is one prior utterance sent as conversation context.
type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for the /api/chat endpoint.
type ChatRequest struct {
	FocusMode string        `json:"focus_mode"`
	Query     string        `json:"query"`
	History   []HistoryItem `json:"history,omitempty"`
}

// ChatResponse is the assistant's answer: the reply text plus the source
// references it cited.
type ChatResponse struct {
	Message string   `json:"message"`
	Sources []string `json:"sources,omitempty"`
}

// Client talks to the reasoning backend. The zero value is not usable;
// construct with New.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// New builds a Client for the given base URL. A zero timeout defaults to 60s,
// long enough for market-research generations.
func New(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Chat sends the prompt and history and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.post(ctx, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Message) == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrUnavailable)
	}
	return &out, nil
}

// Suggestions returns follow-up question suggestions for the conversation.
func (c *Client) Suggestions(ctx context.Context, history []HistoryItem) ([]string, error) {
	payload := struct {
		History []HistoryItem `json:"history"`
	}{History: history}
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.post(ctx, "/api/suggestions", payload, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// ExpertKeywords asks the backend which expertise keywords match the query.
// The caller ranks the local directory against them.
func (c *Client) ExpertKeywords(ctx context.Context, query string) ([]string, error) {
	payload := struct {
		Query string `json:"query"`
	}{Query: query}
	var out struct {
		Keywords []string `json:"keywords"`
	}
	if err := c.post(ctx, "/api/experts", payload, &out); err != nil {
		return nil, err
	}
	return out.Keywords, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	tr := otel.Tracer("assistant/Client")
	ctx, span := tr.Start(ctx, "POST "+path,
		trace.WithAttributes(attribute.String("assistant.path", path)),
	)
	defer span.End()

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("assistant call failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log without trusting its size.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).
			Str("body", string(snippet)).Msg("assistant returned non-2xx")
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
