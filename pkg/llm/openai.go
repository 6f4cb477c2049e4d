package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// OpenAIClient speaks the /chat/completions protocol. It works against any
// OpenAI-compatible backend (OpenAI, DeepSeek, vLLM, Ollama's compat
// endpoint) selected by base URL and model name.
type OpenAIClient struct {
	baseURL    string
	model      string
	apiKey     string
	thinking   bool
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOpenAIClient builds a client from config. When a token URL is
// configured, requests authenticate through the OAuth2 client-credentials
// flow instead of a static bearer key.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}

	var limiter *rate.Limiter
	if cfg.RatePerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), 1)
	}

	return &OpenAIClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		thinking:   cfg.Thinking,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// Wire request shapes.

type chatCompletionRequest struct {
	Model       string           `json:"model"`
	Messages    []outMessage     `json:"messages"`
	Stream      bool             `json:"stream"`
	Temperature float64          `json:"temperature"`
	Tools       []ToolSchema     `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	Thinking    *thinkingSetting `json:"thinking,omitempty"`
}

type thinkingSetting struct {
	Type string `json:"type"` // "enabled" or "disabled"
}

type outMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []outToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type outToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function outFunction `json:"function"`
}

type outFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (c *OpenAIClient) buildRequest(req ChatRequest, stream bool) *chatCompletionRequest {
	out := &chatCompletionRequest{
		Model:       c.model,
		Stream:      stream,
		Temperature: req.Temperature,
		Tools:       req.Tools,
	}
	if len(req.Tools) > 0 {
		out.ToolChoice = "auto"
	}
	if c.thinking || req.Thinking {
		out.Thinking = &thinkingSetting{Type: "enabled"}
	}
	for _, m := range req.Messages {
		om := outMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			om.ToolCalls = append(om.ToolCalls, outToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: outFunction{Name: tc.Name, Arguments: string(args)},
			})
		}
		out.Messages = append(out.Messages, om)
	}
	return out
}

func (c *OpenAIClient) post(body *chatCompletionRequest) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("chat endpoint (url: %s, model: %s) returned status %d: %s",
			url, c.model, resp.StatusCode, string(excerpt))
	}
	return resp, nil
}

// Chat sends a blocking non-streaming request and returns the complete
// first-choice response.
func (c *OpenAIClient) Chat(req ChatRequest) (*ChatResponse, error) {
	resp, err := c.post(c.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc streamChunk
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(doc.Error) > 0 && string(doc.Error) != "null" {
		return nil, fmt.Errorf("provider error: %s", providerErrorText(doc.Error))
	}
	if len(doc.Choices) == 0 {
		return nil, fmt.Errorf("response carried no choices")
	}

	msg := doc.Choices[0].Message
	if msg == nil {
		msg = doc.Choices[0].Delta
	}
	out := &ChatResponse{}
	if msg != nil {
		out.Content = msg.Content
		for i, tc := range msg.ToolCalls {
			if tc.Function.Name == "" {
				continue
			}
			id := tc.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", i)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCallRef{
				ID:        id,
				Name:      tc.Function.Name,
				Arguments: parseArguments(tc.Function.Arguments),
			})
		}
	}
	return out, nil
}

// StreamChat sends a streaming request and feeds normalized events to
// yield. Transport and provider failures are delivered as one error event
// and also returned.
func (c *OpenAIClient) StreamChat(req ChatRequest, yield func(StreamEvent)) error {
	resp, err := c.post(c.buildRequest(req, true))
	if err != nil {
		yield(errorEvent(err.Error()))
		return err
	}
	defer resp.Body.Close()

	return newNormalizer(yield).run(resp.Body)
}

// CheckConnection issues a minimal request to verify the endpoint and
// credentials are usable.
func (c *OpenAIClient) CheckConnection() error {
	_, err := c.Chat(ChatRequest{
		Messages: []Message{{Role: "user", Content: "ping"}},
	})
	return err
}
