package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient is a ChatClient backed by the Google Gen AI SDK. Gemini
// delivers function calls whole rather than fragmented, so its stream maps
// onto the same events without the SSE reassembly path.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed chat client.
func NewGeminiClient(cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Chat sends a blocking request and returns the complete response.
func (c *GeminiClient) Chat(req ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	contents, config := c.convert(req)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	out := &ChatResponse{}
	callNum := 0
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				out.Content += part.Text
			}
			if part.FunctionCall != nil {
				out.ToolCalls = append(out.ToolCalls, functionCallRef(part.FunctionCall, callNum))
				callNum++
			}
		}
	}
	return out, nil
}

// StreamChat streams the response, emitting answer and tool_call events.
func (c *GeminiClient) StreamChat(req ChatRequest, yield func(StreamEvent)) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	contents, config := c.convert(req)
	callNum := 0
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
		if err != nil {
			msg := fmt.Sprintf("gemini stream failed: %v", err)
			yield(errorEvent(msg))
			return fmt.Errorf("%s", msg)
		}
		if resp == nil {
			continue
		}
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				if part.Text != "" {
					if part.Thought {
						yield(StreamEvent{Type: EventThought, Text: part.Text})
					} else {
						yield(StreamEvent{Type: EventAnswer, Text: part.Text})
					}
				}
				if part.FunctionCall != nil {
					ref := functionCallRef(part.FunctionCall, callNum)
					callNum++
					yield(StreamEvent{Type: EventToolCall, ToolCall: &ref})
				}
			}
		}
	}
	return nil
}

func functionCallRef(fc *genai.FunctionCall, num int) ToolCallRef {
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	return ToolCallRef{
		ID:        fmt.Sprintf("call_%s_%d", fc.Name, num),
		Name:      fc.Name,
		Arguments: args,
	}
}

// convert translates the request into Gemini contents plus config. System
// messages become the system instruction; tool results become function
// response parts attributed by scanning prior assistant tool calls.
func (c *GeminiClient) convert(req ChatRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		config.Temperature = &t
	}
	if len(req.Tools) > 0 {
		config.Tools = geminiTools(req.Tools)
	}

	var system []string
	var contents []*genai.Content
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		}

		content := &genai.Content{}
		switch msg.Role {
		case "assistant":
			content.Role = genai.RoleModel
		default:
			content.Role = genai.RoleUser
		}

		if msg.Role == "tool" {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     toolNameForCallID(msg.ToolCallID, req.Messages),
					Response: decodeObservation(msg.Content),
				},
			})
		} else if msg.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
		}

		for _, tc := range msg.ToolCalls {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: tc.Arguments},
			})
		}

		if len(content.Parts) > 0 {
			contents = append(contents, content)
		}
	}

	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}
	return contents, config
}

func decodeObservation(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return map[string]any{"result": content}
	}
	return obj
}

func toolNameForCallID(id string, messages []Message) string {
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			if tc.ID == id {
				return tc.Name
			}
		}
	}
	// Ids are generated as call_<name>_<n>.
	parts := strings.Split(id, "_")
	if len(parts) >= 2 {
		return parts[1]
	}
	return id
}

func geminiTools(tools []ToolSchema) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  geminiSchema(t.Function.Parameters),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// geminiSchema converts a JSON Schema map into the SDK's schema type.
func geminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	schema := &genai.Schema{}
	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = geminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = geminiSchema(items)
	}
	return schema
}
