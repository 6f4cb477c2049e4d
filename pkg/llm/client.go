package llm

import "fmt"

// NewClient builds the ChatClient selected by config. The default provider
// is the OpenAI-compatible endpoint since it also fronts local runtimes.
func NewClient(cfg Config) (ChatClient, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (expected openai or gemini)", cfg.Provider)
	}
}
