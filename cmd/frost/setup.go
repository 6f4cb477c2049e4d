package main

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/coldframe/frost/pkg/core"
)

// runSetup asks for the details the default config cannot guess and
// persists them to .frost/config.json.
func runSetup(cfg *core.AppConfig) error {
	operator := cfg.Operator
	provider := cfg.LLM.Provider
	model := cfg.LLM.Model
	baseURL := cfg.LLM.BaseURL
	apiKey := cfg.LLM.APIKey

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Operator name").
				Description("Recorded on every freezer operation you commit.").
				Value(&operator).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("operator name is required")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Title("LLM provider").
				Options(
					huh.NewOption("OpenAI-compatible (Ollama, vLLM, OpenAI)", "openai"),
					huh.NewOption("Google Gemini", "gemini"),
				).
				Value(&provider),

			huh.NewInput().
				Title("Model").
				Value(&model),

			huh.NewInput().
				Title("Base URL").
				Description("Ignored for Gemini.").
				Value(&baseURL),

			huh.NewInput().
				Title("API key").
				Description("Leave empty for a local server, or set FROST_API_KEY instead.").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Operator = operator
	cfg.LLM.Provider = provider
	cfg.LLM.Model = model
	cfg.LLM.BaseURL = baseURL
	cfg.LLM.APIKey = apiKey

	return core.SaveConfig(*cfg)
}
