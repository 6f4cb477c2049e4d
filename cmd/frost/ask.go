package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/core/tools"
	"github.com/coldframe/frost/pkg/inventory"
	"github.com/coldframe/frost/pkg/llm"
	"github.com/coldframe/frost/pkg/plan"
)

// runOnce executes a single request headlessly and prints the answer.
// There is no confirmation prompt in this mode: staged plans commit
// directly, so scripted invocations do not hang on input.
func runOnce(cfg core.AppConfig, input string) error {
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return err
	}

	store := inventory.NewStore(cfg.Inventory)
	planStore := plan.NewStore()
	suite := tools.NewSuite(store, planStore, nil, cfg.Operator)
	agent := core.NewAgent(client, suite, core.Options{
		MaxSteps:    cfg.MaxSteps,
		Temperature: cfg.LLM.Temperature,
	})

	var debugLog *core.DebugLog
	if cfg.Debug {
		debugLog, _ = core.OpenDebugLog()
		defer debugLog.Close()
	}

	callback := func(ev core.AgentEvent) {
		debugLog.Record(ev)
		switch ev.Type {
		case core.EventToolStart:
			fmt.Fprintf(os.Stderr, "* %s\n", ev.ToolName)
		case core.EventToolEnd:
			if ev.Observation != nil && !ev.Observation.OK {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", ev.Observation.ErrorCode, ev.Observation.Message)
			}
		case core.EventError:
			fmt.Fprintf(os.Stderr, "error: %s\n", ev.Content)
		}
	}

	result, _, err := agent.Run(context.Background(), input, nil, callback)
	if err != nil {
		return err
	}
	if result.Final == "" {
		return fmt.Errorf("the run produced no answer")
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(result.Final)
		return nil
	}
	out, err := renderer.Render(result.Final)
	if err != nil {
		fmt.Println(result.Final)
		return nil
	}
	fmt.Print(out)

	if !result.OK {
		os.Exit(1)
	}
	return nil
}
