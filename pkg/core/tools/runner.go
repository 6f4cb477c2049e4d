package tools

import (
	"fmt"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/inventory"
	"github.com/coldframe/frost/pkg/llm"
	"github.com/coldframe/frost/pkg/plan"
)

// Suite is the tool registry handed to the agent. It implements
// core.ToolRunner: the agent dispatches by name and relays observations.
type Suite struct {
	tools map[string]Tool
	order []string
}

// NewSuite builds the full inventory tool set over the given stores. The
// confirmer may be nil, in which case plan commits proceed without
// interactive approval.
func NewSuite(store *inventory.Store, planStore *plan.Store, confirmer *Confirmer, operator string) *Suite {
	validator := inventory.NewValidator(store)

	s := &Suite{tools: make(map[string]Tool)}
	s.Register(&SearchRecordsTool{store: store})
	s.Register(&GetRecordTool{store: store})
	s.Register(&ListBoxesTool{store: store})
	s.Register(&BoxLayoutTool{store: store})
	s.Register(&AddPlanItemsTool{planStore: planStore, validator: validator})
	s.Register(&ListPlanItemsTool{planStore: planStore})
	s.Register(&RemovePlanItemsTool{planStore: planStore})
	s.Register(&ClearPlanTool{planStore: planStore})
	s.Register(&CommitPlanTool{
		store:     store,
		planStore: planStore,
		confirmer: confirmer,
		operator:  operator,
	})
	return s
}

// Register adds a tool. Registration order is preserved in listings.
func (s *Suite) Register(t Tool) {
	name := t.Name()
	if _, exists := s.tools[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tools[name] = t
}

// ListTools returns registered tool names in registration order.
func (s *Suite) ListTools() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// ToolSchemas returns the wire-format function declarations.
func (s *Suite) ToolSchemas() []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, 0, len(s.order))
	for _, name := range s.order {
		schemas = append(schemas, schemaFor(s.tools[name]))
	}
	return schemas
}

// ToolSpecs returns the name-keyed field contracts for the runtime
// context message.
func (s *Suite) ToolSpecs() map[string]core.ToolSpec {
	specs := make(map[string]core.ToolSpec, len(s.order))
	for name, t := range s.tools {
		specs[name] = t.Spec()
	}
	return specs
}

// Run dispatches one tool call. Unknown names are handled by the agent
// before reaching here, but a well-formed observation is returned anyway.
func (s *Suite) Run(name string, args map[string]any, traceID string) core.Observation {
	t, ok := s.tools[name]
	if !ok {
		return failure(core.ErrCodeUnknownTool,
			fmt.Sprintf("tool '%s' does not exist", name), "")
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.Run(args, traceID)
}
