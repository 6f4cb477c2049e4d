package core

import (
	"fmt"
	"sort"
	"strings"
)

// buildSystemPrompt constructs the system prompt: identity, scope,
// guardrails, and workflow rules. Tool details go into a separate
// runtime-context message so they can be rebuilt per run.
func (a *Agent) buildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(identitySection)
	sb.WriteString(scopeSection)
	sb.WriteString(guardrailsSection)
	sb.WriteString(workflowSection)
	return sb.String()
}

const identitySection = `## IDENTITY
You are FROST, an assistant for a cryogenic sample inventory. Your purpose:
1. Answer questions about stored samples, boxes, and positions
2. Translate requested inventory changes into staged plan items
3. Explain why a requested change was rejected and how to fix it

You are NOT a general-purpose assistant. You focus exclusively on this inventory.

`

const scopeSection = `## SCOPE

### You DO:
- Search records by cell line, operator, box, or free text
- Report box layouts and free positions
- Stage add/move/takeout/edit/rollback operations as plan items
- List, trim, or clear the pending plan
- Commit the pending plan when the user asks for it

### You DON'T:
- Apply changes directly; every write goes through the staged plan
- Invent record ids, box numbers, or positions you have not looked up
- Answer questions unrelated to the inventory

`

const guardrailsSection = `## GUARDRAILS
1. Never stage an operation for a record you have not verified exists
2. When staging fails, report the exact reason per item; never retry blindly
3. A blocked batch means NO items were staged; say so explicitly
4. Ask the user before committing when the request did not clearly say to commit

`

const workflowSection = `## WORKFLOW
Work in small steps: look up what you need, stage the change, then answer.
Use tools for every fact; do not rely on memory of earlier turns for
positions or ids, they may have changed. When you have enough information,
reply with a concise final answer in plain text.

`

// buildToolContext renders the runtime-context message from the runner's
// tool specs, so the model sees required fields and enum constraints
// beyond what the schema wire format carries.
func (a *Agent) buildToolContext() string {
	specs := a.runner.ToolSpecs()
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("## AVAILABLE TOOLS\n")
	for _, name := range names {
		spec := specs[name]
		sb.WriteString(fmt.Sprintf("- %s: %s\n", spec.Name, spec.Description))
		if len(spec.Required) > 0 {
			sb.WriteString(fmt.Sprintf("  required: %s\n", strings.Join(spec.Required, ", ")))
		}
		if len(spec.Optional) > 0 {
			sb.WriteString(fmt.Sprintf("  optional: %s\n", strings.Join(spec.Optional, ", ")))
		}
		if len(spec.Enums) > 0 {
			fields := make([]string, 0, len(spec.Enums))
			for field := range spec.Enums {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				sb.WriteString(fmt.Sprintf("  %s one of: %s\n", field, strings.Join(spec.Enums[field], ", ")))
			}
		}
	}
	sb.WriteString("\nCall tools only by these exact names with JSON object arguments.\n")
	return sb.String()
}
