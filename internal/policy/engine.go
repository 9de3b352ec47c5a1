// Package policy evaluates draft payloads against their category's
// required-field rules before a draft may leave pending.
package policy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/daypulse/capture/internal/domain"
)

// Engine is the Rego policy engine gating edit and accept.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the draft policy for evaluation.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.draft_policy.deny"),
		rego.Module("draft_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Validate evaluates the policy over a draft. A nil return means the draft
// satisfies its category schema; otherwise a ValidationError listing every
// deny reason is returned.
func (e *Engine) Validate(ctx context.Context, category domain.UpdateCategory, summary string, payload json.RawMessage) error {
	var fields map[string]interface{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return &domain.ValidationError{Category: category, Reasons: []string{"payload is not a JSON object"}}
		}
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}

	input := map[string]interface{}{
		"category": string(category),
		"summary":  summary,
		"payload":  fields,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("failed to evaluate draft policy: %w", err)
	}

	var reasons []string
	for _, result := range results {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, v := range values {
				if s, ok := v.(string); ok {
					reasons = append(reasons, s)
				}
			}
		}
	}

	if len(reasons) > 0 {
		return &domain.ValidationError{Category: category, Reasons: reasons}
	}
	return nil
}

// DefaultPolicy encodes the category required-field sets: every draft needs a
// summary, expenses need a positive amount, events a start time, journal
// entries content. Tasks have no required payload fields.
const DefaultPolicy = `
package draft_policy

deny[msg] {
	not valid_category
	msg := sprintf("unknown category: %v", [input.category])
}

deny[msg] {
	valid_category
	trim_space(input.summary) == ""
	msg := "summary is required"
}

deny[msg] {
	input.category == "expense"
	not input.payload.amount
	msg := "expense requires an amount"
}

deny[msg] {
	input.category == "expense"
	is_number(input.payload.amount)
	input.payload.amount <= 0
	msg := "expense amount must be positive"
}

deny[msg] {
	input.category == "event"
	v := object.get(input.payload, "start_time", "")
	not has_text(v)
	msg := "event requires a start_time"
}

deny[msg] {
	input.category == "journal"
	v := object.get(input.payload, "content", "")
	not has_text(v)
	msg := "journal requires content"
}

valid_category { input.category == "task" }
valid_category { input.category == "expense" }
valid_category { input.category == "event" }
valid_category { input.category == "journal" }

has_text(v) {
	is_string(v)
	trim_space(v) != ""
}
`
