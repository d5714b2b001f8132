// Package policy evaluates registration admission rules written in rego.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decision values produced by the admission policy.
const (
	DecisionAllow  = "allow"
	DecisionReject = "reject"
)

// Engine is a prepared admission policy.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine compiles policyContent. The module must declare package
// agent_admission with a string rule decision and an optional set rule
// violations.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.agent_admission"),
		rego.Module("agent_admission.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Engine{query: query}, nil
}

// Input is the document the policy sees as input.
type Input struct {
	Name string `json:"name"`
}

// Evaluate returns the decision and, on rejection, the first violation.
func (e *Engine) Evaluate(ctx context.Context, in Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{"name": in.Name}))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "no decision", nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("unexpected policy result %T", results[0].Expressions[0].Value)
	}

	decision, _ := doc["decision"].(string)
	if decision == "" {
		decision = DecisionAllow
	}

	var reason string
	if vs, ok := doc["violations"].([]interface{}); ok && len(vs) > 0 {
		reason, _ = vs[0].(string)
	}
	return decision, reason, nil
}

// Admit implements hub.Admitter.
func (e *Engine) Admit(ctx context.Context, name string) (bool, string, error) {
	decision, reason, err := e.Evaluate(ctx, Input{Name: name})
	if err != nil {
		return false, "", err
	}
	return decision != DecisionReject, reason, nil
}

// DefaultPolicy rejects empty, overlong or oddly formed agent names.
const DefaultPolicy = `
package agent_admission

default decision = "allow"

decision = "reject" {
	count(violations) > 0
}

violations[msg] {
	trim_space(input.name) == ""
	msg := "agent name is empty"
}

violations[msg] {
	count(input.name) > 64
	msg := "agent name is longer than 64 characters"
}

violations[msg] {
	trim_space(input.name) != ""
	not regex.match("^[A-Za-z0-9][A-Za-z0-9_.-]*$", input.name)
	msg := "agent name contains invalid characters"
}
`
