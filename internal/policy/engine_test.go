package policy

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name   string
		agent  string
		allow  bool
		reason string
	}{
		{name: "configured name", agent: "AutoGen", allow: true},
		{name: "dashes and dots", agent: "open-devin.v2_beta", allow: true},
		{name: "empty", agent: "", allow: false, reason: "agent name is empty"},
		{name: "blank", agent: "   ", allow: false, reason: "agent name is empty"},
		{name: "path traversal", agent: "../etc", allow: false, reason: "agent name contains invalid characters"},
		{name: "spaces", agent: "my agent", allow: false, reason: "agent name contains invalid characters"},
		{name: "too long", agent: strings.Repeat("a", 65), allow: false, reason: "agent name is longer than 64 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allow, reason, err := engine.Admit(ctx, tt.agent)
			require.NoError(t, err)
			assert.Equal(t, tt.allow, allow)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, reason)
			}
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	ctx := context.Background()
	custom := `
package agent_admission

default decision = "reject"

decision = "allow" {
	input.name == "Adala"
}
`
	engine, err := NewEngine(ctx, custom)
	require.NoError(t, err)

	decision, _, err := engine.Evaluate(ctx, Input{Name: "Adala"})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)

	allow, _, err := engine.Admit(ctx, "AutoGen")
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package agent_admission\n\ndecision = {")
	assert.Error(t, err)
}
