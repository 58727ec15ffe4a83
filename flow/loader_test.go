package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderEmbeddedDefaults(t *testing.T) {
	loader := NewLoader("")

	def, err := loader.Load("research")
	require.NoError(t, err)

	assert.Equal(t, "research", def.Name)
	assert.Equal(t, []string{"search"}, def.RequireScopes)
	assert.Equal(t, 100000, def.Budget.MaxTokens)
	require.Len(t, def.Steps, 4)

	tool := def.Steps[1]
	assert.Equal(t, StepTool, tool.Type)
	assert.Equal(t, "hybrid_search", tool.Uses)
	assert.Equal(t, Path("input", "query"), tool.Args["query"])
	assert.Equal(t, Path("input", "top_k").WithDefault(10), tool.Args["top_k"])
	assert.Equal(t, 3, tool.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, tool.Retry.InitialDelay)
	assert.Equal(t, RetryExponential, tool.Retry.Mode)
}

func TestLoaderOverrideWins(t *testing.T) {
	dir := writeFlow(t, "research", `
name: research
steps:
  - type: SYNTH
`)
	loader := NewLoader(dir)

	def, err := loader.Load("research")
	require.NoError(t, err)
	require.Len(t, def.Steps, 1)
	assert.Equal(t, StepSynth, def.Steps[0].Type)
}

func TestLoaderTypeSynonymsAndAliases(t *testing.T) {
	dir := writeFlow(t, "legacy", `
name: legacy
steps:
  - type: PLANNER
  - type: AGENT
    ref: some_tool
    params:
      key: value
  - type: SYNTHESIZER
`)
	loader := NewLoader(dir)

	def, err := loader.Load("legacy")
	require.NoError(t, err)
	require.Len(t, def.Steps, 3)

	assert.Equal(t, StepPlan, def.Steps[0].Type)
	assert.Equal(t, StepTool, def.Steps[1].Type)
	assert.Equal(t, "some_tool", def.Steps[1].Uses)
	assert.Equal(t, Literal("value"), def.Steps[1].Args["key"])
	assert.Equal(t, StepSynth, def.Steps[2].Type)
}

func TestLoaderRejectsBadDefinitions(t *testing.T) {
	t.Run("unknown step type", func(t *testing.T) {
		dir := writeFlow(t, "bad", `
name: bad
steps:
  - type: TELEPORT
`)
		_, err := NewLoader(dir).Load("bad")
		assert.ErrorIs(t, err, ErrInvalidStepType)
	})

	t.Run("tool step without uses", func(t *testing.T) {
		dir := writeFlow(t, "bad", `
name: bad
steps:
  - type: TOOL
`)
		_, err := NewLoader(dir).Load("bad")
		assert.ErrorIs(t, err, ErrInvalidDefinition)
	})

	t.Run("missing flow", func(t *testing.T) {
		_, err := NewLoader(t.TempDir()).Load("ghost")
		assert.ErrorIs(t, err, ErrFlowNotFound)
	})
}
