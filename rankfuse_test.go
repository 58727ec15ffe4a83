package rankfuse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/rankfuse/ai"
	"github.com/poiesic/rankfuse/ai/mock"
	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/flow"
)

func flowContext() flow.Context {
	return flow.Context{ConsentToken: "test-token"}
}

// mockSystem opens a system backed by the deterministic mock embedder.
func mockSystem(t *testing.T) *System {
	t.Helper()
	cfg := ai.NewConfig(
		ai.WithEmbeddingProvider("mock"),
		ai.WithEmbeddingModel("deterministic"),
		ai.WithEmbeddingDim(384),
	)
	sys, err := NewSystem(t.TempDir(), WithAIConfig(cfg), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	t.Cleanup(func() { sys.Close() })
	return sys
}

func TestNewSystem(t *testing.T) {
	t.Run("create new system", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		sys, err := NewSystem(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, sys)
		defer sys.Close()

		// Verify components are initialized
		assert.NotNil(t, sys.MemoryRepository())
		assert.NotNil(t, sys.VectorRepository())
		assert.NotNil(t, sys.Store())
		assert.NotNil(t, sys.Embedder())
		assert.NotNil(t, sys.backend)
		assert.NotNil(t, sys.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a system at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		sys, err := NewSystem(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, sys)
	})

	t.Run("error with invalid ai config", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithEmbeddingDim(0))
		sys, err := NewSystem(t.TempDir(), WithAIConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, sys)
	})
}

func TestSystem_Close(t *testing.T) {
	tmpDir := t.TempDir()
	sys, err := NewSystem(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, sys)

	err = sys.Close()
	assert.NoError(t, err)
}

func TestSystem_FactoryMethods(t *testing.T) {
	sys := mockSystem(t)

	t.Run("can create retriever", func(t *testing.T) {
		retriever, err := sys.NewRetriever()
		require.NoError(t, err)
		require.NotNil(t, retriever)
		retriever.Close()
	})

	t.Run("can create reward engine", func(t *testing.T) {
		engine, err := sys.NewRewardEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})

	t.Run("can create orchestrator", func(t *testing.T) {
		orch, err := sys.NewOrchestrator("")
		require.NoError(t, err)
		require.NotNil(t, orch)
	})
}

func TestSystem_SeedAndRetrieve(t *testing.T) {
	sys := mockSystem(t)
	ctx := context.Background()

	texts := []string{
		"The lighthouse beam cut through fog, guiding sailors safely.",
		"Rain drummed on the rooftop, creating a soothing rhythm.",
		"The ancient library held stories that never faded.",
	}
	require.NoError(t, sys.Seed(ctx, texts))

	retriever, err := sys.NewRetriever()
	require.NoError(t, err)
	defer retriever.Close()

	// The mock embedder is deterministic, so querying a seeded text must
	// surface that exact text as the best hit.
	docs, err := retriever.Retrieve(ctx, core.RetrievalRequest{
		Query: texts[1],
		TopK:  2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, texts[1], docs[0].Snippet)
	assert.Equal(t, "vector", docs[0].Source)
}

func TestSystem_BuiltinTools(t *testing.T) {
	sys := mockSystem(t)
	ctx := context.Background()

	texts := []string{"Evidence snippets feed the reinforcement tool."}
	require.NoError(t, sys.Seed(ctx, texts))

	retriever, err := sys.NewRetriever()
	require.NoError(t, err)
	defer retriever.Close()
	engine, err := sys.NewRewardEngine()
	require.NoError(t, err)

	// Both constructors must hand back registry-ready flow.Tool values
	var search flow.Tool = sys.searchTool(retriever)
	var reinforce flow.Tool = sys.reinforceTool(engine)
	assert.Equal(t, "hybrid_search", search.ID())
	assert.Equal(t, "memory_reinforce", reinforce.ID())

	resp, err := search.Execute(ctx, flow.Request{Args: map[string]any{
		"query": texts[0],
		"top_k": 3,
	}})
	require.NoError(t, err)
	evidence, ok := resp.Data["evidence"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, evidence)

	resp, err = reinforce.Execute(ctx, flow.Request{Args: map[string]any{
		"query":    texts[0],
		"evidence": evidence,
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Data["hit_count"])
}

func TestSystem_ResearchFlow(t *testing.T) {
	sys := mockSystem(t)
	ctx := context.Background()

	texts := []string{
		"Hybrid retrieval merges evidence from several ranked lists.",
		"Rank fusion assigns points by position, not raw score.",
	}
	require.NoError(t, sys.Seed(ctx, texts))

	orch, err := sys.NewOrchestrator("")
	require.NoError(t, err)

	res, err := orch.Execute(ctx, "research",
		map[string]any{"query": texts[0]},
		flowContext())
	require.NoError(t, err)
	require.NotNil(t, res)

	answer, _ := res.State["answer"].(string)
	assert.Contains(t, answer, texts[0])

	critique, ok := res.State["critique"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, critique["sufficient"])
}

func TestSystem_ReinforceFlow(t *testing.T) {
	sys := mockSystem(t)
	ctx := context.Background()

	texts := []string{"Reinforced memories climb the reward index."}
	require.NoError(t, sys.Seed(ctx, texts))

	orch, err := sys.NewOrchestrator("")
	require.NoError(t, err)

	res, err := orch.Execute(ctx, "reinforce",
		map[string]any{"query": texts[0]},
		flowContext())
	require.NoError(t, err)

	// No synthesized answer in this flow, so the tool falls back to the
	// top evidence snippet and reinforces it.
	reinforced, ok := res.State["memory_reinforce"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, reinforced["hit_count"])

	item, err := sys.MemoryRepository().GetMemoryItem(ctx, core.IDFromContent(texts[0]))
	require.NoError(t, err)
	assert.EqualValues(t, 1, item.HitCount)
}
