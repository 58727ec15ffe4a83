// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rankfuse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/rankfuse/ai"
	"github.com/poiesic/rankfuse/ai/openai"
	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/flow"
	"github.com/poiesic/rankfuse/retrieval"
	"github.com/poiesic/rankfuse/reward"
	"github.com/poiesic/rankfuse/storage"
	"github.com/poiesic/rankfuse/storage/badger"
	"github.com/poiesic/rankfuse/vecstore"
)

// System wires the durable stores, the embedder and the retrieval stack
// over a single BadgerDB directory.
type System struct {
	backend     *badger.Backend
	memoryRepo  storage.MemoryRepository
	vectorRepo  storage.VectorRepository
	store       vecstore.Store
	embedder    ai.Embedder
	rewardCfg   reward.Config
	webProvider retrieval.WebProvider
	logger      *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig    *ai.Config
	rewardCfg   reward.Config
	embedder    ai.Embedder
	webProvider retrieval.WebProvider
}

// WithAIConfig sets the embedding service configuration. The config also
// determines the fingerprint the vector store guard enforces.
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = cfg
	}
}

// WithRewardConfig sets the reward engine configuration used by
// NewRewardEngine and the reinforcement flow tool.
func WithRewardConfig(cfg reward.Config) SystemOption {
	return func(o *systemOptions) {
		o.rewardCfg = cfg
	}
}

// WithEmbedder injects an embedder, bypassing the OpenAI-compatible client
// the AI config would otherwise produce.
func WithEmbedder(embedder ai.Embedder) SystemOption {
	return func(o *systemOptions) {
		o.embedder = embedder
	}
}

// WithWebProvider wires a web search backend. Without one, retrievers run
// vector strategies only.
func WithWebProvider(provider retrieval.WebProvider) SystemOption {
	return func(o *systemOptions) {
		o.webProvider = provider
	}
}

// NewSystem opens (or creates) the database at filePath and wires the
// repositories, the fingerprint-guarded vector store and the embedder.
func NewSystem(filePath string, opts ...SystemOption) (*System, error) {
	// Apply options
	options := &systemOptions{
		aiConfig:  ai.DefaultConfig(), // Default if not provided
		rewardCfg: reward.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create memory repository
	memoryRepo, err := badger.NewMemoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create vector repository
	vectorRepo, err := badger.NewVectorRepository(backend)
	if err != nil {
		memoryRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create embedder with configured settings
	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			vectorRepo.Close()
			memoryRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	// Guard the durable store with the configured embedding fingerprint
	fp := vecstore.Fingerprint{
		Provider:   options.aiConfig.EmbeddingProvider,
		Model:      options.aiConfig.EmbeddingModel,
		Dimensions: options.aiConfig.EmbeddingDim,
	}
	store, err := vecstore.NewGuardedStore(badger.NewStore(vectorRepo), fp)
	if err != nil {
		vectorRepo.Close()
		memoryRepo.Close()
		backend.Close()
		return nil, err
	}

	return &System{
		backend:     backend,
		memoryRepo:  memoryRepo,
		vectorRepo:  vectorRepo,
		store:       store,
		embedder:    embedder,
		rewardCfg:   options.rewardCfg,
		webProvider: options.webProvider,
		logger:      slog.Default(),
	}, nil
}

func (s *System) Close() error {
	// Close repositories
	if err := s.vectorRepo.Close(); err != nil {
		s.logger.Error("error closing vector repository", "err", err)
		return err
	}
	if err := s.memoryRepo.Close(); err != nil {
		s.logger.Error("error closing memory repository", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *System) MemoryRepository() storage.MemoryRepository {
	return s.memoryRepo
}

func (s *System) VectorRepository() storage.VectorRepository {
	return s.vectorRepo
}

// Store returns the fingerprint-guarded vector store.
func (s *System) Store() vecstore.Store {
	return s.store
}

func (s *System) Embedder() ai.Embedder {
	return s.embedder
}

// Seed embeds the given texts and persists them in the vector store.
func (s *System) Seed(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding seed texts: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	docs := make([]vecstore.Document, len(texts))
	for i, text := range texts {
		docs[i] = vecstore.Document{Text: text, Vector: vectors[i]}
	}
	return s.store.Add(ctx, docs)
}

// NewRetriever builds a hybrid retriever over the system's stores. Vector
// strategies always participate; web strategies join when a web provider
// was configured.
func (s *System) NewRetriever(opts ...retrieval.HybridOption) (*retrieval.HybridRetriever, error) {
	vector, err := retrieval.NewVectorStrategy(s.embedder, s.store)
	if err != nil {
		return nil, err
	}
	strategies := []retrieval.Strategy{vector}

	if s.webProvider != nil {
		web, err := retrieval.NewPlainWebStrategy(s.webProvider)
		if err != nil {
			return nil, err
		}
		keyword, err := retrieval.NewKeywordStrategy(s.webProvider)
		if err != nil {
			return nil, err
		}
		decomposition, err := retrieval.NewDecompositionStrategy(s.webProvider, s.logger)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, web, keyword, decomposition)
	}

	return retrieval.NewHybridRetriever(strategies, opts...)
}

// NewRewardEngine builds a reward engine from the system's configuration.
func (s *System) NewRewardEngine(opts ...reward.EngineOption) (*reward.Engine, error) {
	return reward.NewEngine(s.rewardCfg, opts...)
}

// NewOrchestrator builds a flow orchestrator with the built-in tools
// registered: hybrid_search over the system's retriever and
// memory_reinforce over the reward engine. flowDir overrides the embedded
// flow definitions; empty means embedded only.
func (s *System) NewOrchestrator(flowDir string, opts ...flow.OrchestratorOption) (*flow.Orchestrator, error) {
	retriever, err := s.NewRetriever()
	if err != nil {
		return nil, err
	}
	engine, err := s.NewRewardEngine()
	if err != nil {
		return nil, err
	}

	registry := flow.NewRegistry()
	if err := registry.Register(s.searchTool(retriever)); err != nil {
		return nil, err
	}
	if err := registry.Register(s.reinforceTool(engine)); err != nil {
		return nil, err
	}

	return flow.NewOrchestrator(flow.NewLoader(flowDir), registry, opts...)
}

// searchTool exposes the hybrid retriever as the hybrid_search flow tool.
// It writes evidence in the shape the critic and synthesizer stages read.
func (s *System) searchTool(retriever *retrieval.HybridRetriever) flow.Tool {
	return &flow.ToolFunc{
		Id: "hybrid_search",
		Fn: func(ctx context.Context, req flow.Request) (flow.Response, error) {
			query, _ := req.Args["query"].(string)
			topK := intArg(req.Args, "top_k", 10)
			topic, _ := req.Args["topic"].(string)

			docs, err := retriever.Retrieve(ctx, core.RetrievalRequest{
				Query: query,
				TopK:  topK,
				Topic: topic,
			})
			if err != nil {
				return flow.Response{}, err
			}

			evidence := make([]any, 0, len(docs))
			topScore := 0.0
			for _, doc := range docs {
				if retrieval.IsSentinel(doc) {
					continue
				}
				evidence = append(evidence, map[string]any{
					"snippet":    doc.Snippet,
					"title":      doc.Title,
					"url":        doc.URL,
					"source":     doc.Source,
					"score":      doc.FusedScore,
					"provenance": doc.Provenance,
				})
				if doc.FusedScore > topScore {
					topScore = doc.FusedScore
				}
			}
			if topScore > 1 {
				// Borda points are unbounded; squash into a similarity-like range
				topScore = 1
			}

			return flow.Response{Data: map[string]any{
				"evidence":  evidence,
				"count":     len(evidence),
				"top_score": topScore,
			}}, nil
		},
	}
}

// reinforceTool exposes reward reinforcement as the memory_reinforce flow
// tool. When the flow carries no synthesized answer it falls back to the
// best evidence snippet.
func (s *System) reinforceTool(engine *reward.Engine) flow.Tool {
	return &flow.ToolFunc{
		Id: "memory_reinforce",
		Fn: func(ctx context.Context, req flow.Request) (flow.Response, error) {
			contents, _ := req.Args["contents"].(string)
			query, _ := req.Args["query"].(string)
			similarity := floatArg(req.Args, "similarity", 0.5)

			if contents == "" {
				contents = firstSnippet(req.Args["evidence"])
			}
			if contents == "" {
				return flow.Response{}, fmt.Errorf("memory_reinforce: no contents to reinforce")
			}

			item, err := engine.Reinforce(ctx, s.memoryRepo, contents, query, similarity)
			if err != nil {
				return flow.Response{}, err
			}

			return flow.Response{Data: map[string]any{
				"memory_id":   uint64(item.Id),
				"hit_count":   item.HitCount,
				"reward_mean": item.RewardMean,
			}}, nil
		},
	}
}

// firstSnippet extracts the first non-empty snippet from an evidence list.
func firstSnippet(evidence any) string {
	items, ok := evidence.([]any)
	if !ok {
		return ""
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if snippet, _ := m["snippet"].(string); snippet != "" {
			return snippet
		}
	}
	return ""
}

// intArg reads an integer tool argument, tolerating the float64 values
// flow expression defaults decode to.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func floatArg(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}
