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


package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/rankfuse"
	"github.com/poiesic/rankfuse/ai"
	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/flow"
	"github.com/poiesic/rankfuse/fusion"
	"github.com/poiesic/rankfuse/retrieval"
	"github.com/poiesic/rankfuse/reward"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "rankfuse",
		Usage: "Hybrid retrieval with rank fusion and reward-weighted memory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Embed lines from a file into the vector store",
				Action: seedCommand,
				Flags: append(systemFlags(),
					&cli.StringFlag{
						Name:     "src",
						Aliases:  []string{"s"},
						Usage:    "File of seed lines, one document per line",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of lines to embed in each batch",
						Value: 64,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid retrieval over the vector store",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: append(systemFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of fused results to return",
						Value:   5,
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Routing hint for federated vector stores",
					},
					&cli.StringFlag{
						Name:  "fusion",
						Usage: "Fusion method (borda, rrf)",
						Value: "borda",
					},
				),
			},
			{
				Name:   "flow",
				Usage:  "Execute a declarative flow",
				Action: flowCommand,
				Flags: append(systemFlags(),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Flow to execute",
						Value: "research",
					},
					&cli.StringFlag{
						Name:  "flow-dir",
						Usage: "Directory of flow definitions overriding the embedded defaults",
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query passed to the flow as input.query",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Result count passed to the flow as input.top_k",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print a per-step trace after execution",
					},
				),
			},
			{
				Name:   "tune",
				Usage:  "Fit reward policy weights to labeled samples",
				Action: tuneCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "samples",
						Usage:    "JSON file of labeled scoring samples",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "iterations",
						Usage: "Gradient descent iterations",
						Value: 100,
					},
					&cli.Float64Flag{
						Name:  "learning-rate",
						Usage: "Gradient descent step scale",
						Value: 0.05,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// systemFlags are shared by every command that opens the database.
func systemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-provider",
			Usage: "Embedding provider name, part of the store fingerprint",
			Value: "ollama",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "embedding-dim",
			Usage: "Embedding dimensionality",
			Value: 768,
		},
	}
}

// openSystem builds a System from the shared flags.
func openSystem(c *cli.Context) (*rankfuse.System, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingProvider(c.String("embedding-provider")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDim(c.Int("embedding-dim")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	sys, err := rankfuse.NewSystem(c.String("db"), rankfuse.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return sys, nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	f, err := os.Open(c.String("src"))
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	seeded := 0
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sys.Seed(ctx, batch); err != nil {
			return fmt.Errorf("seeding failed after %d documents: %w", seeded, err)
		}
		seeded += len(batch)
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		batch = append(batch, line)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Seeded %d documents\n", seeded)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	var retrieverOpts []retrieval.HybridOption
	switch c.String("fusion") {
	case "borda":
	case "rrf":
		fuser, err := fusion.NewFuser()
		if err != nil {
			return fmt.Errorf("failed to create fuser: %w", err)
		}
		retrieverOpts = append(retrieverOpts, retrieval.WithFuser(fuser))
	default:
		return fmt.Errorf("invalid fusion method %q: must be borda or rrf", c.String("fusion"))
	}

	retriever, err := sys.NewRetriever(retrieverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}
	defer retriever.Close()

	docs, err := retriever.Retrieve(ctx, core.RetrievalRequest{
		Query: query,
		TopK:  c.Int("top-k"),
		Topic: c.String("topic"),
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("%d: '%s' (%s)[%0.3f]\n", i, doc.Snippet, doc.Source, doc.FusedScore)
	}
	return nil
}

func flowCommand(c *cli.Context) error {
	ctx := context.Background()

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	orch, err := sys.NewOrchestrator(c.String("flow-dir"))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	input := map[string]any{
		"query": c.String("query"),
		"top_k": c.Int("top-k"),
	}
	res, err := orch.Execute(ctx, c.String("name"), input, flow.Context{
		DebugTrace: c.Bool("trace"),
	})
	if err != nil {
		return fmt.Errorf("flow %q failed: %w", c.String("name"), err)
	}

	if answer, ok := res.State["answer"].(string); ok && answer != "" {
		fmt.Println(answer)
	} else {
		out, err := json.MarshalIndent(res.State, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}

	if c.Bool("trace") {
		fmt.Fprintln(os.Stderr)
		for i, ev := range res.Trace {
			fmt.Fprintf(os.Stderr, "%d: type=%s tool=%s skipped=%v duration=%s\n",
				i, ev.Type, ev.Tool, ev.Skipped, ev.Duration)
		}
	}
	return nil
}

// tuneSample is the on-disk shape of one labeled scoring sample.
type tuneSample struct {
	Similarity float64 `json:"similarity"`
	HitCount   int64   `json:"hit_count"`
	AgeDays    float64 `json:"age_days"`
	Label      float64 `json:"label"`
}

func tuneCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("samples"))
	if err != nil {
		return fmt.Errorf("failed to read samples: %w", err)
	}

	var raw []tuneSample
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse samples: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("samples file contains no samples")
	}

	now := time.Now().UTC()
	samples := make([]reward.Sample, len(raw))
	for i, s := range raw {
		age := time.Duration(s.AgeDays * 24 * float64(time.Hour))
		samples[i] = reward.Sample{
			In: reward.ScoreInput{
				Item: &core.MemoryItem{
					HitCount:   s.HitCount,
					LastUsedAt: now.Add(-age),
				},
				Similarity: s.Similarity,
				Now:        now,
			},
			Label: s.Label,
		}
	}

	tuner := &reward.Tuner{
		Iterations:   c.Int("iterations"),
		LearningRate: c.Float64("learning-rate"),
	}
	cfg, err := tuner.Tune(reward.DefaultConfig(), samples)
	if err != nil {
		return fmt.Errorf("tuning failed: %w", err)
	}

	fmt.Printf("Tuned weights over %d samples:\n", len(samples))
	fmt.Printf("  similarity: %0.4f\n", cfg.WSim)
	fmt.Printf("  hit count:  %0.4f\n", cfg.WHit)
	fmt.Printf("  recency:    %0.4f\n", cfg.WRec)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
