package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// newApp builds a minimal app around one command for flag testing.
func newApp(cmd *cli.Command) *cli.App {
	return &cli.App{
		Name:     "rankfuse",
		Commands: []*cli.Command{cmd},
	}
}

func findStringFlag(flags []cli.Flag, name string) *cli.StringFlag {
	for _, flag := range flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func findIntFlag(flags []cli.Flag, name string) *cli.IntFlag {
	for _, flag := range flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func TestSystemFlags(t *testing.T) {
	flags := systemFlags()

	t.Run("db is required", func(t *testing.T) {
		dbFlag := findStringFlag(flags, "db")
		require.NotNil(t, dbFlag)
		assert.True(t, dbFlag.Required)
		assert.Contains(t, dbFlag.Aliases, "d")
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		hostFlag := findStringFlag(flags, "embedding-host")
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("embedding-model defaults to embeddinggemma", func(t *testing.T) {
		modelFlag := findStringFlag(flags, "embedding-model")
		require.NotNil(t, modelFlag)
		assert.Equal(t, "embeddinggemma", modelFlag.Value)
	})

	t.Run("embedding-dim defaults to 768", func(t *testing.T) {
		dimFlag := findIntFlag(flags, "embedding-dim")
		require.NotNil(t, dimFlag)
		assert.Equal(t, 768, dimFlag.Value)
	})

	t.Run("missing db flag fails", func(t *testing.T) {
		app := newApp(&cli.Command{
			Name:   "search",
			Action: searchCommand,
			Flags:  systemFlags(),
		})
		err := app.Run([]string{"rankfuse", "search", "lantern"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})
}

func TestSeedCommandValidation(t *testing.T) {
	app := newApp(&cli.Command{
		Name:   "seed",
		Action: seedCommand,
		Flags: append(systemFlags(),
			&cli.StringFlag{Name: "src", Required: true},
			&cli.IntFlag{Name: "batch-size", Value: 64},
		),
	})

	t.Run("missing src flag fails", func(t *testing.T) {
		err := app.Run([]string{"rankfuse", "seed", "--db", t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "src")
	})

	t.Run("invalid batch size fails", func(t *testing.T) {
		err := app.Run([]string{"rankfuse", "seed",
			"--db", t.TempDir(), "--src", "/nonexistent", "--batch-size", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("missing seed file fails", func(t *testing.T) {
		err := app.Run([]string{"rankfuse", "seed",
			"--db", t.TempDir(), "--src", "/nonexistent/seeds.txt"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seed file")
	})
}

func TestTuneCommand(t *testing.T) {
	writeSamples := func(t *testing.T, samples []tuneSample) string {
		t.Helper()
		data, err := json.Marshal(samples)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "samples.json")
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}

	app := newApp(&cli.Command{
		Name:   "tune",
		Action: tuneCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "samples", Required: true},
			&cli.IntFlag{Name: "iterations", Value: 100},
			&cli.Float64Flag{Name: "learning-rate", Value: 0.05},
		},
	})

	t.Run("tunes against labeled samples", func(t *testing.T) {
		path := writeSamples(t, []tuneSample{
			{Similarity: 0.9, HitCount: 12, AgeDays: 1, Label: 0.9},
			{Similarity: 0.3, HitCount: 1, AgeDays: 30, Label: 0.1},
			{Similarity: 0.7, HitCount: 5, AgeDays: 7, Label: 0.6},
		})
		err := app.Run([]string{"rankfuse", "tune", "--samples", path, "--iterations", "5"})
		require.NoError(t, err)
	})

	t.Run("empty samples file fails", func(t *testing.T) {
		path := writeSamples(t, []tuneSample{})
		err := app.Run([]string{"rankfuse", "tune", "--samples", path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no samples")
	})

	t.Run("malformed samples file fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
		err := app.Run([]string{"rankfuse", "tune", "--samples", path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse")
	})

	t.Run("missing samples file fails", func(t *testing.T) {
		err := app.Run([]string{"rankfuse", "tune", "--samples", "/nonexistent.json"})
		require.Error(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newLoggerApp().Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newLoggerApp().Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newLoggerApp().Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}
