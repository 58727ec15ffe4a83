package reward

import (
	"fmt"
	"log/slog"
)

// Sample pairs a scoring input with the reward a human (or downstream
// signal) says it should have received.
type Sample struct {
	In    ScoreInput
	Label float64
}

// Tuner fits the three core policy weights to labeled samples using
// gradient descent with central-difference numerical gradients. Weight
// normalization is disabled while measuring loss so the gradient acts on
// raw weights; each step produces a fresh Config snapshot.
type Tuner struct {
	// Step is the perturbation used for central differences. Default 1e-4.
	Step float64
	// LearningRate scales each descent step. Default 0.05.
	LearningRate float64
	// Lambda is the L2 regularization strength. Default 1e-4.
	Lambda float64
	// Iterations is the number of descent steps. Default 100.
	Iterations int

	Logger *slog.Logger
}

// Tune returns a new Config whose weights minimize squared error against
// the samples. The input Config is not modified.
func (t *Tuner) Tune(cfg Config, samples []Sample) (Config, error) {
	if len(samples) == 0 {
		return cfg, ErrNoSamples
	}

	step := t.Step
	if step == 0 {
		step = 1e-4
	}
	lr := t.LearningRate
	if lr == 0 {
		lr = 0.05
	}
	lambda := t.Lambda
	if lambda == 0 {
		lambda = 1e-4
	}
	iterations := t.Iterations
	if iterations == 0 {
		iterations = 100
	}
	if step < 0 || lr < 0 || lambda < 0 || iterations < 0 {
		return cfg, ErrInvalidTunerSettings
	}

	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Measure loss on raw weights
	working := cfg.WithNormalization(false)

	loss := func(c Config) (float64, error) {
		engine, err := NewEngine(c)
		if err != nil {
			return 0, err
		}
		var sum float64
		for _, s := range samples {
			diff := engine.Score(s.In) - s.Label
			sum += diff * diff
		}
		l2 := c.WSim*c.WSim + c.WHit*c.WHit + c.WRec*c.WRec
		return sum/float64(len(samples)) + lambda*l2, nil
	}

	for iter := 0; iter < iterations; iter++ {
		weights := [3]float64{working.WSim, working.WHit, working.WRec}
		var grad [3]float64

		for i := range weights {
			plus, minus := weights, weights
			plus[i] += step
			minus[i] -= step
			if minus[i] < 0 {
				minus[i] = 0
			}

			lossPlus, err := loss(working.WithWeights(plus[0], plus[1], plus[2]))
			if err != nil {
				return cfg, fmt.Errorf("tuning iteration %d: %w", iter, err)
			}
			lossMinus, err := loss(working.WithWeights(minus[0], minus[1], minus[2]))
			if err != nil {
				return cfg, fmt.Errorf("tuning iteration %d: %w", iter, err)
			}
			grad[i] = (lossPlus - lossMinus) / (2 * step)
		}

		for i := range weights {
			weights[i] -= lr * grad[i]
			if weights[i] < 0 {
				weights[i] = 0
			}
		}
		working = working.WithWeights(weights[0], weights[1], weights[2])
	}

	final, err := loss(working)
	if err != nil {
		return cfg, err
	}
	logger.Debug("tuning finished",
		"wSim", working.WSim, "wHit", working.WHit, "wRec", working.WRec,
		"loss", final)

	// Restore the caller's normalization preference
	return working.WithNormalization(cfg.NormalizeWeights), nil
}
