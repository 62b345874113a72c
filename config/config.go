// Package config loads optional YAML defaults for the decipherment-learn
// and decipherment-apply CLIs, the same precedence pattern wingthing's own
// config package establishes (config.yaml defaults, overridable by CLI
// flags): a config file lowers the bar for reproducing a training/decoding
// run without retyping every flag, while leaving any flag the caller does
// pass as the final word.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TrainDefaults mirrors decipherment-learn's flag surface (spec §6).
type TrainDefaults struct {
	NumIters       int     `yaml:"num_iters"`
	NumThreads     int     `yaml:"num_threads"`
	ThreeWay       bool    `yaml:"threeway"`
	PruneBeam      float64 `yaml:"prune_beam"`
	StepsThreshold int     `yaml:"steps_threshold"`
}

// DecodeDefaults mirrors decipherment-apply's flag surface (spec §6).
type DecodeDefaults struct {
	Power           float64 `yaml:"power"`
	PruneBeam       float64 `yaml:"prune_beam"`
	OutputPruneBeam float64 `yaml:"output_prune_beam"`
	StepsThreshold  int     `yaml:"steps_threshold"`
	PruneOutput     bool    `yaml:"prune_output"`
	RemoveWeights   bool    `yaml:"remove_weights"`
}

// Config is the top-level shape a YAML defaults file may take; either
// section may be omitted, in which case Default()'s values stand.
type Config struct {
	Train  TrainDefaults  `yaml:"train"`
	Decode DecodeDefaults `yaml:"decode"`
}

// Default returns the spec's own built-in flag defaults (§6), used both as
// the CLI's baseline and as the starting point Load unmarshals a file into,
// so a file that only sets one field leaves the rest at their spec default
// rather than zero.
func Default() Config {
	return Config{
		Train: TrainDefaults{
			NumIters:       10,
			NumThreads:     1,
			ThreeWay:       false,
			PruneBeam:      8,
			StepsThreshold: 5,
		},
		Decode: DecodeDefaults{
			Power:           2.5,
			PruneBeam:       8,
			OutputPruneBeam: 4,
			StepsThreshold:  5,
			PruneOutput:     true,
			RemoveWeights:   true,
		},
	}
}

// Load reads a YAML defaults file at path and merges it over Default().
// A missing path is not an error — callers pass "" to mean "no config file
// given, use the built-in defaults as-is".
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}
