// Package config loads the YAML model registry: every model id the API may
// fan out to, bound to a provider and a provider-side deployment name.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

type ModelEntry struct {
	ID         string `yaml:"id"`
	Provider   string `yaml:"provider"`
	Deployment string `yaml:"deployment"`
}

type ModelsConfig struct {
	JudgeModel string       `yaml:"judge_model"`
	Models     []ModelEntry `yaml:"models"`
}

func LoadModelsConfig() (*ModelsConfig, error) {
	path := os.Getenv("MODELS_CONFIG_PATH")
	if path == "" {
		path = "configs/models.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ModelsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *ModelsConfig) {
	for i := range cfg.Models {
		if cfg.Models[i].Deployment == "" {
			cfg.Models[i].Deployment = cfg.Models[i].ID
		}
	}
}

func (c *ModelsConfig) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("no models configured")
	}
	if c.JudgeModel == "" {
		return fmt.Errorf("judge_model is required")
	}

	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("model entry without id")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true

		switch m.Provider {
		case ProviderBedrock, ProviderOpenAI:
		default:
			return fmt.Errorf("model %q: unknown provider %q", m.ID, m.Provider)
		}
	}

	if !seen[c.JudgeModel] {
		return fmt.Errorf("judge_model %q is not in the model list", c.JudgeModel)
	}
	return nil
}
