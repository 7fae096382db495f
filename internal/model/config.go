package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Config is the validated training-options structure stored in a
// checkpoint. Every recognized option is enumerated here; unknown model
// types are rejected by the registry rather than failing later.
type Config struct {
	ModelType   string   `json:"model_type"`
	EvalFilters []string `json:"eval_filters"`
	SrcVocab    []string `json:"src_vocab"`
	TrgVocab    []string `json:"trg_vocab"`
	EmbDim      int      `json:"emb_dim"`
	HiddenDim   int      `json:"hidden_dim"`
}

// ParseConfig decodes and validates training options from checkpoint
// metadata.
func ParseConfig(raw []byte) (*Config, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("checkpoint carries no training options")
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse training options: %w", err)
	}
	if cfg.ModelType == "" {
		return nil, fmt.Errorf("training options missing model_type")
	}
	if len(cfg.SrcVocab) == 0 {
		return nil, fmt.Errorf("training options missing src_vocab")
	}
	if len(cfg.TrgVocab) == 0 {
		return nil, fmt.Errorf("training options missing trg_vocab")
	}
	if cfg.EmbDim <= 0 {
		return nil, fmt.Errorf("invalid emb_dim %d", cfg.EmbDim)
	}
	if cfg.HiddenDim <= 0 {
		return nil, fmt.Errorf("invalid hidden_dim %d", cfg.HiddenDim)
	}
	return &cfg, nil
}
