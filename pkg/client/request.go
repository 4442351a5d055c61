package client

import (
	"github.com/overlordtm/aibridge/pkg/client/dto"
)

// buildRequest validates the configured parameters and assembles the
// provider-neutral chat payload: system message first when present, the user
// prompt always last. Unset optionals stay nil and are omitted on the wire.
func buildRequest(cfg Config, model, prompt string) (*dto.CompletionRequest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var messages []dto.Message
	if cfg.SystemMessage != "" {
		messages = append(messages, dto.Message{Role: dto.RoleSystem, Content: cfg.SystemMessage})
	}
	messages = append(messages, dto.Message{Role: dto.RoleUser, Content: prompt})
	return &dto.CompletionRequest{
		Model:            model,
		Messages:         messages,
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
		MaxTokens:        cfg.MaxTokens,
		FrequencyPenalty: cfg.FrequencyPenalty,
		PresencePenalty:  cfg.PresencePenalty,
	}, nil
}
