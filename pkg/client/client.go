package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/overlordtm/aibridge/pkg/client/dto"
	"github.com/overlordtm/aibridge/pkg/llm"
)

// Client is a single-provider completion bridge: one prompt in, one
// normalized result (or the raw provider body) out. Implementations hold no
// state across calls beyond their immutable configuration.
type Client interface {
	Complete(ctx context.Context, prompt string) (*dto.Result, error)
	CompleteRaw(ctx context.Context, prompt string) (map[string]any, error)
}

type bridgeClient struct {
	cfg       Config
	provider  llm.Provider
	model     string
	transport *transport
	log       *zap.Logger
}

// NewClient resolves the configured provider, validates every parameter and
// wires the retry transport. Validation failures surface here, before any
// network call is made.
func NewClient(cfg Config, log *zap.Logger) (Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	provider, err := llm.Get(lo.If(cfg.Provider != "", cfg.Provider).Else(DefaultProvider))
	if err != nil {
		return nil, &Error{Kind: KindValidation, Err: err}
	}
	if cfg.APIKey == "" {
		return nil, newErrorf(KindValidation, 0, `parameter "api_key" is required`)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model := lo.If(cfg.Model != "", cfg.Model).Else(provider.DefaultModel())
	endpoint := lo.If(cfg.BaseURL != "", cfg.BaseURL).Else(provider.BaseURL()) + provider.Path(model)
	return &bridgeClient{
		cfg:       cfg,
		provider:  provider,
		model:     model,
		transport: newTransport(provider.Name(), endpoint, provider.Headers(cfg.APIKey), cfg, log),
		log:       log,
	}, nil
}

// Complete sends one prompt and returns the normalized result.
func (c *bridgeClient) Complete(ctx context.Context, prompt string) (*dto.Result, error) {
	body, err := c.do(ctx, prompt)
	if err != nil {
		return nil, err
	}
	res, err := c.provider.Extract(body, c.model)
	if err != nil {
		raw, _ := json.Marshal(body)
		return nil, &Error{
			Kind: KindExtraction, Body: raw, Err: err,
			Message: fmt.Sprintf("unexpected response structure from %s", c.provider.Name()),
		}
	}
	c.log.Debug("completion succeeded",
		zap.String("provider", c.provider.Name()),
		zap.String("model", res.Model),
		zap.Int("totalTokens", res.Usage.TotalTokens))
	return res, nil
}

// CompleteRaw sends one prompt and returns the decoded provider body
// unmodified.
func (c *bridgeClient) CompleteRaw(ctx context.Context, prompt string) (map[string]any, error) {
	return c.do(ctx, prompt)
}

// do builds the provider payload for one prompt and hands it to the retry
// transport.
func (c *bridgeClient) do(ctx context.Context, prompt string) (map[string]any, error) {
	if prompt == "" {
		return nil, newErrorf(KindValidation, 0, `parameter "prompt" is required`)
	}
	req, err := buildRequest(c.cfg, c.model, prompt)
	if err != nil {
		return nil, err
	}
	payload, err := c.provider.BuildBody(req)
	if err != nil {
		return nil, &Error{
			Kind: KindUnexpected, Err: err,
			Message: fmt.Sprintf("failed to build %s request", c.provider.Name()),
		}
	}
	return c.transport.send(ctx, payload)
}
