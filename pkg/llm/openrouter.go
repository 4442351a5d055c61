package llm

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/overlordtm/aibridge/pkg/client/dto"
)

const (
	openRouterBaseURL  = "https://openrouter.ai"
	openRouterChatPath = "/api/v1/chat/completions"

	// static identification headers sent with every OpenRouter request
	openRouterReferer = "https://github.com/overlordtm/aibridge"
	openRouterTitle   = "aibridge"
)

func init() {
	Register(&OpenRouter{})
}

// OpenRouter speaks the OpenAI-compatible chat completions dialect.
type OpenRouter struct{}

func (o *OpenRouter) Name() string         { return "openrouter" }
func (o *OpenRouter) DefaultModel() string { return "openai/gpt-3.5-turbo" }
func (o *OpenRouter) BaseURL() string      { return openRouterBaseURL }
func (o *OpenRouter) Path(string) string   { return openRouterChatPath }

func (o *OpenRouter) Headers(apiKey string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + apiKey,
		"HTTP-Referer":  openRouterReferer,
		"X-Title":       openRouterTitle,
	}
}

// BuildBody sends the request through unchanged: the wire shape of
// CompletionRequest is the chat completions shape OpenRouter accepts.
func (o *OpenRouter) BuildBody(req *dto.CompletionRequest) (any, error) {
	return req, nil
}

func (o *OpenRouter) Extract(body map[string]any, requestedModel string) (*dto.Result, error) {
	choices, ok := sliceAt(body, "choices")
	if !ok || len(choices) == 0 {
		return nil, errors.Errorf("response does not contain any choices")
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return nil, errors.Errorf("choices[0] is not an object")
	}
	message, ok := mapAt(choice, "message")
	if !ok {
		return nil, errors.Errorf("choices[0] does not contain a message")
	}
	text, ok := stringAt(message, "content")
	if !ok {
		return nil, errors.Errorf("message does not contain content")
	}
	model, _ := stringAt(body, "model")
	usage, _ := mapAt(body, "usage")
	return &dto.Result{
		Text:  text,
		Model: lo.If(model != "", model).Else(requestedModel),
		Usage: dto.Usage{
			PromptTokens:     intAt(usage, "prompt_tokens"),
			CompletionTokens: intAt(usage, "completion_tokens"),
			TotalTokens:      intAt(usage, "total_tokens"),
		},
	}, nil
}
