package dto

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role" yaml:"role"`       // either "system" or "user"
	Content string `json:"content" yaml:"content"` // message text
}

type CompletionRequest struct {
	Model            string    `json:"model" yaml:"model"`                                            // model identifier (e.g. "openai/gpt-3.5-turbo")
	Messages         []Message `json:"messages" yaml:"messages"`                                      // system message (if any) first, user prompt always last
	Temperature      *float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`            // sampling temperature, between 0.0 and 2.0
	TopP             *float64  `json:"top_p,omitempty" yaml:"topP,omitempty"`                         // nucleus sampling, between 0.0 and 1.0
	MaxTokens        *int      `json:"max_tokens,omitempty" yaml:"maxTokens,omitempty"`               // cap on generated tokens (positive)
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty" yaml:"frequencyPenalty,omitempty"` // between -2.0 and 2.0
	PresencePenalty  *float64  `json:"presence_penalty,omitempty" yaml:"presencePenalty,omitempty"`   // between -2.0 and 2.0
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens" yaml:"promptTokens"`         // tokens consumed by the prompt
	CompletionTokens int `json:"completion_tokens" yaml:"completionTokens"` // tokens generated by the model
	TotalTokens      int `json:"total_tokens" yaml:"totalTokens"`           // prompt + completion
}

type Result struct {
	Text  string `json:"text" yaml:"text"`   // content of the first completion choice
	Model string `json:"model" yaml:"model"` // model reported by the provider (requested model when absent)
	Usage Usage  `json:"usage" yaml:"usage"` // token accounting, counters default to 0 when the provider omits them
}
