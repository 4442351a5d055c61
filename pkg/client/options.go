package client

import (
	"time"
)

const (
	DefaultProvider      = "openrouter"
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 5 * time.Second
	DefaultTimeout       = 30 * time.Second
)

// Config carries every caller-facing input of one bridge instance. Optional
// generation parameters are pointers: a nil pointer is never validated and
// never reaches the wire.
type Config struct {
	Provider         string        `json:"provider" yaml:"provider"`                 // registered provider name (default: openrouter)
	APIKey           string        `json:"apiKey" yaml:"apiKey"`                     // provider credential (required)
	Model            string        `json:"model" yaml:"model"`                       // model identifier (default: provider baseline)
	SystemMessage    string        `json:"systemMessage" yaml:"systemMessage"`       // optional system message prepended to the prompt
	Temperature      *float64      `json:"temperature" yaml:"temperature"`           // sampling temperature, between 0.0 and 2.0
	TopP             *float64      `json:"topP" yaml:"topP"`                         // nucleus sampling, between 0.0 and 1.0
	MaxTokens        *int          `json:"maxTokens" yaml:"maxTokens"`               // cap on generated tokens (positive)
	FrequencyPenalty *float64      `json:"frequencyPenalty" yaml:"frequencyPenalty"` // between -2.0 and 2.0
	PresencePenalty  *float64      `json:"presencePenalty" yaml:"presencePenalty"`   // between -2.0 and 2.0
	RetryAttempts    int           `json:"retryAttempts" yaml:"retryAttempts"`       // retries after the first attempt (default: 3)
	RetryDelay       time.Duration `json:"retryDelay" yaml:"retryDelay"`             // fixed delay between attempts (default: 5s)
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`                   // per-attempt HTTP timeout (default: 30s)
	RawJSONOutput    bool          `json:"rawJsonOutput" yaml:"rawJsonOutput"`       // hand back the decoded provider body instead of the normalized result
	BaseURL          string        `json:"baseUrl" yaml:"baseUrl"`                   // endpoint override for self-hosted gateways and tests
	Vars             []string      `json:"vars" yaml:"vars"`                         // name=value prompt variables, substituted for ${name} by the CLI surfaces
}

func DefaultConfig() Config {
	return Config{
		Provider:      DefaultProvider,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
		Timeout:       DefaultTimeout,
	}
}

// Validate applies the range checks in a fixed order and fails on the first
// violation. Unset optionals are skipped.
func (c *Config) Validate() error {
	if c.Temperature != nil && (*c.Temperature < 0.0 || *c.Temperature > 2.0) {
		return newErrorf(KindValidation, 0, `parameter "temperature" must be between 0.0 and 2.0`)
	}
	if c.TopP != nil && (*c.TopP < 0.0 || *c.TopP > 1.0) {
		return newErrorf(KindValidation, 0, `parameter "top_p" must be between 0.0 and 1.0`)
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return newErrorf(KindValidation, 0, `parameter "max_tokens" must be a positive integer`)
	}
	if c.FrequencyPenalty != nil && (*c.FrequencyPenalty < -2.0 || *c.FrequencyPenalty > 2.0) {
		return newErrorf(KindValidation, 0, `parameter "frequency_penalty" must be between -2.0 and 2.0`)
	}
	if c.PresencePenalty != nil && (*c.PresencePenalty < -2.0 || *c.PresencePenalty > 2.0) {
		return newErrorf(KindValidation, 0, `parameter "presence_penalty" must be between -2.0 and 2.0`)
	}
	if c.Timeout <= 0 {
		return newErrorf(KindValidation, 0, `parameter "timeout" must be positive`)
	}
	if c.RetryAttempts < 0 {
		return newErrorf(KindValidation, 0, `parameter "retry_attempts" must be non-negative`)
	}
	if c.RetryDelay < 0 {
		return newErrorf(KindValidation, 0, `parameter "retry_delay" must be non-negative`)
	}
	return nil
}
