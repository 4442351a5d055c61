package llm

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/overlordtm/aibridge/pkg/client/dto"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

func init() {
	Register(&Gemini{})
}

// Gemini speaks the native generateContent dialect of the Google AI API.
type Gemini struct{}

func (g *Gemini) Name() string         { return "gemini" }
func (g *Gemini) DefaultModel() string { return "gemini-1.5-flash-latest" }
func (g *Gemini) BaseURL() string      { return geminiBaseURL }

func (g *Gemini) Path(model string) string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", model)
}

func (g *Gemini) Headers(apiKey string) map[string]string {
	return map[string]string{"x-goog-api-key": apiKey}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// BuildBody remaps the chat-shaped request onto generateContent: the system
// message becomes systemInstruction, user messages become contents, and the
// sampling options move under generationConfig.
func (g *Gemini) BuildBody(req *dto.CompletionRequest) (any, error) {
	out := geminiRequest{}
	for _, msg := range req.Messages {
		switch msg.Role {
		case dto.RoleSystem:
			out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: msg.Content}}}
		case dto.RoleUser:
			out.Contents = append(out.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			return nil, errors.Errorf("unsupported message role %q", msg.Role)
		}
	}
	if len(out.Contents) == 0 {
		return nil, errors.Errorf("request does not contain a user message")
	}
	if req.Temperature != nil || req.TopP != nil || req.MaxTokens != nil ||
		req.FrequencyPenalty != nil || req.PresencePenalty != nil {
		out.GenerationConfig = &geminiGenerationConfig{
			Temperature:      req.Temperature,
			TopP:             req.TopP,
			MaxOutputTokens:  req.MaxTokens,
			FrequencyPenalty: req.FrequencyPenalty,
			PresencePenalty:  req.PresencePenalty,
		}
	}
	return out, nil
}

func (g *Gemini) Extract(body map[string]any, requestedModel string) (*dto.Result, error) {
	if feedback, ok := mapAt(body, "promptFeedback"); ok {
		if reason, ok := stringAt(feedback, "blockReason"); ok && reason != "" {
			return nil, errors.Errorf("prompt was blocked by safety filters: %s", reason)
		}
	}
	candidates, ok := sliceAt(body, "candidates")
	if !ok || len(candidates) == 0 {
		return nil, errors.Errorf("response does not contain any candidates")
	}
	candidate, ok := candidates[0].(map[string]any)
	if !ok {
		return nil, errors.Errorf("candidates[0] is not an object")
	}
	content, ok := mapAt(candidate, "content")
	if !ok {
		return nil, errors.Errorf("candidates[0] does not contain content")
	}
	parts, ok := sliceAt(content, "parts")
	if !ok || len(parts) == 0 {
		return nil, errors.Errorf("candidate content does not contain any parts")
	}
	var texts []string
	for _, part := range parts {
		if p, ok := part.(map[string]any); ok {
			if text, ok := stringAt(p, "text"); ok {
				texts = append(texts, text)
			}
		}
	}
	if len(texts) == 0 {
		return nil, errors.Errorf("candidate parts do not contain any text")
	}
	model, _ := stringAt(body, "modelVersion")
	usage, _ := mapAt(body, "usageMetadata")
	return &dto.Result{
		Text:  strings.Join(texts, ""),
		Model: lo.If(model != "", model).Else(requestedModel),
		Usage: dto.Usage{
			PromptTokens:     intAt(usage, "promptTokenCount"),
			CompletionTokens: intAt(usage, "candidatesTokenCount"),
			TotalTokens:      intAt(usage, "totalTokenCount"),
		},
	}, nil
}
