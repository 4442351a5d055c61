package client

import (
	"encoding/json"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"github.com/overlordtm/aibridge/pkg/client/dto"
)

func TestBuildRequestPrependsSystemMessage(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.SystemMessage = "You are terse."
	req, err := buildRequest(cfg, "openai/gpt-3.5-turbo", "ping")
	Expect(err).To(BeNil())
	Expect(req.Model).To(Equal("openai/gpt-3.5-turbo"))
	Expect(req.Messages).To(Equal([]dto.Message{
		{Role: dto.RoleSystem, Content: "You are terse."},
		{Role: dto.RoleUser, Content: "ping"},
	}))
}

func TestBuildRequestWithoutSystemMessage(t *testing.T) {
	RegisterTestingT(t)

	req, err := buildRequest(DefaultConfig(), "m", "ping")
	Expect(err).To(BeNil())
	Expect(req.Messages).To(Equal([]dto.Message{{Role: dto.RoleUser, Content: "ping"}}))
}

func TestBuildRequestMarshalsSetParametersOnly(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.Temperature = lo.ToPtr(0.7)
	cfg.MaxTokens = lo.ToPtr(100)
	req, err := buildRequest(cfg, "m", "ping")
	Expect(err).To(BeNil())

	raw, err := json.Marshal(req)
	Expect(err).To(BeNil())
	Expect(string(raw)).To(ContainSubstring(`"temperature":0.7`))
	Expect(string(raw)).To(ContainSubstring(`"max_tokens":100`))
	Expect(string(raw)).ToNot(ContainSubstring(`"top_p"`))
	Expect(string(raw)).ToNot(ContainSubstring(`"frequency_penalty"`))
	Expect(string(raw)).ToNot(ContainSubstring(`"presence_penalty"`))
}

func TestBuildRequestValidates(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.TopP = lo.ToPtr(1.5)
	_, err := buildRequest(cfg, "m", "ping")
	Expect(err).ToNot(BeNil())
	Expect(IsValidation(err)).To(BeTrue())
	Expect(err.Error()).To(Equal(`parameter "top_p" must be between 0.0 and 1.0`))
}
