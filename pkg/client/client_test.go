package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

func TestNewClientUnknownProvider(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.Provider = "nope"
	cfg.APIKey = "test-key"
	_, err := NewClient(cfg, nil)
	Expect(err).ToNot(BeNil())
	Expect(IsValidation(err)).To(BeTrue())
	Expect(err.Error()).To(ContainSubstring(`unknown provider "nope"`))
	Expect(err.Error()).To(ContainSubstring("gemini"))
	Expect(err.Error()).To(ContainSubstring("openrouter"))
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	RegisterTestingT(t)

	_, err := NewClient(DefaultConfig(), nil)
	Expect(err).ToNot(BeNil())
	Expect(IsValidation(err)).To(BeTrue())
	Expect(err.Error()).To(ContainSubstring(`parameter "api_key" is required`))
}

func TestNewClientValidatesWithoutNetwork(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.Temperature = lo.ToPtr(2.5)
	_, err := NewClient(cfg, nil)
	Expect(err).ToNot(BeNil())
	Expect(IsValidation(err)).To(BeTrue())
	Expect(err.Error()).To(ContainSubstring(`parameter "temperature" must be between 0.0 and 2.0`))
}

func TestNewClientDefaults(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	c, err := NewClient(cfg, nil)
	Expect(err).To(BeNil())

	bc := c.(*bridgeClient)
	Expect(bc.model).To(Equal("openai/gpt-3.5-turbo"))
	Expect(bc.transport.endpoint).To(Equal("https://openrouter.ai/api/v1/chat/completions"))
}

func TestNewClientBaseURLOverride(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = "http://localhost:8080"
	c, err := NewClient(cfg, nil)
	Expect(err).To(BeNil())
	Expect(c.(*bridgeClient).transport.endpoint).To(Equal("http://localhost:8080/api/v1/chat/completions"))
}

func TestCompleteNormalizesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, newTestConfig(srv))
	res, err := c.Complete(context.Background(), "ping")
	Expect(err).To(BeNil())
	Expect(res.Text).To(Equal("hi"))
	Expect(res.Model).To(Equal("m"))
	Expect(res.Usage.TotalTokens).To(Equal(3))
	Expect(res.Usage.PromptTokens).To(Equal(0))
	Expect(res.Usage.CompletionTokens).To(Equal(0))
}

func TestCompleteModelFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, newTestConfig(srv))
	res, err := c.Complete(context.Background(), "ping")
	Expect(err).To(BeNil())
	Expect(res.Model).To(Equal("openai/gpt-3.5-turbo"))
	Expect(res.Usage.TotalTokens).To(Equal(0))
}

func TestCompleteRawReturnsBodyUnmodified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}],"id":"gen-1","extra":{"nested":true}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, newTestConfig(srv))
	raw, err := c.CompleteRaw(context.Background(), "ping")
	Expect(err).To(BeNil())
	Expect(raw).To(HaveKeyWithValue("id", "gen-1"))
	Expect(raw).To(HaveKey("choices"))
	Expect(raw["extra"]).To(HaveKeyWithValue("nested", true))
}

func TestCompleteExtractionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"usage":{"total_tokens":3}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, newTestConfig(srv))
	_, err := c.Complete(context.Background(), "ping")
	Expect(err).ToNot(BeNil())
	Expect(IsExtraction(err)).To(BeTrue())
	Expect(err.Error()).To(ContainSubstring("unexpected response structure from openrouter"))
	Expect(err.Error()).To(ContainSubstring("does not contain any choices"))

	var cerr *Error
	Expect(errors.As(err, &cerr)).To(BeTrue())
	Expect(string(cerr.Body)).To(ContainSubstring("total_tokens"))
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, newTestConfig(srv))
	_, err := c.Complete(context.Background(), "")
	Expect(err).ToNot(BeNil())
	Expect(IsValidation(err)).To(BeTrue())
	Expect(err.Error()).To(ContainSubstring(`parameter "prompt" is required`))
	Expect(atomic.LoadInt32(&calls)).To(Equal(int32(0)))
}

func TestCompleteGeminiEndToEnd(t *testing.T) {
	var gotPath string
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"hello"}]}}],
			"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":1,"totalTokenCount":3},
			"modelVersion":"gemini-1.5-flash-latest"
		}`))
	}))
	defer srv.Close()

	cfg := newTestConfig(srv)
	cfg.Provider = "gemini"
	c, _ := newTestClient(t, cfg)

	res, err := c.Complete(context.Background(), "ping")
	Expect(err).To(BeNil())
	Expect(gotPath).To(Equal("/v1beta/models/gemini-1.5-flash-latest:generateContent"))
	Expect(gotKey).To(Equal("test-key"))
	Expect(res.Text).To(Equal("hello"))
	Expect(res.Model).To(Equal("gemini-1.5-flash-latest"))
	Expect(res.Usage.PromptTokens).To(Equal(2))
	Expect(res.Usage.CompletionTokens).To(Equal(1))
	Expect(res.Usage.TotalTokens).To(Equal(3))
}
