package client

import (
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// newTestConfig points a default config at a local test server, with a retry
// delay short enough to burn the whole budget in milliseconds.
func newTestConfig(srv *httptest.Server) Config {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL
	cfg.RetryDelay = 10 * time.Millisecond
	return cfg
}

// newTestClient builds a client whose warn-and-above log output is captured,
// so tests can assert on retry notices.
func newTestClient(t *testing.T, cfg Config) (Client, *observer.ObservedLogs) {
	RegisterTestingT(t)
	core, logs := observer.New(zap.WarnLevel)
	c, err := NewClient(cfg, zap.New(core))
	Expect(err).To(BeNil())
	return c, logs
}
