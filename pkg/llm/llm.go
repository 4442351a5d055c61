package llm

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/overlordtm/aibridge/pkg/client/dto"
)

// Provider binds one hosted completion API: where requests go, how they are
// authorized, what shape the wire body takes and how a normalized result is
// extracted from the decoded response.
type Provider interface {
	Name() string
	DefaultModel() string
	BaseURL() string
	Path(model string) string
	Headers(apiKey string) map[string]string
	BuildBody(req *dto.CompletionRequest) (any, error)
	Extract(body map[string]any, requestedModel string) (*dto.Result, error)
}

var (
	providersMu sync.RWMutex
	providers   = map[string]Provider{}
)

// Register makes a provider available under its name. Providers register
// themselves from init, so the registry is read-only afterwards.
func Register(p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[strings.ToLower(p.Name())] = p
}

func Get(name string) (Provider, error) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	if p, ok := providers[strings.ToLower(name)]; ok {
		return p, nil
	}
	return nil, errors.Errorf("unknown provider %q (known providers: %s)", name, strings.Join(names(), ", "))
}

// Names lists the registered providers in sorted order.
func Names() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	return names()
}

// names assumes the registry lock is held.
func names() []string {
	out := make([]string, 0, len(providers))
	for name := range providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Helpers for navigating decoded JSON bodies. All of them tolerate nil maps
// and wrong value types so extraction code can fail with one message instead
// of panicking on a malformed response.

func mapAt(m map[string]any, key string) (map[string]any, bool) {
	child, ok := m[key].(map[string]any)
	return child, ok
}

func sliceAt(m map[string]any, key string) ([]any, bool) {
	child, ok := m[key].([]any)
	return child, ok
}

func stringAt(m map[string]any, key string) (string, bool) {
	child, ok := m[key].(string)
	return child, ok
}

// intAt returns 0 for absent or non-numeric values.
func intAt(m map[string]any, key string) int {
	if n, ok := m[key].(float64); ok {
		return int(n)
	}
	return 0
}
