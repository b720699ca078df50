package llm

import (
	"strings"
	"sync"
)

// SwitchResult is the structured outcome of a model switch attempt.
type SwitchResult struct {
	OK      bool
	Code    string
	Message string
	Old     string
	New     string
}

// Factory instantiates a provider client for a model. Injected so the
// registry can be tested without network credentials.
type Factory func(provider Provider, model string) (Client, error)

// Registry owns the active model. Switching acquires the registry lock,
// validates the requested name against the supported set, probes
// instantiation, and only then commits; concurrent readers observe either
// the old or the fully-switched state, never a partial swap.
type Registry struct {
	mu        sync.RWMutex
	current   Client
	model     string
	factory   Factory
	supported map[string]Provider
	order     []string
}

// DefaultFactory builds real provider clients with the given API keys.
func DefaultFactory(openAIKey, anthropicKey string) Factory {
	return func(provider Provider, model string) (Client, error) {
		switch provider {
		case ProviderAnthropic:
			return NewAnthropicClient(anthropicKey)
		default:
			return NewOpenAIClient(openAIKey)
		}
	}
}

// NewRegistry creates a registry over the fixed supported model set and
// activates the default model. The returned registry is usable even when
// activation fails (Current returns nil until a successful switch).
func NewRegistry(factory Factory, defaultModel string) *Registry {
	r := &Registry{
		factory:   factory,
		supported: make(map[string]Provider),
	}
	for _, m := range (&OpenAIClient{}).Models() {
		r.supported[m] = ProviderOpenAI
		r.order = append(r.order, m)
	}
	for _, m := range (&AnthropicClient{}).Models() {
		r.supported[m] = ProviderAnthropic
		r.order = append(r.order, m)
	}

	if provider, ok := r.supported[defaultModel]; ok {
		if c, err := factory(provider, defaultModel); err == nil {
			r.current = c
			r.model = defaultModel
		}
	}
	return r
}

// Current returns the active client and model name. The client may be nil
// when no model has been successfully activated.
func (r *Registry) Current() (Client, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.model
}

// Models returns the supported model names in a stable order.
func (r *Registry) Models() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Switch validates and activates a model by name. Switching to the already
// active model is a no-op success. On any failure the active model is left
// unchanged.
func (r *Registry) Switch(name string) SwitchResult {
	n := strings.TrimSpace(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	provider, ok := r.supported[n]
	if !ok {
		return SwitchResult{OK: false, Code: "unsupported", Message: "模型不受支持", Old: r.model}
	}
	if n == r.model {
		return SwitchResult{OK: true, Code: "noop", Message: "已是当前模型", Old: r.model, New: r.model}
	}
	client, err := r.factory(provider, n)
	if err != nil {
		return SwitchResult{OK: false, Code: "init_error", Message: err.Error(), Old: r.model}
	}
	old := r.model
	r.current = client
	r.model = n
	return SwitchResult{OK: true, Code: "switched", Message: "切换成功", Old: old, New: n}
}
