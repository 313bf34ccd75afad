package routing

import "github.com/ai-gateway/chatstream-go/internal/provider"

// Model describes a registered provider and the model it serves.
type Model struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Router maps provider names to providers.
type Router struct {
	names     []string
	providers map[string]provider.Provider
}

func New() *Router {
	return &Router{
		providers: make(map[string]provider.Provider),
	}
}

// Register associates a name with a provider implementation.
func (r *Router) Register(name string, p provider.Provider) {
	if _, ok := r.providers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.providers[name] = p
}

// ProviderFor returns the provider registered under name, or nil.
func (r *Router) ProviderFor(name string) provider.Provider {
	return r.providers[name]
}

// Models lists registered providers in registration order.
func (r *Router) Models() []Model {
	models := make([]Model, 0, len(r.names))
	for _, n := range r.names {
		models = append(models, Model{Provider: n, Model: r.providers[n].Model()})
	}
	return models
}
