package llm

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownModel = errors.New("model not registered")

// ModelRoute binds a caller-facing model id to a provider client and the
// provider-side deployment name.
type ModelRoute struct {
	Gateway    Gateway
	Deployment string
}

// Registry routes completion requests to the provider client registered for
// the requested model id. It implements Gateway itself so components depend
// on a single interface regardless of how many providers are configured.
type Registry struct {
	routes map[string]ModelRoute
}

func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]ModelRoute)}
}

func (r *Registry) Register(modelID string, route ModelRoute) {
	if route.Deployment == "" {
		route.Deployment = modelID
	}
	r.routes[modelID] = route
}

func (r *Registry) resolve(request CompletionRequest) (Gateway, CompletionRequest, error) {
	route, ok := r.routes[request.ModelID]
	if !ok {
		return nil, request, fmt.Errorf("%w: %s", ErrUnknownModel, request.ModelID)
	}
	if request.Deployment == "" {
		request.Deployment = route.Deployment
	}
	return route.Gateway, request, nil
}

func (r *Registry) Complete(ctx context.Context, request CompletionRequest) (*CompletionResponse, error) {
	gateway, request, err := r.resolve(request)
	if err != nil {
		return nil, err
	}
	return gateway.Complete(ctx, request)
}

func (r *Registry) CompleteWithRetry(ctx context.Context, request CompletionRequest) (*CompletionResponse, error) {
	gateway, request, err := r.resolve(request)
	if err != nil {
		return nil, err
	}
	return gateway.CompleteWithRetry(ctx, request)
}
