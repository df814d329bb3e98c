// Package lambda provides the Lambda transport of the travel policy engine:
// the agent action-group handler, the API Gateway router and
// environment-driven configuration.
package lambda

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/byteness/travelgate/travel"
)

var errUnknownFunction = errors.New("unknown function")

// Handler serves travel operations to Lambda events.
type Handler struct {
	// Config holds the collaborators. When nil it is loaded from the
	// environment on the first invocation.
	Config *Config

	validate *validator.Validate

	mu  sync.Mutex
	svc *travel.Service
}

// NewHandler creates a new handler.
// If cfg is nil, configuration will be loaded from environment on first request.
func NewHandler(cfg ...*Config) *Handler {
	h := &Handler{validate: newValidator()}
	if len(cfg) > 0 && cfg[0] != nil {
		h.Config = cfg[0]
	}
	return h
}

// service builds the Service once. A failed build is retried on the next
// invocation.
func (h *Handler) service(ctx context.Context) (*travel.Service, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.validate == nil {
		h.validate = newValidator()
	}
	if h.svc != nil {
		return h.svc, nil
	}
	if h.Config == nil {
		cfg, err := LoadConfigFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		h.Config = cfg
	}
	svc, err := h.Config.NewService()
	if err != nil {
		return nil, err
	}
	h.svc = svc
	return svc, nil
}

// flush blocks until notifications fired by this invocation are delivered.
// Lambda freezes the process after the handler returns.
func (h *Handler) flush() {
	if h.Config != nil && h.Config.notify != nil {
		h.Config.notify.Wait()
	}
}

func (h *Handler) log() *zap.Logger {
	if h.Config != nil && h.Config.Log != nil {
		return h.Config.Log
	}
	return zap.L()
}
