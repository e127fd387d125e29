package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Kind            string `json:"kind"`
	EventBufferSize int    `json:"event_buffer_size"`
	StoreType       string `json:"store_type"`
	Documents       int    `json:"documents"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storeType := "unknown"
	documents := 0
	if s.store != nil {
		storeType = "store"
		// Try to get component type if the store implements introspection.Component
		if comp, ok := s.store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
		documents = s.store.Size()
	}

	return ServiceState{
		Kind:            s.kind,
		EventBufferSize: s.eventBufferSize,
		StoreType:       storeType,
		Documents:       documents,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
