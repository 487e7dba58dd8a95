package service

import (
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

// StoreSelector picks the store a request runs against. Sentinel identities
// whose token role matches their sentinel role get their demo session store;
// everybody else gets the durable store.
type StoreSelector struct {
	durable repository.Store
	demo    *repository.DemoStores
}

// NewStoreSelector constructs a selector. demo may be nil when demo mode is
// disabled.
func NewStoreSelector(durable repository.Store, demo *repository.DemoStores) *StoreSelector {
	return &StoreSelector{durable: durable, demo: demo}
}

// For returns the store for the caller.
func (s *StoreSelector) For(caller policy.Caller) repository.Store {
	if session, ok := s.demoSession(caller); ok {
		return s.demo.ForSession(session)
	}
	return s.durable
}

// IsDemo reports whether the caller is served by a demo store.
func (s *StoreSelector) IsDemo(caller policy.Caller) bool {
	_, ok := s.demoSession(caller)
	return ok
}

// Scope names the store a caller's writes land in.
func (s *StoreSelector) Scope(caller policy.Caller) string {
	if session, ok := s.demoSession(caller); ok {
		return repository.StoreKindDemo + ":" + session
	}
	return repository.StoreKindDurable
}

// Durable returns the durable store.
func (s *StoreSelector) Durable() repository.Store {
	return s.durable
}

// Demo returns the demo store factory, or nil when demo mode is disabled.
func (s *StoreSelector) Demo() *repository.DemoStores {
	return s.demo
}

func (s *StoreSelector) demoSession(caller policy.Caller) (string, bool) {
	if s.demo == nil || !caller.Authenticated {
		return "", false
	}
	role, ok := s.demo.IsSentinel(caller.ID)
	if !ok || role != caller.Role {
		return "", false
	}
	if caller.SessionID != "" {
		return caller.SessionID, true
	}
	return caller.ID, true
}
