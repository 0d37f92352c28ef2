// Package service maps service-type names to the deterministic functions a
// provider executes and a requester re-runs to verify results.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"memoex/errors"
)

// Func computes a service result from an input. Implementations must be
// deterministic: the requester recomputes the same function locally and
// compares byte-for-byte.
type Func func(input string) (string, error)

// Registry resolves service types by name. Registration happens at role
// startup; execution is safe for concurrent readers afterwards.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Func)}
}

// DefaultRegistry returns a registry with the built-in services registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("hash", HashService)
	return r
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[name] = fn
}

// Execute runs the named service. An unregistered name fails with
// ErrCodeUnknownService; this is a configuration error, not a retryable one.
func (r *Registry) Execute(name, input string) (string, error) {
	r.mu.RLock()
	fn, ok := r.services[name]
	r.mu.RUnlock()
	if !ok {
		return "", errors.Errorf(errors.ErrCodeUnknownService, "service type %q is not registered", name)
	}
	return fn(input)
}

// Names lists the registered service types in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HashService computes the lowercase hex SHA-256 digest of the input.
func HashService(input string) (string, error) {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:]), nil
}
