package service

import (
	"strings"
	"sync"
	"sync/atomic"

	"coursegate_backend/internal/config"
)

// ProductMatcher resolves a payment provider's free-text product name to at
// most one course slug. Injected so the matching strategy is swappable and
// testable on its own.
type ProductMatcher interface {
	Resolve(productName string) (slug string, ok bool)
	// Generation changes whenever the mapping table changes, so caches keyed
	// on resolutions can be invalidated wholesale.
	Generation() int64
}

// SubstringMatcher matches case-insensitively on substrings against an
// ordered mapping table; the first matching entry wins. Safe for concurrent
// use; Reload swaps the table on config hot-reload.
type SubstringMatcher struct {
	mu         sync.RWMutex
	entries    []config.ProductMapping
	generation atomic.Int64
}

func NewSubstringMatcher(mappings []config.ProductMapping) *SubstringMatcher {
	m := &SubstringMatcher{}
	m.Reload(mappings)
	return m
}

func (m *SubstringMatcher) Resolve(productName string) (string, bool) {
	name := strings.ToLower(productName)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.Match == "" {
			continue
		}
		if strings.Contains(name, strings.ToLower(e.Match)) {
			return e.Slug, true
		}
	}
	return "", false
}

func (m *SubstringMatcher) Reload(mappings []config.ProductMapping) {
	m.mu.Lock()
	m.entries = append([]config.ProductMapping(nil), mappings...)
	m.mu.Unlock()
	m.generation.Add(1)
}

func (m *SubstringMatcher) Generation() int64 {
	return m.generation.Load()
}
