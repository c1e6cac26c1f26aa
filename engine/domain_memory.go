package engine

import (
	"sync"
	"time"
)

type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers which engine last loaded each domain so later
// requests can skip straight to it. Entries expire after the TTL.
type DomainMemory struct {
	mu    sync.Mutex
	store map[string]domainEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewDomainMemory creates a DomainMemory. Expired entries are dropped lazily
// on lookup and on every Set.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		store: make(map[string]domainEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the remembered engine for domain, or "".
func (dm *DomainMemory) Get(domain string) string {
	if dm == nil {
		return ""
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	e, ok := dm.store[domain]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.store, domain)
		return ""
	}
	return e.engineName
}

// Set records the engine that succeeded for domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	now := dm.now()
	for d, e := range dm.store {
		if now.After(e.expiresAt) {
			delete(dm.store, d)
		}
	}
	dm.store[domain] = domainEntry{engineName: engineName, expiresAt: now.Add(dm.ttl)}
}

// Delete forgets domain.
func (dm *DomainMemory) Delete(domain string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	delete(dm.store, domain)
	dm.mu.Unlock()
}
