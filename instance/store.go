package instance

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Store is the thread-safe in-memory set of configured instances.
type Store struct {
	mu        sync.RWMutex
	instances []ServiceInstance
	nextID    atomic.Int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Save assigns an id if absent, drops any record with the same service name,
// and appends inst. The stored copy is returned.
func (s *Store) Save(inst ServiceInstance) ServiceInstance {
	if inst.ID == 0 {
		inst.ID = s.nextID.Add(1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.instances[:0]
	for _, existing := range s.instances {
		if !SameName(existing.ServiceName, inst.ServiceName) {
			kept = append(kept, existing)
		}
	}
	s.instances = append(kept, inst)
	return inst
}

// List returns a snapshot copy of every stored instance.
func (s *Store) List() []ServiceInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ServiceInstance, len(s.instances))
	copy(out, s.instances)
	return out
}

// FindByName looks up an instance by case-insensitive service name.
func (s *Store) FindByName(name string) (ServiceInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inst := range s.instances {
		if SameName(inst.ServiceName, name) {
			return inst, true
		}
	}
	return ServiceInstance{}, false
}

// FindByNameHostPort looks up an instance by service name, host and HTTP port.
// Name and host compare case-insensitively.
func (s *Store) FindByNameHostPort(name, host string, port int) (ServiceInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inst := range s.instances {
		if SameName(inst.ServiceName, name) &&
			strings.EqualFold(inst.HostName, host) &&
			inst.HTTPPort == port {
			return inst, true
		}
	}
	return ServiceInstance{}, false
}

// Len returns the number of stored instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

// Clear removes every instance. Ids keep increasing across clears.
func (s *Store) Clear() {
	s.mu.Lock()
	s.instances = nil
	s.mu.Unlock()
}
