package asset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe set of known assets keyed by ID. The pool
// reader interns token metadata here so every Amount of one token shares a
// single *Asset.
type Registry struct {
	mu   sync.RWMutex
	byID map[ID]*Asset
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[ID]*Asset),
	}
}

// Register adds an asset to the registry.
// Panics if an asset with the same ID is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.ID()))
	}
	r.byID[a.ID()] = a
}

// Ensure registers a unless an asset with the same ID exists, and returns the
// registered instance. Token metadata loaders call this on every refresh.
func (r *Registry) Ensure(a *Asset) *Asset {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[a.ID()]; ok {
		return existing
	}
	r.byID[a.ID()] = a
	return a
}

// Get retrieves an asset by its ID.
func (r *Registry) Get(id ID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	return a, ok
}

// GetToken retrieves a token by chain and address.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Asset, bool) {
	if address == (common.Address{}) {
		return nil, false
	}
	return r.Get(TokenID(chainID, address))
}
