package asset

import (
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known tokens.
type Registry struct {
	byAddress map[common.Address]Token
	byName    map[string]Token // upper-cased name
	mu        sync.RWMutex
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[common.Address]Token),
		byName:    make(map[string]Token),
	}
}

// Register adds or replaces a token.
func (r *Registry) Register(t Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byAddress[t.Address] = t
	if t.Name != "" {
		r.byName[strings.ToUpper(t.Name)] = t
	}
}

// ByAddress looks a token up by contract address.
func (r *Registry) ByAddress(addr common.Address) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byAddress[addr]
	return t, ok
}

// ByName looks a token up by name, case-insensitively.
func (r *Registry) ByName(name string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[strings.ToUpper(name)]
	return t, ok
}

// NameFor returns the registered name for addr or its hex form.
func (r *Registry) NameFor(addr common.Address) string {
	if t, ok := r.ByAddress(addr); ok && t.Name != "" {
		return t.Name
	}
	return addr.Hex()
}

// Resolve fills in a token's name and decimals from the registry when the
// caller only knew its address.
func (r *Registry) Resolve(t Token) Token {
	known, ok := r.ByAddress(t.Address)
	if !ok {
		return t
	}
	if t.Name == "" {
		t.Name = known.Name
	}
	if t.Decimals == 0 {
		t.Decimals = known.Decimals
	}
	return t
}

// All returns all tokens sorted by address.
func (r *Registry) All() []Token {
	r.mu.RLock()
	out := make([]Token, 0, len(r.byAddress))
	for _, t := range r.byAddress {
		out = append(out, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, Token.Compare)
	return out
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}
