// Package tokenstore tracks revoked JWT ids so logout invalidates a
// token before its exp. In-memory; swap for Redis or DB when sessions
// must survive restarts.
package tokenstore

import "sync"

type Revocations struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func New() *Revocations {
	return &Revocations{revoked: map[string]struct{}{}}
}

func (r *Revocations) Revoke(jti string) {
	if jti == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = struct{}{}
}

func (r *Revocations) IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[jti]
	return ok
}
